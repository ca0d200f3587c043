package repository

import (
	"context"
	"fmt"
	"time"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memoryColumns = `m.id, m.user_id, m.title, m.description, m.memory_date, m.mood, m.is_milestone, m.created_at, u.display_name, u.avatar`

// MemoryRepository handles database operations for memories
type MemoryRepository struct {
	db *pgxpool.Pool
}

// NewMemoryRepository creates a new memory repository
func NewMemoryRepository(db *pgxpool.Pool) *MemoryRepository {
	return &MemoryRepository{db: db}
}

func scanMemory(row pgx.CollectableRow) (*models.Memory, error) {
	var m models.Memory
	err := row.Scan(
		&m.ID, &m.UserID, &m.Title, &m.Description, &m.MemoryDate, &m.Mood,
		&m.IsMilestone, &m.CreatedAt, &m.CreatorName, &m.CreatorAvatar,
	)
	return &m, err
}

func linkPhotos(ctx context.Context, tx pgx.Tx, memoryID int64, photoIDs []int64) error {
	if len(photoIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO memory_photos (memory_id, photo_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING
	`, memoryID, photoIDs)
	return err
}

// Create inserts a memory and links photoIDs to it in one transaction
func (r *MemoryRepository) Create(ctx context.Context, memory *models.Memory, photoIDs []int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO memories (user_id, title, description, memory_date, mood, is_milestone)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`, memory.UserID, memory.Title, memory.Description, memory.MemoryDate, memory.Mood, memory.IsMilestone,
		).Scan(&memory.ID, &memory.CreatedAt)
		if err != nil {
			return err
		}
		return linkPhotos(ctx, tx, memory.ID, photoIDs)
	})
	if err != nil {
		return fmt.Errorf("failed to create memory: %w", err)
	}
	return nil
}

// GetByID retrieves a memory with its creator
func (r *MemoryRepository) GetByID(ctx context.Context, id int64) (*models.Memory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+memoryColumns+`
		FROM memories m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	memory, err := pgx.CollectExactlyOneRow(rows, scanMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory %d: %w", id, notFound(err))
	}
	return memory, nil
}

// Photos returns the photos linked to each of memoryIDs
func (r *MemoryRepository) Photos(ctx context.Context, memoryIDs []int64) (map[int64][]*models.MemoryPhoto, error) {
	rows, err := r.db.Query(ctx, `
		SELECT mp.memory_id, p.id, p.file_path, p.thumbnail_path, p.caption
		FROM memory_photos mp
		JOIN photos p ON p.id = mp.photo_id
		WHERE mp.memory_id = ANY($1)
		ORDER BY p.photo_date ASC NULLS LAST, p.id ASC
	`, memoryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get memory photos: %w", err)
	}
	defer rows.Close()

	linked := make(map[int64][]*models.MemoryPhoto, len(memoryIDs))
	for rows.Next() {
		var memoryID int64
		var p models.MemoryPhoto
		if err := rows.Scan(&memoryID, &p.ID, &p.FilePath, &p.ThumbnailPath, &p.Caption); err != nil {
			return nil, fmt.Errorf("failed to scan memory photo: %w", err)
		}
		linked[memoryID] = append(linked[memoryID], &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memory photos: %w", err)
	}
	return linked, nil
}

// List returns one page of memories owned by owners, newest first
func (r *MemoryRepository) List(ctx context.Context, owners models.VisibilitySet, page models.PageRequest) ([]*models.Memory, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM memories WHERE user_id = ANY($1)`, []int64(owners),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count memories: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+memoryColumns+`
		FROM memories m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = ANY($1)
		ORDER BY m.memory_date DESC, m.id DESC
		LIMIT $2 OFFSET $3
	`, []int64(owners), page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memories: %w", err)
	}
	memories, err := pgx.CollectRows(rows, scanMemory)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan memories: %w", err)
	}
	return memories, total, nil
}

// OnThisDay returns memories dated month/day in a year before beforeYear
func (r *MemoryRepository) OnThisDay(ctx context.Context, owners models.VisibilitySet, month, day, beforeYear int) ([]*models.Memory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+memoryColumns+`
		FROM memories m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = ANY($1)
		  AND EXTRACT(MONTH FROM m.memory_date)::int = $2
		  AND EXTRACT(DAY FROM m.memory_date)::int = $3
		  AND EXTRACT(YEAR FROM m.memory_date)::int < $4
		ORDER BY m.memory_date DESC
	`, []int64(owners), month, day, beforeYear)
	if err != nil {
		return nil, fmt.Errorf("failed to get on-this-day memories: %w", err)
	}
	memories, err := pgx.CollectRows(rows, scanMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to scan memories: %w", err)
	}
	return memories, nil
}

// Between returns memories owned by owners dated within [from, to], oldest first
func (r *MemoryRepository) Between(ctx context.Context, owners models.VisibilitySet, from, to time.Time) ([]*models.Memory, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+memoryColumns+`
		FROM memories m
		JOIN users u ON u.id = m.user_id
		WHERE m.user_id = ANY($1) AND m.memory_date BETWEEN $2::date AND $3::date
		ORDER BY m.memory_date ASC
	`, []int64(owners), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get memories in range: %w", err)
	}
	memories, err := pgx.CollectRows(rows, scanMemory)
	if err != nil {
		return nil, fmt.Errorf("failed to scan memories: %w", err)
	}
	return memories, nil
}

// Update applies the non-nil fields of patch and, when patch.PhotoIDs is set,
// replaces the linked photos, all in one transaction
func (r *MemoryRepository) Update(ctx context.Context, id int64, patch models.MemoryPatch) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if !patch.FieldsEmpty() {
			update := psql.Update("memories").Where("id = ?", id)
			if patch.Title != nil {
				update = update.Set("title", *patch.Title)
			}
			if patch.Description != nil {
				update = update.Set("description", *patch.Description)
			}
			if patch.MemoryDate != nil {
				update = update.Set("memory_date", *patch.MemoryDate)
			}
			if patch.Mood != nil {
				update = update.Set("mood", *patch.Mood)
			}
			if patch.IsMilestone != nil {
				update = update.Set("is_milestone", *patch.IsMilestone)
			}

			query, args, err := update.ToSql()
			if err != nil {
				return err
			}
			result, err := tx.Exec(ctx, query, args...)
			if err != nil {
				return err
			}
			if result.RowsAffected() == 0 {
				return ErrNotFound
			}
		}

		if patch.PhotoIDs != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM memory_photos WHERE memory_id = $1`, id); err != nil {
				return err
			}
			return linkPhotos(ctx, tx, id, *patch.PhotoIDs)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update memory %d: %w", id, err)
	}
	return nil
}

// Delete removes a memory and its photo links
func (r *MemoryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM memories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("memory %d: %w", id, ErrNotFound)
	}
	return nil
}

// Timeline merges memories, milestones and anniversaries created by owners,
// newest first
func (r *MemoryRepository) Timeline(ctx context.Context, owners models.VisibilitySet) ([]*models.TimelineEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT 'memory', m.id, m.title, m.description, m.memory_date AS date, m.mood, NULL::text
		FROM memories m WHERE m.user_id = ANY($1)
		UNION ALL
		SELECT 'milestone', ml.id, ml.title, ml.description, ml.milestone_date, ml.category, ml.icon
		FROM milestones ml WHERE ml.created_by = ANY($1)
		UNION ALL
		SELECT 'anniversary', a.id, a.title, a.description, a.anniversary_date, 'Year ' || a.year_number, a.cover_photo
		FROM anniversaries a WHERE a.created_by = ANY($1)
		ORDER BY date DESC
	`, []int64(owners))
	if err != nil {
		return nil, fmt.Errorf("failed to get timeline: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.TimelineEntry, error) {
		var e models.TimelineEntry
		err := row.Scan(&e.Type, &e.ID, &e.Title, &e.Description, &e.Date, &e.Mood, &e.FilePath)
		return &e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan timeline: %w", err)
	}
	return entries, nil
}
