package repository

import (
	"context"
	"fmt"
	"time"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const anniversaryColumns = `a.id, a.title, a.anniversary_date, a.description, a.year_number, a.cover_photo,
	a.created_by, a.created_at, u.display_name`

// photoCountColumn counts linked photos owned by the set bound to $1
const photoCountColumn = `(SELECT COUNT(*) FROM photos p WHERE p.anniversary_id = a.id AND p.user_id = ANY($1))`

// AnniversaryRepository handles database operations for anniversaries
type AnniversaryRepository struct {
	db *pgxpool.Pool
}

// NewAnniversaryRepository creates a new anniversary repository
func NewAnniversaryRepository(db *pgxpool.Pool) *AnniversaryRepository {
	return &AnniversaryRepository{db: db}
}

func anniversaryTargets(a *models.Anniversary) []any {
	return []any{
		&a.ID, &a.Title, &a.AnniversaryDate, &a.Description, &a.YearNumber, &a.CoverPhoto,
		&a.CreatedBy, &a.CreatedAt, &a.CreatedByName,
	}
}

// Create inserts an anniversary and fills in its ID and creation time
func (r *AnniversaryRepository) Create(ctx context.Context, a *models.Anniversary) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO anniversaries (title, anniversary_date, description, year_number, cover_photo, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, a.Title, a.AnniversaryDate, a.Description, a.YearNumber, a.CoverPhoto, a.CreatedBy).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create anniversary: %w", err)
	}
	return nil
}

// GetByID retrieves an anniversary with its creator
func (r *AnniversaryRepository) GetByID(ctx context.Context, id int64) (*models.Anniversary, error) {
	var a models.Anniversary
	err := r.db.QueryRow(ctx, `
		SELECT `+anniversaryColumns+`
		FROM anniversaries a
		JOIN users u ON u.id = a.created_by
		WHERE a.id = $1
	`, id).Scan(anniversaryTargets(&a)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get anniversary %d: %w", id, notFound(err))
	}
	return &a, nil
}

// List returns every anniversary, newest first, with the number of linked
// photos owned by owners
func (r *AnniversaryRepository) List(ctx context.Context, owners models.VisibilitySet) ([]*models.Anniversary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+anniversaryColumns+`, `+photoCountColumn+`
		FROM anniversaries a
		JOIN users u ON u.id = a.created_by
		ORDER BY a.anniversary_date DESC
	`, []int64(owners))
	if err != nil {
		return nil, fmt.Errorf("failed to list anniversaries: %w", err)
	}
	anniversaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Anniversary, error) {
		var a models.Anniversary
		err := row.Scan(append(anniversaryTargets(&a), &a.PhotoCount)...)
		return &a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan anniversaries: %w", err)
	}
	return anniversaries, nil
}

// Nearest returns the anniversary closest to today in either direction with
// its signed day distance
func (r *AnniversaryRepository) Nearest(ctx context.Context, owners models.VisibilitySet, today time.Time) (*models.Anniversary, error) {
	var a models.Anniversary
	var daysUntil int
	err := r.db.QueryRow(ctx, `
		SELECT `+anniversaryColumns+`, `+photoCountColumn+`, (a.anniversary_date - $2::date)
		FROM anniversaries a
		JOIN users u ON u.id = a.created_by
		ORDER BY ABS(a.anniversary_date - $2::date) ASC, a.anniversary_date DESC
		LIMIT 1
	`, []int64(owners), today).Scan(append(anniversaryTargets(&a), &a.PhotoCount, &daysUntil)...)
	if err != nil {
		return nil, fmt.Errorf("failed to get nearest anniversary: %w", notFound(err))
	}
	a.DaysUntil = &daysUntil
	return &a, nil
}

// Update applies the non-nil fields of patch
func (r *AnniversaryRepository) Update(ctx context.Context, id int64, patch models.AnniversaryPatch) error {
	update := psql.Update("anniversaries").Where("id = ?", id)
	if patch.Title != nil {
		update = update.Set("title", *patch.Title)
	}
	if patch.AnniversaryDate != nil {
		update = update.Set("anniversary_date", *patch.AnniversaryDate)
	}
	if patch.Description != nil {
		update = update.Set("description", *patch.Description)
	}
	if patch.YearNumber != nil {
		update = update.Set("year_number", *patch.YearNumber)
	}
	if patch.CoverPhoto != nil {
		update = update.Set("cover_photo", *patch.CoverPhoto)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build anniversary update: %w", err)
	}
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update anniversary: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("anniversary %d: %w", id, ErrNotFound)
	}
	return nil
}

// Delete unlinks the anniversary's photos and removes it in one transaction.
// The photos themselves are kept.
func (r *AnniversaryRepository) Delete(ctx context.Context, id int64) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE photos SET anniversary_id = NULL WHERE anniversary_id = $1`, id); err != nil {
			return err
		}
		result, err := tx.Exec(ctx, `DELETE FROM anniversaries WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete anniversary %d: %w", id, err)
	}
	return nil
}
