package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var photoColumns = []string{
	"p.id", "p.user_id", "p.anniversary_id", "p.filename", "p.original_name", "p.file_path",
	"p.thumbnail_path", "p.caption", "p.location", "p.photo_date", "p.tags", "p.width",
	"p.height", "p.file_size", "p.media_type", "p.is_favorite", "p.created_at",
}

// detailColumns follow photoColumns in listing and single reads
var detailColumns = []string{
	"u.display_name", "u.avatar",
	"(SELECT COUNT(*) FROM photo_reactions pr WHERE pr.photo_id = p.id) AS reaction_count",
	"(SELECT COUNT(*) FROM photo_comments pc WHERE pc.photo_id = p.id) AS comment_count",
}

const myReactionColumn = "(SELECT reaction_type FROM photo_reactions mr WHERE mr.photo_id = p.id AND mr.user_id = ?) AS my_reaction"

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func photoTargets(p *models.Photo) []any {
	return []any{
		&p.ID, &p.UserID, &p.AnniversaryID, &p.Filename, &p.OriginalName, &p.FilePath,
		&p.ThumbnailPath, &p.Caption, &p.Location, &p.PhotoDate, &p.Tags, &p.Width,
		&p.Height, &p.FileSize, &p.MediaType, &p.IsFavorite, &p.CreatedAt,
	}
}

func detailTargets(p *models.Photo) []any {
	return append(photoTargets(p),
		&p.UploaderName, &p.UploaderAvatar, &p.ReactionCount, &p.CommentCount, &p.MyReaction,
	)
}

func collectPhotos(rows pgx.Rows, targets func(*models.Photo) []any) ([]*models.Photo, error) {
	defer rows.Close()

	photos := []*models.Photo{}
	for rows.Next() {
		var photo models.Photo
		if err := rows.Scan(targets(&photo)...); err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// Create inserts a photo and fills in its ID and creation time
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (user_id, anniversary_id, filename, original_name, file_path, thumbnail_path,
			caption, location, photo_date, tags, width, height, file_size, media_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, is_favorite, created_at
	`
	err := r.db.QueryRow(ctx, query,
		photo.UserID, photo.AnniversaryID, photo.Filename, photo.OriginalName, photo.FilePath,
		photo.ThumbnailPath, photo.Caption, photo.Location, photo.PhotoDate, photo.Tags,
		photo.Width, photo.Height, photo.FileSize, photo.MediaType,
	).Scan(&photo.ID, &photo.IsFavorite, &photo.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// GetByID retrieves a photo with its uploader, counters and anniversary title.
// viewerID selects my_reaction.
func (r *PhotoRepository) GetByID(ctx context.Context, id, viewerID int64) (*models.Photo, error) {
	query, args, err := psql.Select(photoColumns...).
		Columns(detailColumns...).
		Column(myReactionColumn, viewerID).
		Column("a.title").
		From("photos p").
		Join("users u ON u.id = p.user_id").
		LeftJoin("anniversaries a ON a.id = p.anniversary_id").
		Where("p.id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build photo query: %w", err)
	}

	var photo models.Photo
	targets := append(detailTargets(&photo), &photo.AnniversaryTitle)
	if err := r.db.QueryRow(ctx, query, args...).Scan(targets...); err != nil {
		return nil, fmt.Errorf("failed to get photo %d: %w", id, notFound(err))
	}
	return &photo, nil
}

// List returns one page of photos owned by owners, newest photo date first
func (r *PhotoRepository) List(
	ctx context.Context,
	owners models.VisibilitySet,
	viewerID int64,
	filter models.PhotoFilter,
	page models.PageRequest,
) ([]*models.Photo, int64, error) {
	where := psql.Select().From("photos p").Where("p.user_id = ANY(?)", []int64(owners))
	if filter.AnniversaryID != nil {
		where = where.Where("p.anniversary_id = ?", *filter.AnniversaryID)
	}
	if filter.Year != nil {
		where = where.Where("EXTRACT(YEAR FROM p.photo_date)::int = ?", *filter.Year)
	}
	if filter.Month != nil {
		where = where.Where("EXTRACT(MONTH FROM p.photo_date)::int = ?", *filter.Month)
	}

	countQuery, countArgs, err := where.Column("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build photo count: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count photos: %w", err)
	}

	query, args, err := where.Columns(photoColumns...).
		Columns(detailColumns...).
		Column(myReactionColumn, viewerID).
		Join("users u ON u.id = p.user_id").
		OrderBy("p.photo_date DESC NULLS LAST", "p.created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build photo list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list photos: %w", err)
	}
	photos, err := collectPhotos(rows, detailTargets)
	if err != nil {
		return nil, 0, err
	}
	return photos, total, nil
}

// Favorites returns every favorite photo owned by owners
func (r *PhotoRepository) Favorites(ctx context.Context, owners models.VisibilitySet, viewerID int64) ([]*models.Photo, error) {
	query, args, err := psql.Select(photoColumns...).
		Columns(detailColumns...).
		Column(myReactionColumn, viewerID).
		From("photos p").
		Join("users u ON u.id = p.user_id").
		Where("p.user_id = ANY(?) AND p.is_favorite", []int64(owners)).
		OrderBy("p.photo_date DESC NULLS LAST", "p.created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build favorites query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	return collectPhotos(rows, detailTargets)
}

// OnThisDay returns photos taken on month/day in a year before beforeYear
func (r *PhotoRepository) OnThisDay(ctx context.Context, owners models.VisibilitySet, month, day, beforeYear int) ([]*models.Photo, error) {
	query, args, err := psql.Select(photoColumns...).
		Columns("u.display_name", "u.avatar").
		From("photos p").
		Join("users u ON u.id = p.user_id").
		Where("p.user_id = ANY(?)", []int64(owners)).
		Where("EXTRACT(MONTH FROM p.photo_date)::int = ?", month).
		Where("EXTRACT(DAY FROM p.photo_date)::int = ?", day).
		Where("EXTRACT(YEAR FROM p.photo_date)::int < ?", beforeYear).
		OrderBy("p.photo_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build on-this-day query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get on-this-day photos: %w", err)
	}
	return collectPhotos(rows, func(p *models.Photo) []any {
		return append(photoTargets(p), &p.UploaderName, &p.UploaderAvatar)
	})
}

// ForAnniversary returns up to limit photos linked to an anniversary and
// owned by owners, oldest first
func (r *PhotoRepository) ForAnniversary(ctx context.Context, anniversaryID int64, owners models.VisibilitySet, limit int) ([]*models.Photo, error) {
	query, args, err := psql.Select(photoColumns...).
		From("photos p").
		Where("p.anniversary_id = ? AND p.user_id = ANY(?)", anniversaryID, []int64(owners)).
		OrderBy("p.photo_date ASC NULLS LAST", "p.id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build anniversary photos query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get anniversary photos: %w", err)
	}
	return collectPhotos(rows, photoTargets)
}

// CountForAnniversary counts photos linked to an anniversary and owned by owners
func (r *PhotoRepository) CountForAnniversary(ctx context.Context, anniversaryID int64, owners models.VisibilitySet) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM photos WHERE anniversary_id = $1 AND user_id = ANY($2)`,
		anniversaryID, []int64(owners),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count anniversary photos: %w", err)
	}
	return count, nil
}

// VisibleIDs returns the subset of ids owned by owners
func (r *PhotoRepository) VisibleIDs(ctx context.Context, ids []int64, owners models.VisibilitySet) ([]int64, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id FROM photos WHERE id = ANY($1) AND user_id = ANY($2)`,
		ids, []int64(owners),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to check photo visibility: %w", err)
	}
	visible, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan photo ids: %w", err)
	}
	return visible, nil
}

// Update applies the non-nil fields of patch
func (r *PhotoRepository) Update(ctx context.Context, id int64, patch models.PhotoPatch) error {
	update := psql.Update("photos").Where("id = ?", id)
	if patch.Caption != nil {
		update = update.Set("caption", *patch.Caption)
	}
	if patch.Location != nil {
		update = update.Set("location", *patch.Location)
	}
	if patch.PhotoDate != nil {
		update = update.Set("photo_date", *patch.PhotoDate)
	}
	if patch.AnniversaryID != nil {
		update = update.Set("anniversary_id", *patch.AnniversaryID)
	}
	if patch.Tags != nil {
		update = update.Set("tags", *patch.Tags)
	}

	query, args, err := update.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build photo update: %w", err)
	}
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo %d: %w", id, ErrNotFound)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value
func (r *PhotoRepository) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	var favorite bool
	err := r.db.QueryRow(ctx,
		`UPDATE photos SET is_favorite = NOT is_favorite WHERE id = $1 RETURNING is_favorite`, id,
	).Scan(&favorite)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite on photo %d: %w", id, notFound(err))
	}
	return favorite, nil
}

// Delete removes a photo. Reactions, comments and memory links cascade.
func (r *PhotoRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo %d: %w", id, ErrNotFound)
	}
	return nil
}
