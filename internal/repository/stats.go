package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// MonthBuckets counts photos per calendar month, newest month first
func (r *PhotoRepository) MonthBuckets(ctx context.Context, owners models.VisibilitySet) ([]*models.MonthBucket, error) {
	query := `
		SELECT to_char(photo_date, 'YYYY-MM') AS month_year,
		       to_char(photo_date, 'FMMonth YYYY') AS month_label,
		       COUNT(*)
		FROM photos
		WHERE user_id = ANY($1) AND photo_date IS NOT NULL
		GROUP BY month_year, month_label
		ORDER BY month_year DESC
	`
	rows, err := r.db.Query(ctx, query, []int64(owners))
	if err != nil {
		return nil, fmt.Errorf("failed to group photos by month: %w", err)
	}
	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MonthBucket, error) {
		var b models.MonthBucket
		err := row.Scan(&b.MonthYear, &b.MonthLabel, &b.Count)
		return &b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan month buckets: %w", err)
	}
	return buckets, nil
}

// YearBuckets summarizes photos per year, newest year first
func (r *PhotoRepository) YearBuckets(ctx context.Context, owners models.VisibilitySet) ([]*models.YearBucket, error) {
	query := `
		SELECT EXTRACT(YEAR FROM photo_date)::int AS year,
		       COUNT(*),
		       MIN(photo_date),
		       MAX(photo_date)
		FROM photos
		WHERE user_id = ANY($1) AND photo_date IS NOT NULL
		GROUP BY year
		ORDER BY year DESC
	`
	rows, err := r.db.Query(ctx, query, []int64(owners))
	if err != nil {
		return nil, fmt.Errorf("failed to group photos by year: %w", err)
	}
	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.YearBucket, error) {
		var b models.YearBucket
		err := row.Scan(&b.Year, &b.Count, &b.FirstPhoto, &b.LastPhoto)
		return &b, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan year buckets: %w", err)
	}
	return buckets, nil
}

// AnniversaryAlbums lists every anniversary with the number of linked photos
// owned by owners and the first such photo as cover
func (r *PhotoRepository) AnniversaryAlbums(ctx context.Context, owners models.VisibilitySet) ([]*models.AnniversaryAlbum, error) {
	query := `
		SELECT a.id, a.title, a.anniversary_date, a.year_number,
		       COUNT(p.id) AS photo_count,
		       (SELECT cp.file_path FROM photos cp
		        WHERE cp.anniversary_id = a.id AND cp.user_id = ANY($1)
		        ORDER BY cp.photo_date ASC NULLS LAST, cp.id ASC
		        LIMIT 1) AS cover_photo
		FROM anniversaries a
		LEFT JOIN photos p ON p.anniversary_id = a.id AND p.user_id = ANY($1)
		GROUP BY a.id
		ORDER BY a.anniversary_date DESC
	`
	rows, err := r.db.Query(ctx, query, []int64(owners))
	if err != nil {
		return nil, fmt.Errorf("failed to get anniversary albums: %w", err)
	}
	albums, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.AnniversaryAlbum, error) {
		var a models.AnniversaryAlbum
		err := row.Scan(&a.ID, &a.Title, &a.AnniversaryDate, &a.YearNumber, &a.PhotoCount, &a.CoverPhoto)
		return &a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan anniversary albums: %w", err)
	}
	return albums, nil
}

// Stats counts the content shared by owners
func (r *PhotoRepository) Stats(ctx context.Context, owners models.VisibilitySet) (*models.Stats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM photos WHERE user_id = ANY($1)),
			(SELECT COUNT(*) FROM photos WHERE user_id = ANY($1) AND is_favorite),
			(SELECT COUNT(*) FROM memories WHERE user_id = ANY($1)),
			(SELECT COUNT(*) FROM messages WHERE sender_id = ANY($1) OR receiver_id = ANY($1))
	`
	var stats models.Stats
	err := r.db.QueryRow(ctx, query, []int64(owners)).Scan(
		&stats.TotalPhotos, &stats.Favorites, &stats.Memories, &stats.Messages,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return &stats, nil
}
