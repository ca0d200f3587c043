package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivityRepository appends to the activity log
type ActivityRepository struct {
	db *pgxpool.Pool
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends one activity row
func (r *ActivityRepository) Log(ctx context.Context, a *models.Activity) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO activity_log (user_id, activity_type, reference_id, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, a.UserID, a.ActivityType, a.ReferenceID, a.Description).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}
