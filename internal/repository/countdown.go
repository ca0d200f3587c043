package repository

import (
	"context"
	"fmt"
	"time"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const countdownColumns = `c.id, c.title, c.target_date, c.description, c.icon, c.created_by,
	c.is_recurring, c.recurrence_type, c.created_at, u.display_name`

// CountdownRepository handles database operations for countdowns
type CountdownRepository struct {
	db *pgxpool.Pool
}

// NewCountdownRepository creates a new countdown repository
func NewCountdownRepository(db *pgxpool.Pool) *CountdownRepository {
	return &CountdownRepository{db: db}
}

func scanCountdown(row pgx.CollectableRow) (*models.Countdown, error) {
	var c models.Countdown
	err := row.Scan(
		&c.ID, &c.Title, &c.TargetDate, &c.Description, &c.Icon, &c.CreatedBy,
		&c.IsRecurring, &c.RecurrenceType, &c.CreatedAt, &c.CreatedByName,
	)
	return &c, err
}

// Create inserts a countdown and fills in its ID and creation time
func (r *CountdownRepository) Create(ctx context.Context, c *models.Countdown) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO countdowns (title, target_date, description, icon, created_by, is_recurring, recurrence_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, c.Title, c.TargetDate, c.Description, c.Icon, c.CreatedBy, c.IsRecurring, c.RecurrenceType).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create countdown: %w", err)
	}
	return nil
}

// GetByID retrieves a countdown by ID
func (r *CountdownRepository) GetByID(ctx context.Context, id int64) (*models.Countdown, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+countdownColumns+`
		FROM countdowns c
		JOIN users u ON u.id = c.created_by
		WHERE c.id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get countdown: %w", err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCountdown)
	if err != nil {
		return nil, fmt.Errorf("failed to get countdown %d: %w", id, notFound(err))
	}
	return c, nil
}

// Upcoming returns countdowns created by owners whose target is after now,
// soonest first
func (r *CountdownRepository) Upcoming(ctx context.Context, owners models.VisibilitySet, now time.Time) ([]*models.Countdown, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+countdownColumns+`
		FROM countdowns c
		JOIN users u ON u.id = c.created_by
		WHERE c.created_by = ANY($1) AND c.target_date > $2
		ORDER BY c.target_date ASC
	`, []int64(owners), now)
	if err != nil {
		return nil, fmt.Errorf("failed to list countdowns: %w", err)
	}
	countdowns, err := pgx.CollectRows(rows, scanCountdown)
	if err != nil {
		return nil, fmt.Errorf("failed to scan countdowns: %w", err)
	}
	return countdowns, nil
}

// Delete removes a countdown
func (r *CountdownRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM countdowns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete countdown: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("countdown %d: %w", id, ErrNotFound)
	}
	return nil
}
