package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const milestoneColumns = `id, title, description, milestone_date, icon, category, created_by, created_at`

// MilestoneRepository handles database operations for milestones
type MilestoneRepository struct {
	db *pgxpool.Pool
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db *pgxpool.Pool) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

func scanMilestone(row pgx.CollectableRow) (*models.Milestone, error) {
	var m models.Milestone
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.MilestoneDate, &m.Icon, &m.Category, &m.CreatedBy, &m.CreatedAt)
	return &m, err
}

// Create inserts a milestone and fills in its ID and creation time
func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO milestones (title, description, milestone_date, icon, category, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, m.Title, m.Description, m.MilestoneDate, m.Icon, m.Category, m.CreatedBy).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create milestone: %w", err)
	}
	return nil
}

// GetByID retrieves a milestone by ID
func (r *MilestoneRepository) GetByID(ctx context.Context, id int64) (*models.Milestone, error) {
	rows, err := r.db.Query(ctx, `SELECT `+milestoneColumns+` FROM milestones WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMilestone)
	if err != nil {
		return nil, fmt.Errorf("failed to get milestone %d: %w", id, notFound(err))
	}
	return m, nil
}

// List returns milestones created by owners, newest first
func (r *MilestoneRepository) List(ctx context.Context, owners models.VisibilitySet) ([]*models.Milestone, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+milestoneColumns+`
		FROM milestones
		WHERE created_by = ANY($1)
		ORDER BY milestone_date DESC
	`, []int64(owners))
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	milestones, err := pgx.CollectRows(rows, scanMilestone)
	if err != nil {
		return nil, fmt.Errorf("failed to scan milestones: %w", err)
	}
	return milestones, nil
}

// Delete removes a milestone
func (r *MilestoneRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete milestone: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("milestone %d: %w", id, ErrNotFound)
	}
	return nil
}
