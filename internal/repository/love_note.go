package repository

import (
	"context"
	"fmt"
	"time"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const loveNoteColumns = `n.id, n.from_user_id, n.to_user_id, n.content, n.note_type, n.background_color,
	n.deliver_at, n.is_opened, n.opened_at, n.created_at, f.display_name, f.avatar, t.display_name`

const loveNoteJoins = `
	FROM love_notes n
	JOIN users f ON f.id = n.from_user_id
	JOIN users t ON t.id = n.to_user_id`

// LoveNoteRepository handles database operations for love notes
type LoveNoteRepository struct {
	db *pgxpool.Pool
}

// NewLoveNoteRepository creates a new love note repository
func NewLoveNoteRepository(db *pgxpool.Pool) *LoveNoteRepository {
	return &LoveNoteRepository{db: db}
}

func scanLoveNote(row pgx.CollectableRow) (*models.LoveNote, error) {
	var n models.LoveNote
	err := row.Scan(
		&n.ID, &n.FromUserID, &n.ToUserID, &n.Content, &n.NoteType, &n.BackgroundColor,
		&n.DeliverAt, &n.IsOpened, &n.OpenedAt, &n.CreatedAt, &n.FromName, &n.FromAvatar, &n.ToName,
	)
	return &n, err
}

// Create inserts a love note and fills in its ID and creation time
func (r *LoveNoteRepository) Create(ctx context.Context, n *models.LoveNote) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO love_notes (from_user_id, to_user_id, content, note_type, background_color, deliver_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, n.FromUserID, n.ToUserID, n.Content, n.NoteType, n.BackgroundColor, n.DeliverAt).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create love note: %w", err)
	}
	return nil
}

// GetByID retrieves a love note with sender and recipient names
func (r *LoveNoteRepository) GetByID(ctx context.Context, id int64) (*models.LoveNote, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loveNoteColumns+loveNoteJoins+` WHERE n.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get love note: %w", err)
	}
	n, err := pgx.CollectExactlyOneRow(rows, scanLoveNote)
	if err != nil {
		return nil, fmt.Errorf("failed to get love note %d: %w", id, notFound(err))
	}
	return n, nil
}

// Received returns the notes addressed to userID that are due at now
func (r *LoveNoteRepository) Received(ctx context.Context, userID int64, now time.Time) ([]*models.LoveNote, error) {
	return r.list(ctx, `WHERE n.to_user_id = $1 AND n.deliver_at <= $2`, userID, now)
}

// Sent returns every note written by userID, scheduled ones included
func (r *LoveNoteRepository) Sent(ctx context.Context, userID int64) ([]*models.LoveNote, error) {
	return r.list(ctx, `WHERE n.from_user_id = $1`, userID)
}

func (r *LoveNoteRepository) list(ctx context.Context, where string, args ...any) ([]*models.LoveNote, error) {
	rows, err := r.db.Query(ctx, `SELECT `+loveNoteColumns+loveNoteJoins+` `+where+` ORDER BY n.created_at DESC, n.id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list love notes: %w", err)
	}
	notes, err := pgx.CollectRows(rows, scanLoveNote)
	if err != nil {
		return nil, fmt.Errorf("failed to scan love notes: %w", err)
	}
	return notes, nil
}

// MarkOpened flips a note to opened. Opening twice keeps the first opened_at.
func (r *LoveNoteRepository) MarkOpened(ctx context.Context, id int64, now time.Time) error {
	result, err := r.db.Exec(ctx,
		`UPDATE love_notes SET is_opened = TRUE, opened_at = COALESCE(opened_at, $2) WHERE id = $1`,
		id, now,
	)
	if err != nil {
		return fmt.Errorf("failed to open love note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("love note %d: %w", id, ErrNotFound)
	}
	return nil
}

// UnopenedCount counts due notes addressed to userID that are still sealed
func (r *LoveNoteRepository) UnopenedCount(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM love_notes WHERE to_user_id = $1 AND NOT is_opened AND deliver_at <= $2`,
		userID, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unopened love notes: %w", err)
	}
	return count, nil
}
