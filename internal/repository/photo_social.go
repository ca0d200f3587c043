package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// Reactions returns every reaction on a photo
func (r *PhotoRepository) Reactions(ctx context.Context, photoID int64) ([]*models.Reaction, error) {
	query := `
		SELECT pr.id, pr.photo_id, pr.user_id, pr.reaction_type, pr.created_at, u.display_name, u.avatar
		FROM photo_reactions pr
		JOIN users u ON u.id = pr.user_id
		WHERE pr.photo_id = $1
		ORDER BY pr.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reactions: %w", err)
	}
	reactions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Reaction, error) {
		var re models.Reaction
		err := row.Scan(&re.ID, &re.PhotoID, &re.UserID, &re.ReactionType, &re.CreatedAt, &re.DisplayName, &re.Avatar)
		return &re, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan reactions: %w", err)
	}
	return reactions, nil
}

// UpsertReaction sets the caller's single reaction on a photo
func (r *PhotoRepository) UpsertReaction(ctx context.Context, photoID, userID int64, reactionType string) error {
	query := `
		INSERT INTO photo_reactions (photo_id, user_id, reaction_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (photo_id, user_id) DO UPDATE SET reaction_type = EXCLUDED.reaction_type
	`
	if _, err := r.db.Exec(ctx, query, photoID, userID, reactionType); err != nil {
		return fmt.Errorf("failed to save reaction: %w", err)
	}
	return nil
}

// Comments returns the comments on a photo in posting order
func (r *PhotoRepository) Comments(ctx context.Context, photoID int64) ([]*models.Comment, error) {
	query := `
		SELECT pc.id, pc.photo_id, pc.user_id, pc.content, pc.created_at, u.display_name, u.avatar
		FROM photo_comments pc
		JOIN users u ON u.id = pc.user_id
		WHERE pc.photo_id = $1
		ORDER BY pc.created_at ASC, pc.id ASC
	`
	rows, err := r.db.Query(ctx, query, photoID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments: %w", err)
	}
	comments, err := pgx.CollectRows(rows, scanComment)
	if err != nil {
		return nil, fmt.Errorf("failed to scan comments: %w", err)
	}
	return comments, nil
}

// AddComment stores a comment and returns it with its author
func (r *PhotoRepository) AddComment(ctx context.Context, photoID, userID int64, content string) (*models.Comment, error) {
	query := `
		WITH c AS (
			INSERT INTO photo_comments (photo_id, user_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, photo_id, user_id, content, created_at
		)
		SELECT c.id, c.photo_id, c.user_id, c.content, c.created_at, u.display_name, u.avatar
		FROM c
		JOIN users u ON u.id = c.user_id
	`
	rows, err := r.db.Query(ctx, query, photoID, userID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	comment, err := pgx.CollectExactlyOneRow(rows, scanComment)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return comment, nil
}

func scanComment(row pgx.CollectableRow) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PhotoID, &c.UserID, &c.Content, &c.CreatedAt, &c.DisplayName, &c.Avatar)
	return &c, err
}
