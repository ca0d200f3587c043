package repository

import (
	"context"
	"fmt"

	"anniversary-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const messageColumns = `m.id, m.sender_id, m.receiver_id, m.content, m.message_type, m.attachment_path, m.is_read,
	m.is_deleted_by_sender, m.is_deleted_by_receiver, m.created_at,
	s.display_name, s.avatar, rc.display_name`

const messageJoins = `
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users rc ON rc.id = m.receiver_id`

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func scanMessage(row pgx.CollectableRow) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &m.AttachmentPath, &m.IsRead,
		&m.IsDeletedBySender, &m.IsDeletedByReceiver, &m.CreatedAt,
		&m.SenderName, &m.SenderAvatar, &m.ReceiverName,
	)
	return &m, err
}

// Create inserts a message and fills in its ID and creation time
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, message_type, attachment_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_read, created_at
	`, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.AttachmentPath).Scan(&m.ID, &m.IsRead, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID retrieves a message with sender and receiver names
func (r *MessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+messageJoins+` WHERE m.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %d: %w", id, notFound(err))
	}
	return m, nil
}

// Conversation returns one page of messages between userID and partnerID that
// userID has not deleted on their side, newest first
func (r *MessageRepository) Conversation(ctx context.Context, userID, partnerID int64, page models.PageRequest) ([]*models.Message, error) {
	rows, err := r.db.Query(ctx, `SELECT `+messageColumns+messageJoins+`
		WHERE (m.sender_id = $1 AND m.receiver_id = $2 AND NOT m.is_deleted_by_sender)
		   OR (m.sender_id = $2 AND m.receiver_id = $1 AND NOT m.is_deleted_by_receiver)
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $3 OFFSET $4
	`, userID, partnerID, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	messages, err := pgx.CollectRows(rows, scanMessage)
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	return messages, nil
}

// MarkRead marks every unread message from senderID to receiverID as read
func (r *MessageRepository) MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error) {
	result, err := r.db.Exec(ctx,
		`UPDATE messages SET is_read = TRUE WHERE receiver_id = $1 AND sender_id = $2 AND NOT is_read`,
		receiverID, senderID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected(), nil
}

// UnreadCount counts unread messages addressed to userID
func (r *MessageRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = $1 AND NOT is_read AND NOT is_deleted_by_receiver`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

// DeleteForSender hides a message from its sender
func (r *MessageRepository) DeleteForSender(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE messages SET is_deleted_by_sender = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete message for sender: %w", err)
	}
	return nil
}

// DeleteForReceiver hides a message from its receiver
func (r *MessageRepository) DeleteForReceiver(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `UPDATE messages SET is_deleted_by_receiver = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete message for receiver: %w", err)
	}
	return nil
}
