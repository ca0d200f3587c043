package models

import "time"

// Message types
const (
	MessageText  = "text"
	MessageHeart = "heart"
)

// Message is a chat message between partners. Each side deletes independently.
type Message struct {
	ID                  int64     `json:"id"`
	SenderID            int64     `json:"sender_id"`
	ReceiverID          int64     `json:"receiver_id"`
	Content             string    `json:"content"`
	MessageType         string    `json:"message_type"`
	AttachmentPath      *string   `json:"attachment_path"`
	IsRead              bool      `json:"is_read"`
	IsDeletedBySender   bool      `json:"is_deleted_by_sender"`
	IsDeletedByReceiver bool      `json:"is_deleted_by_receiver"`
	CreatedAt           time.Time `json:"created_at"`
	SenderName          string    `json:"sender_name,omitempty"`
	SenderAvatar        *string   `json:"sender_avatar,omitempty"`
	ReceiverName        string    `json:"receiver_name,omitempty"`
}

// UnreadCounts summarizes what is waiting for a user
type UnreadCounts struct {
	Messages  int64 `json:"messages"`
	LoveNotes int64 `json:"love_notes"`
	Total     int64 `json:"total"`
}

// LoveNote is a note that becomes visible to its recipient at DeliverAt.
// Scheduled -> Delivered happens by time passing; Delivered -> Opened is a
// one-way flip by the recipient.
type LoveNote struct {
	ID              int64      `json:"id"`
	FromUserID      int64      `json:"from_user_id"`
	ToUserID        int64      `json:"to_user_id"`
	Content         string     `json:"content"`
	NoteType        string     `json:"note_type"`
	BackgroundColor string     `json:"background_color"`
	DeliverAt       time.Time  `json:"deliver_at"`
	IsOpened        bool       `json:"is_opened"`
	OpenedAt        *time.Time `json:"opened_at"`
	CreatedAt       time.Time  `json:"created_at"`
	FromName        string     `json:"from_name,omitempty"`
	FromAvatar      *string    `json:"from_avatar,omitempty"`
	ToName          string     `json:"to_name,omitempty"`
}

// Delivered reports whether the note is due at now
func (n *LoveNote) Delivered(now time.Time) bool {
	return !n.DeliverAt.After(now)
}

// LoveNoteBox is a user's received and sent notes
type LoveNoteBox struct {
	Received []*LoveNote `json:"received"`
	Sent     []*LoveNote `json:"sent"`
}
