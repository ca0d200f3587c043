package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/metrics"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/push"
	"anniversary-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	defaultMessageLimit   = 50
	maxMessageLimit       = 100
	defaultNoteType       = "random"
	defaultNoteBackground = "#a7f3d0"
	heartContent          = "💚"
)

// ErrNoPartner is returned for partner-only actions by an unlinked caller
var ErrNoPartner = apperr.Validation("No partner linked yet")

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	models.DateLayout,
}

// MessageService handles chat messages, hearts and love notes
type MessageService struct {
	messages  MessageStore
	loveNotes LoveNoteStore
	activity  activityLogger
	notifier  Notifier
	now       func() time.Time
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, loveNotes LoveNoteStore, activity ActivityStore, notifier Notifier) *MessageService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MessageService{
		messages:  messages,
		loveNotes: loveNotes,
		activity:  activityLogger{store: activity},
		notifier:  notifier,
		now:       time.Now,
	}
}

// SendRequest is the body of a chat message
type SendRequest struct {
	Content        string  `json:"content"`
	MessageType    string  `json:"message_type"`
	AttachmentPath *string `json:"attachment_path"`
}

// Conversation returns the page of messages with the caller's current
// partner in chronological order and marks the caller's unread ones read.
// An unlinked caller gets an empty conversation.
func (s *MessageService) Conversation(ctx context.Context, scope *Scope, page, limit int) ([]*models.Message, error) {
	if !scope.HasPartner() {
		return []*models.Message{}, nil
	}
	partnerID := *scope.PartnerID

	req := ClampPage(page, limit, defaultMessageLimit, maxMessageLimit)
	messages, err := s.messages.Conversation(ctx, scope.UserID, partnerID, req)
	if err != nil {
		return nil, apperr.Internal("failed to load conversation", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if _, err := s.messages.MarkRead(ctx, scope.UserID, partnerID); err != nil {
		log.Error().Err(err).Int64("user_id", scope.UserID).Msg("Failed to mark messages read")
	}
	return messages, nil
}

// Send delivers a chat message to the caller's partner
func (s *MessageService) Send(ctx context.Context, scope *Scope, req SendRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Content) == "" && req.MessageType == "" {
		return nil, apperr.Validation("Message content is required")
	}
	if !scope.HasPartner() {
		return nil, ErrNoPartner
	}
	if req.MessageType == "" {
		req.MessageType = models.MessageText
	}

	message := &models.Message{
		SenderID:       scope.UserID,
		ReceiverID:     *scope.PartnerID,
		Content:        req.Content,
		MessageType:    req.MessageType,
		AttachmentPath: req.AttachmentPath,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperr.Internal("failed to send message", err)
	}

	metrics.RecordMessage(message.MessageType)
	s.activity.record(ctx, scope.UserID, models.ActivityMessageSent, message.ID, "Sent a message")
	s.notifier.Notify(ctx, message.ReceiverID,
		WSMessage{Type: EventMessage, Data: message},
		push.Alert{Title: "New message 💌", Body: preview(message.Content)},
	)
	return message, nil
}

// Heart sends a heart to the caller's partner
func (s *MessageService) Heart(ctx context.Context, scope *Scope) error {
	if !scope.HasPartner() {
		return ErrNoPartner
	}

	message := &models.Message{
		SenderID:    scope.UserID,
		ReceiverID:  *scope.PartnerID,
		Content:     heartContent,
		MessageType: models.MessageHeart,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return apperr.Internal("failed to send heart", err)
	}

	metrics.RecordMessage(message.MessageType)
	s.notifier.Notify(ctx, message.ReceiverID,
		WSMessage{Type: EventHeart, Data: message},
		push.Alert{Title: heartContent, Body: "Your partner sent you a heart"},
	)
	return nil
}

// Unread counts the caller's unread messages and sealed delivered notes
func (s *MessageService) Unread(ctx context.Context, scope *Scope) (*models.UnreadCounts, error) {
	messages, err := s.messages.UnreadCount(ctx, scope.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to count unread messages", err)
	}
	notes, err := s.loveNotes.UnopenedCount(ctx, scope.UserID, s.now())
	if err != nil {
		return nil, apperr.Internal("failed to count love notes", err)
	}
	return &models.UnreadCounts{Messages: messages, LoveNotes: notes, Total: messages + notes}, nil
}

// MarkRead marks every message from the partner as read. It reports false
// when the caller is unlinked.
func (s *MessageService) MarkRead(ctx context.Context, scope *Scope) (bool, error) {
	if !scope.HasPartner() {
		return false, nil
	}
	if _, err := s.messages.MarkRead(ctx, scope.UserID, *scope.PartnerID); err != nil {
		return false, apperr.Internal("failed to mark messages read", err)
	}
	return true, nil
}

// Delete hides a message from the caller's side of the conversation
func (s *MessageService) Delete(ctx context.Context, scope *Scope, id int64) error {
	if id <= 0 {
		return apperr.Validation("Message ID required")
	}
	message, err := s.messages.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Message not found")
		}
		return apperr.Internal("failed to load message", err)
	}

	switch scope.UserID {
	case message.SenderID:
		err = s.messages.DeleteForSender(ctx, id)
	case message.ReceiverID:
		err = s.messages.DeleteForReceiver(ctx, id)
	default:
		log.Warn().Int64("user_id", scope.UserID).Int64("message_id", id).Msg("Message delete by non-participant")
		return apperr.Forbidden("Unauthorized")
	}
	if err != nil {
		return apperr.Internal("failed to delete message", err)
	}
	return nil
}

// LoveNoteRequest is the body of a love note
type LoveNoteRequest struct {
	Content         string `json:"content"`
	NoteType        string `json:"note_type"`
	BackgroundColor string `json:"background_color"`
	DeliverAt       string `json:"deliver_at"`
}

// CreateLoveNote schedules a note for the caller's partner. A note without
// deliver_at is due immediately.
func (s *MessageService) CreateLoveNote(ctx context.Context, scope *Scope, req LoveNoteRequest) (*models.LoveNote, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.Validation("Love note content is required")
	}
	if !scope.HasPartner() {
		return nil, ErrNoPartner
	}

	now := s.now()
	deliverAt := now
	if req.DeliverAt != "" {
		parsed, err := ParseTimestamp(req.DeliverAt)
		if err != nil {
			return nil, apperr.Validation("Invalid deliver_at")
		}
		deliverAt = parsed
	}
	if req.NoteType == "" {
		req.NoteType = defaultNoteType
	}
	if req.BackgroundColor == "" {
		req.BackgroundColor = defaultNoteBackground
	}

	note := &models.LoveNote{
		FromUserID:      scope.UserID,
		ToUserID:        *scope.PartnerID,
		Content:         req.Content,
		NoteType:        req.NoteType,
		BackgroundColor: req.BackgroundColor,
		DeliverAt:       deliverAt,
	}
	if err := s.loveNotes.Create(ctx, note); err != nil {
		return nil, apperr.Internal("failed to create love note", err)
	}

	s.activity.record(ctx, scope.UserID, models.ActivityLoveNoteSent, note.ID, "Sent a love note")
	log.Info().Int64("user_id", scope.UserID).Int64("love_note_id", note.ID).Time("deliver_at", deliverAt).Msg("Love note created")

	// Scheduled notes surface when the recipient next reads them.
	if note.Delivered(now) {
		s.notifier.Notify(ctx, note.ToUserID,
			WSMessage{Type: EventLoveNote, Data: map[string]int64{"id": note.ID}},
			push.Alert{Title: "A love note for you 💌", Body: "Open it in the app"},
		)
	}
	return note, nil
}

// LoveNotes returns the caller's delivered received notes and every sent note
func (s *MessageService) LoveNotes(ctx context.Context, scope *Scope) (*models.LoveNoteBox, error) {
	received, err := s.loveNotes.Received(ctx, scope.UserID, s.now())
	if err != nil {
		return nil, apperr.Internal("failed to list received love notes", err)
	}
	sent, err := s.loveNotes.Sent(ctx, scope.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to list sent love notes", err)
	}
	return &models.LoveNoteBox{Received: received, Sent: sent}, nil
}

// LoveNote returns one note. The recipient sees it only once delivered; the
// sender always does.
func (s *MessageService) LoveNote(ctx context.Context, scope *Scope, id int64) (*models.LoveNote, error) {
	note, err := s.loadNote(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case note.FromUserID == scope.UserID:
		return note, nil
	case note.ToUserID == scope.UserID && note.Delivered(s.now()):
		return note, nil
	}
	return nil, apperr.NotFound("Love note not found")
}

// OpenLoveNote marks a delivered note as opened by its recipient and returns it
func (s *MessageService) OpenLoveNote(ctx context.Context, scope *Scope, id int64) (*models.LoveNote, error) {
	note, err := s.loadNote(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	switch {
	case note.ToUserID == scope.UserID:
		if !note.Delivered(now) {
			return nil, apperr.NotFound("Love note not found")
		}
	case note.FromUserID == scope.UserID:
		return nil, apperr.Forbidden("Unauthorized")
	default:
		return nil, apperr.NotFound("Love note not found")
	}

	if err := s.loveNotes.MarkOpened(ctx, id, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Love note not found")
		}
		return nil, apperr.Internal("failed to open love note", err)
	}
	return s.loadNote(ctx, id)
}

func (s *MessageService) loadNote(ctx context.Context, id int64) (*models.LoveNote, error) {
	if id <= 0 {
		return nil, apperr.Validation("Love note ID required")
	}
	note, err := s.loveNotes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Love note not found")
		}
		return nil, apperr.Internal("failed to load love note", err)
	}
	return note, nil
}

// ParseTimestamp accepts RFC 3339, "YYYY-MM-DD HH:MM[:SS]" and plain dates.
// Zone-less values are read as UTC.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func preview(content string) string {
	const max = 80
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + "…"
}
