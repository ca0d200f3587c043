package services

import (
	"context"
	"testing"
	"time"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var messageNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type messageFixture struct {
	*couple
	messages *fakeMessages
	notes    *fakeLoveNotes
	activity *fakeActivity
	notifier *recordingNotifier
	svc      *MessageService
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	f := &messageFixture{
		couple:   newCouple(t),
		messages: &fakeMessages{},
		notes:    &fakeLoveNotes{},
		activity: &fakeActivity{},
		notifier: &recordingNotifier{},
	}
	f.svc = NewMessageService(f.messages, f.notes, f.activity, f.notifier)
	f.svc.now = func() time.Time { return messageNow }
	return f
}

func TestSendAndConversation(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	alice, bob := f.scope(t, f.alice), f.scope(t, f.bob)

	for _, content := range []string{"one", "two", "three"} {
		_, err := f.svc.Send(ctx, alice, SendRequest{Content: content})
		require.NoError(t, err)
	}
	reply, err := f.svc.Send(ctx, bob, SendRequest{Content: "four"})
	require.NoError(t, err)
	assert.Equal(t, models.MessageText, reply.MessageType)
	assert.Equal(t, f.alice.ID, reply.ReceiverID)

	unread, err := f.svc.Unread(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread.Messages)
	assert.Equal(t, int64(3), unread.Total)

	conversation, err := f.svc.Conversation(ctx, bob, 1, 3)
	require.NoError(t, err)
	var contents []string
	for _, m := range conversation {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"two", "three", "four"}, contents)

	unread, err = f.svc.Unread(ctx, bob)
	require.NoError(t, err)
	assert.Zero(t, unread.Messages)

	sent := f.notifier.sent()
	require.Len(t, sent, 4)
	assert.Equal(t, f.bob.ID, sent[0].userID)
	assert.Equal(t, EventMessage, sent[0].event.Type)
	assert.Len(t, f.activity.types(), 4)
}

func TestConversationWithoutPartner(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	carol := f.scope(t, f.carol)

	conversation, err := f.svc.Conversation(ctx, carol, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, conversation)

	_, err = f.svc.Send(ctx, carol, SendRequest{Content: "hello?"})
	requireKind(t, err, apperr.KindValidation, "No partner linked yet")

	requireKind(t, f.svc.Heart(ctx, carol), apperr.KindValidation, "No partner linked yet")

	marked, err := f.svc.MarkRead(ctx, carol)
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestSendRequiresContent(t *testing.T) {
	f := newMessageFixture(t)

	_, err := f.svc.Send(context.Background(), f.scope(t, f.alice), SendRequest{Content: "  "})
	requireKind(t, err, apperr.KindValidation, "Message content is required")
}

func TestHeart(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Heart(ctx, f.scope(t, f.alice)))

	conversation, err := f.svc.Conversation(ctx, f.scope(t, f.bob), 1, 50)
	require.NoError(t, err)
	require.Len(t, conversation, 1)
	assert.Equal(t, "💚", conversation[0].Content)
	assert.Equal(t, models.MessageHeart, conversation[0].MessageType)
	assert.Equal(t, EventHeart, f.notifier.sent()[0].event.Type)
}

func TestDeleteMessageSides(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	alice, bob := f.scope(t, f.alice), f.scope(t, f.bob)

	msg, err := f.svc.Send(ctx, alice, SendRequest{Content: "oops"})
	require.NoError(t, err)

	requireKind(t, f.svc.Delete(ctx, f.scope(t, f.carol), msg.ID), apperr.KindForbidden, "Unauthorized")
	requireKind(t, f.svc.Delete(ctx, alice, 999), apperr.KindNotFound, "Message not found")
	requireKind(t, f.svc.Delete(ctx, alice, 0), apperr.KindValidation, "Message ID required")

	require.NoError(t, f.svc.Delete(ctx, alice, msg.ID))
	mine, err := f.svc.Conversation(ctx, alice, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, mine)
	theirs, err := f.svc.Conversation(ctx, bob, 1, 50)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	require.NoError(t, f.svc.Delete(ctx, bob, msg.ID))
	theirs, err = f.svc.Conversation(ctx, bob, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestMessagesFollowCurrentPartner(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, f.scope(t, f.alice), SendRequest{Content: "to bob"})
	require.NoError(t, err)
	require.NoError(t, f.users.LinkPartners(ctx, f.alice.ID, f.carol.ID))

	conversation, err := f.svc.Conversation(ctx, f.scope(t, f.alice), 1, 50)
	require.NoError(t, err)
	assert.Empty(t, conversation)
}

func TestLoveNoteDelivery(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	alice, bob, carol := f.scope(t, f.alice), f.scope(t, f.bob), f.scope(t, f.carol)

	later, err := f.svc.CreateLoveNote(ctx, alice, LoveNoteRequest{Content: "see you soon", DeliverAt: "2024-06-20 09:00:00"})
	require.NoError(t, err)
	now, err := f.svc.CreateLoveNote(ctx, alice, LoveNoteRequest{Content: "thinking of you"})
	require.NoError(t, err)
	assert.Equal(t, "random", now.NoteType)
	assert.Equal(t, "#a7f3d0", now.BackgroundColor)
	assert.Equal(t, messageNow, now.DeliverAt)

	// Only the note due now is announced.
	sent := f.notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, EventLoveNote, sent[0].event.Type)

	box, err := f.svc.LoveNotes(ctx, bob)
	require.NoError(t, err)
	require.Len(t, box.Received, 1)
	assert.Equal(t, now.ID, box.Received[0].ID)

	box, err = f.svc.LoveNotes(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, box.Sent, 2)

	_, err = f.svc.LoveNote(ctx, bob, later.ID)
	requireKind(t, err, apperr.KindNotFound, "Love note not found")
	got, err := f.svc.LoveNote(ctx, alice, later.ID)
	require.NoError(t, err)
	assert.Equal(t, later.ID, got.ID)
	_, err = f.svc.LoveNote(ctx, carol, now.ID)
	requireKind(t, err, apperr.KindNotFound, "Love note not found")

	_, err = f.svc.OpenLoveNote(ctx, bob, later.ID)
	requireKind(t, err, apperr.KindNotFound, "Love note not found")
	_, err = f.svc.OpenLoveNote(ctx, alice, now.ID)
	requireKind(t, err, apperr.KindForbidden, "Unauthorized")
	_, err = f.svc.OpenLoveNote(ctx, carol, now.ID)
	requireKind(t, err, apperr.KindNotFound, "Love note not found")

	unread, err := f.svc.Unread(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread.LoveNotes)

	opened, err := f.svc.OpenLoveNote(ctx, bob, now.ID)
	require.NoError(t, err)
	assert.True(t, opened.IsOpened)
	_, err = f.svc.OpenLoveNote(ctx, bob, now.ID)
	require.NoError(t, err)

	// Once the scheduled time passes the recipient can read it.
	f.svc.now = func() time.Time { return messageNow.Add(6 * 24 * time.Hour) }
	_, err = f.svc.LoveNote(ctx, bob, later.ID)
	require.NoError(t, err)
}

func TestCreateLoveNoteValidation(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateLoveNote(ctx, f.scope(t, f.alice), LoveNoteRequest{})
	requireKind(t, err, apperr.KindValidation, "Love note content is required")

	_, err = f.svc.CreateLoveNote(ctx, f.scope(t, f.carol), LoveNoteRequest{Content: "hi"})
	requireKind(t, err, apperr.KindValidation, "No partner linked yet")

	_, err = f.svc.CreateLoveNote(ctx, f.scope(t, f.alice), LoveNoteRequest{Content: "hi", DeliverAt: "tomorrow"})
	requireKind(t, err, apperr.KindValidation, "Invalid deliver_at")
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"2024-06-20T09:30:00Z", time.Date(2024, 6, 20, 9, 30, 0, 0, time.UTC)},
		{"2024-06-20 09:30:00", time.Date(2024, 6, 20, 9, 30, 0, 0, time.UTC)},
		{"2024-06-20T09:30", time.Date(2024, 6, 20, 9, 30, 0, 0, time.UTC)},
		{"2024-06-20", time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), got)
		})
	}

	_, err := ParseTimestamp("20/06/2024")
	assert.Error(t, err)
}
