package services

import (
	"context"
	"time"

	"anniversary-backend/internal/metrics"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/push"

	"github.com/rs/zerolog/log"
)

const pushTimeout = 10 * time.Second

// Notifier tells a partner about something the caller just did. Delivery is
// best effort and never fails the caller's request.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event WSMessage, alert push.Alert)
}

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// PartnerNotifier delivers over the WebSocket hub when the user is connected
// and falls back to a push notification when they registered a device token
type PartnerNotifier struct {
	hub   *WSHub
	users userLookup
	// sender is nil when push is disabled
	sender push.Sender
}

// NewPartnerNotifier creates a new partner notifier. A nil sender or
// push.NopSender disables the push fallback.
func NewPartnerNotifier(hub *WSHub, users userLookup, sender push.Sender) *PartnerNotifier {
	if _, nop := sender.(push.NopSender); nop {
		sender = nil
	}
	return &PartnerNotifier{hub: hub, users: users, sender: sender}
}

// Notify delivers event to userID
func (n *PartnerNotifier) Notify(ctx context.Context, userID int64, event WSMessage, alert push.Alert) {
	if n.hub.IsOnline(userID) {
		err := n.hub.SendToUser(userID, event)
		metrics.RecordNotification("ws", err == nil)
		if err == nil {
			return
		}
		log.Warn().Err(err).Int64("user_id", userID).Str("type", event.Type).Msg("WebSocket delivery failed")
	}

	if n.sender == nil {
		return
	}
	if alert.Kind == "" {
		alert.Kind = event.Type
	}
	go n.push(context.WithoutCancel(ctx), userID, alert)
}

func (n *PartnerNotifier) push(ctx context.Context, userID int64, alert push.Alert) {
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user for push")
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	err = n.sender.Send(ctx, *user.PushToken, alert)
	metrics.RecordNotification("apns", err == nil)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Str("type", alert.Kind).Msg("Failed to send push notification")
	}
}

// nopNotifier is used when no notifier is wired
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, int64, WSMessage, push.Alert) {}
