// Package push delivers partner notifications to iOS devices through APNs
// when the partner has no live WebSocket connection.
package push

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	apnstoken "github.com/sideshow/apns2/token"
)

// Alert is a user-visible notification
type Alert struct {
	Title string
	Body  string
	// Kind is delivered as the custom "type" key so the client can route it
	Kind string
}

// Sender delivers an alert to a device token
type Sender interface {
	Send(ctx context.Context, deviceToken string, alert Alert) error
}

// Config holds Apple token-based auth credentials
type Config struct {
	KeyFile    string
	KeyID      string
	TeamID     string
	Topic      string
	Production bool
}

// APNSSender sends alerts with an apns2 token client
type APNSSender struct {
	client *apns2.Client
	topic  string
}

// NewAPNSSender loads the .p8 signing key and creates a client for the
// production or development gateway.
func NewAPNSSender(cfg Config) (*APNSSender, error) {
	authKey, err := apnstoken.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	client := apns2.NewTokenClient(&apnstoken.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNSSender{client: client, topic: cfg.Topic}, nil
}

// Send pushes alert to deviceToken
func (s *APNSSender) Send(ctx context.Context, deviceToken string, alert Alert) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       s.topic,
		Payload:     BuildPayload(alert),
		Priority:    apns2.PriorityHigh,
	}

	res, err := s.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}

	log.Debug().Str("apns_id", res.ApnsID).Str("type", alert.Kind).Msg("Push notification sent")
	return nil
}

// BuildPayload renders alert as an aps payload with the default sound
func BuildPayload(alert Alert) *payload.Payload {
	p := payload.NewPayload().
		AlertTitle(alert.Title).
		AlertBody(alert.Body).
		Sound("default").
		ThreadID("partner")
	if alert.Kind != "" {
		p = p.Custom("type", alert.Kind)
	}
	return p
}

// NopSender drops every alert. It is used when APNs is not configured.
type NopSender struct{}

// Send implements Sender
func (NopSender) Send(context.Context, string, Alert) error { return nil }
