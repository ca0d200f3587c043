package handlers

import (
	"encoding/json"
	"net/http"

	"anniversary-backend/internal/middleware"
	"anniversary-backend/internal/services"
	"anniversary-backend/internal/token"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Client-sent event types
const (
	wsPing = "ping"
	wsPong = "pong"
)

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub      *services.WSHub
	codec    *token.Codec
	resolver ScopeResolver
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocket handler. Browser upgrades are
// accepted only from allowedOrigins; "*" allows any origin.
func NewWebSocketHandler(hub *services.WSHub, codec *token.Codec, resolver ScopeResolver, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &WebSocketHandler{
		hub:      hub,
		codec:    codec,
		resolver: resolver,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		raw = middleware.BearerToken(r)
	}
	if raw == "" {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	claims, err := h.codec.Verify(raw)
	if err != nil {
		respondError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	scope, err := h.resolver.Resolve(r.Context(), claims.UserID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	userID := scope.UserID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	if scope.HasPartner() {
		partnerID := *scope.PartnerID
		h.hub.NotifyPartnerStatus(partnerID, true)
		defer h.hub.NotifyPartnerStatus(partnerID, false)

		online := h.hub.IsOnline(partnerID)
		if err := h.hub.SendToUser(userID, services.WSMessage{Type: services.EventPartnerStatus, Online: &online}); err != nil {
			log.Error().Err(err).Int64("user_id", userID).Msg("Failed to send partner_status message")
		}
	}

	log.Info().Int64("user_id", userID).Msg("WebSocket connection established")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Int64("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		var msg services.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Err(err).Int64("user_id", userID).Msg("Failed to parse WebSocket message")
			h.sendError(userID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case wsPing:
			if err := h.hub.SendToUser(userID, services.WSMessage{Type: wsPong}); err != nil {
				log.Error().Err(err).Int64("user_id", userID).Msg("Failed to answer ping")
			}
		default:
			h.sendError(userID, "Unknown message type")
		}
	}
}

// sendError sends an error event to a user
func (h *WebSocketHandler) sendError(userID int64, message string) {
	msg := services.WSMessage{
		Type:    services.EventError,
		Message: message,
	}
	if err := h.hub.SendToUser(userID, msg); err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("Failed to send WebSocket error")
	}
}
