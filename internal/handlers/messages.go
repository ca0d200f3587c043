package handlers

import (
	"net/http"

	"anniversary-backend/internal/services"
)

// MessageHandler handles chat messages and love notes on /api/messages
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Routes returns the action dispatcher of /api/messages
func (h *MessageHandler) Routes() http.Handler {
	return actionMux{
		http.MethodGet: {
			actions: map[string]http.HandlerFunc{
				"unread":     h.unread,
				"love-notes": h.loveNotes,
				"love-note":  h.loveNote,
			},
			fallback: h.conversation,
		},
		http.MethodPost: {
			actions: map[string]http.HandlerFunc{
				"love-note": h.createLoveNote,
				"heart":     h.heart,
			},
			fallback: h.send,
		},
		http.MethodPut: {actions: map[string]http.HandlerFunc{
			"read":      h.markRead,
			"open-note": h.openNote,
		}},
		http.MethodDelete: {fallback: h.delete},
	}
}

// conversation handles GET ?action=conversation
func (h *MessageHandler) conversation(w http.ResponseWriter, r *http.Request) {
	scope := scopeFrom(r.Context())
	messages, err := h.messages.Conversation(r.Context(), scope, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !scope.HasPartner() {
		respond(w, http.StatusOK, "No partner linked yet", messages)
		return
	}
	respond(w, http.StatusOK, "", messages)
}

func (h *MessageHandler) send(w http.ResponseWriter, r *http.Request) {
	var req services.SendRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	message, err := h.messages.Send(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Message sent 💌", message)
}

func (h *MessageHandler) heart(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Heart(r.Context(), scopeFrom(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Heart sent! 💚", nil)
}

func (h *MessageHandler) unread(w http.ResponseWriter, r *http.Request) {
	counts, err := h.messages.Unread(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", counts)
}

// markRead handles PUT ?action=read
func (h *MessageHandler) markRead(w http.ResponseWriter, r *http.Request) {
	marked, err := h.messages.MarkRead(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !marked {
		respond(w, http.StatusOK, "", nil)
		return
	}
	respond(w, http.StatusOK, "Messages marked as read", nil)
}

func (h *MessageHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.messages.Delete(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Message deleted", nil)
}

func (h *MessageHandler) createLoveNote(w http.ResponseWriter, r *http.Request) {
	var req services.LoveNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	note, err := h.messages.CreateLoveNote(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Love note created! 💌", map[string]int64{"id": note.ID})
}

func (h *MessageHandler) loveNotes(w http.ResponseWriter, r *http.Request) {
	box, err := h.messages.LoveNotes(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", box)
}

// loveNote handles GET ?action=love-note&id=
func (h *MessageHandler) loveNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.messages.LoveNote(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", note)
}

// openNote handles PUT ?action=open-note&id=
func (h *MessageHandler) openNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.messages.OpenLoveNote(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Love note opened! 💚", note)
}
