package handlers

import (
	"net/http"

	"anniversary-backend/internal/models"
	"anniversary-backend/internal/services"
)

// AnniversaryHandler handles anniversaries and countdowns on /api/anniversaries
type AnniversaryHandler struct {
	anniversaries *services.AnniversaryService
}

// NewAnniversaryHandler creates a new anniversary handler
func NewAnniversaryHandler(anniversaries *services.AnniversaryService) *AnniversaryHandler {
	return &AnniversaryHandler{anniversaries: anniversaries}
}

// Routes returns the action dispatcher of /api/anniversaries
func (h *AnniversaryHandler) Routes() http.Handler {
	return actionMux{
		http.MethodGet: {
			actions: map[string]http.HandlerFunc{
				"single":     h.get,
				"current":    h.current,
				"countdowns": h.countdowns,
			},
			fallback: h.list,
		},
		http.MethodPost: {
			actions:  map[string]http.HandlerFunc{"countdown": h.createCountdown},
			fallback: h.create,
		},
		http.MethodPut: {fallback: h.update},
		http.MethodDelete: {
			actions:  map[string]http.HandlerFunc{"countdown": h.deleteCountdown},
			fallback: h.delete,
		},
	}
}

func (h *AnniversaryHandler) list(w http.ResponseWriter, r *http.Request) {
	anniversaries, err := h.anniversaries.List(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", anniversaries)
}

func (h *AnniversaryHandler) get(w http.ResponseWriter, r *http.Request) {
	anniversary, err := h.anniversaries.Get(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", anniversary)
}

// current handles GET ?action=current
func (h *AnniversaryHandler) current(w http.ResponseWriter, r *http.Request) {
	anniversary, err := h.anniversaries.Current(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if anniversary == nil {
		respond(w, http.StatusOK, "No anniversary found", nil)
		return
	}
	respond(w, http.StatusOK, "", anniversary)
}

func (h *AnniversaryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateAnniversaryRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	anniversary, err := h.anniversaries.Create(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Anniversary created! 🎉", anniversary)
}

// update handles PUT ?id=
func (h *AnniversaryHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch models.AnniversaryPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}
	anniversary, err := h.anniversaries.Update(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Anniversary updated", anniversary)
}

func (h *AnniversaryHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.anniversaries.Delete(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Anniversary deleted", nil)
}

func (h *AnniversaryHandler) countdowns(w http.ResponseWriter, r *http.Request) {
	countdowns, err := h.anniversaries.Countdowns(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", countdowns)
}

func (h *AnniversaryHandler) createCountdown(w http.ResponseWriter, r *http.Request) {
	var req services.CountdownRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	countdown, err := h.anniversaries.CreateCountdown(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Countdown created! ⏰", countdown)
}

// deleteCountdown handles DELETE ?action=countdown&id=
func (h *AnniversaryHandler) deleteCountdown(w http.ResponseWriter, r *http.Request) {
	if err := h.anniversaries.DeleteCountdown(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Countdown deleted", nil)
}
