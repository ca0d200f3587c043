package handlers

import (
	"net/http"

	"anniversary-backend/internal/models"
	"anniversary-backend/internal/services"
)

// MemoryHandler handles memories and milestones on /api/memories
type MemoryHandler struct {
	memories *services.MemoryService
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(memories *services.MemoryService) *MemoryHandler {
	return &MemoryHandler{memories: memories}
}

// Routes returns the action dispatcher of /api/memories
func (h *MemoryHandler) Routes() http.Handler {
	return actionMux{
		http.MethodGet: {
			actions: map[string]http.HandlerFunc{
				"single":      h.get,
				"on-this-day": h.onThisDay,
				"milestones":  h.milestones,
				"timeline":    h.timeline,
			},
			fallback: h.list,
		},
		http.MethodPost: {
			actions:  map[string]http.HandlerFunc{"milestone": h.createMilestone},
			fallback: h.create,
		},
		http.MethodPut: {fallback: h.update},
		http.MethodDelete: {
			actions:  map[string]http.HandlerFunc{"milestone": h.deleteMilestone},
			fallback: h.delete,
		},
	}
}

func (h *MemoryHandler) list(w http.ResponseWriter, r *http.Request) {
	memories, page, err := h.memories.List(r.Context(), scopeFrom(r.Context()), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondPaginated(w, memories, page)
}

func (h *MemoryHandler) get(w http.ResponseWriter, r *http.Request) {
	memory, err := h.memories.Get(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", memory)
}

func (h *MemoryHandler) onThisDay(w http.ResponseWriter, r *http.Request) {
	groups, err := h.memories.OnThisDay(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", groups)
}

func (h *MemoryHandler) milestones(w http.ResponseWriter, r *http.Request) {
	milestones, err := h.memories.Milestones(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", milestones)
}

func (h *MemoryHandler) timeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.memories.Timeline(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", entries)
}

func (h *MemoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMemoryRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	memory, err := h.memories.Create(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Memory created! 💭", memory)
}

// update handles PUT ?id=
func (h *MemoryHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch models.MemoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}
	memory, err := h.memories.Update(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Memory updated", memory)
}

func (h *MemoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.memories.Delete(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Memory deleted", nil)
}

func (h *MemoryHandler) createMilestone(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMilestoneRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	milestone, err := h.memories.CreateMilestone(r.Context(), scopeFrom(r.Context()), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Milestone created! 🎉", milestone)
}

// deleteMilestone handles DELETE ?action=milestone&id=
func (h *MemoryHandler) deleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := h.memories.DeleteMilestone(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Milestone deleted", nil)
}
