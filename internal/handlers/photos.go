package handlers

import (
	"net/http"
	"strconv"

	"anniversary-backend/internal/models"
	"anniversary-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo-related HTTP requests on /api/photos
type PhotoHandler struct {
	photos    *services.PhotoService
	maxUpload int64
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photos *services.PhotoService, maxUpload int64) *PhotoHandler {
	return &PhotoHandler{
		photos:    photos,
		maxUpload: maxUpload,
	}
}

// Routes returns the action dispatcher of /api/photos
func (h *PhotoHandler) Routes() http.Handler {
	return actionMux{
		http.MethodGet: {
			actions: map[string]http.HandlerFunc{
				"single":         h.get,
				"favorites":      h.favorites,
				"by-date":        h.byDate,
				"by-anniversary": h.byAnniversary,
				"timeline":       h.timeline,
				"stats":          h.stats,
			},
			fallback: h.list,
		},
		http.MethodPost: {
			actions: map[string]http.HandlerFunc{
				"reaction": h.react,
				"comment":  h.comment,
			},
			fallback: h.upload,
		},
		http.MethodPut: {actions: map[string]http.HandlerFunc{
			"update":   h.update,
			"favorite": h.toggleFavorite,
		}},
		http.MethodDelete: {fallback: h.delete},
	}
}

// list handles GET ?action=list
func (h *PhotoHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := models.PhotoFilter{
		Year:  queryIntPtr(r, "year"),
		Month: queryIntPtr(r, "month"),
	}
	if id := queryInt64(r, "anniversary_id"); id > 0 {
		filter.AnniversaryID = &id
	}

	photos, page, err := h.photos.List(r.Context(), scopeFrom(r.Context()), filter, queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondPaginated(w, photos, page)
}

// get handles GET ?action=single&id=
func (h *PhotoHandler) get(w http.ResponseWriter, r *http.Request) {
	photo, err := h.photos.Get(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", photo)
}

func (h *PhotoHandler) favorites(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photos.Favorites(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", photos)
}

func (h *PhotoHandler) byDate(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.photos.ByDate(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", buckets)
}

func (h *PhotoHandler) byAnniversary(w http.ResponseWriter, r *http.Request) {
	albums, err := h.photos.ByAnniversary(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", albums)
}

func (h *PhotoHandler) timeline(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.photos.Timeline(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", buckets)
}

func (h *PhotoHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.photos.Stats(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", stats)
}

// upload handles POST ?action=upload with a multipart "photo" file
func (h *PhotoHandler) upload(w http.ResponseWriter, r *http.Request) {
	up, file, err := readUpload(w, r, "photo", h.maxUpload, "No photo uploaded")
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer file.Close()

	meta := services.PhotoUpload{
		Caption:   r.FormValue("caption"),
		Location:  r.FormValue("location"),
		PhotoDate: r.FormValue("photo_date"),
		Tags:      r.FormValue("tags"),
	}
	if raw := r.FormValue("anniversary_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			log.Debug().Str("anniversary_id", raw).Msg("Ignoring malformed anniversary_id")
		} else {
			meta.AnniversaryID = &id
		}
	}

	photo, err := h.photos.Upload(r.Context(), scopeFrom(r.Context()), up, meta)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Memory uploaded successfully! 📸", photo)
}

// update handles PUT ?action=update&id=
func (h *PhotoHandler) update(w http.ResponseWriter, r *http.Request) {
	var patch models.PhotoPatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}
	photo, err := h.photos.Update(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Photo updated", photo)
}

// toggleFavorite handles PUT ?action=favorite&id=
func (h *PhotoHandler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	favorite, err := h.photos.ToggleFavorite(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	message := "Removed from favorites"
	if favorite {
		message = "Added to favorites 💚"
	}
	respond(w, http.StatusOK, message, map[string]bool{"is_favorite": favorite})
}

// delete handles DELETE ?id=
func (h *PhotoHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.photos.Delete(r.Context(), scopeFrom(r.Context()), queryInt64(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Photo deleted", nil)
}

// react handles POST ?action=reaction
func (h *PhotoHandler) react(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoID      int64  `json:"photo_id"`
		ReactionType string `json:"reaction_type"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.photos.React(r.Context(), scopeFrom(r.Context()), req.PhotoID, req.ReactionType); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Reaction added 💚", nil)
}

// comment handles POST ?action=comment
func (h *PhotoHandler) comment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhotoID int64  `json:"photo_id"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	comment, err := h.photos.Comment(r.Context(), scopeFrom(r.Context()), req.PhotoID, req.Content)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Comment added", comment)
}
