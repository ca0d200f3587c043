package handlers

import (
	"net/http"

	"anniversary-backend/internal/middleware"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/services"
)

// AuthHandler handles accounts, sessions and the partner link on /api/auth
type AuthHandler struct {
	users     *services.UserService
	protect   func(http.Handler) http.Handler
	maxUpload int64
}

// NewAuthHandler creates a new auth handler. protect guards the actions
// that need a signed-in caller.
func NewAuthHandler(users *services.UserService, protect func(http.Handler) http.Handler, maxUpload int64) *AuthHandler {
	return &AuthHandler{
		users:     users,
		protect:   protect,
		maxUpload: maxUpload,
	}
}

// Routes returns the action dispatcher of /api/auth
func (h *AuthHandler) Routes() http.Handler {
	return actionMux{
		http.MethodPost: {actions: map[string]http.HandlerFunc{
			"login":         h.login,
			"register":      h.register,
			"logout":        h.logout,
			"upload-avatar": h.private(h.uploadAvatar),
		}},
		http.MethodGet: {actions: map[string]http.HandlerFunc{
			"me":      h.private(h.me),
			"partner": h.private(h.partner),
		}},
		http.MethodPut: {actions: map[string]http.HandlerFunc{
			"profile":      h.private(h.updateProfile),
			"password":     h.private(h.changePassword),
			"link-partner": h.private(h.linkPartner),
			"push-token":   h.private(h.pushToken),
		}},
	}
}

func (h *AuthHandler) private(next http.HandlerFunc) http.HandlerFunc {
	return h.protect(next).ServeHTTP
}

// login handles POST ?action=login
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := h.users.Login(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Login successful", session)
}

// register handles POST ?action=register
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	session, err := h.users.Register(r.Context(), req)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, "Registration successful", session)
}

// logout handles POST ?action=logout. Tokens are stateless; the client drops it.
func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "Logged out successfully", nil)
}

// me handles GET ?action=me
func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "", user)
}

// partner handles GET ?action=partner
func (h *AuthHandler) partner(w http.ResponseWriter, r *http.Request) {
	partner, err := h.users.Partner(r.Context(), scopeFrom(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if partner == nil {
		respond(w, http.StatusOK, "No partner linked", nil)
		return
	}
	respond(w, http.StatusOK, "", partner)
}

// updateProfile handles PUT ?action=profile
func (h *AuthHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var patch models.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		handleError(w, r, err)
		return
	}
	user, err := h.users.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), patch)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Profile updated", user)
}

// changePassword handles PUT ?action=password
func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	var req services.PasswordChange
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.users.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), req); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Password updated", nil)
}

// linkPartner handles PUT ?action=link-partner
func (h *AuthHandler) linkPartner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PartnerUsername string `json:"partner_username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	partner, err := h.users.LinkPartner(r.Context(), middleware.GetUserID(r.Context()), req.PartnerUsername)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Partner linked successfully! 💚", partner)
}

// pushToken handles PUT ?action=push-token. An empty token unregisters the device.
func (h *AuthHandler) pushToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PushToken string `json:"push_token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if err := h.users.SetPushToken(r.Context(), middleware.GetUserID(r.Context()), req.PushToken); err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Push token updated", nil)
}

// uploadAvatar handles POST ?action=upload-avatar with a multipart "avatar" file
func (h *AuthHandler) uploadAvatar(w http.ResponseWriter, r *http.Request) {
	up, file, err := readUpload(w, r, "avatar", h.maxUpload, "No file uploaded")
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer file.Close()

	user, err := h.users.UploadAvatar(r.Context(), middleware.GetUserID(r.Context()), up)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Avatar updated successfully! ✨", user)
}
