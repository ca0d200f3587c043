package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/middleware"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/services"

	"github.com/rs/zerolog/log"
)

const defaultMessage = "Success"

// Response is the success envelope. Data is always present, null included.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// PaginatedResponse is the success envelope of a paged listing
type PaginatedResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Data       interface{}       `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respond sends a success envelope
func respond(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	if message == "" {
		message = defaultMessage
	}
	writeJSON(w, statusCode, Response{Success: true, Message: message, Data: data})
}

// respondPaginated sends a page of results with its pagination block
func respondPaginated(w http.ResponseWriter, data interface{}, pagination models.Pagination) {
	writeJSON(w, http.StatusOK, PaginatedResponse{
		Success:    true,
		Message:    defaultMessage,
		Data:       data,
		Pagination: pagination,
	})
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Message: message})
}

// handleError maps err to its HTTP status. Internal errors are logged with
// detail and answered with a generic message.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Error().
			Err(err).
			Int64("user_id", middleware.GetUserID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("action", r.URL.Query().Get("action")).
			Msg("Request failed")
	}
	respondError(w, apperr.PublicMessage(err), kind.HTTPStatus())
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("Invalid request body")
	}
	return nil
}

// queryInt returns the integer query parameter key, 0 when absent or malformed
func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

// queryInt64 returns the id-like query parameter key, 0 when absent or malformed
func queryInt64(r *http.Request, key string) int64 {
	n, _ := strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
	return n
}

// queryIntPtr returns nil unless key holds a valid integer
func queryIntPtr(r *http.Request, key string) *int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return nil
	}
	return &n
}

// actionRoute maps the action query parameter of one HTTP method to handlers.
// fallback serves absent and unknown actions; without one they answer 400.
type actionRoute struct {
	actions  map[string]http.HandlerFunc
	fallback http.HandlerFunc
}

// actionMux dispatches a resource endpoint by method and action
type actionMux map[string]actionRoute

func (m actionMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	route, ok := m[r.Method]
	if !ok {
		respondError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h, ok := route.actions[r.URL.Query().Get("action")]; ok {
		h(w, r)
		return
	}
	if route.fallback != nil {
		route.fallback(w, r)
		return
	}
	respondError(w, "Invalid action", http.StatusBadRequest)
}

// ScopeResolver computes the caller's visibility set
type ScopeResolver interface {
	Resolve(ctx context.Context, userID int64) (*services.Scope, error)
}

type scopeKey struct{}

// RequireScope resolves the authenticated caller's partner link once per
// request. It must run after middleware.AuthMiddleware.
func RequireScope(resolver ScopeResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := middleware.GetUserID(r.Context())
			if userID == 0 {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			scope, err := resolver.Resolve(r.Context(), userID)
			if err != nil {
				handleError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), scopeKey{}, scope)))
		})
	}
}

// scopeFrom returns the scope stored by RequireScope
func scopeFrom(ctx context.Context) *services.Scope {
	scope, _ := ctx.Value(scopeKey{}).(*services.Scope)
	return scope
}
