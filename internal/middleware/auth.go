package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"anniversary-backend/internal/token"

	"github.com/rs/zerolog/log"
)

type contextKey struct{}

// Caller is the verified identity of the request's user
type Caller struct {
	UserID   int64
	Username string
}

// WithCaller returns a copy of ctx carrying c
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// CallerFrom extracts the caller stored by AuthMiddleware
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(contextKey{}).(Caller)
	return c, ok
}

// GetUserID extracts the caller's user ID from context, 0 when absent
func GetUserID(ctx context.Context) int64 {
	c, ok := CallerFrom(ctx)
	if !ok {
		return 0
	}
	return c.UserID
}

// AuthMiddleware verifies the bearer token and stores the caller in the
// request context. Requests without a valid token are answered 401 before
// reaching next.
func AuthMiddleware(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := Authenticate(codec, r)
			if !ok {
				respondError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// Authenticate verifies the token carried by r without touching the
// response. Handlers with mixed public and private actions use it directly.
func Authenticate(codec *token.Codec, r *http.Request) (Caller, bool) {
	raw := BearerToken(r)
	if raw == "" {
		return Caller{}, false
	}

	claims, err := codec.Verify(raw)
	if err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Rejected token")
		return Caller{}, false
	}
	return Caller{UserID: claims.UserID, Username: claims.Username}, true
}

// BearerToken returns the token from the Authorization header, falling back
// to X-Authorization. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) string {
	for _, header := range []string{"Authorization", "X-Authorization"} {
		if raw := parseBearer(r.Header.Get(header)); raw != "" {
			return raw
		}
	}
	return ""
}

func parseBearer(value string) string {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}

// respondError writes the failure envelope
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
