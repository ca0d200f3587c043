package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/middleware"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestRespondEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	respond(rec, http.StatusCreated, "", nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Success", body["message"])
	data, present := body["data"]
	assert.True(t, present, "data key is always present")
	assert.Nil(t, data)
}

func TestRespondPaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	respondPaginated(rec, []int{1, 2}, models.NewPagination(41, 2, 20))

	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 2)
	assert.Equal(t, map[string]interface{}{
		"total": float64(41),
		"page":  float64(2),
		"limit": float64(20),
		"pages": float64(3),
	}, body["pagination"])
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", apperr.Validation("Title is required"), http.StatusBadRequest, "Title is required"},
		{"unauthorized", apperr.Unauthorized("Unauthorized"), http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", apperr.Forbidden("Unauthorized"), http.StatusForbidden, "Unauthorized"},
		{"not found", apperr.NotFound("Photo not found"), http.StatusNotFound, "Photo not found"},
		{"internal", apperr.Internal("failed to load photo", errors.New("connection reset")), http.StatusInternalServerError, "Internal server error"},
		{"foreign", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, httptest.NewRequest(http.MethodGet, "/api/photos", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, map[string]interface{}{"success": false, "message": tt.message}, decodeBody(t, rec))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Title string `json:"title"`
	}

	empty := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	require.NoError(t, decodeJSON(empty, &v))
	assert.Empty(t, v.Title)

	valid := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"Picnic"}`))
	require.NoError(t, decodeJSON(valid, &v))
	assert.Equal(t, "Picnic", v.Title)

	malformed := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":`))
	err := decodeJSON(malformed, &v)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Invalid request body", apperr.PublicMessage(err))
}

func TestQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&id=42&year=2024&month=x", nil)
	assert.Equal(t, 3, queryInt(r, "page"))
	assert.Equal(t, 0, queryInt(r, "limit"))
	assert.Equal(t, int64(42), queryInt64(r, "id"))
	require.NotNil(t, queryIntPtr(r, "year"))
	assert.Equal(t, 2024, *queryIntPtr(r, "year"))
	assert.Nil(t, queryIntPtr(r, "month"))
}

func named(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, name, nil)
	}
}

func TestActionMux(t *testing.T) {
	mux := actionMux{
		http.MethodGet: {
			actions:  map[string]http.HandlerFunc{"single": named("single")},
			fallback: named("list"),
		},
		http.MethodPut: {actions: map[string]http.HandlerFunc{"update": named("update")}},
	}

	tests := []struct {
		name    string
		method  string
		target  string
		status  int
		message string
	}{
		{"named action", http.MethodGet, "/?action=single", http.StatusOK, "single"},
		{"absent action falls back", http.MethodGet, "/", http.StatusOK, "list"},
		{"unknown action falls back", http.MethodGet, "/?action=bogus", http.StatusOK, "list"},
		{"unknown action without fallback", http.MethodPut, "/?action=bogus", http.StatusBadRequest, "Invalid action"},
		{"absent action without fallback", http.MethodPut, "/", http.StatusBadRequest, "Invalid action"},
		{"unsupported method", http.MethodPatch, "/?action=update", http.StatusMethodNotAllowed, "Method not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["message"])
		})
	}
}

type stubResolver struct {
	scope *services.Scope
	err   error
}

func (s stubResolver) Resolve(_ context.Context, userID int64) (*services.Scope, error) {
	if s.err != nil {
		return nil, s.err
	}
	scope := *s.scope
	scope.UserID = userID
	return &scope, nil
}

func TestRequireScope(t *testing.T) {
	partner := int64(2)
	var got *services.Scope
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = scopeFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	withCaller := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/photos", nil)
		return r.WithContext(middleware.WithCaller(r.Context(), middleware.Caller{UserID: 1, Username: "alice"}))
	}

	t.Run("stores scope", func(t *testing.T) {
		h := RequireScope(stubResolver{scope: &services.Scope{PartnerID: &partner, Visible: models.VisibilitySet{1, 2}}})(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withCaller())

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, int64(1), got.UserID)
		assert.Equal(t, models.VisibilitySet{1, 2}, got.Visible)
	})

	t.Run("requires caller", func(t *testing.T) {
		h := RequireScope(stubResolver{scope: &services.Scope{}})(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/photos", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted user", func(t *testing.T) {
		h := RequireScope(stubResolver{err: apperr.Unauthorized("Unauthorized")})(next)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, withCaller())

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Unauthorized", decodeBody(t, rec)["message"])
	})
}
