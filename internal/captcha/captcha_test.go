package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteverify(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotResponse string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "shh", r.PostForm.Get("secret"))
		gotResponse = r.PostForm.Get("response")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &gotResponse
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"high score", http.StatusOK, `{"success":true,"score":0.9}`, true},
		{"threshold score", http.StatusOK, `{"success":true,"score":0.5}`, true},
		{"low score", http.StatusOK, `{"success":true,"score":0.3}`, false},
		{"unsuccessful", http.StatusOK, `{"success":false,"error-codes":["invalid-input-response"]}`, false},
		{"server error", http.StatusInternalServerError, ``, false},
		{"garbage", http.StatusOK, `not json`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, got := siteverify(t, tt.status, tt.body)
			v := NewVerifier(true, "shh", 0.5, server.URL, WithHTTPClient(server.Client()))

			assert.Equal(t, tt.want, v.Verify(context.Background(), "client-token"))
			assert.Equal(t, "client-token", *got)
		})
	}
}

func TestVerifyEmptyTokenSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	v := NewVerifier(true, "shh", 0.5, server.URL)
	assert.False(t, v.Verify(context.Background(), ""))
	assert.False(t, called)
}

func TestDisabledVerifierAcceptsAnything(t *testing.T) {
	v := NewVerifier(false, "", 0.5, "http://127.0.0.1:0")
	assert.True(t, v.Verify(context.Background(), ""))
	assert.True(t, v.Verify(context.Background(), "whatever"))
}
