package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"anniversary-backend/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Beach day"))
	if field != "" {
		part, err := mw.CreateFormFile(field, "beach.jpg")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/api/photos", &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestReadUpload(t *testing.T) {
	t.Run("opens file", func(t *testing.T) {
		r := multipartRequest(t, "photo", []byte("jpeg bytes"))
		upload, file, err := readUpload(httptest.NewRecorder(), r, "photo", 1<<10, "No photo uploaded")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "beach.jpg", upload.Name)
		assert.Equal(t, int64(10), upload.Size)
		data, err := io.ReadAll(upload.Body)
		require.NoError(t, err)
		assert.Equal(t, "jpeg bytes", string(data))
		assert.Equal(t, "Beach day", r.FormValue("title"))
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := readUpload(httptest.NewRecorder(), multipartRequest(t, "", nil), "photo", 1<<10, "No photo uploaded")
		require.Error(t, err)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Equal(t, "No photo uploaded", apperr.PublicMessage(err))
	})

	t.Run("not multipart", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/photos", bytes.NewReader([]byte(`{}`)))
		_, _, err := readUpload(httptest.NewRecorder(), r, "photo", 1<<10, "No photo uploaded")
		assert.Equal(t, "No photo uploaded", apperr.PublicMessage(err))
	})

	t.Run("body over cap", func(t *testing.T) {
		r := multipartRequest(t, "photo", bytes.Repeat([]byte{'x'}, formOverhead+4<<10))
		_, _, err := readUpload(httptest.NewRecorder(), r, "photo", 1<<10, "No photo uploaded")
		require.Error(t, err)
		assert.Equal(t, "File too large. Maximum size is 1KB", apperr.PublicMessage(err))
	})
}
