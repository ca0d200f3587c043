package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/media"
	"anniversary-backend/internal/services"
)

// formOverhead is the allowance for multipart framing and text fields on top
// of the file size cap
const formOverhead = 1 << 20

// readUpload parses a multipart form and opens the file in field. The caller
// closes the returned file. Oversized bodies are rejected while reading.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxSize int64, missing string) (services.Upload, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+formOverhead)
	if err := r.ParseMultipartForm(maxSize + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.Upload{}, nil, apperr.Validation(fmt.Sprintf("File too large. Maximum size is %s", media.HumanSize(maxSize)))
		}
		return services.Upload{}, nil, apperr.Validation(missing)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return services.Upload{}, nil, apperr.Validation(missing)
	}
	return services.Upload{Name: header.Filename, Size: header.Size, Body: file}, file, nil
}
