package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/media"

	"github.com/rs/zerolog/log"
)

// Upload is a file received from a multipart form
type Upload struct {
	Name string
	Size int64
	Body io.ReadSeeker
}

type storedFile struct {
	FileName     string
	Key          string
	ThumbnailKey *string
	Asset        *media.Asset
}

// uploader validates uploads and writes them with their thumbnail to the
// file store under <subdir>/ and thumbnails/<subdir>/
type uploader struct {
	files FileStore
	media *media.Processor
}

func (u uploader) store(ctx context.Context, subdir string, up Upload, imagesOnly bool) (*storedFile, error) {
	if imagesOnly && isVideo(up.Name) {
		return nil, apperr.Validation("Invalid file type. Allowed: jpg, jpeg, png, gif, webp")
	}

	asset, err := u.media.Inspect(up.Name, up.Size, up.Body)
	if err != nil {
		return nil, u.validationError(err)
	}

	name := media.FileName(asset.MediaType, asset.Ext)
	stored := &storedFile{FileName: name, Key: subdir + "/" + name, Asset: asset}

	if err := u.files.Put(ctx, stored.Key, up.Body, up.Size, asset.ContentType); err != nil {
		return nil, apperr.Internal("Failed to save file", err)
	}

	if asset.Thumbnail != nil {
		thumbKey := "thumbnails/" + subdir + "/" + strings.TrimSuffix(name, "."+asset.Ext) + "." + asset.ThumbnailExt
		err := u.files.Put(ctx, thumbKey, bytes.NewReader(asset.Thumbnail), int64(len(asset.Thumbnail)), asset.ThumbnailType)
		if err != nil {
			u.remove(ctx, stored.Key)
			return nil, apperr.Internal("Failed to save file", err)
		}
		stored.ThumbnailKey = &thumbKey
	}
	return stored, nil
}

// remove deletes keys best effort
func (u uploader) remove(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := u.files.Delete(ctx, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("Failed to delete stored file")
		}
	}
}

func (u uploader) validationError(err error) error {
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return apperr.Validation(fmt.Sprintf("File too large. Maximum size is %s", media.HumanSize(u.media.MaxSize())))
	case errors.Is(err, media.ErrInvalidType):
		return apperr.Validation("Invalid file type. Allowed: " + strings.Join(media.AllowedExtensions, ", "))
	case errors.Is(err, media.ErrInvalidImage):
		return apperr.Validation("Invalid image file")
	default:
		return apperr.Internal("Failed to process upload", err)
	}
}

func isVideo(name string) bool {
	switch media.Extension(name) {
	case "mp4", "mov", "avi", "webm":
		return true
	}
	return false
}
