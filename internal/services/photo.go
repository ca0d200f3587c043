package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/media"
	"anniversary-backend/internal/metrics"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/push"
	"anniversary-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	defaultPhotoLimit = 20
	maxPhotoLimit     = 50
)

// PhotoService handles photo-related business logic
type PhotoService struct {
	photos   PhotoStore
	uploads  uploader
	activity activityLogger
	notifier Notifier
	now      func() time.Time
}

// NewPhotoService creates a new photo service
func NewPhotoService(
	photos PhotoStore,
	files FileStore,
	processor *media.Processor,
	activity ActivityStore,
	notifier Notifier,
) *PhotoService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &PhotoService{
		photos:   photos,
		uploads:  uploader{files: files, media: processor},
		activity: activityLogger{store: activity},
		notifier: notifier,
		now:      time.Now,
	}
}

// maxPage keeps (page-1)*limit well inside the OFFSET range
const maxPage = 100_000

// ClampPage bounds page to 1..maxPage and limit to 1..max, def when unset
func ClampPage(page, limit, def, max int) models.PageRequest {
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return models.PageRequest{Page: page, Limit: limit}
}

// List returns one page of the couple's photos
func (s *PhotoService) List(ctx context.Context, scope *Scope, filter models.PhotoFilter, page, limit int) ([]*models.Photo, models.Pagination, error) {
	req := ClampPage(page, limit, defaultPhotoLimit, maxPhotoLimit)
	photos, total, err := s.photos.List(ctx, scope.Visible, scope.UserID, filter, req)
	if err != nil {
		return nil, models.Pagination{}, apperr.Internal("failed to list photos", err)
	}
	return photos, models.NewPagination(total, req.Page, req.Limit), nil
}

// Get returns a visible photo with its reactions and comments
func (s *PhotoService) Get(ctx context.Context, scope *Scope, id int64) (*models.Photo, error) {
	if id <= 0 {
		return nil, apperr.Validation("Photo ID required")
	}
	photo, err := s.visible(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	if photo.Reactions, err = s.photos.Reactions(ctx, id); err != nil {
		return nil, apperr.Internal("failed to load reactions", err)
	}
	if photo.Comments, err = s.photos.Comments(ctx, id); err != nil {
		return nil, apperr.Internal("failed to load comments", err)
	}
	return photo, nil
}

// Favorites returns the couple's favorite photos
func (s *PhotoService) Favorites(ctx context.Context, scope *Scope) ([]*models.Photo, error) {
	photos, err := s.photos.Favorites(ctx, scope.Visible, scope.UserID)
	if err != nil {
		return nil, apperr.Internal("failed to list favorites", err)
	}
	return photos, nil
}

// ByDate counts the couple's photos per month
func (s *PhotoService) ByDate(ctx context.Context, scope *Scope) ([]*models.MonthBucket, error) {
	buckets, err := s.photos.MonthBuckets(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to group photos by month", err)
	}
	return buckets, nil
}

// ByAnniversary lists anniversaries that have photos from the couple
func (s *PhotoService) ByAnniversary(ctx context.Context, scope *Scope) ([]*models.AnniversaryAlbum, error) {
	albums, err := s.photos.AnniversaryAlbums(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to group photos by anniversary", err)
	}
	return albums, nil
}

// Timeline summarizes the couple's photos per year
func (s *PhotoService) Timeline(ctx context.Context, scope *Scope) ([]*models.YearBucket, error) {
	buckets, err := s.photos.YearBuckets(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to build photo timeline", err)
	}
	return buckets, nil
}

// Stats returns the couple's dashboard counters
func (s *PhotoService) Stats(ctx context.Context, scope *Scope) (*models.Stats, error) {
	stats, err := s.photos.Stats(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to load stats", err)
	}
	return stats, nil
}

// PhotoUpload is the form metadata sent along with an uploaded file
type PhotoUpload struct {
	Caption       string
	Location      string
	PhotoDate     string
	AnniversaryID *int64
	Tags          string
}

// Upload stores a new photo or video owned by the caller
func (s *PhotoService) Upload(ctx context.Context, scope *Scope, up Upload, meta PhotoUpload) (*models.Photo, error) {
	date := models.NewDate(s.now())
	if meta.PhotoDate != "" {
		parsed, err := models.ParseDate(meta.PhotoDate)
		if err != nil {
			return nil, apperr.Validation("Invalid photo_date")
		}
		date = parsed
	}

	stored, err := s.uploads.store(ctx, "photos", up, false)
	if err != nil {
		return nil, err
	}

	photo := &models.Photo{
		UserID:        scope.UserID,
		AnniversaryID: meta.AnniversaryID,
		Filename:      stored.FileName,
		OriginalName:  up.Name,
		FilePath:      stored.Key,
		ThumbnailPath: stored.ThumbnailKey,
		Caption:       optional(meta.Caption),
		Location:      optional(meta.Location),
		PhotoDate:     &date,
		Tags:          SplitTags(meta.Tags),
		Width:         stored.Asset.Width,
		Height:        stored.Asset.Height,
		FileSize:      up.Size,
		MediaType:     stored.Asset.MediaType,
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		s.uploads.remove(ctx, stored.Key, deref(stored.ThumbnailKey))
		return nil, apperr.Internal("failed to save photo", err)
	}

	metrics.RecordUpload(photo.MediaType, photo.FileSize)
	s.activity.record(ctx, scope.UserID, models.ActivityPhotoUpload, photo.ID, "Uploaded a new memory")
	log.Info().Int64("user_id", scope.UserID).Int64("photo_id", photo.ID).Str("media_type", photo.MediaType).Msg("Photo uploaded")

	if scope.HasPartner() {
		s.notifier.Notify(ctx, *scope.PartnerID,
			WSMessage{Type: EventPhotoUploaded, Data: photo},
			push.Alert{Title: "New memory 📸", Body: "Your partner uploaded a new photo"},
		)
	}
	return photo, nil
}

// Update edits a photo owned by the caller and returns the stored result
func (s *PhotoService) Update(ctx context.Context, scope *Scope, id int64, patch models.PhotoPatch) (*models.Photo, error) {
	if id <= 0 {
		return nil, apperr.Validation("Photo ID required")
	}
	if _, err := s.owned(ctx, scope, id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperr.Validation("No fields to update")
	}
	if err := s.photos.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Photo not found")
		}
		return nil, apperr.Internal("failed to update photo", err)
	}
	return s.visible(ctx, scope, id)
}

// ToggleFavorite flips the favorite flag of a visible photo
func (s *PhotoService) ToggleFavorite(ctx context.Context, scope *Scope, id int64) (bool, error) {
	if id <= 0 {
		return false, apperr.Validation("Photo ID required")
	}
	if _, err := s.visible(ctx, scope, id); err != nil {
		return false, err
	}
	favorite, err := s.photos.ToggleFavorite(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, apperr.NotFound("Photo not found")
		}
		return false, apperr.Internal("failed to toggle favorite", err)
	}
	return favorite, nil
}

// Delete removes a photo owned by the caller together with its stored files
func (s *PhotoService) Delete(ctx context.Context, scope *Scope, id int64) error {
	if id <= 0 {
		return apperr.Validation("Photo ID required")
	}
	photo, err := s.owned(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.photos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Photo not found")
		}
		return apperr.Internal("failed to delete photo", err)
	}

	s.uploads.remove(ctx, photo.FilePath, deref(photo.ThumbnailPath))
	log.Info().Int64("user_id", scope.UserID).Int64("photo_id", id).Msg("Photo deleted")
	return nil
}

// React sets the caller's reaction on a visible photo
func (s *PhotoService) React(ctx context.Context, scope *Scope, photoID int64, reactionType string) error {
	reactionType = strings.TrimSpace(reactionType)
	if photoID <= 0 || reactionType == "" {
		return apperr.Validation("Photo ID and reaction type required")
	}
	if _, err := s.visible(ctx, scope, photoID); err != nil {
		return err
	}
	if err := s.photos.UpsertReaction(ctx, photoID, scope.UserID, reactionType); err != nil {
		return apperr.Internal("failed to save reaction", err)
	}
	return nil
}

// Comment adds a comment from the caller to a visible photo
func (s *PhotoService) Comment(ctx context.Context, scope *Scope, photoID int64, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if photoID <= 0 || content == "" {
		return nil, apperr.Validation("Photo ID and content required")
	}
	if _, err := s.visible(ctx, scope, photoID); err != nil {
		return nil, err
	}
	comment, err := s.photos.AddComment(ctx, photoID, scope.UserID, content)
	if err != nil {
		return nil, apperr.Internal("failed to save comment", err)
	}
	return comment, nil
}

// visible loads a photo whose owner is in the caller's visibility set.
// Anything else reads as not found.
func (s *PhotoService) visible(ctx context.Context, scope *Scope, id int64) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id, scope.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Photo not found")
		}
		return nil, apperr.Internal("failed to load photo", err)
	}
	if !scope.Visible.Contains(photo.UserID) {
		return nil, apperr.NotFound("Photo not found")
	}
	return photo, nil
}

// owned loads a photo for mutation: missing is 404, someone else's is 403
func (s *PhotoService) owned(ctx context.Context, scope *Scope, id int64) (*models.Photo, error) {
	photo, err := s.photos.GetByID(ctx, id, scope.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Photo not found")
		}
		return nil, apperr.Internal("failed to load photo", err)
	}
	if !scope.Owns(photo.UserID) {
		log.Warn().Int64("user_id", scope.UserID).Int64("photo_id", id).Msg("Photo mutation by non-owner")
		return nil, apperr.Forbidden("Unauthorized")
	}
	return photo, nil
}

// SplitTags parses a comma separated tag list, dropping blanks
func SplitTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
