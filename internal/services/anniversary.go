package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	anniversaryPhotoLimit = 20
	defaultCountdownIcon  = "💚"
)

// AnniversaryPolicy tunes who may change anniversaries
type AnniversaryPolicy struct {
	// OwnerOnly limits update and delete to the creator
	OwnerOnly bool
}

// AnniversaryService handles anniversaries and countdowns. Anniversaries are
// shared by every account; aggregates inside them are scoped to the caller.
type AnniversaryService struct {
	anniversaries AnniversaryStore
	countdowns    CountdownStore
	photos        PhotoStore
	memories      MemoryStore
	activity      activityLogger
	policy        AnniversaryPolicy
	now           func() time.Time
}

// NewAnniversaryService creates a new anniversary service
func NewAnniversaryService(
	anniversaries AnniversaryStore,
	countdowns CountdownStore,
	photos PhotoStore,
	memories MemoryStore,
	activity ActivityStore,
	policy AnniversaryPolicy,
) *AnniversaryService {
	return &AnniversaryService{
		anniversaries: anniversaries,
		countdowns:    countdowns,
		photos:        photos,
		memories:      memories,
		activity:      activityLogger{store: activity},
		policy:        policy,
		now:           time.Now,
	}
}

// CreateAnniversaryRequest is the body of an anniversary creation
type CreateAnniversaryRequest struct {
	Title           string      `json:"title"`
	AnniversaryDate models.Date `json:"anniversary_date"`
	Description     *string     `json:"description"`
	YearNumber      int         `json:"year_number"`
	CoverPhoto      *string     `json:"cover_photo"`
}

// List returns every anniversary with the couple's photo counts
func (s *AnniversaryService) List(ctx context.Context, scope *Scope) ([]*models.Anniversary, error) {
	anniversaries, err := s.anniversaries.List(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to list anniversaries", err)
	}
	return anniversaries, nil
}

// Get returns an anniversary with up to 20 of the couple's linked photos and
// their memories within a month of the date
func (s *AnniversaryService) Get(ctx context.Context, scope *Scope, id int64) (*models.Anniversary, error) {
	if id <= 0 {
		return nil, apperr.Validation("Anniversary ID required")
	}
	anniversary, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	photos, err := s.photos.ForAnniversary(ctx, id, scope.Visible, anniversaryPhotoLimit)
	if err != nil {
		return nil, apperr.Internal("failed to load anniversary photos", err)
	}
	photoCount, err := s.photos.CountForAnniversary(ctx, id, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to count anniversary photos", err)
	}
	date := anniversary.AnniversaryDate.Time
	memories, err := s.memories.Between(ctx, scope.Visible, date.AddDate(0, -1, 0), date.AddDate(0, 1, 0))
	if err != nil {
		return nil, apperr.Internal("failed to load anniversary memories", err)
	}

	anniversary.Photos = nonNil(photos)
	anniversary.Memories = nonNil(memories)
	anniversary.PhotoCount = photoCount
	return anniversary, nil
}

// Current returns the anniversary nearest to today, nil when there is none
func (s *AnniversaryService) Current(ctx context.Context, scope *Scope) (*models.Anniversary, error) {
	anniversary, err := s.anniversaries.Nearest(ctx, scope.Visible, models.NewDate(s.now()).Time)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal("failed to load current anniversary", err)
	}
	return anniversary, nil
}

// Create adds an anniversary created by the caller
func (s *AnniversaryService) Create(ctx context.Context, scope *Scope, req CreateAnniversaryRequest) (*models.Anniversary, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.AnniversaryDate.IsZero() || req.YearNumber == 0 {
		return nil, apperr.Validation("Title, date, and year number are required")
	}

	anniversary := &models.Anniversary{
		Title:           req.Title,
		AnniversaryDate: req.AnniversaryDate,
		Description:     req.Description,
		YearNumber:      req.YearNumber,
		CoverPhoto:      req.CoverPhoto,
		CreatedBy:       scope.UserID,
	}
	if err := s.anniversaries.Create(ctx, anniversary); err != nil {
		return nil, apperr.Internal("failed to create anniversary", err)
	}

	s.activity.record(ctx, scope.UserID, models.ActivityAnniversaryAdded, anniversary.ID, "Added anniversary: "+anniversary.Title)
	log.Info().Int64("user_id", scope.UserID).Int64("anniversary_id", anniversary.ID).Msg("Anniversary created")
	return anniversary, nil
}

// Update edits an anniversary and returns the stored result
func (s *AnniversaryService) Update(ctx context.Context, scope *Scope, id int64, patch models.AnniversaryPatch) (*models.Anniversary, error) {
	if id <= 0 {
		return nil, apperr.Validation("Anniversary ID required")
	}
	if err := s.authorize(ctx, scope, id); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, apperr.Validation("No fields to update")
	}
	if err := s.anniversaries.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Anniversary not found")
		}
		return nil, apperr.Internal("failed to update anniversary", err)
	}
	return s.load(ctx, id)
}

// Delete unlinks an anniversary's photos and removes it
func (s *AnniversaryService) Delete(ctx context.Context, scope *Scope, id int64) error {
	if id <= 0 {
		return apperr.Validation("Anniversary ID required")
	}
	if err := s.authorize(ctx, scope, id); err != nil {
		return err
	}
	if err := s.anniversaries.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Anniversary not found")
		}
		return apperr.Internal("failed to delete anniversary", err)
	}
	log.Info().Int64("user_id", scope.UserID).Int64("anniversary_id", id).Msg("Anniversary deleted")
	return nil
}

// CountdownRequest is the body of a countdown creation
type CountdownRequest struct {
	Title          string  `json:"title"`
	TargetDate     string  `json:"target_date"`
	Description    *string `json:"description"`
	Icon           string  `json:"icon"`
	IsRecurring    bool    `json:"is_recurring"`
	RecurrenceType *string `json:"recurrence_type"`
}

// Countdowns lists the couple's future countdowns with seconds remaining
func (s *AnniversaryService) Countdowns(ctx context.Context, scope *Scope) ([]*models.Countdown, error) {
	now := s.now()
	countdowns, err := s.countdowns.Upcoming(ctx, scope.Visible, now)
	if err != nil {
		return nil, apperr.Internal("failed to list countdowns", err)
	}
	for _, c := range countdowns {
		c.SecondsUntil = int64(c.TargetDate.Sub(now) / time.Second)
	}
	return countdowns, nil
}

// CreateCountdown adds a countdown created by the caller
func (s *AnniversaryService) CreateCountdown(ctx context.Context, scope *Scope, req CountdownRequest) (*models.Countdown, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || strings.TrimSpace(req.TargetDate) == "" {
		return nil, apperr.Validation("Title and target date are required")
	}
	target, err := ParseTimestamp(req.TargetDate)
	if err != nil {
		return nil, apperr.Validation("Invalid target_date")
	}
	if req.Icon == "" {
		req.Icon = defaultCountdownIcon
	}

	countdown := &models.Countdown{
		Title:          req.Title,
		TargetDate:     target,
		Description:    req.Description,
		Icon:           req.Icon,
		CreatedBy:      scope.UserID,
		IsRecurring:    req.IsRecurring,
		RecurrenceType: req.RecurrenceType,
	}
	if err := s.countdowns.Create(ctx, countdown); err != nil {
		return nil, apperr.Internal("failed to create countdown", err)
	}
	countdown.SecondsUntil = int64(target.Sub(s.now()) / time.Second)
	return countdown, nil
}

// DeleteCountdown removes a countdown created by the caller
func (s *AnniversaryService) DeleteCountdown(ctx context.Context, scope *Scope, id int64) error {
	if id <= 0 {
		return apperr.Validation("Countdown ID required")
	}
	countdown, err := s.countdowns.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Countdown not found")
		}
		return apperr.Internal("failed to load countdown", err)
	}
	if countdown.CreatedBy != scope.UserID {
		return apperr.Forbidden("Unauthorized")
	}
	if err := s.countdowns.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Countdown not found")
		}
		return apperr.Internal("failed to delete countdown", err)
	}
	return nil
}

func (s *AnniversaryService) load(ctx context.Context, id int64) (*models.Anniversary, error) {
	anniversary, err := s.anniversaries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Anniversary not found")
		}
		return nil, apperr.Internal("failed to load anniversary", err)
	}
	return anniversary, nil
}

// authorize checks the anniversary exists and, under the owner-only policy,
// that the caller created it
func (s *AnniversaryService) authorize(ctx context.Context, scope *Scope, id int64) error {
	anniversary, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if s.policy.OwnerOnly && anniversary.CreatedBy != scope.UserID {
		return apperr.Forbidden("Unauthorized")
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
