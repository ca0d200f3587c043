package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/push"
	"anniversary-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	defaultMood           = "happy"
	defaultMilestoneIcon  = "💚"
	defaultMilestoneGroup = "other"
	defaultMemoryLimit    = 20
	maxMemoryLimit        = 50
)

// MemoryService handles memories and milestones
type MemoryService struct {
	memories   MemoryStore
	milestones MilestoneStore
	photos     PhotoStore
	activity   activityLogger
	notifier   Notifier
	now        func() time.Time
}

// NewMemoryService creates a new memory service
func NewMemoryService(
	memories MemoryStore,
	milestones MilestoneStore,
	photos PhotoStore,
	activity ActivityStore,
	notifier Notifier,
) *MemoryService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MemoryService{
		memories:   memories,
		milestones: milestones,
		photos:     photos,
		activity:   activityLogger{store: activity},
		notifier:   notifier,
		now:        time.Now,
	}
}

// CreateMemoryRequest is the body of a memory creation
type CreateMemoryRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	MemoryDate  models.Date `json:"memory_date"`
	Mood        string      `json:"mood"`
	IsMilestone bool        `json:"is_milestone"`
	PhotoIDs    []int64     `json:"photo_ids"`
}

// List returns one page of the couple's memories with their photos
func (s *MemoryService) List(ctx context.Context, scope *Scope, page, limit int) ([]*models.Memory, models.Pagination, error) {
	req := ClampPage(page, limit, defaultMemoryLimit, maxMemoryLimit)
	memories, total, err := s.memories.List(ctx, scope.Visible, req)
	if err != nil {
		return nil, models.Pagination{}, apperr.Internal("failed to list memories", err)
	}
	if err := s.attachPhotos(ctx, memories); err != nil {
		return nil, models.Pagination{}, err
	}
	return memories, models.NewPagination(total, req.Page, req.Limit), nil
}

// Get returns a visible memory with its photos
func (s *MemoryService) Get(ctx context.Context, scope *Scope, id int64) (*models.Memory, error) {
	if id <= 0 {
		return nil, apperr.Validation("Memory ID required")
	}
	memory, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Visible.Contains(memory.UserID) {
		return nil, apperr.NotFound("Memory not found")
	}
	if err := s.attachPhotos(ctx, []*models.Memory{memory}); err != nil {
		return nil, err
	}
	return memory, nil
}

// Create adds a memory owned by the caller, optionally linking visible photos
func (s *MemoryService) Create(ctx context.Context, scope *Scope, req CreateMemoryRequest) (*models.Memory, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.MemoryDate.IsZero() {
		return nil, apperr.Validation("Title and date are required")
	}
	if req.Mood == "" {
		req.Mood = defaultMood
	}
	if err := s.checkPhotos(ctx, scope, req.PhotoIDs); err != nil {
		return nil, err
	}

	memory := &models.Memory{
		UserID:      scope.UserID,
		Title:       req.Title,
		Description: req.Description,
		MemoryDate:  req.MemoryDate,
		Mood:        req.Mood,
		IsMilestone: req.IsMilestone,
	}
	if err := s.memories.Create(ctx, memory, req.PhotoIDs); err != nil {
		return nil, apperr.Internal("failed to create memory", err)
	}

	s.activity.record(ctx, scope.UserID, models.ActivityMemoryAdded, memory.ID, "Added a new memory: "+memory.Title)
	log.Info().Int64("user_id", scope.UserID).Int64("memory_id", memory.ID).Msg("Memory created")

	if scope.HasPartner() {
		s.notifier.Notify(ctx, *scope.PartnerID,
			WSMessage{Type: EventMemoryAdded, Data: memory},
			push.Alert{Title: "New memory 💭", Body: memory.Title},
		)
	}
	return memory, nil
}

// Update edits a memory owned by the caller and returns the stored result.
// PhotoIDs alone is a valid update.
func (s *MemoryService) Update(ctx context.Context, scope *Scope, id int64, patch models.MemoryPatch) (*models.Memory, error) {
	if id <= 0 {
		return nil, apperr.Validation("Memory ID required")
	}
	if _, err := s.owned(ctx, scope, id); err != nil {
		return nil, err
	}
	if patch.FieldsEmpty() && patch.PhotoIDs == nil {
		return nil, apperr.Validation("No fields to update")
	}
	if patch.PhotoIDs != nil {
		if err := s.checkPhotos(ctx, scope, *patch.PhotoIDs); err != nil {
			return nil, err
		}
	}

	if err := s.memories.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Memory not found")
		}
		return nil, apperr.Internal("failed to update memory", err)
	}
	return s.Get(ctx, scope, id)
}

// Delete removes a memory owned by the caller
func (s *MemoryService) Delete(ctx context.Context, scope *Scope, id int64) error {
	if id <= 0 {
		return apperr.Validation("Memory ID required")
	}
	if _, err := s.owned(ctx, scope, id); err != nil {
		return err
	}
	if err := s.memories.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Memory not found")
		}
		return apperr.Internal("failed to delete memory", err)
	}
	log.Info().Int64("user_id", scope.UserID).Int64("memory_id", id).Msg("Memory deleted")
	return nil
}

// OnThisDay groups the couple's photos and memories from today's calendar day
// in earlier years, closest year first
func (s *MemoryService) OnThisDay(ctx context.Context, scope *Scope) ([]*models.OnThisDay, error) {
	today := s.now()
	year, month, day := today.Year(), int(today.Month()), today.Day()

	photos, err := s.photos.OnThisDay(ctx, scope.Visible, month, day, year)
	if err != nil {
		return nil, apperr.Internal("failed to load photos for this day", err)
	}
	memories, err := s.memories.OnThisDay(ctx, scope.Visible, month, day, year)
	if err != nil {
		return nil, apperr.Internal("failed to load memories for this day", err)
	}

	groups := make(map[int]*models.OnThisDay)
	group := func(yearsAgo int) *models.OnThisDay {
		g, ok := groups[yearsAgo]
		if !ok {
			g = &models.OnThisDay{YearsAgo: yearsAgo, Photos: []*models.Photo{}, Memories: []*models.Memory{}}
			groups[yearsAgo] = g
		}
		return g
	}
	for _, p := range photos {
		if p.PhotoDate == nil {
			continue
		}
		g := group(year - p.PhotoDate.Year())
		g.Photos = append(g.Photos, p)
	}
	for _, m := range memories {
		g := group(year - m.MemoryDate.Year())
		g.Memories = append(g.Memories, m)
	}

	result := make([]*models.OnThisDay, 0, len(groups))
	for _, g := range groups {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].YearsAgo < result[j].YearsAgo })
	return result, nil
}

// Timeline merges the couple's memories, milestones and anniversaries
func (s *MemoryService) Timeline(ctx context.Context, scope *Scope) ([]*models.TimelineEntry, error) {
	entries, err := s.memories.Timeline(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to build timeline", err)
	}
	return entries, nil
}

// CreateMilestoneRequest is the body of a milestone creation
type CreateMilestoneRequest struct {
	Title         string      `json:"title"`
	Description   *string     `json:"description"`
	MilestoneDate models.Date `json:"milestone_date"`
	Icon          string      `json:"icon"`
	Category      string      `json:"category"`
}

// Milestones lists milestones created by the couple
func (s *MemoryService) Milestones(ctx context.Context, scope *Scope) ([]*models.Milestone, error) {
	milestones, err := s.milestones.List(ctx, scope.Visible)
	if err != nil {
		return nil, apperr.Internal("failed to list milestones", err)
	}
	return milestones, nil
}

// CreateMilestone adds a milestone created by the caller
func (s *MemoryService) CreateMilestone(ctx context.Context, scope *Scope, req CreateMilestoneRequest) (*models.Milestone, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.MilestoneDate.IsZero() {
		return nil, apperr.Validation("Title and date are required")
	}
	if req.Icon == "" {
		req.Icon = defaultMilestoneIcon
	}
	if req.Category == "" {
		req.Category = defaultMilestoneGroup
	}

	milestone := &models.Milestone{
		Title:         req.Title,
		Description:   req.Description,
		MilestoneDate: req.MilestoneDate,
		Icon:          req.Icon,
		Category:      req.Category,
		CreatedBy:     scope.UserID,
	}
	if err := s.milestones.Create(ctx, milestone); err != nil {
		return nil, apperr.Internal("failed to create milestone", err)
	}
	log.Info().Int64("user_id", scope.UserID).Int64("milestone_id", milestone.ID).Msg("Milestone created")
	return milestone, nil
}

// DeleteMilestone removes a milestone created by the caller
func (s *MemoryService) DeleteMilestone(ctx context.Context, scope *Scope, id int64) error {
	if id <= 0 {
		return apperr.Validation("Milestone ID required")
	}
	milestone, err := s.milestones.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Milestone not found")
		}
		return apperr.Internal("failed to load milestone", err)
	}
	if milestone.CreatedBy != scope.UserID {
		return apperr.Forbidden("Unauthorized")
	}
	if err := s.milestones.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Milestone not found")
		}
		return apperr.Internal("failed to delete milestone", err)
	}
	return nil
}

func (s *MemoryService) load(ctx context.Context, id int64) (*models.Memory, error) {
	memory, err := s.memories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Memory not found")
		}
		return nil, apperr.Internal("failed to load memory", err)
	}
	return memory, nil
}

func (s *MemoryService) owned(ctx context.Context, scope *Scope, id int64) (*models.Memory, error) {
	memory, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.Owns(memory.UserID) {
		log.Warn().Int64("user_id", scope.UserID).Int64("memory_id", id).Msg("Memory mutation by non-owner")
		return nil, apperr.Forbidden("Unauthorized")
	}
	return memory, nil
}

// checkPhotos rejects photo links to photos outside the visibility set
func (s *MemoryService) checkPhotos(ctx context.Context, scope *Scope, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	unique := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	visible, err := s.photos.VisibleIDs(ctx, ids, scope.Visible)
	if err != nil {
		return apperr.Internal("failed to check photos", err)
	}
	if len(visible) != len(unique) {
		return apperr.Forbidden("Unauthorized")
	}
	return nil
}

func (s *MemoryService) attachPhotos(ctx context.Context, memories []*models.Memory) error {
	if len(memories) == 0 {
		return nil
	}
	ids := make([]int64, len(memories))
	for i, m := range memories {
		ids[i] = m.ID
	}
	linked, err := s.memories.Photos(ctx, ids)
	if err != nil {
		return apperr.Internal("failed to load memory photos", err)
	}
	for _, m := range memories {
		m.Photos = linked[m.ID]
		if m.Photos == nil {
			m.Photos = []*models.MemoryPhoto{}
		}
	}
	return nil
}
