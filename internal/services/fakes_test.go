package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"anniversary-backend/internal/models"
	"anniversary-backend/internal/push"
	"anniversary-backend/internal/repository"
)

func notFoundErr(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, repository.ErrNotFound)
}

type fakeUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]*models.User)}
}

func (f *fakeUsers) add(username string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u := &models.User{ID: f.nextID, Username: username, Email: username + "@example.com", DisplayName: strings.ToUpper(username[:1]) + username[1:]}
	f.byID[u.ID] = u
	return u
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	copied := *user
	f.byID[user.ID] = &copied
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUsers) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if match(u) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) GetByLogin(_ context.Context, login string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == login || u.Email == login })
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsers) Exists(_ context.Context, username, email string) (bool, error) {
	_, err := f.find(func(u *models.User) bool { return u.Username == username || u.Email == email })
	return err == nil, nil
}

func (f *fakeUsers) EmailTaken(_ context.Context, email string, exceptID int64) (bool, error) {
	_, err := f.find(func(u *models.User) bool { return u.Email == email && u.ID != exceptID })
	return err == nil, nil
}

func (f *fakeUsers) PartnerID(_ context.Context, id int64) (*int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("user", id)
	}
	return u.PartnerID, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, id int64, patch models.ProfilePatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return notFoundErr("user", id)
	}
	if patch.DisplayName != nil {
		u.DisplayName = *patch.DisplayName
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Avatar != nil {
		avatar := *patch.Avatar
		u.Avatar = &avatar
	}
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return notFoundErr("user", id)
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsers) UpdatePushToken(_ context.Context, id int64, pushToken *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return notFoundErr("user", id)
	}
	u.PushToken = pushToken
	return nil
}

func (f *fakeUsers) LinkPartners(_ context.Context, a, b int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ua, okA := f.byID[a]
	ub, okB := f.byID[b]
	if !okA || !okB {
		return repository.ErrNotFound
	}
	for _, u := range []*models.User{ua, ub} {
		if u.PartnerID != nil {
			if old, ok := f.byID[*u.PartnerID]; ok {
				old.PartnerID = nil
			}
		}
	}
	ua.PartnerID, ub.PartnerID = &b, &a
	return nil
}

type fakePhotos struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*models.Photo
	reactions map[int64]map[int64]string
	comments  map[int64][]*models.Comment
}

func newFakePhotos() *fakePhotos {
	return &fakePhotos{
		byID:      make(map[int64]*models.Photo),
		reactions: make(map[int64]map[int64]string),
		comments:  make(map[int64][]*models.Comment),
	}
}

func (f *fakePhotos) add(ownerID int64, date string) *models.Photo {
	d, _ := models.ParseDate(date)
	p := &models.Photo{UserID: ownerID, FilePath: "photos/x.jpg", PhotoDate: &d, MediaType: models.MediaImage}
	_ = f.Create(context.Background(), p)
	return p
}

func (f *fakePhotos) Create(_ context.Context, photo *models.Photo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	photo.ID = f.nextID
	photo.CreatedAt = time.Now()
	copied := *photo
	f.byID[photo.ID] = &copied
	return nil
}

func (f *fakePhotos) GetByID(_ context.Context, id, _ int64) (*models.Photo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("photo", id)
	}
	copied := *p
	return &copied, nil
}

func (f *fakePhotos) owned(owners models.VisibilitySet, keep func(*models.Photo) bool) []*models.Photo {
	f.mu.Lock()
	defer f.mu.Unlock()
	photos := []*models.Photo{}
	for _, p := range f.byID {
		if owners.Contains(p.UserID) && (keep == nil || keep(p)) {
			copied := *p
			photos = append(photos, &copied)
		}
	}
	sort.Slice(photos, func(i, j int) bool { return photos[i].ID < photos[j].ID })
	return photos
}

func (f *fakePhotos) List(_ context.Context, owners models.VisibilitySet, _ int64, _ models.PhotoFilter, page models.PageRequest) ([]*models.Photo, int64, error) {
	all := f.owned(owners, nil)
	start := min(page.Offset(), len(all))
	end := min(start+page.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (f *fakePhotos) Favorites(_ context.Context, owners models.VisibilitySet, _ int64) ([]*models.Photo, error) {
	return f.owned(owners, func(p *models.Photo) bool { return p.IsFavorite }), nil
}

func (f *fakePhotos) OnThisDay(_ context.Context, owners models.VisibilitySet, month, day, beforeYear int) ([]*models.Photo, error) {
	return f.owned(owners, func(p *models.Photo) bool {
		return p.PhotoDate != nil && int(p.PhotoDate.Month()) == month && p.PhotoDate.Day() == day && p.PhotoDate.Year() < beforeYear
	}), nil
}

func (f *fakePhotos) ForAnniversary(_ context.Context, anniversaryID int64, owners models.VisibilitySet, limit int) ([]*models.Photo, error) {
	photos := f.owned(owners, func(p *models.Photo) bool {
		return p.AnniversaryID != nil && *p.AnniversaryID == anniversaryID
	})
	if len(photos) > limit {
		photos = photos[:limit]
	}
	return photos, nil
}

func (f *fakePhotos) CountForAnniversary(_ context.Context, anniversaryID int64, owners models.VisibilitySet) (int64, error) {
	photos := f.owned(owners, func(p *models.Photo) bool {
		return p.AnniversaryID != nil && *p.AnniversaryID == anniversaryID
	})
	return int64(len(photos)), nil
}

func (f *fakePhotos) VisibleIDs(_ context.Context, ids []int64, owners models.VisibilitySet) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[int64]bool{}
	visible := []int64{}
	for _, id := range ids {
		if p, ok := f.byID[id]; ok && owners.Contains(p.UserID) && !seen[id] {
			seen[id] = true
			visible = append(visible, id)
		}
	}
	return visible, nil
}

func (f *fakePhotos) Update(_ context.Context, id int64, patch models.PhotoPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return notFoundErr("photo", id)
	}
	if patch.Caption != nil {
		p.Caption = patch.Caption
	}
	if patch.Location != nil {
		p.Location = patch.Location
	}
	if patch.Tags != nil {
		p.Tags = *patch.Tags
	}
	return nil
}

func (f *fakePhotos) ToggleFavorite(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return false, notFoundErr("photo", id)
	}
	p.IsFavorite = !p.IsFavorite
	return p.IsFavorite, nil
}

func (f *fakePhotos) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return notFoundErr("photo", id)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakePhotos) Reactions(_ context.Context, photoID int64) ([]*models.Reaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reactions := []*models.Reaction{}
	for userID, kind := range f.reactions[photoID] {
		reactions = append(reactions, &models.Reaction{PhotoID: photoID, UserID: userID, ReactionType: kind})
	}
	return reactions, nil
}

func (f *fakePhotos) UpsertReaction(_ context.Context, photoID, userID int64, reactionType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reactions[photoID] == nil {
		f.reactions[photoID] = make(map[int64]string)
	}
	f.reactions[photoID][userID] = reactionType
	return nil
}

func (f *fakePhotos) Comments(_ context.Context, photoID int64) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Comment{}, f.comments[photoID]...), nil
}

func (f *fakePhotos) AddComment(_ context.Context, photoID, userID int64, content string) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &models.Comment{ID: int64(len(f.comments[photoID]) + 1), PhotoID: photoID, UserID: userID, Content: content}
	f.comments[photoID] = append(f.comments[photoID], c)
	return c, nil
}

func (f *fakePhotos) MonthBuckets(context.Context, models.VisibilitySet) ([]*models.MonthBucket, error) {
	return []*models.MonthBucket{}, nil
}

func (f *fakePhotos) YearBuckets(context.Context, models.VisibilitySet) ([]*models.YearBucket, error) {
	return []*models.YearBucket{}, nil
}

func (f *fakePhotos) AnniversaryAlbums(context.Context, models.VisibilitySet) ([]*models.AnniversaryAlbum, error) {
	return []*models.AnniversaryAlbum{}, nil
}

func (f *fakePhotos) Stats(_ context.Context, owners models.VisibilitySet) (*models.Stats, error) {
	photos := f.owned(owners, nil)
	stats := &models.Stats{TotalPhotos: int64(len(photos))}
	for _, p := range photos {
		if p.IsFavorite {
			stats.Favorites++
		}
	}
	return stats, nil
}

type fakeMemories struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.Memory
	links  map[int64][]int64
}

func newFakeMemories() *fakeMemories {
	return &fakeMemories{byID: make(map[int64]*models.Memory), links: make(map[int64][]int64)}
}

func (f *fakeMemories) Create(_ context.Context, memory *models.Memory, photoIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	memory.ID = f.nextID
	copied := *memory
	f.byID[memory.ID] = &copied
	f.links[memory.ID] = append([]int64{}, photoIDs...)
	return nil
}

func (f *fakeMemories) GetByID(_ context.Context, id int64) (*models.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("memory", id)
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMemories) Photos(_ context.Context, memoryIDs []int64) (map[int64][]*models.MemoryPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	linked := make(map[int64][]*models.MemoryPhoto)
	for _, id := range memoryIDs {
		for _, photoID := range f.links[id] {
			linked[id] = append(linked[id], &models.MemoryPhoto{ID: photoID})
		}
	}
	return linked, nil
}

func (f *fakeMemories) filter(owners models.VisibilitySet, keep func(*models.Memory) bool) []*models.Memory {
	f.mu.Lock()
	defer f.mu.Unlock()
	memories := []*models.Memory{}
	for _, m := range f.byID {
		if owners.Contains(m.UserID) && (keep == nil || keep(m)) {
			copied := *m
			memories = append(memories, &copied)
		}
	}
	sort.Slice(memories, func(i, j int) bool { return memories[i].ID < memories[j].ID })
	return memories
}

func (f *fakeMemories) List(_ context.Context, owners models.VisibilitySet, page models.PageRequest) ([]*models.Memory, int64, error) {
	all := f.filter(owners, nil)
	start := min(page.Offset(), len(all))
	end := min(start+page.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (f *fakeMemories) OnThisDay(_ context.Context, owners models.VisibilitySet, month, day, beforeYear int) ([]*models.Memory, error) {
	return f.filter(owners, func(m *models.Memory) bool {
		return int(m.MemoryDate.Month()) == month && m.MemoryDate.Day() == day && m.MemoryDate.Year() < beforeYear
	}), nil
}

func (f *fakeMemories) Between(_ context.Context, owners models.VisibilitySet, from, to time.Time) ([]*models.Memory, error) {
	return f.filter(owners, func(m *models.Memory) bool {
		return !m.MemoryDate.Before(from) && !m.MemoryDate.After(to)
	}), nil
}

func (f *fakeMemories) Update(_ context.Context, id int64, patch models.MemoryPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return notFoundErr("memory", id)
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Mood != nil {
		m.Mood = *patch.Mood
	}
	if patch.PhotoIDs != nil {
		f.links[id] = append([]int64{}, *patch.PhotoIDs...)
	}
	return nil
}

func (f *fakeMemories) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return notFoundErr("memory", id)
	}
	delete(f.byID, id)
	delete(f.links, id)
	return nil
}

func (f *fakeMemories) Timeline(_ context.Context, owners models.VisibilitySet) ([]*models.TimelineEntry, error) {
	entries := []*models.TimelineEntry{}
	for _, m := range f.filter(owners, nil) {
		entries = append(entries, &models.TimelineEntry{Type: "memory", ID: m.ID, Title: m.Title, Date: m.MemoryDate})
	}
	return entries, nil
}

type fakeMilestones struct {
	mu   sync.Mutex
	byID map[int64]*models.Milestone
}

func newFakeMilestones() *fakeMilestones {
	return &fakeMilestones{byID: make(map[int64]*models.Milestone)}
}

func (f *fakeMilestones) Create(_ context.Context, m *models.Milestone) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = int64(len(f.byID) + 1)
	copied := *m
	f.byID[m.ID] = &copied
	return nil
}

func (f *fakeMilestones) GetByID(_ context.Context, id int64) (*models.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("milestone", id)
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMilestones) List(_ context.Context, owners models.VisibilitySet) ([]*models.Milestone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	milestones := []*models.Milestone{}
	for _, m := range f.byID {
		if owners.Contains(m.CreatedBy) {
			milestones = append(milestones, m)
		}
	}
	return milestones, nil
}

func (f *fakeMilestones) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return notFoundErr("milestone", id)
	}
	delete(f.byID, id)
	return nil
}

type fakeMessages struct {
	mu     sync.Mutex
	nextID int64
	rows   []*models.Message
}

func (f *fakeMessages) Create(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = f.nextID
	m.CreatedAt = time.Unix(f.nextID, 0)
	copied := *m
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeMessages) GetByID(_ context.Context, id int64) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.ID == id {
			copied := *m
			return &copied, nil
		}
	}
	return nil, notFoundErr("message", id)
}

func (f *fakeMessages) Conversation(_ context.Context, userID, partnerID int64, page models.PageRequest) ([]*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	messages := []*models.Message{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		m := f.rows[i]
		mine := m.SenderID == userID && m.ReceiverID == partnerID && !m.IsDeletedBySender
		theirs := m.SenderID == partnerID && m.ReceiverID == userID && !m.IsDeletedByReceiver
		if mine || theirs {
			copied := *m
			messages = append(messages, &copied)
		}
	}
	start := min(page.Offset(), len(messages))
	end := min(start+page.Limit, len(messages))
	return messages[start:end], nil
}

func (f *fakeMessages) MarkRead(_ context.Context, receiverID, senderID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.rows {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) UnreadCount(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.rows {
		if m.ReceiverID == userID && !m.IsRead && !m.IsDeletedByReceiver {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessages) setFlag(id int64, set func(*models.Message)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.rows {
		if m.ID == id {
			set(m)
			return nil
		}
	}
	return notFoundErr("message", id)
}

func (f *fakeMessages) DeleteForSender(_ context.Context, id int64) error {
	return f.setFlag(id, func(m *models.Message) { m.IsDeletedBySender = true })
}

func (f *fakeMessages) DeleteForReceiver(_ context.Context, id int64) error {
	return f.setFlag(id, func(m *models.Message) { m.IsDeletedByReceiver = true })
}

type fakeLoveNotes struct {
	mu   sync.Mutex
	rows []*models.LoveNote
}

func (f *fakeLoveNotes) Create(_ context.Context, n *models.LoveNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = int64(len(f.rows) + 1)
	copied := *n
	f.rows = append(f.rows, &copied)
	return nil
}

func (f *fakeLoveNotes) GetByID(_ context.Context, id int64) (*models.LoveNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id {
			copied := *n
			return &copied, nil
		}
	}
	return nil, notFoundErr("love note", id)
}

func (f *fakeLoveNotes) filter(keep func(*models.LoveNote) bool) []*models.LoveNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	notes := []*models.LoveNote{}
	for _, n := range f.rows {
		if keep(n) {
			copied := *n
			notes = append(notes, &copied)
		}
	}
	return notes
}

func (f *fakeLoveNotes) Received(_ context.Context, userID int64, now time.Time) ([]*models.LoveNote, error) {
	return f.filter(func(n *models.LoveNote) bool { return n.ToUserID == userID && n.Delivered(now) }), nil
}

func (f *fakeLoveNotes) Sent(_ context.Context, userID int64) ([]*models.LoveNote, error) {
	return f.filter(func(n *models.LoveNote) bool { return n.FromUserID == userID }), nil
}

func (f *fakeLoveNotes) MarkOpened(_ context.Context, id int64, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id {
			if !n.IsOpened {
				n.IsOpened = true
				n.OpenedAt = &now
			}
			return nil
		}
	}
	return notFoundErr("love note", id)
}

func (f *fakeLoveNotes) UnopenedCount(_ context.Context, userID int64, now time.Time) (int64, error) {
	notes := f.filter(func(n *models.LoveNote) bool { return n.ToUserID == userID && !n.IsOpened && n.Delivered(now) })
	return int64(len(notes)), nil
}

type fakeAnniversaries struct {
	mu   sync.Mutex
	byID map[int64]*models.Anniversary
}

func newFakeAnniversaries() *fakeAnniversaries {
	return &fakeAnniversaries{byID: make(map[int64]*models.Anniversary)}
}

func (f *fakeAnniversaries) Create(_ context.Context, a *models.Anniversary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = int64(len(f.byID) + 1)
	copied := *a
	f.byID[a.ID] = &copied
	return nil
}

func (f *fakeAnniversaries) GetByID(_ context.Context, id int64) (*models.Anniversary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("anniversary", id)
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAnniversaries) List(context.Context, models.VisibilitySet) ([]*models.Anniversary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := []*models.Anniversary{}
	for _, a := range f.byID {
		all = append(all, a)
	}
	return all, nil
}

func (f *fakeAnniversaries) Nearest(_ context.Context, _ models.VisibilitySet, today time.Time) (*models.Anniversary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Anniversary
	var bestDays int
	for _, a := range f.byID {
		days := int(a.AnniversaryDate.Sub(today).Hours() / 24)
		if best == nil || abs(days) < abs(bestDays) {
			copied := *a
			best, bestDays = &copied, days
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	best.DaysUntil = &bestDays
	return best, nil
}

func (f *fakeAnniversaries) Update(_ context.Context, id int64, patch models.AnniversaryPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return notFoundErr("anniversary", id)
	}
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	return nil
}

func (f *fakeAnniversaries) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return notFoundErr("anniversary", id)
	}
	delete(f.byID, id)
	return nil
}

type fakeCountdowns struct {
	mu   sync.Mutex
	byID map[int64]*models.Countdown
}

func newFakeCountdowns() *fakeCountdowns {
	return &fakeCountdowns{byID: make(map[int64]*models.Countdown)}
}

func (f *fakeCountdowns) Create(_ context.Context, c *models.Countdown) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = int64(len(f.byID) + 1)
	copied := *c
	f.byID[c.ID] = &copied
	return nil
}

func (f *fakeCountdowns) GetByID(_ context.Context, id int64) (*models.Countdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, notFoundErr("countdown", id)
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCountdowns) Upcoming(_ context.Context, owners models.VisibilitySet, now time.Time) ([]*models.Countdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	upcoming := []*models.Countdown{}
	for _, c := range f.byID {
		if owners.Contains(c.CreatedBy) && c.TargetDate.After(now) {
			copied := *c
			upcoming = append(upcoming, &copied)
		}
	}
	return upcoming, nil
}

func (f *fakeCountdowns) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return notFoundErr("countdown", id)
	}
	delete(f.byID, id)
	return nil
}

type fakeActivity struct {
	mu   sync.Mutex
	rows []*models.Activity
}

func (f *fakeActivity) Log(_ context.Context, a *models.Activity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, a)
	return nil
}

func (f *fakeActivity) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, len(f.rows))
	for i, a := range f.rows {
		types[i] = a.ActivityType
	}
	return types
}

type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{objects: make(map[string][]byte)}
}

func (f *fakeFiles) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type notification struct {
	userID int64
	event  WSMessage
	alert  push.Alert
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, event WSMessage, alert push.Alert) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{userID: userID, event: event, alert: alert})
}

func (n *recordingNotifier) sent() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification{}, n.events...)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
