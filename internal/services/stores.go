package services

import (
	"context"
	"io"
	"time"

	"anniversary-backend/internal/models"
)

// The store interfaces below are satisfied by the repository package and by
// in-memory fakes in tests.

// UserStore persists accounts and the partner link
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error)
	PartnerID(ctx context.Context, id int64) (*int64, error)
	UpdateProfile(ctx context.Context, id int64, patch models.ProfilePatch) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	UpdatePushToken(ctx context.Context, id int64, pushToken *string) error
	LinkPartners(ctx context.Context, a, b int64) error
}

// PhotoStore persists photos with their reactions, comments and aggregates
type PhotoStore interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id, viewerID int64) (*models.Photo, error)
	List(ctx context.Context, owners models.VisibilitySet, viewerID int64, filter models.PhotoFilter, page models.PageRequest) ([]*models.Photo, int64, error)
	Favorites(ctx context.Context, owners models.VisibilitySet, viewerID int64) ([]*models.Photo, error)
	OnThisDay(ctx context.Context, owners models.VisibilitySet, month, day, beforeYear int) ([]*models.Photo, error)
	ForAnniversary(ctx context.Context, anniversaryID int64, owners models.VisibilitySet, limit int) ([]*models.Photo, error)
	CountForAnniversary(ctx context.Context, anniversaryID int64, owners models.VisibilitySet) (int64, error)
	VisibleIDs(ctx context.Context, ids []int64, owners models.VisibilitySet) ([]int64, error)
	Update(ctx context.Context, id int64, patch models.PhotoPatch) error
	ToggleFavorite(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error

	Reactions(ctx context.Context, photoID int64) ([]*models.Reaction, error)
	UpsertReaction(ctx context.Context, photoID, userID int64, reactionType string) error
	Comments(ctx context.Context, photoID int64) ([]*models.Comment, error)
	AddComment(ctx context.Context, photoID, userID int64, content string) (*models.Comment, error)

	MonthBuckets(ctx context.Context, owners models.VisibilitySet) ([]*models.MonthBucket, error)
	YearBuckets(ctx context.Context, owners models.VisibilitySet) ([]*models.YearBucket, error)
	AnniversaryAlbums(ctx context.Context, owners models.VisibilitySet) ([]*models.AnniversaryAlbum, error)
	Stats(ctx context.Context, owners models.VisibilitySet) (*models.Stats, error)
}

// MemoryStore persists memories and their photo links
type MemoryStore interface {
	Create(ctx context.Context, memory *models.Memory, photoIDs []int64) error
	GetByID(ctx context.Context, id int64) (*models.Memory, error)
	Photos(ctx context.Context, memoryIDs []int64) (map[int64][]*models.MemoryPhoto, error)
	List(ctx context.Context, owners models.VisibilitySet, page models.PageRequest) ([]*models.Memory, int64, error)
	OnThisDay(ctx context.Context, owners models.VisibilitySet, month, day, beforeYear int) ([]*models.Memory, error)
	Between(ctx context.Context, owners models.VisibilitySet, from, to time.Time) ([]*models.Memory, error)
	Update(ctx context.Context, id int64, patch models.MemoryPatch) error
	Delete(ctx context.Context, id int64) error
	Timeline(ctx context.Context, owners models.VisibilitySet) ([]*models.TimelineEntry, error)
}

// MilestoneStore persists milestones
type MilestoneStore interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, id int64) (*models.Milestone, error)
	List(ctx context.Context, owners models.VisibilitySet) ([]*models.Milestone, error)
	Delete(ctx context.Context, id int64) error
}

// MessageStore persists chat messages
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	Conversation(ctx context.Context, userID, partnerID int64, page models.PageRequest) ([]*models.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	DeleteForSender(ctx context.Context, id int64) error
	DeleteForReceiver(ctx context.Context, id int64) error
}

// LoveNoteStore persists love notes
type LoveNoteStore interface {
	Create(ctx context.Context, n *models.LoveNote) error
	GetByID(ctx context.Context, id int64) (*models.LoveNote, error)
	Received(ctx context.Context, userID int64, now time.Time) ([]*models.LoveNote, error)
	Sent(ctx context.Context, userID int64) ([]*models.LoveNote, error)
	MarkOpened(ctx context.Context, id int64, now time.Time) error
	UnopenedCount(ctx context.Context, userID int64, now time.Time) (int64, error)
}

// AnniversaryStore persists anniversaries
type AnniversaryStore interface {
	Create(ctx context.Context, a *models.Anniversary) error
	GetByID(ctx context.Context, id int64) (*models.Anniversary, error)
	List(ctx context.Context, owners models.VisibilitySet) ([]*models.Anniversary, error)
	Nearest(ctx context.Context, owners models.VisibilitySet, today time.Time) (*models.Anniversary, error)
	Update(ctx context.Context, id int64, patch models.AnniversaryPatch) error
	Delete(ctx context.Context, id int64) error
}

// CountdownStore persists countdowns
type CountdownStore interface {
	Create(ctx context.Context, c *models.Countdown) error
	GetByID(ctx context.Context, id int64) (*models.Countdown, error)
	Upcoming(ctx context.Context, owners models.VisibilitySet, now time.Time) ([]*models.Countdown, error)
	Delete(ctx context.Context, id int64) error
}

// ActivityStore records the audit trail
type ActivityStore interface {
	Log(ctx context.Context, a *models.Activity) error
}

// FileStore holds uploaded media
type FileStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
}
