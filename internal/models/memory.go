package models

import "time"

// Memory is a dated journal entry owned by UserID
type Memory struct {
	ID            int64          `json:"id"`
	UserID        int64          `json:"user_id"`
	Title         string         `json:"title"`
	Description   *string        `json:"description"`
	MemoryDate    Date           `json:"memory_date"`
	Mood          string         `json:"mood"`
	IsMilestone   bool           `json:"is_milestone"`
	CreatedAt     time.Time      `json:"created_at"`
	CreatorName   string         `json:"creator_name,omitempty"`
	CreatorAvatar *string        `json:"creator_avatar,omitempty"`
	Photos        []*MemoryPhoto `json:"photos"`
}

// MemoryPhoto is a photo linked to a memory
type MemoryPhoto struct {
	ID            int64   `json:"id"`
	FilePath      string  `json:"file_path"`
	ThumbnailPath *string `json:"thumbnail_path"`
	Caption       *string `json:"caption"`
}

// MemoryPatch lists the owner-mutable memory fields; nil means unchanged.
// PhotoIDs, when set, replaces the linked photos.
type MemoryPatch struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	MemoryDate  *Date    `json:"memory_date"`
	Mood        *string  `json:"mood"`
	IsMilestone *bool    `json:"is_milestone"`
	PhotoIDs    *[]int64 `json:"photo_ids"`
}

// FieldsEmpty reports whether no column is changed
func (p MemoryPatch) FieldsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.MemoryDate == nil &&
		p.Mood == nil && p.IsMilestone == nil
}

// Milestone marks a notable date in the relationship
type Milestone struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	MilestoneDate Date      `json:"milestone_date"`
	Icon          string    `json:"icon"`
	Category      string    `json:"category"`
	CreatedBy     int64     `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// OnThisDay groups content from the same calendar day in an earlier year
type OnThisDay struct {
	YearsAgo int       `json:"years_ago"`
	Photos   []*Photo  `json:"photos"`
	Memories []*Memory `json:"memories"`
}

// TimelineEntry is one row of the combined memories/milestones/anniversaries timeline
type TimelineEntry struct {
	Type        string  `json:"type"`
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        Date    `json:"date"`
	Mood        *string `json:"mood"`
	FilePath    *string `json:"file_path"`
}
