package models

import "time"

// Anniversary is a yearly relationship date
type Anniversary struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	AnniversaryDate Date      `json:"anniversary_date"`
	Description     *string   `json:"description"`
	YearNumber      int       `json:"year_number"`
	CoverPhoto      *string   `json:"cover_photo"`
	CreatedBy       int64     `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedByName   string    `json:"created_by_name,omitempty"`
	PhotoCount      int64     `json:"photo_count"`
	DaysUntil       *int      `json:"days_until,omitempty"`
	Photos          []*Photo  `json:"photos,omitempty"`
	Memories        []*Memory `json:"memories,omitempty"`
}

// AnniversaryPatch lists the mutable anniversary fields; nil means unchanged
type AnniversaryPatch struct {
	Title           *string `json:"title"`
	AnniversaryDate *Date   `json:"anniversary_date"`
	Description     *string `json:"description"`
	YearNumber      *int    `json:"year_number"`
	CoverPhoto      *string `json:"cover_photo"`
}

// Empty reports whether the patch changes nothing
func (p AnniversaryPatch) Empty() bool {
	return p.Title == nil && p.AnniversaryDate == nil && p.Description == nil &&
		p.YearNumber == nil && p.CoverPhoto == nil
}

// Countdown counts down to a future moment
type Countdown struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	TargetDate     time.Time `json:"target_date"`
	Description    *string   `json:"description"`
	Icon           string    `json:"icon"`
	CreatedBy      int64     `json:"created_by"`
	IsRecurring    bool      `json:"is_recurring"`
	RecurrenceType *string   `json:"recurrence_type"`
	CreatedAt      time.Time `json:"created_at"`
	SecondsUntil   int64     `json:"seconds_until"`
	CreatedByName  string    `json:"created_by_name,omitempty"`
}
