package models

import "time"

// Media types
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Photo is an uploaded image or video owned by UserID
type Photo struct {
	ID               int64       `json:"id"`
	UserID           int64       `json:"user_id"`
	AnniversaryID    *int64      `json:"anniversary_id"`
	Filename         string      `json:"filename"`
	OriginalName     string      `json:"original_name"`
	FilePath         string      `json:"file_path"`
	ThumbnailPath    *string     `json:"thumbnail_path"`
	Caption          *string     `json:"caption"`
	Location         *string     `json:"location"`
	PhotoDate        *Date       `json:"photo_date"`
	Tags             []string    `json:"tags"`
	Width            *int        `json:"width"`
	Height           *int        `json:"height"`
	FileSize         int64       `json:"file_size"`
	MediaType        string      `json:"media_type"`
	IsFavorite       bool        `json:"is_favorite"`
	CreatedAt        time.Time   `json:"created_at"`
	UploaderName     string      `json:"uploader_name,omitempty"`
	UploaderAvatar   *string     `json:"uploader_avatar,omitempty"`
	ReactionCount    int64       `json:"reaction_count"`
	CommentCount     int64       `json:"comment_count"`
	MyReaction       *string     `json:"my_reaction"`
	AnniversaryTitle *string     `json:"anniversary_title,omitempty"`
	Reactions        []*Reaction `json:"reactions,omitempty"`
	Comments         []*Comment  `json:"comments,omitempty"`
}

// PhotoFilter narrows a photo listing
type PhotoFilter struct {
	AnniversaryID *int64
	Year          *int
	Month         *int
}

// PhotoPatch lists the owner-mutable photo fields; nil means unchanged
type PhotoPatch struct {
	Caption       *string   `json:"caption"`
	Location      *string   `json:"location"`
	PhotoDate     *Date     `json:"photo_date"`
	AnniversaryID *int64    `json:"anniversary_id"`
	Tags          *[]string `json:"tags"`
}

// Empty reports whether the patch changes nothing
func (p PhotoPatch) Empty() bool {
	return p.Caption == nil && p.Location == nil && p.PhotoDate == nil &&
		p.AnniversaryID == nil && p.Tags == nil
}

// Reaction is one user's reaction to a photo
type Reaction struct {
	ID           int64     `json:"id"`
	PhotoID      int64     `json:"photo_id"`
	UserID       int64     `json:"user_id"`
	ReactionType string    `json:"reaction_type"`
	CreatedAt    time.Time `json:"created_at"`
	DisplayName  string    `json:"display_name,omitempty"`
	Avatar       *string   `json:"avatar,omitempty"`
}

// Comment is a comment left on a photo
type Comment struct {
	ID          int64     `json:"id"`
	PhotoID     int64     `json:"photo_id"`
	UserID      int64     `json:"user_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
	DisplayName string    `json:"display_name,omitempty"`
	Avatar      *string   `json:"avatar,omitempty"`
}

// MonthBucket counts photos taken in one month
type MonthBucket struct {
	MonthYear  string `json:"month_year"`
	MonthLabel string `json:"month_label"`
	Count      int64  `json:"count"`
}

// YearBucket summarizes photos taken in one year
type YearBucket struct {
	Year       int   `json:"year"`
	Count      int64 `json:"count"`
	FirstPhoto Date  `json:"first_photo"`
	LastPhoto  Date  `json:"last_photo"`
}

// AnniversaryAlbum groups photos linked to an anniversary
type AnniversaryAlbum struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	AnniversaryDate Date    `json:"anniversary_date"`
	YearNumber      int     `json:"year_number"`
	PhotoCount      int64   `json:"photo_count"`
	CoverPhoto      *string `json:"cover_photo"`
}

// Stats is the dashboard summary of a couple's content
type Stats struct {
	TotalPhotos int64 `json:"total_photos"`
	Favorites   int64 `json:"favorites"`
	Memories    int64 `json:"memories"`
	Messages    int64 `json:"messages"`
}
