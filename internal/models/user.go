package models

import "time"

// User represents an account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	DisplayName  string    `json:"display_name"`
	Avatar       *string   `json:"avatar"`
	PartnerID    *int64    `json:"partner_id"`
	PushToken    *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PartnerProfile is the subset of a user shown to their partner
type PartnerProfile struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Avatar      *string   `json:"avatar"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile returns the partner-facing view of u
func (u *User) Profile() *PartnerProfile {
	return &PartnerProfile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Avatar:      u.Avatar,
		CreatedAt:   u.CreatedAt,
	}
}

// ProfilePatch lists the mutable profile fields; nil means unchanged
type ProfilePatch struct {
	DisplayName *string `json:"display_name"`
	Email       *string `json:"email"`
	Avatar      *string `json:"avatar"`
}

// Empty reports whether the patch changes nothing
func (p ProfilePatch) Empty() bool {
	return p.DisplayName == nil && p.Email == nil && p.Avatar == nil
}
