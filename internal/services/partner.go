package services

import (
	"context"
	"errors"

	"anniversary-backend/internal/apperr"
	"anniversary-backend/internal/models"
	"anniversary-backend/internal/repository"
)

// Scope is the caller's identity plus the owners whose content they may read
type Scope struct {
	UserID    int64
	PartnerID *int64
	Visible   models.VisibilitySet
}

// HasPartner reports whether the caller is linked
func (s *Scope) HasPartner() bool {
	return s.PartnerID != nil
}

// Owns reports whether ownerID is the caller
func (s *Scope) Owns(ownerID int64) bool {
	return s.UserID == ownerID
}

type partnerLookup interface {
	PartnerID(ctx context.Context, id int64) (*int64, error)
}

// PartnerResolver computes a caller's visibility set from the live partner link
type PartnerResolver struct {
	users partnerLookup
}

// NewPartnerResolver creates a new partner resolver
func NewPartnerResolver(users partnerLookup) *PartnerResolver {
	return &PartnerResolver{users: users}
}

// Resolve returns {userID} or {userID, partner}. A token whose user no longer
// exists resolves to Unauthorized.
func (r *PartnerResolver) Resolve(ctx context.Context, userID int64) (*Scope, error) {
	partnerID, err := r.users.PartnerID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("Unauthorized")
		}
		return nil, apperr.Internal("failed to resolve partner", err)
	}

	scope := &Scope{UserID: userID, Visible: models.VisibilitySet{userID}}
	if partnerID != nil && *partnerID != userID {
		scope.PartnerID = partnerID
		scope.Visible = append(scope.Visible, *partnerID)
	}
	return scope, nil
}
