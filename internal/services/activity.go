package services

import (
	"context"

	"anniversary-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// activityLogger writes audit rows. A failed write is logged and never
// surfaces to the caller.
type activityLogger struct {
	store ActivityStore
}

func (a activityLogger) record(ctx context.Context, userID int64, activityType string, referenceID int64, description string) {
	if a.store == nil {
		return
	}
	err := a.store.Log(ctx, &models.Activity{
		UserID:       userID,
		ActivityType: activityType,
		ReferenceID:  referenceID,
		Description:  description,
	})
	if err != nil {
		log.Error().
			Err(err).
			Int64("user_id", userID).
			Str("activity_type", activityType).
			Int64("reference_id", referenceID).
			Msg("Failed to log activity")
	}
}
