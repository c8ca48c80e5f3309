// Package lifecycle owns the image status state machine: which
// transitions are legal, and the append-only history row every
// transition leaves behind.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"imageserver/internal/apperr"
	"imageserver/internal/models"
	"imageserver/internal/repository"
)

// ActorSystem marks transitions performed by background machinery rather
// than an end user.
const ActorSystem = "SYSTEM"

// Transition moves img to next, appending a StatusHistory row that
// records the status before the mutation. The caller persists img
// afterwards, inside the same transaction as the history insert.
//
// A DELETED image loses its reference id and gains the soft-delete flag,
// keeping the "reference id set iff CONFIRMED" invariant.
func Transition(ctx context.Context, st repository.Store, img *models.Image, next models.ImageStatus, actor, reason string) error {
	if !img.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidStatus, img.Status, next)
	}

	old := img.Status
	if err := st.AppendHistory(ctx, models.StatusHistory{
		ImageID:   img.ID,
		OldStatus: old,
		NewStatus: next,
		ChangedBy: actor,
		Reason:    reason,
		ChangedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	img.Status = next
	switch next {
	case models.ImageStatusDeleted:
		img.Deleted = true
		img.ReferenceID = nil
	case models.ImageStatusConfirmed:
		// ReferenceID is assigned by the orchestrator.
	}
	return nil
}
