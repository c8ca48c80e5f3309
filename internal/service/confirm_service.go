package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"imageserver/internal/apperr"
	"imageserver/internal/events"
	"imageserver/internal/lifecycle"
	"imageserver/internal/models"
	"imageserver/internal/repository"
)

// ConfirmService reconciles the set of images that should be attached to
// a reference against the set currently attached. Every entry point runs
// in one transaction and appends at most one outbox event; sequencing
// and broker notification happen after commit, driven by the outbox
// dispatcher.
type ConfirmService struct {
	txm repository.TxManager
	log zerolog.Logger
}

func NewConfirmService(txm repository.TxManager, log zerolog.Logger) *ConfirmService {
	return &ConfirmService{txm: txm, log: log}
}

// ConfirmImage attaches a single image to a reference. An empty imageID
// is the detach-everything sentinel. Multi-category images delegate to
// the batch reconciliation with a one-element set.
func (s *ConfirmService) ConfirmImage(ctx context.Context, imageID, referenceID string) error {
	if referenceID == "" {
		return apperr.ErrInvalidReference
	}
	if imageID == "" {
		return s.txm.InTx(ctx, func(st repository.Store) error {
			return s.reconcile(ctx, st, nil, referenceID, nil)
		})
	}

	return s.txm.InTx(ctx, func(st repository.Store) error {
		img, err := getImage(ctx, st, imageID)
		if err != nil {
			return err
		}

		if !img.ReferenceType.Mono() {
			// Reuse the loaded image so the batch path skips the refetch.
			return s.reconcile(ctx, st, []string{imageID}, referenceID, img)
		}

		current, err := st.ListAttachedImages(ctx, referenceID)
		if err != nil {
			return fmt.Errorf("list attached images: %w", err)
		}

		if len(current) > 0 && current[0].ID == img.ID {
			return nil
		}

		for _, old := range current {
			if err := lifecycle.Transition(ctx, st, old, models.ImageStatusDeleted, lifecycle.ActorSystem, "replaced by "+img.ID); err != nil {
				return err
			}
		}

		if err := s.attach(ctx, st, img, referenceID); err != nil {
			return err
		}
		if err := st.UpdateImages(ctx, append(current, img)); err != nil {
			return fmt.Errorf("persist confirmation: %w", err)
		}

		return appendSingleEvent(ctx, st, img, referenceID)
	})
}

// ConfirmImages reconciles the requested ordered id list against the
// reference's currently attached set. An empty list detaches everything.
func (s *ConfirmService) ConfirmImages(ctx context.Context, imageIDs []string, referenceID string) error {
	if referenceID == "" {
		return apperr.ErrInvalidReference
	}
	return s.txm.InTx(ctx, func(st repository.Store) error {
		return s.reconcile(ctx, st, imageIDs, referenceID, nil)
	})
}

// reconcile is the diff-based batch algorithm. It must be idempotent:
// confirming the same list twice leaves the same attachment set and adds
// no further DELETED transitions.
func (s *ConfirmService) reconcile(ctx context.Context, st repository.Store, imageIDs []string, referenceID string, preloaded *models.Image) error {
	current, err := st.ListAttachedImages(ctx, referenceID)
	if err != nil {
		return fmt.Errorf("list attached images: %w", err)
	}

	confirmed, err := resolveRequested(ctx, st, imageIDs, current, preloaded)
	if err != nil {
		return err
	}

	if len(confirmed) == 0 {
		return s.detachAll(ctx, st, current, referenceID)
	}

	rt := confirmed[0].ReferenceType
	for _, img := range confirmed {
		if img.ReferenceTypeID != rt.ID {
			return fmt.Errorf("%w: mixed reference types in confirm set", apperr.ErrInvalidReference)
		}
	}
	if !rt.AllowsCount(len(confirmed)) {
		return fmt.Errorf("%w: %s allows at most %d image(s), got %d",
			apperr.ErrTooManyImages, rt.Code, maxImagesFor(*rt), len(confirmed))
	}

	confirmedIDs := make(map[string]struct{}, len(confirmed))
	for _, img := range confirmed {
		confirmedIDs[img.ID] = struct{}{}
	}

	var changed []*models.Image
	for _, img := range confirmed {
		if img.Status == models.ImageStatusConfirmed {
			if img.ReferenceID != nil && *img.ReferenceID == referenceID {
				continue // already attached here, nothing to do
			}
			return fmt.Errorf("%w: image %s", apperr.ErrAlreadyConfirmed, img.ID)
		}
		if err := s.attach(ctx, st, img, referenceID); err != nil {
			return err
		}
		changed = append(changed, img)
	}

	for _, img := range current {
		if _, keep := confirmedIDs[img.ID]; keep {
			continue
		}
		if err := lifecycle.Transition(ctx, st, img, models.ImageStatusDeleted, lifecycle.ActorSystem, "superseded by confirmation"); err != nil {
			return err
		}
		changed = append(changed, img)
	}

	if err := st.UpdateImages(ctx, changed); err != nil {
		return fmt.Errorf("persist reconciliation: %w", err)
	}

	return appendBatchEvent(ctx, st, referenceID, rt.Code, confirmed)
}

// detachAll deletes every attached image. With nothing attached there is
// no reference type to derive a topic from, so it is a silent no-op.
func (s *ConfirmService) detachAll(ctx context.Context, st repository.Store, current []*models.Image, referenceID string) error {
	if len(current) == 0 {
		return nil
	}
	typeCode := current[0].ReferenceType.Code

	for _, img := range current {
		if err := lifecycle.Transition(ctx, st, img, models.ImageStatusDeleted, lifecycle.ActorSystem, "detached"); err != nil {
			return err
		}
	}
	if err := st.UpdateImages(ctx, current); err != nil {
		return fmt.Errorf("persist detachment: %w", err)
	}

	return appendBatchEvent(ctx, st, referenceID, typeCode, nil)
}

func (s *ConfirmService) attach(ctx context.Context, st repository.Store, img *models.Image, referenceID string) error {
	if img.Status == models.ImageStatusConfirmed {
		return fmt.Errorf("%w: image %s", apperr.ErrAlreadyConfirmed, img.ID)
	}
	if err := lifecycle.Transition(ctx, st, img, models.ImageStatusConfirmed, lifecycle.ActorSystem, "confirmed"); err != nil {
		return err
	}
	ref := referenceID
	img.ReferenceID = &ref
	return nil
}

// resolveRequested assembles the confirm set in caller order: images
// already attached are reused without a refetch, the preloaded image (if
// requested) is substituted in memory, and the remainder is fetched in
// one batch. Unknown ids and soft-deleted images are silently skipped.
func resolveRequested(ctx context.Context, st repository.Store, imageIDs []string, current []*models.Image, preloaded *models.Image) ([]*models.Image, error) {
	if len(imageIDs) == 0 {
		return nil, nil
	}

	byID := make(map[string]*models.Image, len(current))
	for _, img := range current {
		byID[img.ID] = img
	}
	if preloaded != nil {
		byID[preloaded.ID] = preloaded
	}

	var missing []string
	seen := make(map[string]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}

	fetched, err := st.ListImagesByIDs(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("fetch requested images: %w", err)
	}
	for _, img := range fetched {
		byID[img.ID] = img
	}

	confirmed := make([]*models.Image, 0, len(imageIDs))
	added := make(map[string]struct{}, len(imageIDs))
	for _, id := range imageIDs {
		img, ok := byID[id]
		if !ok || img.Deleted {
			continue
		}
		if _, dup := added[id]; dup {
			continue
		}
		added[id] = struct{}{}
		confirmed = append(confirmed, img)
	}
	return confirmed, nil
}

func getImage(ctx context.Context, st repository.Store, id string) (*models.Image, error) {
	img, err := st.GetImage(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) {
			return nil, apperr.ErrImageNotFound
		}
		return nil, fmt.Errorf("get image %s: %w", id, err)
	}
	if img.Deleted {
		return nil, apperr.ErrImageNotFound
	}
	return img, nil
}

func appendSingleEvent(ctx context.Context, st repository.Store, img *models.Image, referenceID string) error {
	payload, err := json.Marshal(events.ImageChanged{
		ReferenceID: referenceID,
		ImageID:     img.ID,
		ImageURL:    img.URL,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return st.AppendOutbox(ctx, models.OutboxEvent{
		ID:          uuid.NewString(),
		ReferenceID: referenceID,
		TypeCode:    img.ReferenceType.Code,
		Kind:        models.OutboxImageChanged,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})
}

func appendBatchEvent(ctx context.Context, st repository.Store, referenceID, typeCode string, confirmed []*models.Image) error {
	items := make([]events.SequencedItem, 0, len(confirmed))
	for i, img := range confirmed {
		items = append(items, events.SequencedItem{
			ImageID:        img.ID,
			ImageURL:       img.URL,
			ReferenceID:    referenceID,
			SequenceNumber: i,
		})
	}
	payload, err := json.Marshal(events.ImagesChanged{
		ReferenceID: referenceID,
		Items:       items,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return st.AppendOutbox(ctx, models.OutboxEvent{
		ID:          uuid.NewString(),
		ReferenceID: referenceID,
		TypeCode:    typeCode,
		Kind:        models.OutboxImagesChanged,
		Payload:     payload,
		CreatedAt:   time.Now(),
	})
}

func maxImagesFor(rt models.ReferenceType) int {
	if rt.MaxImages != nil {
		return *rt.MaxImages
	}
	if rt.Mono() {
		return 1
	}
	return int(^uint(0) >> 1)
}
