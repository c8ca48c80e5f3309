package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"imageserver/internal/config"
	"imageserver/internal/models"
	"imageserver/internal/repository"
)

type BlobDeleter interface {
	Delete(ctx context.Context, relativePath string) (bool, error)
}

// CleanupService reclaims images that never reached CONFIRMED: failed
// conversions past their retention window, and abandoned uploads. Blob
// deletion is best effort; a storage failure is logged and the database
// row is removed regardless.
type CleanupService struct {
	txm   repository.TxManager
	blobs BlobDeleter
	cfg   config.CleanupConfig
	log   zerolog.Logger
}

func NewCleanupService(txm repository.TxManager, blobs BlobDeleter, cfg config.CleanupConfig, log zerolog.Logger) *CleanupService {
	return &CleanupService{
		txm:   txm,
		blobs: blobs,
		cfg:   cfg,
		log:   log,
	}
}

// SweepFailed removes FAILED images older than the failed-image
// retention window.
func (s *CleanupService) SweepFailed(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.FailedRetention)

	images, err := s.txm.Store().ListImagesByStatusOlderThan(ctx, models.ImageStatusFailed, cutoff)
	if err != nil {
		return fmt.Errorf("list failed images: %w", err)
	}
	removed := s.remove(ctx, images)

	s.log.Info().
		Int("matched", len(images)).
		Int("removed", removed).
		Time("cutoff", cutoff).
		Msg("failed-image sweep finished")
	return nil
}

// SweepUnused removes images that never reached CONFIRMED within the
// unused retention window, covering abandoned TEMP and READY uploads.
func (s *CleanupService) SweepUnused(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.UnusedRetention)

	images, err := s.txm.Store().ListUnconfirmedOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list unconfirmed images: %w", err)
	}
	removed := s.remove(ctx, images)

	s.log.Info().
		Int("matched", len(images)).
		Int("removed", removed).
		Time("cutoff", cutoff).
		Msg("unused-image sweep finished")
	return nil
}

func (s *CleanupService) remove(ctx context.Context, images []*models.Image) int {
	removed := 0
	for _, img := range images {
		if img.StorageObject != nil {
			if _, err := s.blobs.Delete(ctx, img.StorageObject.StorageLocation); err != nil {
				s.log.Warn().Err(err).
					Str("image_id", img.ID).
					Str("path", img.StorageObject.StorageLocation).
					Msg("blob delete failed, removing record anyway")
			}
		}

		err := s.txm.InTx(ctx, func(st repository.Store) error {
			return st.DeleteImage(ctx, img.ID)
		})
		if err != nil {
			s.log.Error().Err(err).Str("image_id", img.ID).Msg("failed to delete image record")
			continue
		}
		removed++
	}
	return removed
}
