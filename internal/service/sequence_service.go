package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"imageserver/internal/models"
	"imageserver/internal/repository"
)

// SequenceService rebuilds the ordered attachment list for a reference.
// Rebuild always runs in its own transaction, independent of whatever
// produced the confirmation: it reacts to already-committed events, so a
// failure here can never undo a confirmation.
type SequenceService struct {
	txm repository.TxManager
	log zerolog.Logger
}

func NewSequenceService(txm repository.TxManager, log zerolog.Logger) *SequenceService {
	return &SequenceService{txm: txm, log: log}
}

// Rebuild regenerates the sequence rows for a reference from the ordered
// confirmed id list. An empty list just leaves zero rows behind.
func (s *SequenceService) Rebuild(ctx context.Context, referenceID string, orderedIDs []string) error {
	err := s.txm.InTx(ctx, func(st repository.Store) error {
		if len(orderedIDs) == 0 {
			return st.DeleteSequences(ctx, referenceID)
		}
		return st.ReplaceSequences(ctx, referenceID, orderedIDs)
	})
	if err != nil {
		return fmt.Errorf("rebuild sequences for %s: %w", referenceID, err)
	}

	s.log.Info().
		Str("reference_id", referenceID).
		Int("count", len(orderedIDs)).
		Msg("image sequences rebuilt")
	return nil
}

func (s *SequenceService) List(ctx context.Context, referenceID string) ([]models.SequencedImage, error) {
	return s.txm.Store().ListSequences(ctx, referenceID)
}
