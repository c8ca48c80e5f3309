package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"imageserver/internal/apperr"
	"imageserver/internal/catalog"
	"imageserver/internal/config"
	"imageserver/internal/convert"
	"imageserver/internal/models"
	"imageserver/internal/repository"
)

type UploadInput struct {
	Filename   string
	Data       []byte
	UploaderID string
	Category   string
}

// UploadService creates an image in TEMP and hands the bytes to the
// conversion queue. The caller gets an id and a pending status back
// immediately; the eventual READY/FAILED outcome is only observable by
// re-querying.
type UploadService struct {
	txm      repository.TxManager
	registry *catalog.Registry
	queue    *convert.Queue
	cfg      config.StorageConfig
	log      zerolog.Logger
}

func NewUploadService(txm repository.TxManager, registry *catalog.Registry, queue *convert.Queue, cfg config.StorageConfig, log zerolog.Logger) *UploadService {
	return &UploadService{
		txm:      txm,
		registry: registry,
		queue:    queue,
		cfg:      cfg,
		log:      log,
	}
}

func (s *UploadService) Upload(ctx context.Context, input UploadInput) (*models.Image, error) {
	if len(input.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file", apperr.ErrImageSaveFailed)
	}

	categoryCode := strings.ToUpper(input.Category)
	refType, ok := s.registry.LookupType(categoryCode)
	if !ok {
		return nil, apperr.ErrReferenceTypeNotFound
	}

	ext := strings.ToUpper(strings.TrimPrefix(path.Ext(input.Filename), "."))
	if _, ok := s.registry.LookupExtension(ext); !ok {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInvalidExtension, ext)
	}

	id := ksuid.New().String()
	datePath := time.Now().Format("2006/01/02")
	storedPath := fmt.Sprintf("%s/%s/%s.webp", categoryCode, datePath, id)

	img := &models.Image{
		ID:              id,
		Status:          models.ImageStatusTemp,
		ReferenceTypeID: refType.ID,
		URL:             strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + storedPath,
		UploaderID:      input.UploaderID,
	}

	err := s.txm.InTx(ctx, func(st repository.Store) error {
		return st.InsertImage(ctx, img)
	})
	if err != nil {
		return nil, fmt.Errorf("insert image: %w", err)
	}

	s.queue.Submit(ctx, convert.Task{
		ImageID:     id,
		Data:        input.Data,
		StoredPath:  storedPath,
		OriginalExt: ext,
	})

	s.log.Info().
		Str("image_id", id).
		Str("category", categoryCode).
		Int("size", len(input.Data)).
		Msg("image accepted for conversion")
	return img, nil
}

func (s *UploadService) Get(ctx context.Context, id string) (*models.Image, error) {
	return getImage(ctx, s.txm.Store(), id)
}

// Variants lists the derived renditions recorded for an image.
func (s *UploadService) Variants(ctx context.Context, id string) ([]models.ImageVariant, error) {
	return s.txm.Store().ListVariants(ctx, id)
}
