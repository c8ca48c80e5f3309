// Package convert runs image format conversion off the request path.
//
// Tasks flow through a bounded channel drained by a fixed set of core
// workers. Under load the queue grows transient workers up to a maximum;
// when the backlog is full and the pool is saturated, the submitting
// goroutine executes the task inline. Nothing is ever dropped and no
// error propagates back to the submitter.
package convert

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"imageserver/internal/config"
	"imageserver/internal/lifecycle"
	"imageserver/internal/models"
	"imageserver/internal/repository"
)

type Task struct {
	ImageID     string
	Data        []byte
	StoredPath  string
	OriginalExt string
}

type Converter interface {
	Convert(data []byte, quality float32) ([]byte, error)
}

type BlobStore interface {
	Store(ctx context.Context, data []byte, relativePath string) (string, error)
}

type Queue struct {
	cfg       config.ConvertConfig
	converter Converter
	blobs     BlobStore
	txm       repository.TxManager
	log       zerolog.Logger

	tasks     chan Task
	transient atomic.Int32
	wg        sync.WaitGroup
}

func NewQueue(cfg config.ConvertConfig, converter Converter, blobs BlobStore, txm repository.TxManager, log zerolog.Logger) *Queue {
	return &Queue{
		cfg:       cfg,
		converter: converter,
		blobs:     blobs,
		txm:       txm,
		log:       log,
		tasks:     make(chan Task, cfg.QueueSize),
	}
}

// Start launches the core workers. They run until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go func(id int) {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case task := <-q.tasks:
					q.Process(ctx, task)
				}
			}
		}(i)
	}
	q.log.Info().
		Int("workers", q.cfg.Workers).
		Int("max_workers", q.cfg.MaxWorkers).
		Int("queue_size", q.cfg.QueueSize).
		Msg("conversion queue started")
}

// Wait blocks until the core workers have exited.
func (q *Queue) Wait() {
	q.wg.Wait()
}

// Submit enqueues a task. With a full backlog it first tries to grow a
// transient worker; failing that, the task runs on the caller. The task
// is detached from the submitter's context: once accepted it runs to
// completion even if the originating request has already returned.
func (q *Queue) Submit(ctx context.Context, task Task) {
	ctx = context.WithoutCancel(ctx)

	select {
	case q.tasks <- task:
		return
	default:
	}

	if q.reserveTransient() {
		go func() {
			defer q.transient.Add(-1)
			q.Process(ctx, task)
			q.drain(ctx)
		}()
		return
	}

	q.Process(ctx, task)
}

// reserveTransient claims a transient worker slot. The CAS loop keeps
// the count at or below MaxWorkers-Workers even when submitters race.
func (q *Queue) reserveTransient() bool {
	extra := int32(q.cfg.MaxWorkers - q.cfg.Workers)
	for {
		n := q.transient.Load()
		if n >= extra {
			return false
		}
		if q.transient.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-q.tasks:
			q.Process(ctx, task)
		default:
			return
		}
	}
}

// Process converts and stores one image, then flips its status. Failures
// never surface to the submitter: a conversion failure falls back to
// storing the original bytes (still READY), and an unrecoverable storage
// or database failure records FAILED for the cleanup sweep.
func (q *Queue) Process(ctx context.Context, task Task) {
	storedPath := task.StoredPath
	convertedFormat := "WEBP"

	converted, err := q.converter.Convert(task.Data, q.cfg.Quality)
	if err != nil {
		q.log.Warn().Err(err).
			Str("image_id", task.ImageID).
			Msg("conversion failed, storing original bytes")

		converted = task.Data
		ext := strings.ToLower(task.OriginalExt)
		storedPath = strings.TrimSuffix(task.StoredPath, ".webp") + "." + ext
		convertedFormat = strings.ToUpper(task.OriginalExt)
	}

	finalPath, err := q.blobs.Store(ctx, converted, storedPath)
	if err != nil {
		q.log.Error().Err(err).
			Str("image_id", task.ImageID).
			Str("path", storedPath).
			Msg("storage write failed")
		q.markFailed(ctx, task.ImageID, "storage write failed")
		return
	}

	convertedSize := int64(len(converted))
	err = q.txm.InTx(ctx, func(st repository.Store) error {
		img, err := st.GetImage(ctx, task.ImageID)
		if err != nil {
			return err
		}
		if err := lifecycle.Transition(ctx, st, img, models.ImageStatusReady, lifecycle.ActorSystem, "conversion completed"); err != nil {
			return err
		}
		if convertedFormat != "WEBP" {
			// Fallback changed the stored extension, keep the URL in step.
			img.URL = strings.TrimSuffix(img.URL, ".webp") + "." + strings.ToLower(task.OriginalExt)
		}
		if err := st.SaveStorageObject(ctx, &models.StorageObject{
			ImageID:         task.ImageID,
			StorageLocation: finalPath,
			OriginSize:      int64(len(task.Data)),
			ConvertedSize:   &convertedSize,
			OriginFormat:    strings.ToUpper(task.OriginalExt),
			ConvertedFormat: &convertedFormat,
		}); err != nil {
			return err
		}
		return st.UpdateImage(ctx, img)
	})
	if err != nil {
		q.log.Error().Err(err).Str("image_id", task.ImageID).Msg("failed to finish conversion")
		q.markFailed(ctx, task.ImageID, "post-conversion update failed")
		return
	}

	q.log.Info().
		Str("image_id", task.ImageID).
		Str("format", convertedFormat).
		Int64("size", convertedSize).
		Msg("image conversion completed")
}

func (q *Queue) markFailed(ctx context.Context, imageID, reason string) {
	err := q.txm.InTx(ctx, func(st repository.Store) error {
		img, err := st.GetImage(ctx, imageID)
		if err != nil {
			return err
		}
		if err := lifecycle.Transition(ctx, st, img, models.ImageStatusFailed, lifecycle.ActorSystem, reason); err != nil {
			return err
		}
		return st.UpdateImage(ctx, img)
	})
	if err != nil {
		q.log.Error().Err(err).Str("image_id", imageID).Msg("failed to mark image FAILED")
	}
}
