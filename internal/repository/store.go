package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"imageserver/internal/models"
)

var (
	ErrImageNotFound = errors.New("image not found")
)

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every query
// can run either standalone or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the persistent-store contract the engine consumes: image CRUD
// and finders, status history, sequences, catalogs, and the event outbox.
type Store interface {
	GetImage(ctx context.Context, id string) (*models.Image, error)
	ListAttachedImages(ctx context.Context, referenceID string) ([]*models.Image, error)
	ListImagesByIDs(ctx context.Context, ids []string) ([]*models.Image, error)
	ListImagesByStatusOlderThan(ctx context.Context, status models.ImageStatus, cutoff time.Time) ([]*models.Image, error)
	ListUnconfirmedOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Image, error)
	InsertImage(ctx context.Context, img *models.Image) error
	UpdateImage(ctx context.Context, img *models.Image) error
	UpdateImages(ctx context.Context, imgs []*models.Image) error
	DeleteImage(ctx context.Context, id string) error
	SaveStorageObject(ctx context.Context, obj *models.StorageObject) error

	AppendHistory(ctx context.Context, h models.StatusHistory) error
	ListHistory(ctx context.Context, imageID string) ([]models.StatusHistory, error)

	SaveVariant(ctx context.Context, v *models.ImageVariant) error
	ListVariants(ctx context.Context, imageID string) ([]models.ImageVariant, error)

	ReplaceSequences(ctx context.Context, referenceID string, imageIDs []string) error
	DeleteSequences(ctx context.Context, referenceID string) error
	ListSequences(ctx context.Context, referenceID string) ([]models.SequencedImage, error)

	ListReferenceTypes(ctx context.Context) ([]models.ReferenceType, error)
	ListExtensions(ctx context.Context) ([]models.Extension, error)

	AppendOutbox(ctx context.Context, ev models.OutboxEvent) error
	PendingOutbox(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id string) error
}

// TxManager hands out Store views, either pool-backed or bound to a
// single transaction.
type TxManager interface {
	Store() Store
	InTx(ctx context.Context, fn func(st Store) error) error
}

type Manager struct {
	pool *pgxpool.Pool
}

func NewManager(pool *pgxpool.Pool) *Manager {
	return &Manager{pool: pool}
}

func (m *Manager) Store() Store {
	return &pgStore{db: m.pool}
}

// InTx runs fn against a transaction-bound Store. The transaction commits
// only if fn returns nil; any error rolls everything back.
func (m *Manager) InTx(ctx context.Context, fn func(st Store) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgStore{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type pgStore struct {
	db Querier
}
