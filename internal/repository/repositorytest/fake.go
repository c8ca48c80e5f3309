// Package repositorytest provides an in-memory Store for tests that
// exercise the engine's transactional logic without a database.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"imageserver/internal/models"
	"imageserver/internal/repository"
)

// FakeStore keeps everything in maps. It is not safe for concurrent use;
// tests drive it from a single goroutine.
type FakeStore struct {
	Images    map[string]*models.Image
	Storage   map[string]*models.StorageObject
	History   map[string][]models.StatusHistory
	Variants  map[string][]models.ImageVariant
	Sequences map[string][]string
	Types     []models.ReferenceType
	Exts      []models.Extension
	Outbox    []models.OutboxEvent

	nextHistoryID int64
	nextVariantID int64
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		Images:    make(map[string]*models.Image),
		Storage:   make(map[string]*models.StorageObject),
		History:   make(map[string][]models.StatusHistory),
		Variants:  make(map[string][]models.ImageVariant),
		Sequences: make(map[string][]string),
	}
}

// Put seeds an image, wiring up its joined reference type from Types.
func (f *FakeStore) Put(img *models.Image) {
	if img.ReferenceType == nil {
		for i := range f.Types {
			if f.Types[i].ID == img.ReferenceTypeID {
				rt := f.Types[i]
				img.ReferenceType = &rt
				break
			}
		}
	}
	f.Images[img.ID] = img
}

func (f *FakeStore) GetImage(_ context.Context, id string) (*models.Image, error) {
	img, ok := f.Images[id]
	if !ok {
		return nil, repository.ErrImageNotFound
	}
	copied := *img
	return &copied, nil
}

func (f *FakeStore) ListAttachedImages(_ context.Context, referenceID string) ([]*models.Image, error) {
	var out []*models.Image
	for _, img := range f.Images {
		if img.ReferenceID != nil && *img.ReferenceID == referenceID &&
			img.Status == models.ImageStatusConfirmed && !img.Deleted {
			copied := *img
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeStore) ListImagesByIDs(_ context.Context, ids []string) ([]*models.Image, error) {
	var out []*models.Image
	for _, id := range ids {
		if img, ok := f.Images[id]; ok {
			copied := *img
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *FakeStore) ListImagesByStatusOlderThan(_ context.Context, status models.ImageStatus, cutoff time.Time) ([]*models.Image, error) {
	var out []*models.Image
	for _, img := range f.Images {
		if img.Status == status && img.CreatedAt.Before(cutoff) {
			copied := *img
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *FakeStore) ListUnconfirmedOlderThan(_ context.Context, cutoff time.Time) ([]*models.Image, error) {
	var out []*models.Image
	for _, img := range f.Images {
		if img.Status != models.ImageStatusConfirmed && img.CreatedAt.Before(cutoff) {
			copied := *img
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *FakeStore) InsertImage(_ context.Context, img *models.Image) error {
	copied := *img
	f.Images[img.ID] = &copied
	return nil
}

func (f *FakeStore) UpdateImage(_ context.Context, img *models.Image) error {
	if _, ok := f.Images[img.ID]; !ok {
		return repository.ErrImageNotFound
	}
	copied := *img
	f.Images[img.ID] = &copied
	return nil
}

func (f *FakeStore) UpdateImages(ctx context.Context, imgs []*models.Image) error {
	for _, img := range imgs {
		if err := f.UpdateImage(ctx, img); err != nil {
			return err
		}
	}
	return nil
}

func (f *FakeStore) DeleteImage(_ context.Context, id string) error {
	delete(f.Images, id)
	delete(f.Storage, id)
	delete(f.Variants, id)
	return nil
}

func (f *FakeStore) SaveStorageObject(_ context.Context, obj *models.StorageObject) error {
	copied := *obj
	f.Storage[obj.ImageID] = &copied
	return nil
}

func (f *FakeStore) AppendHistory(_ context.Context, h models.StatusHistory) error {
	f.nextHistoryID++
	h.ID = f.nextHistoryID
	f.History[h.ImageID] = append(f.History[h.ImageID], h)
	return nil
}

func (f *FakeStore) ListHistory(_ context.Context, imageID string) ([]models.StatusHistory, error) {
	return f.History[imageID], nil
}

func (f *FakeStore) SaveVariant(_ context.Context, v *models.ImageVariant) error {
	f.nextVariantID++
	v.ID = f.nextVariantID
	f.Variants[v.ImageID] = append(f.Variants[v.ImageID], *v)
	return nil
}

func (f *FakeStore) ListVariants(_ context.Context, imageID string) ([]models.ImageVariant, error) {
	return f.Variants[imageID], nil
}

func (f *FakeStore) ReplaceSequences(_ context.Context, referenceID string, imageIDs []string) error {
	f.Sequences[referenceID] = append([]string(nil), imageIDs...)
	return nil
}

func (f *FakeStore) DeleteSequences(_ context.Context, referenceID string) error {
	delete(f.Sequences, referenceID)
	return nil
}

func (f *FakeStore) ListSequences(_ context.Context, referenceID string) ([]models.SequencedImage, error) {
	var out []models.SequencedImage
	for i, id := range f.Sequences[referenceID] {
		img, ok := f.Images[id]
		if !ok {
			continue
		}
		out = append(out, models.SequencedImage{Image: *img, SeqNumber: i})
	}
	return out, nil
}

func (f *FakeStore) ListReferenceTypes(_ context.Context) ([]models.ReferenceType, error) {
	return f.Types, nil
}

func (f *FakeStore) ListExtensions(_ context.Context) ([]models.Extension, error) {
	return f.Exts, nil
}

func (f *FakeStore) AppendOutbox(_ context.Context, ev models.OutboxEvent) error {
	f.Outbox = append(f.Outbox, ev)
	return nil
}

func (f *FakeStore) PendingOutbox(_ context.Context, limit int) ([]models.OutboxEvent, error) {
	var out []models.OutboxEvent
	for _, ev := range f.Outbox {
		if ev.ProcessedAt == nil {
			out = append(out, ev)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *FakeStore) MarkOutboxProcessed(_ context.Context, id string) error {
	for i := range f.Outbox {
		if f.Outbox[i].ID == id {
			now := time.Now()
			f.Outbox[i].ProcessedAt = &now
		}
	}
	return nil
}

// FakeTxManager hands the same FakeStore to both paths. InTx has no
// rollback semantics but serializes callers, so concurrent workers in a
// test do not race on the store's maps; tests assert on observable
// outcomes only.
type FakeTxManager struct {
	S *FakeStore

	mu sync.Mutex
}

func NewFakeTxManager(s *FakeStore) *FakeTxManager {
	return &FakeTxManager{S: s}
}

func (m *FakeTxManager) Store() repository.Store {
	return m.S
}

func (m *FakeTxManager) InTx(_ context.Context, fn func(st repository.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.S)
}
