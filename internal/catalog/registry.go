// Package catalog holds the read-mostly reference-type and extension
// registries. They are loaded at startup and refreshed wholesale on a
// schedule; lookups never touch the database.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"imageserver/internal/models"
	"imageserver/internal/repository"
)

type Registry struct {
	store repository.Store
	log   zerolog.Logger

	mu          sync.RWMutex
	typesByCode map[string]models.ReferenceType
	typesByID   map[int]models.ReferenceType
	extensions  map[string]models.Extension
}

func NewRegistry(store repository.Store, log zerolog.Logger) *Registry {
	return &Registry{
		store:       store,
		log:         log,
		typesByCode: map[string]models.ReferenceType{},
		typesByID:   map[int]models.ReferenceType{},
		extensions:  map[string]models.Extension{},
	}
}

// Refresh repopulates both catalogs from the backing store. The new maps
// are built off-lock and swapped in, so readers are never blocked on the
// database.
func (r *Registry) Refresh(ctx context.Context) error {
	types, err := r.store.ListReferenceTypes(ctx)
	if err != nil {
		return fmt.Errorf("list reference types: %w", err)
	}
	exts, err := r.store.ListExtensions(ctx)
	if err != nil {
		return fmt.Errorf("list extensions: %w", err)
	}

	byCode := make(map[string]models.ReferenceType, len(types))
	byID := make(map[int]models.ReferenceType, len(types))
	for _, rt := range types {
		byCode[rt.Code] = rt
		byID[rt.ID] = rt
	}
	extMap := make(map[string]models.Extension, len(exts))
	for _, ext := range exts {
		extMap[ext.Code] = ext
	}

	r.mu.Lock()
	r.typesByCode = byCode
	r.typesByID = byID
	r.extensions = extMap
	r.mu.Unlock()

	r.log.Info().
		Int("reference_types", len(byCode)).
		Int("extensions", len(extMap)).
		Msg("catalog refreshed")
	return nil
}

func (r *Registry) LookupType(code string) (models.ReferenceType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.typesByCode[code]
	return rt, ok
}

func (r *Registry) LookupTypeByID(id int) (models.ReferenceType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.typesByID[id]
	return rt, ok
}

func (r *Registry) LookupExtension(code string) (models.Extension, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ext, ok := r.extensions[code]
	return ext, ok
}

func (r *Registry) ReferenceTypes() []models.ReferenceType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]models.ReferenceType, 0, len(r.typesByCode))
	for _, rt := range r.typesByCode {
		types = append(types, rt)
	}
	return types
}

func (r *Registry) Extensions() []models.Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]models.Extension, 0, len(r.extensions))
	for _, ext := range r.extensions {
		exts = append(exts, ext)
	}
	return exts
}
