package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/camden-git/adminconsole/editor"
	"github.com/camden-git/adminconsole/models"
)

// CatalogKey is the cache key of the permission catalog.
const CatalogKey = "permissions:catalog"

// CachedBackend decorates an editor.Backend, serving the permission catalog
// from a Store. Assignments are never cached: they seed the selection and must
// reflect the backend.
type CachedBackend struct {
	editor.Backend
	store Store
	ttl   time.Duration
	key   string
}

// NewCachedBackend wraps backend.
func NewCachedBackend(backend editor.Backend, store Store, ttl time.Duration) *CachedBackend {
	return &CachedBackend{Backend: backend, store: store, ttl: ttl, key: CatalogKey}
}

// WithKey stores the catalog under key instead of CatalogKey, so that catalogs of
// different backends can share one Store.
func (b *CachedBackend) WithKey(key string) *CachedBackend {
	b.key = key
	return b
}

// FetchPermissionCatalog returns the cached catalog, fetching and storing it on a miss.
// Cache failures fall through to the wrapped backend.
func (b *CachedBackend) FetchPermissionCatalog(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := b.store.Get(ctx, b.key, &perms)
	if err == nil {
		return perms, nil
	}
	if !errors.Is(err, ErrMiss) {
		log.Printf("Warning: failed to read permission catalog from cache: %v", err)
	}

	perms, err = b.Backend.FetchPermissionCatalog(ctx)
	if err != nil {
		return nil, err
	}
	if err := b.store.Set(ctx, b.key, perms, b.ttl); err != nil {
		log.Printf("Warning: failed to cache permission catalog: %v", err)
	}
	return perms, nil
}

// Invalidate drops the cached catalog.
func (b *CachedBackend) Invalidate(ctx context.Context) error {
	return b.store.Delete(ctx, b.key)
}
