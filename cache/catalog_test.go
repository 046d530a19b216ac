package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/camden-git/adminconsole/models"
)

type countingBackend struct {
	catalogCalls int
	err          error
}

func (b *countingBackend) FetchPermissionCatalog(ctx context.Context) ([]models.Permission, error) {
	b.catalogCalls++
	if b.err != nil {
		return nil, b.err
	}
	return []models.Permission{{ID: 1, Name: "Ver Usuarios", Code: "usuarios.ver"}}, nil
}

func (b *countingBackend) FetchAssignedPermissions(ctx context.Context, roleID uint) ([]models.Permission, error) {
	return nil, nil
}

func (b *countingBackend) ReplaceRolePermissions(ctx context.Context, roleID uint, ids []uint) error {
	return nil
}

func TestCachedBackendServesFromStore(t *testing.T) {
	inner := &countingBackend{}
	store := NewMemoryStore()
	b := NewCachedBackend(inner, store, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		perms, err := b.FetchPermissionCatalog(ctx)
		if err != nil {
			t.Fatalf("FetchPermissionCatalog() failed: %v", err)
		}
		if len(perms) != 1 || perms[0].Name != "Ver Usuarios" {
			t.Fatalf("unexpected catalog %v", perms)
		}
	}
	if inner.catalogCalls != 1 {
		t.Fatalf("backend called %d times, want 1", inner.catalogCalls)
	}

	if err := b.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := b.FetchPermissionCatalog(ctx); err != nil {
		t.Fatal(err)
	}
	if inner.catalogCalls != 2 {
		t.Fatalf("backend called %d times after invalidation, want 2", inner.catalogCalls)
	}
}

func TestCachedBackendDoesNotCacheFailures(t *testing.T) {
	inner := &countingBackend{err: errors.New("down")}
	b := NewCachedBackend(inner, NewMemoryStore(), time.Minute)

	if _, err := b.FetchPermissionCatalog(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	inner.err = nil
	if _, err := b.FetchPermissionCatalog(context.Background()); err != nil {
		t.Fatalf("FetchPermissionCatalog() failed: %v", err)
	}
	if inner.catalogCalls != 2 {
		t.Fatalf("backend called %d times, want 2", inner.catalogCalls)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Now()
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", time.Second); err != nil {
		t.Fatal(err)
	}
	var got string
	if err := s.Get(ctx, "k", &got); err != nil || got != "v" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
	now = now.Add(2 * time.Second)
	if err := s.Get(ctx, "k", &got); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get() after expiry error = %v, want ErrMiss", err)
	}
}

func TestCachedBackendsShareStoreUnderDistinctKeys(t *testing.T) {
	store := NewMemoryStore()
	local := &countingBackend{}
	remote := &countingBackend{}
	a := NewCachedBackend(local, store, time.Minute)
	b := NewCachedBackend(remote, store, time.Minute).WithKey("remote:" + CatalogKey)
	ctx := context.Background()

	if _, err := a.FetchPermissionCatalog(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := b.FetchPermissionCatalog(ctx); err != nil {
		t.Fatal(err)
	}
	if local.catalogCalls != 1 || remote.catalogCalls != 1 {
		t.Fatalf("calls local=%d remote=%d, want 1 each", local.catalogCalls, remote.catalogCalls)
	}

	if err := b.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	a.FetchPermissionCatalog(ctx)
	b.FetchPermissionCatalog(ctx)
	if local.catalogCalls != 1 || remote.catalogCalls != 2 {
		t.Errorf("after invalidating remote: local=%d remote=%d", local.catalogCalls, remote.catalogCalls)
	}
}
