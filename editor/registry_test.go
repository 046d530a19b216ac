package editor

import (
	"testing"
	"time"

	"github.com/camden-git/adminconsole/models"
)

func TestRegistryEvictsIdleAndClosedEditors(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	reg := NewRegistry(10 * time.Minute)
	reg.now = func() time.Time { return now }

	idle, _ := Open(models.Role{ID: 1, Name: "Ventas"}, &fakeBackend{})
	active, _ := Open(models.Role{ID: 2, Name: "Bodega"}, &fakeBackend{})
	done, _ := Open(models.Role{ID: 3, Name: "Caja"}, &fakeBackend{})

	idleID := reg.Add(idle)
	now = now.Add(8 * time.Minute)
	activeID := reg.Add(active)
	doneID := reg.Add(done)
	done.Close()

	now = now.Add(5 * time.Minute)
	if _, ok := reg.Get(activeID); !ok {
		t.Fatal("active editor missing")
	}

	if n := reg.EvictIdle(); n != 2 {
		t.Fatalf("EvictIdle() = %d, want 2", n)
	}
	if _, ok := reg.Get(idleID); ok {
		t.Fatal("idle editor should be evicted")
	}
	if _, ok := reg.Get(doneID); ok {
		t.Fatal("closed editor should be evicted")
	}
	if idle.State() != StateClosed {
		t.Fatalf("evicted editor state = %v, want closed", idle.State())
	}
	if reg.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", reg.Len())
	}

	reg.Stop()
	if active.State() != StateClosed || reg.Len() != 0 {
		t.Fatal("Stop() should close every editor")
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewRegistry(0)
	ed, _ := Open(models.Role{ID: 1, Name: "Ventas"}, &fakeBackend{})
	id := reg.Add(ed)
	if !reg.Remove(id) {
		t.Fatal("Remove() = false")
	}
	if reg.Remove(id) {
		t.Fatal("second Remove() = true")
	}
	if ed.State() != StateClosed {
		t.Fatalf("state = %v, want closed", ed.State())
	}
}
