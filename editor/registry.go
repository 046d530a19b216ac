package editor

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

type registryEntry struct {
	editor   *Editor
	lastUsed time.Time
}

// Registry keeps the open editors of a process, keyed by a random session id.
// Editors idle for longer than the configured timeout are closed and evicted.
type Registry struct {
	mu          sync.Mutex
	entries     map[string]*registryEntry
	idleTimeout time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewRegistry creates a registry. An idleTimeout <= 0 disables eviction.
func NewRegistry(idleTimeout time.Duration) *Registry {
	return &Registry{
		entries:     make(map[string]*registryEntry),
		idleTimeout: idleTimeout,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
}

// Add stores ed and returns its session id.
func (r *Registry) Add(ed *Editor) string {
	id := uuid.New().String()
	r.mu.Lock()
	r.entries[id] = &registryEntry{editor: ed, lastUsed: r.now()}
	r.mu.Unlock()
	return id
}

// Get returns the editor for id and marks it as used.
func (r *Registry) Get(id string) (*Editor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	entry.lastUsed = r.now()
	return entry.editor, true
}

// Remove closes the editor for id and forgets it.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	entry, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if ok {
		entry.editor.Close()
	}
	return ok
}

// Len returns the number of open editors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// EvictIdle closes every editor unused for longer than the idle timeout,
// as well as editors that already closed themselves after a save.
func (r *Registry) EvictIdle() int {
	r.mu.Lock()
	now := r.now()
	var evicted []*Editor
	for id, entry := range r.entries {
		idle := r.idleTimeout > 0 && now.Sub(entry.lastUsed) > r.idleTimeout
		if idle || entry.editor.State() == StateClosed {
			evicted = append(evicted, entry.editor)
			delete(r.entries, id)
		}
	}
	r.mu.Unlock()

	for _, ed := range evicted {
		ed.Close()
	}
	return len(evicted)
}

// Run evicts idle editors every interval until Stop is called.
func (r *Registry) Run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := r.EvictIdle(); n > 0 {
				log.Printf("Evicted %d idle permission editors", n)
			}
		case <-r.stop:
			return
		}
	}
}

// Stop ends Run and closes every remaining editor.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })

	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.editor.Close()
	}
}
