package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/ds-visualizer/internal/storage"
)

// Manager caches loaded workspaces by id
type Manager struct {
	store storage.Store
	opts  Options

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewManager creates a manager backed by store
func NewManager(store storage.Store, opts Options) *Manager {
	return &Manager{
		store:      store,
		opts:       opts.withDefaults(),
		workspaces: make(map[string]*Workspace),
	}
}

// NewID returns a fresh workspace id
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like a workspace id
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the cached workspace or loads it from the store.
// Either way the workspace counts as used now.
func (m *Manager) Get(ctx context.Context, id string) *Workspace {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.workspaces[id]; ok {
		w.mu.Lock()
		w.touch()
		w.mu.Unlock()
		return w
	}

	w := Load(ctx, m.store, id, m.opts)
	m.workspaces[id] = w
	return w
}

// EvictIdle drops cached workspaces unused since cutoff and returns their ids.
// Workspaces with a pending generation are kept. The check and the removal
// happen under the manager lock, so Get cannot hand out an evicted workspace.
// Persisted state is kept.
func (m *Manager) EvictIdle(cutoff time.Time) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, w := range m.workspaces {
		if w.idle(cutoff) {
			delete(m.workspaces, id)
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of cached workspaces
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workspaces)
}

// Now returns the manager's clock
func (m *Manager) Now() time.Time {
	return m.opts.Now()
}
