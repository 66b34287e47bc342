// Package workspace holds one visitor's application state: the selected
// structure, the six simulators and the schema panel, persisted through a
// namespaced storage.Store.
package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/events"
	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/simulator"
	"github.com/terra-clan/ds-visualizer/internal/storage"
)

// Options are the collaborators shared by every workspace
type Options struct {
	Catalog  *catalog.Catalog
	Notifier events.Notifier
	Rand     simulator.Rand
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = catalog.Default()
	}
	if o.Notifier == nil {
		o.Notifier = events.NopNotifier{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Workspace is safe for concurrent use. Schema generation runs without
// holding the lock so selection and simulator mutations stay available.
type Workspace struct {
	id       string
	store    storage.Store
	catalog  *catalog.Catalog
	notifier events.Notifier
	now      func() time.Time
	rng      simulator.Rand

	mu         sync.Mutex
	selected   models.StructureID
	schemaText string
	saved      []models.SavedSchema
	generating bool
	// epoch changes whenever the schema text stops belonging to the selection
	epoch      uint64
	machines   map[models.StructureID]simulator.Machine
	lastAccess time.Time
}

// Load restores a workspace from store under the workspace's own namespace.
// Each slot falls back to its default independently; Load never fails.
func Load(ctx context.Context, store storage.Store, id string, opts Options) *Workspace {
	opts = opts.withDefaults()
	scoped := storage.WithPrefix(store, storage.WorkspacePrefix(id))

	// math/rand sources are not safe for concurrent use; each workspace gets its own
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	w := &Workspace{
		id:         id,
		store:      scoped,
		catalog:    opts.Catalog,
		notifier:   opts.Notifier,
		now:        opts.Now,
		rng:        rng,
		selected:   models.DefaultStructure,
		machines:   simulator.BuildAll(scoped, id, opts.Notifier, rng),
		lastAccess: opts.Now(),
	}

	var selected string
	if w.readSlot(ctx, storage.KeySelectedStructure, &selected) {
		if parsed := models.StructureID(selected); parsed.Valid() {
			w.selected = parsed
		} else {
			slog.Warn("ignoring unknown persisted selection", "workspace_id", id, "value", selected)
		}
	}

	var text string
	if w.readSlot(ctx, storage.KeyCurrentSchema, &text) {
		w.schemaText = text
	}

	var saved []models.SavedSchema
	if w.readSlot(ctx, storage.KeySavedSchemas, &saved) {
		w.saved = saved
	}

	return w
}

// ID returns the workspace id
func (w *Workspace) ID() string {
	return w.id
}

// Selection returns the selected structure
func (w *Workspace) Selection() models.StructureID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selected
}

// Info returns the catalog entry of the selected structure
func (w *Workspace) Info() models.StructureInfo {
	info, _ := w.catalog.Lookup(w.Selection())
	return info
}

// Select changes the selection and clears the schema text
func (w *Workspace) Select(ctx context.Context, id models.StructureID) error {
	if !id.Valid() {
		return catalog.ErrUnknownStructure
	}

	w.mu.Lock()
	w.touch()
	w.selected = id
	w.schemaText = ""
	w.epoch++
	w.writeSlot(ctx, storage.KeySelectedStructure, string(id))
	w.writeSlot(ctx, storage.KeyCurrentSchema, "")
	w.mu.Unlock()

	w.notifier.DataChanged(w.id)
	return nil
}

// Reset deletes every persisted slot and returns the workspace to its
// fresh-start state. A pending generation finishes but its result is dropped.
func (w *Workspace) Reset(ctx context.Context) {
	w.mu.Lock()
	w.touch()
	for _, key := range slotKeys() {
		if err := w.store.Delete(ctx, key); err != nil {
			slog.Warn("failed to delete workspace slot", "workspace_id", w.id, "key", key, "error", err)
		}
	}
	w.selected = models.DefaultStructure
	w.schemaText = ""
	w.saved = nil
	w.epoch++
	w.machines = simulator.BuildAll(w.store, w.id, w.notifier, w.rng)
	w.mu.Unlock()

	slog.Info("workspace reset", "workspace_id", w.id)
	w.notifier.DataChanged(w.id)
}

// slotKeys lists every key a workspace persists
func slotKeys() []string {
	keys := []string{
		storage.KeySelectedStructure,
		storage.KeyCurrentSchema,
		storage.KeySavedSchemas,
	}
	for _, id := range models.StructureIDs {
		keys = append(keys, storage.StructureKey(id.Slug()))
	}
	return keys
}

// Add appends to the given structure; false when its bound was reached
func (w *Workspace) Add(ctx context.Context, id models.StructureID) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, err := w.machine(id)
	if err != nil {
		return false, err
	}
	return m.Add(ctx), nil
}

// Remove applies the structure's remove rule. index is only read by Array;
// pass a negative index for the others.
func (w *Workspace) Remove(ctx context.Context, id models.StructureID, index int) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, err := w.machine(id)
	if err != nil {
		return false, err
	}
	return m.Remove(ctx, index)
}

// StructureState returns the contents and layout of one structure
func (w *Workspace) StructureState(ctx context.Context, id models.StructureID) (models.StructureState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	m, err := w.machine(id)
	if err != nil {
		return models.StructureState{}, err
	}
	return m.State(ctx), nil
}

// Snapshot returns a consistent copy of everything the page renders
func (w *Workspace) Snapshot(ctx context.Context) models.WorkspaceState {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.touch()

	info, _ := w.catalog.Lookup(w.selected)
	saved := make([]models.SavedSchema, len(w.saved))
	copy(saved, w.saved)

	return models.WorkspaceState{
		WorkspaceID:  w.id,
		Selected:     w.selected,
		Info:         info,
		Structure:    w.machines[w.selected].State(ctx),
		SchemaText:   w.schemaText,
		Generating:   w.generating,
		SavedSchemas: saved,
	}
}

// LastAccess returns when the workspace was last used
func (w *Workspace) LastAccess() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAccess
}

// idle reports, under one lock, whether the workspace was unused since
// cutoff and has no generation pending
func (w *Workspace) idle(cutoff time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastAccess.Before(cutoff) && !w.generating
}

// machine must be called with mu held
func (w *Workspace) machine(id models.StructureID) (simulator.Machine, error) {
	w.touch()
	m, ok := w.machines[id]
	if !ok {
		return nil, catalog.ErrUnknownStructure
	}
	return m, nil
}

func (w *Workspace) touch() {
	w.lastAccess = w.now()
}

// readSlot decodes a persisted slot into v; false means use the default
func (w *Workspace) readSlot(ctx context.Context, key string, v any) bool {
	raw, err := w.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to read workspace slot", "workspace_id", w.id, "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), v); err != nil {
		slog.Warn("ignoring malformed workspace slot", "workspace_id", w.id, "key", key, "error", err)
		return false
	}
	return true
}

// writeSlot persists v; failures leave the in-memory state authoritative
func (w *Workspace) writeSlot(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("failed to encode workspace slot", "workspace_id", w.id, "key", key, "error", err)
		return
	}
	if err := w.store.Set(ctx, key, string(data)); err != nil {
		slog.Warn("failed to persist workspace slot", "workspace_id", w.id, "key", key, "error", err)
	}
}
