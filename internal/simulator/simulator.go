// Package simulator implements the six structure simulators as one generic
// component parameterized by seed, bound, remove policy and layout.
package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/ds-visualizer/internal/events"
	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/storage"
)

// ErrIndexRequired is returned when a positional remove is called without an index
var ErrIndexRequired = errors.New("index is required for positional remove")

// Element is the type of a simulator's contents
type Element interface {
	~int | ~string
}

// Policy selects what remove does
type Policy int

const (
	// RemoveTail deletes the last element (stack pop, linked-list remove)
	RemoveTail Policy = iota
	// RemoveHead deletes the first element (queue dequeue)
	RemoveHead
	// RemoveAt deletes the element at a caller-supplied index (array)
	RemoveAt
	// ResetOnRemove collapses the contents to the reset sequence (tree, graph)
	ResetOnRemove
)

// Rand is the random source used for generated values
type Rand interface {
	Intn(n int) int
}

// Config describes one structure kind
type Config[T Element] struct {
	Kind        models.StructureID
	Seed        []T
	Reset       []T // used by ResetOnRemove
	MaxLen      int // 0 means unbounded
	Policy      Policy
	AddLabel    string
	RemoveLabel string
	Next        func(items []T, rng Rand) T
	Layout      func(items []T) models.Layout
	Format      func(v T) string
}

// Machine is the kind-independent view of a simulator
type Machine interface {
	Kind() models.StructureID
	// Add appends one element; false when the bound was reached
	Add(ctx context.Context) bool
	// Remove applies the kind's remove policy; index is only read by positional kinds
	Remove(ctx context.Context, index int) (bool, error)
	State(ctx context.Context) models.StructureState
	Len(ctx context.Context) int
}

// Simulator owns one structure's ordered contents and its persistence slot.
// It is not safe for concurrent use; the owning workspace serializes access.
type Simulator[T Element] struct {
	cfg       Config[T]
	store     storage.Store
	key       string
	namespace string
	notifier  events.Notifier
	rng       Rand

	items  []T
	loaded bool
}

// New creates a simulator backed by store; contents are restored lazily on first use
func New[T Element](cfg Config[T], store storage.Store, namespace string, notifier events.Notifier, rng Rand) *Simulator[T] {
	if notifier == nil {
		notifier = events.NopNotifier{}
	}
	return &Simulator[T]{
		cfg:       cfg,
		store:     store,
		key:       storage.StructureKey(cfg.Kind.Slug()),
		namespace: namespace,
		notifier:  notifier,
		rng:       rng,
	}
}

// Kind returns the structure id
func (s *Simulator[T]) Kind() models.StructureID {
	return s.cfg.Kind
}

// Items returns a copy of the current contents
func (s *Simulator[T]) Items(ctx context.Context) []T {
	s.ensureLoaded(ctx)
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of elements
func (s *Simulator[T]) Len(ctx context.Context) int {
	s.ensureLoaded(ctx)
	return len(s.items)
}

// Add appends the next value unless the kind's bound is reached
func (s *Simulator[T]) Add(ctx context.Context) bool {
	s.ensureLoaded(ctx)

	if s.cfg.MaxLen > 0 && len(s.items) >= s.cfg.MaxLen {
		slog.Debug("add ignored, structure is full", "kind", s.cfg.Kind, "max", s.cfg.MaxLen)
		return false
	}

	next := append(clone(s.items), s.cfg.Next(s.items, s.rng))
	s.commit(ctx, next)
	return true
}

// Remove deletes according to the kind's policy
func (s *Simulator[T]) Remove(ctx context.Context, index int) (bool, error) {
	s.ensureLoaded(ctx)

	var next []T
	switch s.cfg.Policy {
	case RemoveTail:
		if len(s.items) == 0 {
			return false, nil
		}
		next = clone(s.items[:len(s.items)-1])

	case RemoveHead:
		if len(s.items) == 0 {
			return false, nil
		}
		next = clone(s.items[1:])

	case RemoveAt:
		if index < 0 {
			return false, ErrIndexRequired
		}
		if index >= len(s.items) {
			return false, nil
		}
		next = make([]T, 0, len(s.items)-1)
		next = append(next, s.items[:index]...)
		next = append(next, s.items[index+1:]...)

	case ResetOnRemove:
		next = clone(s.cfg.Reset)

	default:
		return false, fmt.Errorf("unknown remove policy %d", s.cfg.Policy)
	}

	s.commit(ctx, next)
	return true, nil
}

// State renders the contents and layout
func (s *Simulator[T]) State(ctx context.Context) models.StructureState {
	s.ensureLoaded(ctx)

	labels := make([]string, len(s.items))
	for i, v := range s.items {
		labels[i] = s.cfg.Format(v)
	}

	return models.StructureState{
		Kind:        s.cfg.Kind,
		Items:       labels,
		Length:      len(s.items),
		MaxLength:   s.cfg.MaxLen,
		Positional:  s.cfg.Policy == RemoveAt,
		AddLabel:    s.cfg.AddLabel,
		RemoveLabel: s.cfg.RemoveLabel,
		Layout:      s.cfg.Layout(s.items),
	}
}

// commit replaces the contents, persists them and notifies observers
func (s *Simulator[T]) commit(ctx context.Context, next []T) {
	s.items = next

	data, err := json.Marshal(s.items)
	if err != nil {
		slog.Warn("failed to encode structure", "kind", s.cfg.Kind, "error", err)
	} else if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		slog.Warn("failed to persist structure", "kind", s.cfg.Kind, "namespace", s.namespace, "error", err)
	}

	s.notifier.DataChanged(s.namespace)
}

// ensureLoaded restores the slot or falls back to the seed; never fails
func (s *Simulator[T]) ensureLoaded(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	s.items = clone(s.cfg.Seed)

	raw, err := s.store.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to read structure, using seed", "kind", s.cfg.Kind, "error", err)
		}
		return
	}

	var restored []T
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		slog.Warn("ignoring malformed structure data", "kind", s.cfg.Kind, "error", err)
		return
	}
	if restored == nil {
		// JSON null
		return
	}
	s.items = restored
}

func clone[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
