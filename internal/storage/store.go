package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when a key has never been written
var ErrNotFound = errors.New("key not found")

// Store is the durable key-value persistence port.
// Values are JSON documents stored as strings.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Slot keys shared by every workspace
const (
	KeySelectedStructure = "ds_selected_structure"
	KeyCurrentSchema     = "ds_current_schema"
	KeySavedSchemas      = "ds_saved_schemas"
)

// StructureKey returns the content slot for one structure kind ("ds_array_data")
func StructureKey(slug string) string {
	return "ds_" + slug + "_data"
}

// WorkspacePrefix namespaces all slots of one workspace
func WorkspacePrefix(workspaceID string) string {
	return "ws:" + workspaceID + ":"
}

// prefixedStore scopes another store under a key prefix
type prefixedStore struct {
	Store
	prefix string
}

// WithPrefix returns a view of s where every key is prefixed.
// Closing the view does not close s.
func WithPrefix(s Store, prefix string) Store {
	return &prefixedStore{Store: s, prefix: prefix}
}

func (p *prefixedStore) Get(ctx context.Context, key string) (string, error) {
	return p.Store.Get(ctx, p.prefix+key)
}

func (p *prefixedStore) Set(ctx context.Context, key, value string) error {
	return p.Store.Set(ctx, p.prefix+key, value)
}

func (p *prefixedStore) Delete(ctx context.Context, key string) error {
	return p.Store.Delete(ctx, p.prefix+key)
}

func (p *prefixedStore) Close() error {
	return nil
}
