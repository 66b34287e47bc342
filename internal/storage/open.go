package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Supported backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Options selects and configures a backend
type Options struct {
	Backend    string
	Redis      RedisConfig
	Postgres   PostgresConfig
	SQLitePath string
}

// Open creates the configured store. Postgres migrations run before the store is returned.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory, "":
		slog.Warn("using in-memory store, state will not survive restarts")
		return NewMemoryStore(), nil

	case BackendRedis:
		return NewRedisStore(ctx, opts.Redis)

	case BackendPostgres:
		store, err := NewPostgresStore(ctx, opts.Postgres)
		if err != nil {
			return nil, err
		}
		if err := RunMigrations(ctx, store.Pool(), Migrations()); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return store, nil

	case BackendSQLite:
		slog.Info("opening sqlite store", "path", opts.SQLitePath)
		return NewSQLiteStore(ctx, opts.SQLitePath)

	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", opts.Backend)
	}
}
