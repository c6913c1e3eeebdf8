package store

import (
	"context"
	"fmt"

	"github.com/nhle/threat-console/internal/model"
)

// Medium is the durable key-value layer underneath the preference store.
// Values are opaque bytes; Prefs owns their encoding.
type Medium interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection.
	Close() error
}

// Watcher is implemented by media shared between several console
// instances. Watch blocks until ctx is done, calling fn with the key of
// every write made by another instance. Delivery is best-effort.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

// Open builds the medium selected by cfg.
func Open(ctx context.Context, cfg model.StorageConfig) (Medium, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteMedium(cfg.Path)
	case "redis":
		return NewRedisMedium(ctx, RedisOptions{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
