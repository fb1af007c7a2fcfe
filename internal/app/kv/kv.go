/*
Package kv is the origin-scoped key/value store every collection is persisted in.

Values are opaque byte strings written whole. A Set replaces the previous value
for the key unconditionally: concurrent writers from different processes are
resolved by whichever write lands last.
*/
package kv

import (
	"context"
	"errors"
	"fmt"

	"satorugram/internal/app/db"
	"satorugram/internal/configs"
)

// ErrNotFound is returned by Get when the key has never been written or was deleted.
var ErrNotFound = errors.New("kv: key not found")

// Store is a key/value store holding whole serialized values.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}

// Open builds the Store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *configs.AppConfig) (Store, error) {
	switch cfg.StoreDriver {
	case configs.DriverMemory:
		return NewMemory(), nil

	case configs.DriverSQLite:
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return NewSQLite(sqlDB), nil

	case configs.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil

	case configs.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)

	default:
		return nil, fmt.Errorf("kv: unsupported driver %q", cfg.StoreDriver)
	}
}
