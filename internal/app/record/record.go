/*
Package record is the persistent record store: typed, JSON-encoded collections
kept whole under one key each.

Every mutation is a read-modify-write of the entire collection. Loading never
fails; a missing key, a backend read error or a malformed value all load as an
empty collection, and the problem is only logged.
*/
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"satorugram/internal/app/kv"
	"satorugram/internal/pkg/logx"
)

// Names of the five collections. They double as fanout categories.
const (
	Users          = "users"
	Messages       = "messages"
	Posts          = "posts"
	Online         = "online"
	DirectMessages = "dm"
)

// Names lists every collection name.
var Names = []string{Users, Messages, Posts, Online, DirectMessages}

// Namespace prefixes collection keys so several apps can share one store.
type Namespace string

// Key returns the storage key for the named collection, e.g. "satorugram_users".
func (n Namespace) Key(name string) string {
	return string(n) + "_" + name
}

// Collection is a sequence of T persisted under a single key.
type Collection[T any] struct {
	store  kv.Store
	key    string
	logger zerolog.Logger
}

// NewCollection binds the named collection of ns to store.
func NewCollection[T any](store kv.Store, ns Namespace, name string) *Collection[T] {
	key := ns.Key(name)
	return &Collection[T]{
		store:  store,
		key:    key,
		logger: logx.Component("record").With().Str("key", key).Logger(),
	}
}

// Key returns the storage key of the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the stored sequence, or an empty one when nothing usable is stored.
func (c *Collection[T]) Load(ctx context.Context) []T {
	items := make([]T, 0)
	if !load(ctx, c.store, c.key, &items, c.logger) || items == nil {
		return make([]T, 0)
	}
	return items
}

// Replace overwrites the stored sequence with items.
func (c *Collection[T]) Replace(ctx context.Context, items []T) error {
	if items == nil {
		items = make([]T, 0)
	}
	return replace(ctx, c.store, c.key, items)
}

// Mapping is a string-keyed map of V persisted under a single key.
type Mapping[V any] struct {
	store  kv.Store
	key    string
	logger zerolog.Logger
}

// NewMapping binds the named mapping of ns to store.
func NewMapping[V any](store kv.Store, ns Namespace, name string) *Mapping[V] {
	key := ns.Key(name)
	return &Mapping[V]{
		store:  store,
		key:    key,
		logger: logx.Component("record").With().Str("key", key).Logger(),
	}
}

// Key returns the storage key of the mapping.
func (m *Mapping[V]) Key() string {
	return m.key
}

// Load returns the stored map, or an empty one when nothing usable is stored.
func (m *Mapping[V]) Load(ctx context.Context) map[string]V {
	entries := make(map[string]V)
	if !load(ctx, m.store, m.key, &entries, m.logger) || entries == nil {
		return make(map[string]V)
	}
	return entries
}

// Replace overwrites the stored map with entries.
func (m *Mapping[V]) Replace(ctx context.Context, entries map[string]V) error {
	if entries == nil {
		entries = make(map[string]V)
	}
	return replace(ctx, m.store, m.key, entries)
}

// Raw returns the bytes stored for the named collection, or nil when they
// cannot be read.
func Raw(ctx context.Context, store kv.Store, ns Namespace, name string) []byte {
	raw, err := store.Get(ctx, ns.Key(name))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			logx.Warn("Failed to read raw collection", "key", ns.Key(name), "error", err.Error())
		}
		return nil
	}
	return raw
}

// load decodes the value under key into dst and reports whether it succeeded.
func load(ctx context.Context, store kv.Store, key string, dst any, logger zerolog.Logger) bool {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read collection, using empty value.")
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn().Err(err).Int("bytes", len(raw)).Msg("Stored collection is corrupt, using empty value.")
		return false
	}
	return true
}

func replace(ctx context.Context, store kv.Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("record: encode %q: %w", key, err)
	}
	if err := store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("record: write %q: %w", key, err)
	}
	return nil
}
