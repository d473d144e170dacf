package persist

import (
	"context"
	"fmt"
	"strings"
)

// Keyspace namespaces storage keys by owner so multiple persistence
// configurations can share one backend. The zero Keyspace leaves keys
// untouched. The migration engine is agnostic to namespacing; only the
// persistor and Purge consult it.
type Keyspace struct {
	Owner string
}

// Key returns the fully namespaced storage key for name.
func (k Keyspace) Key(name string) string {
	if k.Owner == "" {
		return name
	}
	return k.Owner + "/" + name
}

// Contains reports whether key belongs to this keyspace.
func (k Keyspace) Contains(key string) bool {
	if k.Owner == "" {
		return true
	}
	return strings.HasPrefix(key, k.Owner+"/")
}

// Purge removes every record in the keyspace from storage.
func Purge(ctx context.Context, storage Storage, keyspace Keyspace) error {
	if storage == nil {
		return fmt.Errorf("persist: storage is required")
	}
	keys, err := storage.Keys(ctx)
	if err != nil {
		return fmt.Errorf("persist: enumerate keys: %w", err)
	}
	for _, key := range keys {
		if !keyspace.Contains(key) {
			continue
		}
		if err := storage.Remove(ctx, key); err != nil {
			return fmt.Errorf("persist: remove %q: %w", key, err)
		}
	}
	return nil
}
