package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Persistor connects a migration engine to a storage backend. It owns every
// storage round-trip the engine must never perform: reading versioned
// records, dropping unrecoverable ones, and writing migrated or freshly
// persisted values back at the current version.
type Persistor[T any] struct {
	engine  *Engine[T]
	storage Storage
	cfg     persistorConfig
}

type persistorConfig struct {
	serializer Serializer
	keyspace   Keyspace
	logger     HydrationLogger
	writeBack  bool
}

// PersistorOption configures a Persistor.
type PersistorOption func(*persistorConfig)

// WithSerializer replaces the default JSON serializer.
func WithSerializer(serializer Serializer) PersistorOption {
	return func(cfg *persistorConfig) {
		if serializer != nil {
			cfg.serializer = serializer
		}
	}
}

// WithKeyspace namespaces every storage key under the keyspace owner.
func WithKeyspace(keyspace Keyspace) PersistorOption {
	return func(cfg *persistorConfig) {
		cfg.keyspace = keyspace
	}
}

// WithHydrationLogger attaches a logger for hydration attempts.
func WithHydrationLogger(logger HydrationLogger) PersistorOption {
	return func(cfg *persistorConfig) {
		if logger == nil {
			cfg.logger = noopHydrationLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithWriteBack toggles re-persisting a migrated value at the current version
// after a successful hydration. Enabled by default.
func WithWriteBack(enabled bool) PersistorOption {
	return func(cfg *persistorConfig) {
		cfg.writeBack = enabled
	}
}

// NewPersistor constructs a Persistor around an engine and a storage backend.
func NewPersistor[T any](engine *Engine[T], storage Storage, opts ...PersistorOption) (*Persistor[T], error) {
	if engine == nil {
		return nil, fmt.Errorf("persist: engine is required")
	}
	if storage == nil {
		return nil, fmt.Errorf("persist: storage is required")
	}
	cfg := persistorConfig{
		serializer: JSONSerializer{},
		logger:     noopHydrationLogger{},
		writeBack:  true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Persistor[T]{engine: engine, storage: storage, cfg: cfg}, nil
}

// Hydrate restores the value stored under name. The middle result reports
// whether a value was restored; false with a nil error means the record was
// absent or unrecoverable, and the host should continue with its defaults.
// Unrecoverable records are removed from storage. Migration failures
// propagate and leave the record in place for the host to inspect.
func (p *Persistor[T]) Hydrate(ctx context.Context, name string) (T, bool, error) {
	var zero T
	key := p.cfg.keyspace.Key(name)

	record, ok, err := p.storage.Get(ctx, key)
	if err != nil {
		return zero, false, fmt.Errorf("persist: get %q: %w", key, err)
	}
	if !ok {
		return zero, false, nil
	}

	version, payload, err := DecodeRecord(record)
	if err != nil {
		return zero, false, fmt.Errorf("persist: record %q: %w", key, err)
	}
	raw, err := p.cfg.serializer.Unmarshal(payload)
	if err != nil {
		return zero, false, fmt.Errorf("persist: deserialize %q: %w", key, err)
	}

	start := time.Now()
	value, ok, err := p.engine.Migrate(raw, version)
	p.cfg.logger.LogHydration(HydrationEvent{
		AttemptID:   uuid.NewString(),
		Key:         key,
		FromVersion: version,
		ToVersion:   p.engine.Version(),
		Duration:    time.Since(start),
		Reset:       err == nil && !ok,
		Err:         err,
	})
	if err != nil {
		return zero, false, err
	}
	if !ok {
		if err := p.storage.Remove(ctx, key); err != nil {
			return zero, false, fmt.Errorf("persist: remove %q: %w", key, err)
		}
		return zero, false, nil
	}

	if p.cfg.writeBack && version < p.engine.Version() {
		if err := p.persistValue(ctx, key, value); err != nil {
			return zero, false, err
		}
	}
	return value, true, nil
}

// Persist stores value under name at the current schema version.
func (p *Persistor[T]) Persist(ctx context.Context, name string, value T) error {
	return p.persistValue(ctx, p.cfg.keyspace.Key(name), value)
}

// Drop removes the record stored under name.
func (p *Persistor[T]) Drop(ctx context.Context, name string) error {
	key := p.cfg.keyspace.Key(name)
	if err := p.storage.Remove(ctx, key); err != nil {
		return fmt.Errorf("persist: remove %q: %w", key, err)
	}
	return nil
}

// PurgeAll removes every record in the persistor's keyspace.
func (p *Persistor[T]) PurgeAll(ctx context.Context) error {
	return Purge(ctx, p.storage, p.cfg.keyspace)
}

// Version reports the engine's current schema version.
func (p *Persistor[T]) Version() int {
	return p.engine.Version()
}

func (p *Persistor[T]) persistValue(ctx context.Context, key string, value T) error {
	payload, err := p.cfg.serializer.Marshal(value)
	if err != nil {
		return fmt.Errorf("persist: serialize %q: %w", key, err)
	}
	if err := p.storage.Set(ctx, key, EncodeRecord(p.engine.Version(), payload)); err != nil {
		return fmt.Errorf("persist: set %q: %w", key, err)
	}
	return nil
}
