package persist

import (
	"context"
	"sync"
)

// Storage is the minimal key-value capability the host contributes. The
// migration engine never calls it; only the persistor does.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// MemoryStorage is a mutex-guarded in-memory Storage intended for tests and
// examples. It makes no persistence assumptions.
type MemoryStorage struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{records: map[string]string{}}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	value, ok := s.records[key]
	s.mu.RUnlock()
	return value, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.records[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	return keys, nil
}
