// Package memory implements an in-process key/value Store for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sync"

	"countingsheep/internal/persistence"
)

var _ persistence.Store = (*Store)(nil)

// Store keeps blobs in a map. Values are copied on the way in and out.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New returns an empty store.
func New() *Store { return &Store{data: make(map[string][]byte)} }

// Driver returns the driver identifier.
func (s *Store) Driver() persistence.Driver { return persistence.DriverMemory }

// Read returns a copy of the value under key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	v, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Write replaces the value under key.
func (s *Store) Write(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	s.data[key] = append([]byte(nil), data...)
	s.mu.Unlock()
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
