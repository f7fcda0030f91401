// Package memory implements an in-memory kv Store for tests.
package memory

import (
	"context"
	"sync"

	"lifeplan/internal/kv/core"
)

// Store implements core.Store backed by process memory. Intended for tests.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
	// FailSet makes writes to the listed keys fail, for exercising storage errors.
	FailSet map[string]error
}

// New returns an empty in-memory store.
func New() *Store { return &Store{values: make(map[string][]byte)} }

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, core.ErrClosed
	}
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrClosed
	}
	if err := s.FailSet[key]; err != nil {
		return err
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// SetMany writes all values or none.
func (s *Store) SetMany(_ context.Context, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrClosed
	}
	for key := range values {
		if err := s.FailSet[key]; err != nil {
			return err
		}
	}
	for key, value := range values {
		s.values[key] = append([]byte(nil), value...)
	}
	return nil
}

// RemoveMany deletes keys, ignoring missing ones.
func (s *Store) RemoveMany(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.ErrClosed
	}
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

// Keys returns the number of stored keys.
func (s *Store) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
