// Package memory provides a process-local implementation of core.KeyValueStore.
// Values do not survive a restart; it is meant for tests and ephemeral sessions.
package memory

import (
	"sync"

	"github.com/aretw0/notekeeper/pkg/core"
)

// Storage is a map guarded by a mutex.
type Storage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStorage returns an empty Storage.
func NewStorage() *Storage {
	return &Storage{values: make(map[string]string)}
}

// Get implements core.KeyValueStore.
func (s *Storage) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set implements core.KeyValueStore.
func (s *Storage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Remove implements core.KeyValueStore.
func (s *Storage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len returns the number of stored keys.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

var _ core.KeyValueStore = (*Storage)(nil)
