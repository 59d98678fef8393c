package fs

import (
	"time"

	"github.com/aretw0/introspection"
)

// StorageState exposes internal state for observability.
type StorageState struct {
	Path          string     `json:"path"`
	WatcherActive bool       `json:"watcher_active"`
	LastWrite     *time.Time `json:"last_write,omitempty"`
	LastChange    *time.Time `json:"last_change,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Storage) State() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StorageState{
		Path:          s.path,
		WatcherActive: s.watcherActive,
		LastWrite:     s.lastWrite,
		LastChange:    s.lastChange,
	}
}

// ComponentType implements introspection.Component.
func (s *Storage) ComponentType() string {
	return "session-storage"
}

var _ introspection.Introspectable = (*Storage)(nil)
var _ introspection.Component = (*Storage)(nil)

func (s *Storage) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *Storage) recordChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.lastChange = &now
}
