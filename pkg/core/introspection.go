package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	NoteCount     int    `json:"note_count"`
	SelectedCount int    `json:"selected_count"`
	SelectionMode bool   `json:"selection_mode"`
	Authenticated bool   `json:"authenticated"`
	StrictWrites  bool   `json:"strict_writes"`
	Subscribers   int    `json:"subscribers"`
	PendingTasks  int64  `json:"pending_tasks"`
	APIComponent  string `json:"api_component"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	apiType := "unknown"
	if comp, ok := s.api.(introspection.Component); ok {
		apiType = comp.ComponentType()
	}

	return StoreState{
		NoteCount:     len(s.notes),
		SelectedCount: len(s.selected),
		SelectionMode: s.selectionMode,
		Authenticated: s.token != "",
		StrictWrites:  s.strictWrites,
		Subscribers:   s.broker.len(),
		PendingTasks:  s.pending.Load(),
		APIComponent:  apiType,
	}
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
