package core

import (
	"fmt"
	"time"
)

const (
	// PageSize is the fixed number of notes requested per page.
	PageSize = 10

	// AuthPath is where the application navigates after an authentication rejection.
	AuthPath = "/auth"

	// TimestampLayout renders cursor timestamps as ISO-8601 with millisecond precision in UTC.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// FetchParams selects which page of notes to load and how to commit it.
type FetchParams struct {
	// LastNoteCreatedAt is the pagination cursor. Zero means "now".
	LastNoteCreatedAt time.Time
	// Page is 1-based. Values below 1 mean the first page.
	Page int
	// Append concatenates the page onto the current notes instead of replacing them.
	Append bool
}

// ListParams is the query sent to the notes listing endpoint.
type ListParams struct {
	LastNoteCreatedAt string
	Page              int
	PageSize          int
}

// FormatTimestamp renders t the way the listing endpoint expects it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// SelectionState is the client-local multi-select state. It is never persisted.
type SelectionState struct {
	IDs  []NoteID
	Mode bool
}

// State is a consistent copy of everything the store holds.
type State struct {
	Notes     NotesPage
	Selection SelectionState
	Token     string
}

// MutationType names a committed state change.
type MutationType string

const (
	MutationSetNotes         MutationType = "setNotes"
	MutationAppendNotes      MutationType = "appendNotes"
	MutationSetSelectedNotes MutationType = "setSelectedNotes"
	MutationSetSelectionMode MutationType = "setSelectionMode"
	MutationSetToken         MutationType = "setToken"
)

// Mutation is emitted to subscribers after every committed state change.
type Mutation struct {
	Type      MutationType
	Timestamp int64 // Unix timestamp
}

func (m Mutation) String() string {
	return fmt.Sprintf("%s@%d", m.Type, m.Timestamp)
}
