package core

import "context"

// KeyValueStore is the persisted session state boundary.
// Implementations must survive process restarts until a key is removed.
type KeyValueStore interface {
	// Get returns the value stored under key and whether it exists.
	Get(key string) (string, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}

// NotesAPI is the backend contract the store relies on.
type NotesAPI interface {
	ListNotes(ctx context.Context, params ListParams) (NotesPage, error)
	Login(ctx context.Context, creds Credentials) (LoginResult, error)
	CreateNote(ctx context.Context, note Note) (Note, error)
	UpdateNote(ctx context.Context, note Note) (Note, error)
	DeleteNote(ctx context.Context, id NoteID) error
}

// Navigator moves the UI to another screen.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) {
	f(path)
}
