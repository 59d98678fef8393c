package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lifecycle"
)

// StoreConfig holds the dependencies of a Store.
type StoreConfig struct {
	API        NotesAPI
	Credential *Credential
	Logger     *slog.Logger

	// StrictWrites makes CreateNote, UpdateNote and DeleteNote return the API error
	// instead of logging and swallowing it.
	StrictWrites bool

	// EventBuffer is the per-subscriber buffer size. Zero means 100.
	EventBuffer int

	// Clock is used for cursor defaults and mutation timestamps. Nil means time.Now.
	Clock func() time.Time
}

// Store is the single source of truth for client-side application state.
// State changes only through its mutation methods; actions call the API and
// commit their results through those same mutations.
type Store struct {
	mu sync.RWMutex

	api          NotesAPI
	credential   *Credential
	logger       *slog.Logger
	strictWrites bool
	clock        func() time.Time

	notes         NotesPage
	selected      []NoteID
	selectionMode bool
	token         string

	broker *broker

	tasksMu sync.Mutex
	tasks   sync.WaitGroup
	pending atomic.Int64
	closed  bool
}

// NewStore creates a Store and loads the persisted token into memory.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.API == nil {
		return nil, ErrNilAPI
	}
	if cfg.Credential == nil {
		return nil, ErrNilStorage
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	token, err := cfg.Credential.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &Store{
		api:          cfg.API,
		credential:   cfg.Credential,
		logger:       logger,
		strictWrites: cfg.StrictWrites,
		clock:        clock,
		token:        token,
		broker:       newBroker(cfg.EventBuffer),
	}, nil
}

// --- Mutations ---

// SetNotes replaces the notes sequence.
func (s *Store) SetNotes(notes NotesPage) {
	s.mu.Lock()
	s.notes = slices.Clone(notes)
	s.mu.Unlock()
	s.commit(MutationSetNotes)
}

// AppendNotes concatenates notes onto the current sequence, existing notes first.
func (s *Store) AppendNotes(notes NotesPage) {
	s.mu.Lock()
	s.notes = append(slices.Clone(s.notes), notes...)
	s.mu.Unlock()
	s.commit(MutationAppendNotes)
}

// SetSelectedNotes replaces the selection set.
func (s *Store) SetSelectedNotes(ids []NoteID) {
	s.mu.Lock()
	s.selected = slices.Clone(ids)
	s.mu.Unlock()
	s.commit(MutationSetSelectedNotes)
}

// ToggleSelected adds id to the selection, or removes it if already selected.
func (s *Store) ToggleSelected(id NoteID) {
	s.mu.Lock()
	if i := slices.Index(s.selected, id); i >= 0 {
		s.selected = slices.Delete(slices.Clone(s.selected), i, i+1)
	} else {
		s.selected = append(slices.Clone(s.selected), id)
	}
	s.mu.Unlock()
	s.commit(MutationSetSelectedNotes)
}

// ClearSelection empties the selection. The selection mode is left as is.
func (s *Store) ClearSelection() {
	s.SetSelectedNotes(nil)
}

// SetSelectionMode replaces the selection-mode flag.
func (s *Store) SetSelectionMode(enabled bool) {
	s.mu.Lock()
	s.selectionMode = enabled
	s.mu.Unlock()
	s.commit(MutationSetSelectionMode)
}

// SetToken replaces the token and persists it; an empty token removes the
// persisted value. The in-memory token only changes once persistence succeeded.
func (s *Store) SetToken(token string) error {
	s.mu.Lock()
	if err := s.credential.Save(token); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.token = token
	s.mu.Unlock()

	s.commit(MutationSetToken)
	return nil
}

// ReloadToken re-reads the persisted token, e.g. after another process changed it.
func (s *Store) ReloadToken() error {
	s.mu.Lock()
	token, err := s.credential.Token()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changed := token != s.token
	s.token = token
	s.mu.Unlock()

	if changed {
		s.logger.Debug("session token changed externally", "authenticated", token != "")
		s.commit(MutationSetToken)
	}
	return nil
}

// --- Getters ---

// Notes returns a copy of the current notes.
func (s *Store) Notes() NotesPage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

// SelectedNotes returns a copy of the current selection.
func (s *Store) SelectedNotes() []NoteID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selected)
}

// SelectionMode reports whether multi-select is active.
func (s *Store) SelectionMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selectionMode
}

// Token returns the in-memory token, "" if logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

// Snapshot returns a consistent copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Notes: slices.Clone(s.notes),
		Selection: SelectionState{
			IDs:  slices.Clone(s.selected),
			Mode: s.selectionMode,
		},
		Token: s.token,
	}
}

// --- Actions ---

// FetchNotes loads one page of notes and commits it.
// Failures commit nothing and are returned to the caller.
func (s *Store) FetchNotes(ctx context.Context, p FetchParams) (NotesPage, error) {
	params := s.listParams(p)

	notes, err := s.api.ListNotes(ctx, params)
	if err != nil {
		s.logger.Error("error fetching notes", "page", params.Page, "error", err)
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}

	if p.Append {
		s.AppendNotes(notes)
	} else {
		s.SetNotes(notes)
	}

	s.logger.Debug("notes fetched", "page", params.Page, "count", len(notes), "append", p.Append)
	return notes, nil
}

func (s *Store) listParams(p FetchParams) ListParams {
	cursor := p.LastNoteCreatedAt
	if cursor.IsZero() {
		cursor = s.clock()
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return ListParams{
		LastNoteCreatedAt: FormatTimestamp(cursor),
		Page:              page,
		PageSize:          PageSize,
	}
}

// Login authenticates, stores the returned token and starts a background
// refresh of the notes list. Login does not wait for that refresh.
func (s *Store) Login(ctx context.Context, creds Credentials) error {
	res, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.Error("login error", "error", err)
		return fmt.Errorf("login failed: %w", err)
	}
	if res.Token == "" {
		s.logger.Error("login error", "error", ErrNoToken)
		return ErrNoToken
	}

	if err := s.SetToken(res.Token); err != nil {
		s.logger.Error("login error", "error", err)
		return err
	}

	s.refresh(ctx, "login")
	return nil
}

// Logout clears the token in memory and in persisted session state.
func (s *Store) Logout() error {
	return s.SetToken("")
}

// CreateNote creates a note and refreshes the list in the background.
func (s *Store) CreateNote(ctx context.Context, note Note) error {
	if _, err := s.api.CreateNote(ctx, note); err != nil {
		return s.writeFailed("error creating note", err)
	}
	s.refresh(ctx, "createNote")
	return nil
}

// UpdateNote updates a note and refreshes the list in the background.
func (s *Store) UpdateNote(ctx context.Context, note Note) error {
	if _, err := s.api.UpdateNote(ctx, note); err != nil {
		return s.writeFailed("error updating note", err, "id", note.ID)
	}
	s.refresh(ctx, "updateNote")
	return nil
}

// DeleteNote deletes a note and refreshes the list in the background.
func (s *Store) DeleteNote(ctx context.Context, id NoteID) error {
	if err := s.api.DeleteNote(ctx, id); err != nil {
		return s.writeFailed("error deleting note", err, "id", id)
	}
	s.refresh(ctx, "deleteNote")
	return nil
}

// DeleteSelected deletes every selected note, then clears the selection and
// leaves selection mode. One background refresh follows.
func (s *Store) DeleteSelected(ctx context.Context) error {
	ids := s.SelectedNotes()
	if len(ids) == 0 {
		return nil
	}

	var errs []error
	for _, id := range ids {
		if err := s.api.DeleteNote(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("note %s: %w", id, err))
		}
	}

	s.ClearSelection()
	s.SetSelectionMode(false)
	s.refresh(ctx, "deleteSelected")

	if len(errs) > 0 {
		return s.writeFailed("error deleting selected notes", errors.Join(errs...), "count", len(errs))
	}
	return nil
}

// writeFailed logs a write error. It is only returned in strict mode.
func (s *Store) writeFailed(msg string, err error, attrs ...any) error {
	s.logger.Error(msg, append(attrs, "error", err)...)
	if s.strictWrites {
		return err
	}
	return nil
}

// refresh starts a detached reload of the first page.
func (s *Store) refresh(ctx context.Context, cause string) {
	s.spawn(ctx, cause+".fetchNotes", func(ctx context.Context) error {
		_, err := s.FetchNotes(ctx, FetchParams{})
		return err
	})
}

// spawn runs fn in the background, detached from the caller's cancellation.
// Errors are logged and never reach the caller.
func (s *Store) spawn(ctx context.Context, name string, fn func(context.Context) error) {
	s.tasksMu.Lock()
	if s.closed {
		s.tasksMu.Unlock()
		s.logger.Debug("store closed, background task skipped", "task", name)
		return
	}
	s.tasks.Add(1)
	s.pending.Add(1)
	s.tasksMu.Unlock()

	lifecycle.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		defer s.tasks.Done()
		defer s.pending.Add(-1)

		if err := fn(ctx); err != nil {
			s.logger.Error("background task failed", "task", name, "error", err)
			return err
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		s.logger.Error("background task panic", "task", name, "error", err)
	}))
}

// Wait blocks until every background task started so far has finished.
func (s *Store) Wait() {
	s.tasks.Wait()
}

// Close stops accepting background tasks, waits for running ones (or ctx),
// and closes all subscriptions.
func (s *Store) Close(ctx context.Context) error {
	s.tasksMu.Lock()
	if s.closed {
		s.tasksMu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.tasksMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.tasks.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	s.broker.close()
	return err
}

// --- Subscriptions ---

// Subscribe returns a channel receiving every committed mutation until ctx is
// done or the store is closed. Slow subscribers miss events rather than block writers.
func (s *Store) Subscribe(ctx context.Context) <-chan Mutation {
	return s.broker.subscribe(ctx)
}

func (s *Store) commit(t MutationType) {
	s.broker.publish(Mutation{Type: t, Timestamp: s.clock().Unix()})
}
