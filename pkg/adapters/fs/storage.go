package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/notekeeper/pkg/core"
)

const (
	// DefaultFileName is the session file name inside the config directory.
	DefaultFileName = "session.json"

	filePerm = 0600
	dirPerm  = 0700
)

// Storage implements core.KeyValueStore as a JSON object in a single file.
// A missing file reads as empty; removing the last key deletes the file.
type Storage struct {
	path   string
	config Config

	mu            sync.Mutex
	watcherActive bool
	lastWrite     *time.Time
	lastChange    *time.Time
}

// Config holds the configuration for the file-backed session storage.
type Config struct {
	Path   string
	Logger *slog.Logger

	// ErrorHandler receives watcher errors that would otherwise only be logged.
	ErrorHandler func(error)
}

// NewStorage creates a Storage. No I/O happens until the first call.
func NewStorage(config Config) *Storage {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Storage{
		path:   filepath.Clean(config.Path),
		config: config,
	}
}

// DefaultPath returns the per-user session file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".notekeeper", DefaultFileName)
	}
	return filepath.Join(dir, "notekeeper", DefaultFileName)
}

// Path returns the session file path.
func (s *Storage) Path() string {
	return s.path
}

// Get implements core.KeyValueStore.
func (s *Storage) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Set implements core.KeyValueStore.
func (s *Storage) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	values[key] = value
	return s.write(values)
}

// Remove implements core.KeyValueStore.
func (s *Storage) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.write(values)
}

// read loads the file. Callers hold s.mu.
func (s *Storage) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	values := make(map[string]string)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session file %s: %w", s.path, err)
	}
	return values, nil
}

// write persists values atomically. Callers hold s.mu.
func (s *Storage) write(values map[string]string) error {
	now := time.Now()
	s.lastWrite = &now

	if len(values) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		s.config.Logger.Debug("session file removed", "path", s.path)
		return nil
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	if err := writeFileAtomic(s.path, data, filePerm); err != nil {
		return err
	}

	s.config.Logger.Debug("session file written", "path", s.path, "keys", len(values))
	return nil
}

var _ core.KeyValueStore = (*Storage)(nil)
