package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/fsnotify/fsnotify"
)

// ChangeOp describes what happened to the session file.
type ChangeOp string

const (
	ChangeWrite  ChangeOp = "WRITE"
	ChangeRemove ChangeOp = "REMOVE"
)

// Change is emitted when the session file is modified, possibly by another process.
type Change struct {
	Op        ChangeOp
	Path      string
	Timestamp int64 // Unix timestamp
}

func (c Change) String() string {
	return fmt.Sprintf("%s %s", c.Op, c.Path)
}

// Watch reports changes to the session file until ctx is done.
// The parent directory is watched so the file may be created or removed freely.
func (s *Storage) Watch(ctx context.Context) (<-chan Change, error) {
	events := make(chan Change, 16)
	w := newWatchWorker(s, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	storage   *Storage
	events    chan Change
	watcher   *fsnotify.Watcher
	debouncer *debouncer
	cancel    context.CancelFunc
}

func newWatchWorker(storage *Storage, events chan Change) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("session-watcher"),
		storage:    storage,
		events:     events,
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.storage.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.storage.path), err)
	}

	w.watcher = watcher
	w.debouncer = newDebouncer(50 * time.Millisecond)
	w.storage.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"path":              w.storage.path,
		}
	})
}

// mapEvent translates an fsnotify event on the session file. ok is false for
// events on other files and for attribute-only changes.
func (w *watchWorker) mapEvent(event fsnotify.Event) (ChangeOp, bool) {
	if filepath.Clean(event.Name) != w.storage.path {
		return "", false
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		return ChangeWrite, true
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return ChangeRemove, true
	}
	return "", false
}

func (w *watchWorker) sendEvent(ctx context.Context, c Change) {
	w.debouncer.add(c, func(c Change) {
		w.storage.recordChange()
		select {
		case w.events <- c:
		case <-ctx.Done():
		}
	})
}

func (w *watchWorker) handleWatcherError(err error) {
	w.storage.config.Logger.Error("fsnotify error", "error", err)
	if w.storage.config.ErrorHandler != nil {
		w.storage.config.ErrorHandler(err)
	}
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			logger := w.storage.config.Logger
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.storage.setWatcherActive(false)
	defer w.watcher.Close()

	err = w.loop(ctx)

	// Pending timers must finish before the events channel is closed.
	w.debouncer.stopAndWait()
	return err
}

func (w *watchWorker) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}

			op, ok := w.mapEvent(event)
			if !ok {
				continue
			}
			w.storage.config.Logger.Debug("session file event", "op", op, "name", event.Name)
			w.sendEvent(ctx, Change{Op: op, Path: w.storage.path, Timestamp: time.Now().Unix()})

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}

// debouncer coalesces bursts of changes (an atomic write produces several
// fsnotify events) into one delivery carrying the latest change.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending Change
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

func (d *debouncer) add(c Change, fire func(Change)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending = c
	if d.timer != nil {
		return
	}

	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		latest := d.pending
		d.timer = nil
		stopped := d.stopped
		d.mu.Unlock()

		if !stopped {
			fire(latest)
		}
	})
}

// stopAndWait drops pending deliveries and waits for any in-flight one.
func (d *debouncer) stopAndWait() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.timer = nil
		d.wg.Done()
	}
	d.mu.Unlock()

	d.wg.Wait()
}
