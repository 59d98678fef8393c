package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeeper/pkg/core"
)

func TestStorage_GetSetRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFileName)
	s := NewStorage(Config{Path: path})

	_, ok, err := s.Get(core.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok, "missing file reads as empty")

	require.NoError(t, s.Set(core.SessionKey, "abc"))
	v, ok, err := s.Get(core.SessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"abc"}`, string(data))

	require.NoError(t, s.Remove(core.SessionKey))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "removing the last key deletes the file")

	require.NoError(t, s.Remove(core.SessionKey), "removing a missing key is not an error")
}

func TestStorage_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, NewStorage(Config{Path: path}).Set(core.SessionKey, "persisted"))

	reopened := NewStorage(Config{Path: path})
	v, ok, err := reopened.Get(core.SessionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestStorage_KeepsOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"theme":"dark","token":"old"}`), 0600))

	s := NewStorage(Config{Path: path})
	require.NoError(t, s.Remove(core.SessionKey))

	v, ok, err := s.Get("theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewStorage(Config{Path: path})
	_, _, err := s.Get(core.SessionKey)
	assert.Error(t, err)
	assert.Error(t, s.Set(core.SessionKey, "abc"), "a corrupt file is never silently overwritten")
}

func TestStorage_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, nil, 0600))

	_, ok, err := NewStorage(Config{Path: path}).Get(core.SessionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStorage_WithCredential(t *testing.T) {
	s := NewStorage(Config{Path: filepath.Join(t.TempDir(), DefaultFileName)})
	cred := core.NewCredential(s)

	require.NoError(t, cred.Save("abc"))
	token, err := cred.Token()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

func TestStorage_Watch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFileName)
	s := NewStorage(Config{Path: path})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.Watch(ctx)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.State().(StorageState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0600))

	// Another process writes the session.
	external := NewStorage(Config{Path: path})
	require.NoError(t, external.Set(core.SessionKey, "from-elsewhere"))

	change := waitForChange(t, events)
	assert.Equal(t, ChangeWrite, change.Op)
	assert.Equal(t, path, change.Path)

	require.NoError(t, external.Remove(core.SessionKey))
	change = waitForChange(t, events)
	assert.Equal(t, ChangeRemove, change.Op)

	cancel()
	select {
	case _, open := <-events:
		for open {
			_, open = <-events
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events channel was not closed after cancel")
	}

	require.Eventually(t, func() bool {
		return !s.State().(StorageState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStorage_Watch_MissingDirectory(t *testing.T) {
	s := NewStorage(Config{Path: filepath.Join(t.TempDir(), "missing", DefaultFileName)})
	_, err := s.Watch(context.Background())
	assert.Error(t, err)
}

func waitForChange(t *testing.T, events <-chan Change) Change {
	t.Helper()
	select {
	case c := <-events:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for session change")
		return Change{}
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	d := newDebouncer(20 * time.Millisecond)
	fired := make(chan Change, 4)

	d.add(Change{Op: ChangeWrite}, func(c Change) { fired <- c })
	d.add(Change{Op: ChangeRemove}, func(c Change) { fired <- c })

	select {
	case c := <-fired:
		assert.Equal(t, ChangeRemove, c.Op, "latest change wins")
	case <-time.After(time.Second):
		t.Fatal("debouncer never fired")
	}

	d.stopAndWait()
	d.add(Change{Op: ChangeWrite}, func(c Change) { fired <- c })
	select {
	case <-fired:
		t.Fatal("stopped debouncer must not fire")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestWatchWorker_StartTwice(t *testing.T) {
	s := NewStorage(Config{Path: filepath.Join(t.TempDir(), DefaultFileName)})
	ctx := context.Background()

	w := newWatchWorker(s, make(chan Change, 1))
	require.NoError(t, w.Start(ctx))
	assert.Error(t, w.Start(ctx), "a running watcher cannot be started again")

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = w.Stop(stopCtx)

	require.Eventually(t, func() bool {
		return !s.State().(StorageState).WatcherActive
	}, 2*time.Second, 10*time.Millisecond)
}
