package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeeper/pkg/adapters/memory"
	"github.com/aretw0/notekeeper/pkg/api"
	"github.com/aretw0/notekeeper/pkg/core"
)

// backend is a fake notes API recording what it receives.
type backend struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []map[string]any
	status   int
	notes    string
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()

	b := &backend{
		notes: `[{"id":1,"title":"first","createdAt":"2024-01-01T10:00:00.000Z","pinned":true},{"id":"two","title":"second"}]`,
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.record(req)
			if code := b.forcedStatus(); code != 0 {
				http.Error(w, `{"message":"forced"}`, code)
				return
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/notes", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(b.notes))
	})
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	})
	r.Post("/notes", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":99,"title":"created"}`))
	})
	r.Put("/notes/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"id":"` + chi.URLParam(req, "id") + `","title":"updated"}`))
	})
	r.Delete("/notes/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) record(req *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var body map[string]any
	if req.Body != nil {
		_ = json.NewDecoder(req.Body).Decode(&body)
	}
	b.requests = append(b.requests, req.Clone(context.Background()))
	b.bodies = append(b.bodies, body)
}

func (b *backend) forcedStatus() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *backend) setStatus(code int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = code
}

func (b *backend) last() (*http.Request, map[string]any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.requests)
	return b.requests[n-1], b.bodies[n-1]
}

func newClient(t *testing.T, srv *httptest.Server, cfg api.Config) *api.Client {
	t.Helper()
	cfg.BaseURL = srv.URL
	c, err := api.NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"Default", "", false},
		{"HTTPS", "https://notes.example.com/api", false},
		{"Bad Scheme", "ftp://notes.example.com", true},
		{"Missing Host", "http://", true},
		{"Unparseable", "http://[::1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := api.NewClient(api.Config{BaseURL: tt.baseURL})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestClient_DefaultTimeout(t *testing.T) {
	c, err := api.NewClient(api.Config{})
	require.NoError(t, err)

	state := c.State().(api.ClientState)
	assert.Equal(t, 10*time.Second, state.Timeout)
	assert.Equal(t, api.DefaultBaseURL, state.BaseURL)
	assert.Equal(t, "api-client", c.ComponentType())
}

func TestClient_ListNotes(t *testing.T) {
	b, srv := newBackend(t)
	c := newClient(t, srv, api.Config{})

	page, err := c.ListNotes(context.Background(), core.ListParams{
		LastNoteCreatedAt: "2024-02-01T00:00:00.000Z",
		Page:              2,
		PageSize:          core.PageSize,
	})
	require.NoError(t, err)

	req, _ := b.last()
	assert.Equal(t, "/notes", req.URL.Path)
	assert.Equal(t, "2024-02-01T00:00:00.000Z", req.URL.Query().Get("lastNoteCreatedAt"))
	assert.Equal(t, "2", req.URL.Query().Get("page"))
	assert.Equal(t, "10", req.URL.Query().Get("pageSize"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	want := core.NotesPage{
		{
			ID:        "1",
			Title:     "first",
			CreatedAt: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
			Metadata:  core.Metadata{"pinned": true},
		},
		{ID: "two", Title: "second"},
	}
	if diff := cmp.Diff(want, page, cmpopts.IgnoreUnexported(core.Note{})); diff != "" {
		t.Errorf("ListNotes mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Login(t *testing.T) {
	b, srv := newBackend(t)
	c := newClient(t, srv, api.Config{})

	res, err := c.Login(context.Background(), core.Credentials{Username: "user", Password: "pass"})
	require.NoError(t, err)
	assert.Equal(t, "abc", res.Token)

	req, body := b.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/auth/login", req.URL.Path)
	assert.Equal(t, map[string]any{"username": "user", "password": "pass"}, body)
}

func TestClient_WriteOperations(t *testing.T) {
	b, srv := newBackend(t)
	c := newClient(t, srv, api.Config{})
	ctx := context.Background()

	created, err := c.CreateNote(ctx, core.Note{Title: "hello", Content: "world"})
	require.NoError(t, err)
	assert.Equal(t, core.NoteID("99"), created.ID)
	req, body := b.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "hello", body["title"])
	assert.NotContains(t, body, "id")

	updated, err := c.UpdateNote(ctx, core.Note{ID: "7", Title: "changed"})
	require.NoError(t, err)
	assert.Equal(t, core.NoteID("7"), updated.ID)
	req, _ = b.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/notes/7", req.URL.Path)

	require.NoError(t, c.DeleteNote(ctx, "42"))
	req, _ = b.last()
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/notes/42", req.URL.Path)

	assert.ErrorIs(t, c.DeleteNote(ctx, ""), core.ErrEmptyID)
	_, err = c.UpdateNote(ctx, core.Note{})
	assert.ErrorIs(t, err, core.ErrEmptyID)
}

func TestClient_BearerToken(t *testing.T) {
	b, srv := newBackend(t)
	storage := memory.NewStorage()
	cred := core.NewCredential(storage)
	c := newClient(t, srv, api.Config{
		RequestInterceptors: []api.RequestInterceptor{api.BearerToken(cred)},
	})
	ctx := context.Background()

	t.Run("Header Set When Token Present", func(t *testing.T) {
		require.NoError(t, cred.Save("abc"))
		_, err := c.ListNotes(ctx, core.ListParams{})
		require.NoError(t, err)

		req, _ := b.last()
		assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	})

	t.Run("Header Omitted Without Token", func(t *testing.T) {
		require.NoError(t, cred.Clear())
		_, err := c.ListNotes(ctx, core.ListParams{})
		require.NoError(t, err)

		req, _ := b.last()
		_, present := req.Header["Authorization"]
		assert.False(t, present, "Authorization must not be sent at all")
	})
}

type brokenSource struct{ err error }

func (b brokenSource) Token() (string, error) { return "", b.err }

func TestClient_RequestInterceptorErrorPropagates(t *testing.T) {
	b, srv := newBackend(t)
	sentinel := errors.New("session unreadable")
	c := newClient(t, srv, api.Config{
		RequestInterceptors: []api.RequestInterceptor{api.BearerToken(brokenSource{err: sentinel})},
	})

	_, err := c.ListNotes(context.Background(), core.ListParams{})
	assert.Equal(t, sentinel, err, "interceptor errors reach the caller unchanged")

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Empty(t, b.requests, "aborted requests are never sent")
}

func TestClient_RequestID(t *testing.T) {
	b, srv := newBackend(t)
	c := newClient(t, srv, api.Config{})
	c.UseRequest(api.RequestID(), api.UserAgent("notekeeper-test"))

	_, err := c.ListNotes(context.Background(), core.ListParams{})
	require.NoError(t, err)

	req, _ := b.last()
	assert.Len(t, req.Header.Get("X-Request-ID"), 36)
	assert.Equal(t, "notekeeper-test", req.Header.Get("User-Agent"))
}

func TestClient_Unauthorized(t *testing.T) {
	b, srv := newBackend(t)
	b.setStatus(http.StatusUnauthorized)

	var calls int
	c := newClient(t, srv, api.Config{})
	c.UseResponse(api.OnUnauthorized(func(ctx context.Context) {
		calls++
	}))

	ctx := context.Background()
	_, err := c.ListNotes(ctx, core.ListParams{})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))

	err = c.DeleteNote(ctx, "1")
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	_, err = c.Login(ctx, core.Credentials{})
	assert.ErrorIs(t, err, api.ErrUnauthorized)

	assert.Equal(t, 3, calls, "hook runs for every operation")
}

func TestClient_ServerError(t *testing.T) {
	b, srv := newBackend(t)
	b.setStatus(http.StatusInternalServerError)

	var hooked bool
	c := newClient(t, srv, api.Config{
		ResponseInterceptors: []api.ResponseInterceptor{
			api.OnUnauthorized(func(ctx context.Context) { hooked = true }),
		},
	})

	_, err := c.ListNotes(context.Background(), core.ListParams{})
	require.Error(t, err)

	var herr *api.HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)
	assert.Contains(t, herr.Body, "forced")
	assert.NotErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, hooked)
}

func TestClient_ResponseInterceptorSeesSuccess(t *testing.T) {
	_, srv := newBackend(t)

	var statuses []int
	c := newClient(t, srv, api.Config{})
	c.UseResponse(func(req *http.Request, resp *http.Response, err error) error {
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
		return nil
	})

	require.NoError(t, c.DeleteNote(context.Background(), "1"))
	assert.Equal(t, []int{http.StatusNoContent}, statuses)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	var transportErr error
	c := newClient(t, srv, api.Config{Timeout: 50 * time.Millisecond})
	c.UseResponse(func(req *http.Request, resp *http.Response, err error) error {
		transportErr = err
		assert.Nil(t, resp)
		return err
	})

	start := time.Now()
	_, err := c.ListNotes(context.Background(), core.ListParams{})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, err, transportErr)
	assert.Zero(t, api.StatusCode(err))
}

func TestClient_BaseURLPath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := api.NewClient(api.Config{BaseURL: srv.URL + "/api"})
	require.NoError(t, err)

	page, err := c.ListNotes(context.Background(), core.ListParams{})
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, "/api/notes", gotPath)
}
