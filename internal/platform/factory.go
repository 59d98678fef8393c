package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notekeeper/pkg/adapters/fs"
	lcadapter "github.com/aretw0/notekeeper/pkg/adapters/lifecycle"
	"github.com/aretw0/notekeeper/pkg/api"
	"github.com/aretw0/notekeeper/pkg/core"
)

// App is the composition root: the store, the API client it drives and the
// persisted session they share.
type App struct {
	Store      *core.Store
	Client     *api.Client
	Credential *core.Credential

	// Session is the file-backed storage, nil when storage was injected.
	Session *fs.Storage

	logger    *slog.Logger
	navigator core.Navigator

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New wires an App. See the With* options for what can be configured.
func New(opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cfg, err := resolve(o)
	if err != nil {
		return nil, err
	}

	app := &App{
		logger:    logger,
		navigator: o.navigator,
	}

	storage := o.storage
	if storage == nil {
		path := cfg.sessionPath
		if o.devSafety && IsDevRun() {
			path = ResolveSessionPath(path, true)
			if path != cfg.sessionPath {
				logger.Warn("dev run detected: session redirected", "from", cfg.sessionPath, "to", path)
			}
		}
		app.Session = fs.NewStorage(fs.Config{
			Path:   path,
			Logger: logger.With("component", "session"),
		})
		storage = app.Session
	}
	app.Credential = core.NewCredential(storage)

	requestInterceptors := []api.RequestInterceptor{
		api.BearerToken(app.Credential),
		api.RequestID(),
	}
	if o.userAgent != "" {
		requestInterceptors = append(requestInterceptors, api.UserAgent(o.userAgent))
	}

	client, err := api.NewClient(api.Config{
		BaseURL:             cfg.baseURL,
		Timeout:             cfg.timeout,
		HTTPClient:          o.httpClient,
		Logger:              logger.With("component", "api"),
		RequestInterceptors: requestInterceptors,
	})
	if err != nil {
		return nil, err
	}
	app.Client = client

	store, err := core.NewStore(core.StoreConfig{
		API:          client,
		Credential:   app.Credential,
		Logger:       logger.With("component", "store"),
		StrictWrites: cfg.strictWrites,
		EventBuffer:  o.eventBuffer,
		Clock:        o.clock,
	})
	if err != nil {
		return nil, err
	}
	app.Store = store

	// Registered after the store exists so the handler can reach it.
	client.UseResponse(api.OnUnauthorized(app.handleUnauthorized))

	if o.sessionWatch && app.Session != nil {
		if err := app.watchSession(); err != nil {
			return nil, err
		}
	}

	logger.Debug("notekeeper initialized",
		"api_url", cfg.baseURL,
		"timeout", cfg.timeout,
		"strict_writes", cfg.strictWrites,
		"authenticated", store.IsAuthenticated(),
	)
	return app, nil
}

// handleUnauthorized runs on every 401: the session is dropped in memory and
// on disk, then the user is sent to the authentication route.
func (a *App) handleUnauthorized(ctx context.Context) {
	a.logger.Warn("request unauthorized, clearing session")

	if err := a.Store.Logout(); err != nil {
		a.logger.Error("failed to clear session", "error", err)
		// The in-memory token is kept on failure; make sure the next request
		// at least goes out without the rejected one.
		if err := a.Credential.Clear(); err != nil {
			a.logger.Error("failed to remove persisted token", "error", err)
		}
	}

	if a.navigator != nil {
		a.navigator.Navigate(core.AuthPath)
	}
}

// watchSession reloads the store's token when another process rewrites or
// removes the session file.
func (a *App) watchSession() error {
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := a.Session.Watch(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to watch session: %w", err)
	}
	a.cancel = cancel

	a.wg.Add(1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer a.wg.Done()
		// Drain until the watcher closes the channel.
		for change := range changes {
			a.logger.Debug("session changed", "change", change.String())
			if err := a.Store.ReloadToken(); err != nil {
				a.logger.Error("failed to reload session", "error", err)
			}
		}
		return nil
	}, lifecycle.WithErrorHandler(func(err error) {
		a.logger.Error("session watch panic", "error", err)
	}))
	return nil
}

// Source exposes store mutations as lifecycle events until ctx is done.
func (a *App) Source(ctx context.Context) lifecycle.Source {
	return lcadapter.NewSource(a.Store.Subscribe(ctx))
}

// Components lists the introspectable parts of the App, in wiring order.
func (a *App) Components() []any {
	components := []any{a.Store, a.Client}
	if a.Session != nil {
		components = append(components, a.Session)
	}
	return components
}

// Close stops the session watch and closes the store, waiting for background
// refreshes until ctx is done.
func (a *App) Close(ctx context.Context) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.Store.Close(ctx); err != nil && !errors.Is(err, core.ErrClosed) {
		return err
	}
	return nil
}
