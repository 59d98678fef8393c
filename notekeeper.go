package notekeeper

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/notekeeper/internal/platform"
	"github.com/aretw0/notekeeper/pkg/core"
)

// --- Types ---

// App is the wired client: store, API client and session.
type App = platform.App

// FileConfig is the YAML configuration file format.
type FileConfig = platform.FileConfig

// --- Configuration ---

// Option defines a functional option for configuring notekeeper.
type Option = platform.Option

// WithBaseURL sets the API origin.
func WithBaseURL(url string) Option {
	return platform.WithBaseURL(url)
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return platform.WithTimeout(d)
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithStorage allows injecting a custom session storage.
func WithStorage(storage core.KeyValueStore) Option {
	return platform.WithStorage(storage)
}

// WithSessionPath sets the session file for the default storage.
func WithSessionPath(path string) Option {
	return platform.WithSessionPath(path)
}

// WithNavigator sets the handler for redirects after an authentication rejection.
func WithNavigator(nav core.Navigator) Option {
	return platform.WithNavigator(nav)
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return platform.WithHTTPClient(c)
}

// WithConfigFile loads settings from a YAML file.
func WithConfigFile(path string) Option {
	return platform.WithConfigFile(path)
}

// WithStrictWrites makes write actions return API errors.
func WithStrictWrites(strict bool) Option {
	return platform.WithStrictWrites(strict)
}

// WithEventBuffer sets the per-subscriber mutation buffer.
func WithEventBuffer(size int) Option {
	return platform.WithEventBuffer(size)
}

// WithSessionWatch follows external changes to the session file.
func WithSessionWatch(enabled bool) Option {
	return platform.WithSessionWatch(enabled)
}

// WithDevSafety controls the dev-run sandbox for the session file.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return platform.WithUserAgent(ua)
}

// WithClock overrides the time source for pagination cursors.
func WithClock(now func() time.Time) Option {
	return platform.WithClock(now)
}

// ErrConfigNotFound is returned by FindConfig when no config file exists.
var ErrConfigNotFound = platform.ErrConfigNotFound

// --- Factory ---

// New creates a notekeeper App.
func New(opts ...Option) (*App, error) {
	return platform.New(opts...)
}

// FindConfig looks upwards from dir for a .notekeeper.yaml file.
func FindConfig(dir string) (string, error) {
	return platform.FindConfig(dir)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}
