package platform

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/notekeeper/pkg/core"
)

// options holds the internal configuration for a notekeeper App.
type options struct {
	baseURL      string
	timeout      time.Duration
	logger       *slog.Logger
	storage      core.KeyValueStore
	sessionPath  string
	navigator    core.Navigator
	httpClient   *http.Client
	configFile   string
	strictWrites bool
	eventBuffer  int
	sessionWatch bool
	devSafety    bool
	userAgent    string
	clock        func() time.Time
}

// Option defines a functional option for configuring notekeeper.
type Option func(*options)

// defaultOptions returns the default configuration.
// Empty fields are filled from the config file, the environment, then built-in defaults.
func defaultOptions() *options {
	return &options{
		devSafety: true,
	}
}

// WithBaseURL sets the API origin (e.g. "http://localhost:5032").
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = url
	}
}

// WithTimeout sets the per-request timeout. Defaults to 10 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStorage injects the persisted session storage (e.g. memory.Storage).
// If provided, the file-backed default is skipped and WithSessionPath is ignored.
func WithStorage(storage core.KeyValueStore) Option {
	return func(o *options) {
		o.storage = storage
	}
}

// WithSessionPath sets the session file used by the default file storage.
func WithSessionPath(path string) Option {
	return func(o *options) {
		o.sessionPath = path
	}
}

// WithNavigator sets where the app goes after an authentication rejection.
func WithNavigator(nav core.Navigator) Option {
	return func(o *options) {
		o.navigator = nav
	}
}

// WithHTTPClient sets the underlying HTTP client. Its Timeout is overridden.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithConfigFile loads settings from a YAML file. Explicit options win over it.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithStrictWrites makes create/update/delete return API errors instead of
// logging and swallowing them.
func WithStrictWrites(strict bool) Option {
	return func(o *options) {
		o.strictWrites = strict
	}
}

// WithEventBuffer sets the size of each subscriber's mutation buffer.
// Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}

// WithSessionWatch follows external changes to the session file (another
// process logging in or out) and reloads the store's token accordingly.
// Only effective with the default file storage.
func WithSessionWatch(enabled bool) Option {
	return func(o *options) {
		o.sessionWatch = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default (true) the session file is redirected to a temporary directory so
// development runs never touch the real credentials.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithClock overrides the time source used for pagination cursors.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.clock = now
	}
}
