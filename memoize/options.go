package memoize

import (
	"time"

	"github.com/agentuity/go-memoize/logger"
	"github.com/cockroachdb/errors"
)

// PrefetchRatio is the fraction of the success retention window after which
// a cached success is marked for background refresh.
const PrefetchRatio = 0.7

// ErrInvalidOption is returned by New when an option carries an unusable value.
var ErrInvalidOption = errors.New("memoize: invalid option")

// config holds the resolved configuration for a Memoizer.
type config struct {
	resolve        Resolve
	maxAge         time.Duration
	maxErrorAge    time.Duration
	logger         logger.Logger
	onRefreshError func(key string, err error)
}

// Option configures a Memoizer.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger: logger.NewNoopLogger(),
	}
}

func applyOptions(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxAge < 0 {
		return cfg, errors.Wrapf(ErrInvalidOption, "negative max age %s", cfg.maxAge)
	}
	if cfg.maxErrorAge < 0 {
		return cfg, errors.Wrapf(ErrInvalidOption, "negative max error age %s", cfg.maxErrorAge)
	}
	if cfg.logger == nil {
		cfg.logger = logger.NewNoopLogger()
	}
	return cfg, nil
}

// WithResolve sets the strategy used to turn call arguments into a cache key.
// Defaults to Named(Simple).
func WithResolve(r Resolve) Option {
	return func(c *config) { c.resolve = r }
}

// WithMaxAge sets how long a successful outcome is kept. Zero (the default)
// keeps successes until Clear. A positive value also enables prefetch at
// PrefetchRatio of the window.
func WithMaxAge(d time.Duration) Option {
	return func(c *config) { c.maxAge = d }
}

// WithMaxErrorAge sets how long a failed outcome is replayed to callers.
// Zero (the default) evicts failures as soon as they settle.
func WithMaxErrorAge(d time.Duration) Option {
	return func(c *config) { c.maxErrorAge = d }
}

// WithLogger sets the logger used for trace-level lifecycle events.
func WithLogger(l logger.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRefreshErrorHandler registers fn to observe failures of background
// refreshes. Those failures never reach callers; this is the only place
// they are visible. fn runs on the refresh goroutine, outside any lock.
func WithRefreshErrorHandler(fn func(key string, err error)) Option {
	return func(c *config) { c.onRefreshError = fn }
}
