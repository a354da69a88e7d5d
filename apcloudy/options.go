package apcloudy

import (
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	baseURL      string
	timeout      time.Duration
	maxRetries   int
	retryWait    time.Duration
	retryMaxWait time.Duration
	rateLimit    int
	userAgent    string
	logger       zerolog.Logger
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:      DefaultBaseURL,
		timeout:      DefaultTimeout,
		maxRetries:   DefaultMaxRetries,
		retryWait:    500 * time.Millisecond,
		retryMaxWait: 10 * time.Second,
		rateLimit:    DefaultRateLimit,
		userAgent:    "apcloudy-go/" + Version,
		logger:       zerolog.Nop(),
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = baseURL
		}
	}
}

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithMaxRetries sets the maximum number of retry attempts for transient
// failures. Zero disables retries.
func WithMaxRetries(retries int) Option {
	return func(o *clientOptions) {
		if retries >= 0 {
			o.maxRetries = retries
		}
	}
}

// WithRetryWait sets the initial delay between retry attempts. The delay
// grows exponentially up to the configured maximum.
func WithRetryWait(wait, max time.Duration) Option {
	return func(o *clientOptions) {
		if wait > 0 {
			o.retryWait = wait
		}
		if max > 0 {
			o.retryMaxWait = max
		}
	}
}

// WithRateLimit sets the client-side request budget in requests per minute.
// Zero disables client-side limiting.
func WithRateLimit(perMinute int) Option {
	return func(o *clientOptions) {
		if perMinute >= 0 {
			o.rateLimit = perMinute
		}
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		if userAgent != "" {
			o.userAgent = userAgent
		}
	}
}

// WithLogger attaches a logger for request-level debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}
