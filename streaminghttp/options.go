package streaminghttp

import (
	"log/slog"
	"net/http"
)

// Option configures a Transport.
type Option func(*Transport)

// WithHTTPClient overrides the HTTP client. The client should not set a
// global Timeout, since SSE responses stay open for the whole call.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(t *Transport) { t.headers.Set(key, value) }
}

// WithHeaders adds every entry of h to the headers sent with each request.
func WithHeaders(h map[string]string) Option {
	return func(t *Transport) {
		for k, v := range h {
			t.headers.Set(k, v)
		}
	}
}

// WithLogger sets the logger. If not provided, slog.Default is used.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}
