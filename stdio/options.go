package stdio

import (
	"log/slog"
	"time"
)

// Option customizes a Transport.
type Option func(*Transport)

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.log = l
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited process environment.
func WithEnv(env []string) Option {
	return func(t *Transport) {
		t.env = append(t.env, env...)
	}
}

// WithDir sets the child's working directory.
func WithDir(dir string) Option {
	return func(t *Transport) {
		t.dir = dir
	}
}

// WithTerminateTimeout sets how long Close waits for the child to exit
// after its stdin is closed before killing it.
func WithTerminateTimeout(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.terminateTimeout = d
		}
	}
}
