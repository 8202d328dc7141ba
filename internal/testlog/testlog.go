// Package testlog routes slog output to testing.TB.Log so that log lines
// show up next to the test that produced them.
package testlog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ggoodman/mcp-explore/internal/logctx"
)

// Bridge is an implementation of slog.Handler that works with the
// testing package. Records emitted after the test has finished are
// dropped, since testing panics on a late Log call.
type Bridge struct {
	slog.Handler
	t    testing.TB
	buf  *bytes.Buffer
	mu   *sync.Mutex
	done *bool
}

// Handle implements slog.Handler.
func (b *Bridge) Handle(ctx context.Context, rec slog.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if *b.done {
		return nil
	}

	if err := b.Handler.Handle(ctx, rec); err != nil {
		return err
	}

	output, err := io.ReadAll(b.buf)
	if err != nil {
		return err
	}

	// The output comes back with a newline, which we need to
	// trim before feeding to t.Log.
	output = bytes.TrimSuffix(output, []byte("\n"))

	b.t.Helper()
	b.t.Log(string(output))

	return nil
}

// WithAttrs implements slog.Handler.
func (b *Bridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Bridge{t: b.t, buf: b.buf, mu: b.mu, done: b.done, Handler: b.Handler.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (b *Bridge) WithGroup(name string) slog.Handler {
	return &Bridge{t: b.t, buf: b.buf, mu: b.mu, done: b.done, Handler: b.Handler.WithGroup(name)}
}

// Handler returns a debug-level Bridge for t, wrapped so that session and
// RPC context attributes are included.
func Handler(t testing.TB) slog.Handler {
	b := &Bridge{
		t:    t,
		buf:  &bytes.Buffer{},
		mu:   &sync.Mutex{},
		done: new(bool),
	}
	b.Handler = slog.NewTextHandler(b.buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	t.Cleanup(func() {
		b.mu.Lock()
		*b.done = true
		b.mu.Unlock()
	})
	return logctx.Wrap(b)
}

// Logger returns a logger writing through Handler(t).
func Logger(t testing.TB) *slog.Logger {
	return slog.New(Handler(t))
}
