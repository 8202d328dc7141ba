// Package connect turns a description of where an MCP server lives into an
// initialized mcpclient.Session.
package connect

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os/exec"
	"slices"
	"strings"

	"github.com/ggoodman/mcp-explore/mcpclient"
	"github.com/ggoodman/mcp-explore/stdio"
	"github.com/ggoodman/mcp-explore/streaminghttp"
)

// Strategy builds the transport for one way of reaching a server.
type Strategy interface {
	// Transport returns an unstarted transport. Preconditions that can be
	// checked without contacting the server are checked here.
	Transport(ctx context.Context) (mcpclient.Transport, error)
	// Kind names the transport, e.g. "stdio".
	Kind() string
	String() string
}

// ConnectionError is returned when no session could be established.
type ConnectionError struct {
	Strategy Strategy
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect via %s (%s): %v", e.Strategy.Kind(), e.Strategy, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// Connect builds the strategy's transport and performs the initialize
// handshake over it. Every failure is a *ConnectionError and leaves no
// transport or child process behind.
func Connect(ctx context.Context, s Strategy, opts ...mcpclient.Option) (*mcpclient.Session, error) {
	t, err := s.Transport(ctx)
	if err != nil {
		return nil, &ConnectionError{Strategy: s, Err: err}
	}

	opts = append([]mcpclient.Option{mcpclient.WithTarget(s.Kind(), s.String())}, opts...)
	sess, err := mcpclient.Connect(ctx, t, opts...)
	if err != nil {
		return nil, &ConnectionError{Strategy: s, Err: err}
	}
	return sess, nil
}

// Stdio launches a local command and speaks to it over its standard
// streams.
type Stdio struct {
	Command string
	Args    []string
	// Env is layered over the current process environment. Nil inherits
	// it unchanged.
	Env    map[string]string
	Dir    string
	Logger *slog.Logger
}

var _ Strategy = (*Stdio)(nil)

// Transport resolves Command on PATH. A command that cannot be resolved
// fails here, before anything is spawned.
func (s *Stdio) Transport(ctx context.Context) (mcpclient.Transport, error) {
	if s.Command == "" {
		return nil, fmt.Errorf("no command given")
	}
	path, err := exec.LookPath(s.Command)
	if err != nil {
		return nil, fmt.Errorf("command %q not found on PATH: %w", s.Command, err)
	}

	opts := []stdio.Option{stdio.WithLogger(s.Logger), stdio.WithDir(s.Dir)}
	if len(s.Env) > 0 {
		env := make([]string, 0, len(s.Env))
		for _, k := range slices.Sorted(maps.Keys(s.Env)) {
			env = append(env, k+"="+s.Env[k])
		}
		opts = append(opts, stdio.WithEnv(env))
	}
	return stdio.NewCommand(path, s.Args, opts...), nil
}

func (s *Stdio) Kind() string { return "stdio" }

func (s *Stdio) String() string {
	return strings.Join(append([]string{s.Command}, s.Args...), " ")
}

// HTTP reaches a remote server over the streamable HTTP transport.
type HTTP struct {
	URL        string
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

var _ Strategy = (*HTTP)(nil)

// Transport validates URL. Reachability is only known once the handshake
// is attempted.
func (h *HTTP) Transport(ctx context.Context) (mcpclient.Transport, error) {
	opts := []streaminghttp.Option{
		streaminghttp.WithHeaders(h.Headers),
		streaminghttp.WithLogger(h.Logger),
	}
	if h.HTTPClient != nil {
		opts = append(opts, streaminghttp.WithHTTPClient(h.HTTPClient))
	}
	return streaminghttp.New(h.URL, opts...)
}

func (h *HTTP) Kind() string { return "http" }

func (h *HTTP) String() string { return h.URL }
