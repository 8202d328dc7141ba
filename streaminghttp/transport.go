package streaminghttp

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elnormous/contenttype"

	"github.com/ggoodman/mcp-explore/auth"
	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/mcpclient"
)

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")
)

const (
	// Use canonical header names for clarity; Go matches headers case-insensitively.
	mcpSessionIDHeader       = "Mcp-Session-Id"
	mcpProtocolVersionHeader = "Mcp-Protocol-Version"

	acceptHeaderValue = "application/json, text/event-stream"
	maxBodyBytes      = 10 << 20
	maxErrorBodyBytes = 4 << 10
	maxSSELineBytes   = 10 << 20
	deleteTimeout     = 5 * time.Second
)

var (
	// ErrClosed is returned by Send after Close.
	ErrClosed = errors.New("streaminghttp transport closed")
	// ErrSessionExpired is returned when the server no longer recognizes the
	// session id it assigned.
	ErrSessionExpired = errors.New("mcp session expired")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned HTTP %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("%s returned HTTP %d: %s", e.Method, e.StatusCode, e.Body)
}

var (
	_ mcpclient.Transport             = (*Transport)(nil)
	_ mcpclient.SessionIDer           = (*Transport)(nil)
	_ mcpclient.ProtocolVersionSetter = (*Transport)(nil)
)

// Transport is a streamable HTTP client transport bound to one endpoint.
type Transport struct {
	endpoint string
	headers  http.Header
	client   *http.Client
	log      *slog.Logger

	h mcpclient.Handler

	mu              sync.RWMutex
	sessionID       string
	protocolVersion string

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New validates endpoint and returns a Transport for it.
func New(endpoint string, opts ...Option) (*Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	t := &Transport{
		endpoint: u.String(),
		headers:  http.Header{},
		client:   &http.Client{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// String returns the endpoint URL.
func (t *Transport) String() string { return t.endpoint }

// Start records h. No request is made until the first Send.
func (t *Transport) Start(ctx context.Context, h mcpclient.Handler) error {
	t.h = h
	return nil
}

// SessionID returns the session id assigned by the server, if any.
func (t *Transport) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// SetProtocolVersion records the negotiated version so later requests
// carry it.
func (t *Transport) SetProtocolVersion(v string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.protocolVersion = v
}

// Send POSTs msg and delivers whatever the server answers with to the
// handler before returning.
func (t *Transport) Send(ctx context.Context, msg jsonrpc.Message) error {
	if t.closed.Load() {
		return ErrClosed
	}

	req, err := t.newRequest(ctx, http.MethodPost, bytes.NewReader(msg))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", jsonMediaType.String())
	req.Header.Set("Accept", acceptHeaderValue)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", t.endpoint, err)
	}
	defer drainAndClose(resp.Body)

	t.log.DebugContext(ctx, "http.post", slog.Int("status", resp.StatusCode), slog.Duration("dur", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return auth.NewChallenge(resp)
	case resp.StatusCode == http.StatusNotFound && t.SessionID() != "":
		return ErrSessionExpired
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent:
		t.captureSessionID(resp)
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &StatusError{Method: http.MethodPost, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	t.captureSessionID(resp)

	ct := contenttype.NewMediaType(resp.Header.Get("Content-Type"))
	switch {
	case ct.Matches(eventStreamMediaType):
		return t.readEventStream(ctx, resp.Body)
	case ct.Matches(jsonMediaType):
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fmt.Errorf("read response body: %w", err)
		}
		if body = bytes.TrimSpace(body); len(body) > 0 {
			t.h.HandleMessage(ctx, body)
		}
		return nil
	default:
		return fmt.Errorf("POST %s: unsupported response content type %q", t.endpoint, resp.Header.Get("Content-Type"))
	}
}

// readEventStream delivers the data of every event until the server ends
// the stream. Multi-line data fields are joined with newlines.
func (t *Transport) readEventStream(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxSSELineBytes)

	var data []byte
	dispatch := func() {
		if len(data) > 0 {
			t.h.HandleMessage(ctx, data)
		}
		data = nil
	}

	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			dispatch()
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		default:
			field, value, _ := strings.Cut(line, ":")
			value = strings.TrimPrefix(value, " ")
			if field == "data" {
				if data != nil {
					data = append(data, '\n')
				}
				data = append(data, value...)
			}
		}
	}
	dispatch()

	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return nil
}

// Close ends the server-side session with a DELETE when one was assigned.
// Servers that do not support explicit termination answer 405, which is
// not an error.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		if t.SessionID() == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()

		req, err := t.newRequest(ctx, http.MethodDelete, nil)
		if err != nil {
			t.closeErr = err
			return
		}
		resp, err := t.client.Do(req)
		if err != nil {
			t.closeErr = fmt.Errorf("DELETE %s: %w", t.endpoint, err)
			return
		}
		defer drainAndClose(resp.Body)

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode <= 299,
			resp.StatusCode == http.StatusNotFound,
			resp.StatusCode == http.StatusMethodNotAllowed:
			t.log.Debug("http.delete", slog.Int("status", resp.StatusCode))
		default:
			t.closeErr = &StatusError{Method: http.MethodDelete, StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
		}
	})
	return t.closeErr
}

func (t *Transport) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create HTTP request: %w", err)
	}
	for k, vs := range t.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	t.mu.RLock()
	if t.sessionID != "" {
		req.Header.Set(mcpSessionIDHeader, t.sessionID)
	}
	if t.protocolVersion != "" {
		req.Header.Set(mcpProtocolVersionHeader, t.protocolVersion)
	}
	t.mu.RUnlock()
	return req, nil
}

func (t *Transport) captureSessionID(resp *http.Response) {
	sid := resp.Header.Get(mcpSessionIDHeader)
	if sid == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessionID != sid {
		t.sessionID = sid
		t.log.Debug("http.session", slog.String("id", sid))
	}
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	return strings.TrimSpace(string(b))
}

func drainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, maxBodyBytes))
	_ = rc.Close()
}
