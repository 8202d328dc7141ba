package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/internal/logctx"
	"github.com/ggoodman/mcp-explore/internal/outbound"
	"github.com/ggoodman/mcp-explore/mcp"
)

// maxPages bounds cursor pagination so a misbehaving server cannot keep a
// list operation running forever.
const maxPages = 100

// Session is an initialized client session with one MCP server.
type Session struct {
	t   Transport
	d   *outbound.Dispatcher
	log *slog.Logger

	clientInfo     mcp.ImplementationInfo
	requestTimeout time.Duration
	transportName  string
	target         string

	sd     atomic.Pointer[logctx.SessionData]
	result mcp.InitializeResult

	closed    atomic.Bool
	closeOnce sync.Once
}

// Connect starts t and performs the initialize handshake. On any failure
// the transport is closed before the error is returned, so a subprocess
// spawned by Start never outlives a failed Connect.
func Connect(ctx context.Context, t Transport, opts ...Option) (*Session, error) {
	s := &Session{
		t:          t,
		log:        slog.Default(),
		clientInfo: mcp.ImplementationInfo{Name: "mcp-explore", Version: "dev"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sd.Store(&logctx.SessionData{Transport: s.transportName, Target: s.target})
	s.d = outbound.New(dispatchTransport{s: s})
	s.d.OnProgress(func(p mcp.ProgressNotificationParams) {
		s.log.Debug("server.progress",
			slog.Any("token", p.ProgressToken),
			slog.Float64("progress", p.Progress),
			slog.Float64("total", p.Total),
			slog.String("message", p.Message),
		)
	})

	if err := t.Start(ctx, s); err != nil {
		_ = t.Close()
		return nil, fmt.Errorf("start transport: %w", err)
	}

	if err := s.initialize(ctx); err != nil {
		s.d.Close(err)
		_ = t.Close()
		return nil, err
	}

	return s, nil
}

func (s *Session) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{
		ProtocolVersion: mcp.LatestProtocolVersion,
		ClientInfo:      s.clientInfo,
		Capabilities: mcp.ClientCapabilities{
			Roots: &mcp.ListChanged{},
		},
	}

	var res mcp.InitializeResult
	if err := s.call(ctx, mcp.InitializeMethod, req, &res); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if !mcp.IsSupportedProtocolVersion(res.ProtocolVersion) {
		return fmt.Errorf("initialize: %w", &UnsupportedVersionError{Version: res.ProtocolVersion})
	}
	s.result = res

	if pv, ok := s.t.(ProtocolVersionSetter); ok {
		pv.SetProtocolVersion(res.ProtocolVersion)
	}
	sd := &logctx.SessionData{
		Transport:       s.transportName,
		Target:          s.target,
		ProtocolVersion: res.ProtocolVersion,
	}
	if sid, ok := s.t.(SessionIDer); ok {
		sd.SessionID = sid.SessionID()
	}
	s.sd.Store(sd)

	if err := s.notify(ctx, mcp.InitializedNotificationMethod, nil); err != nil {
		return fmt.Errorf("send initialized notification: %w", err)
	}

	s.log.InfoContext(s.ctx(ctx), "session.initialized",
		slog.String("server_name", res.ServerInfo.Name),
		slog.String("server_version", res.ServerInfo.Version),
	)
	return nil
}

// InitializeResult returns the server's answer to the handshake.
func (s *Session) InitializeResult() mcp.InitializeResult {
	return s.result
}

// ServerInfo returns the server's implementation info.
func (s *Session) ServerInfo() mcp.ImplementationInfo {
	return s.result.ServerInfo
}

// ListTools returns every tool the server advertises, following cursors.
func (s *Session) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	return listAll(ctx, s, mcp.ToolsListMethod, func(r *mcp.ListToolsResult) ([]mcp.Tool, string) {
		return r.Tools, r.NextCursor
	})
}

// ListResources returns every resource the server advertises.
func (s *Session) ListResources(ctx context.Context) ([]mcp.Resource, error) {
	return listAll(ctx, s, mcp.ResourcesListMethod, func(r *mcp.ListResourcesResult) ([]mcp.Resource, string) {
		return r.Resources, r.NextCursor
	})
}

// ListPrompts returns every prompt the server advertises.
func (s *Session) ListPrompts(ctx context.Context) ([]mcp.Prompt, error) {
	return listAll(ctx, s, mcp.PromptsListMethod, func(r *mcp.ListPromptsResult) ([]mcp.Prompt, string) {
		return r.Prompts, r.NextCursor
	})
}

// ListResourceTemplates returns every resource template the server advertises.
func (s *Session) ListResourceTemplates(ctx context.Context) ([]mcp.ResourceTemplate, error) {
	return listAll(ctx, s, mcp.ResourcesTemplatesListMethod, func(r *mcp.ListResourceTemplatesResult) ([]mcp.ResourceTemplate, string) {
		return r.ResourceTemplates, r.NextCursor
	})
}

// CallTool invokes the named tool. A result flagged isError is returned
// as a result, not an error; only transport and protocol failures are
// errors.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	var res mcp.CallToolResult
	if err := s.call(ctx, mcp.ToolsCallMethod, mcp.CallToolRequest{Name: name, Arguments: args}, &res); err != nil {
		return nil, fmt.Errorf("tools/call %s: %w", name, err)
	}
	return &res, nil
}

// Close releases the transport. Only the first call does any work; later
// calls return nil.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.d.Close(ErrSessionClosed)
		err = s.t.Close()
		s.log.Debug("session.closed", slog.Any("err", err))
	})
	return err
}

func listAll[R any, T any](ctx context.Context, s *Session, method mcp.Method, page func(*R) ([]T, string)) ([]T, error) {
	var (
		out    []T
		cursor string
	)
	for range maxPages {
		var res R
		if err := s.call(ctx, method, mcp.PaginatedRequest{Cursor: cursor}, &res); err != nil {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		items, next := page(&res)
		out = append(out, items...)
		if next == "" {
			return out, nil
		}
		cursor = next
	}
	return nil, fmt.Errorf("%s: %w (limit %d)", method, ErrTooManyPages, maxPages)
}

func (s *Session) call(ctx context.Context, method mcp.Method, params any, out any) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	ctx = s.ctx(ctx)

	start := time.Now()
	resp, err := s.d.Call(ctx, string(method), params)
	if err != nil {
		s.log.DebugContext(ctx, "rpc.call.fail", slog.String("method", string(method)), slog.String("err", err.Error()))
		return err
	}
	if err := resp.Decode(out); err != nil {
		s.log.DebugContext(ctx, "rpc.call.error", slog.String("method", string(method)), slog.String("err", err.Error()))
		return err
	}
	s.log.DebugContext(ctx, "rpc.call.ok", slog.String("method", string(method)), slog.Duration("dur", time.Since(start)))
	return nil
}

func (s *Session) notify(ctx context.Context, method mcp.Method, params any) error {
	req, err := jsonrpc.NewNotification(string(method), params)
	if err != nil {
		return err
	}
	return s.send(ctx, req)
}

func (s *Session) send(ctx context.Context, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return s.t.Send(ctx, b)
}

func (s *Session) ctx(ctx context.Context) context.Context {
	return logctx.WithSessionData(ctx, s.sd.Load())
}

// HandleMessage implements Handler.
func (s *Session) HandleMessage(ctx context.Context, raw jsonrpc.Message) {
	ctx = s.ctx(ctx)

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.DebugContext(ctx, "rpc.inbound.invalid", slog.String("err", err.Error()))
		return
	}

	switch msg.Type() {
	case "response":
		if !s.d.OnResponse(msg.AsResponse()) {
			s.log.DebugContext(ctx, "rpc.inbound.unmatched", slog.String("id", msg.ID.String()))
		}
	case "notification":
		s.handleNotification(ctx, msg)
	case "request":
		// Answer off the read path so a slow write never stalls delivery of
		// the responses this session is waiting on.
		go s.answer(context.WithoutCancel(ctx), msg.AsRequest())
	}
}

// HandleClose implements Handler.
func (s *Session) HandleClose(err error) {
	if err == nil {
		err = ErrTransportClosed
	} else {
		err = fmt.Errorf("%w: %w", ErrTransportClosed, err)
	}
	s.log.Debug("transport.closed", slog.String("err", err.Error()))
	s.d.Close(err)
}

func (s *Session) handleNotification(ctx context.Context, msg jsonrpc.AnyMessage) {
	switch mcp.Method(msg.Method) {
	case mcp.CancelledNotificationMethod, mcp.ProgressNotificationMethod:
		s.d.OnNotification(msg)
	case mcp.LoggingMessageNotificationMethod:
		var n mcp.LoggingMessageNotification
		if err := json.Unmarshal(msg.Params, &n); err != nil {
			s.log.DebugContext(ctx, "rpc.inbound.invalid", slog.String("method", msg.Method), slog.String("err", err.Error()))
			return
		}
		s.log.Log(ctx, serverLogLevel(n.Level), "server.log", slog.String("logger", n.Logger), slog.Any("data", n.Data))
	default:
		s.log.DebugContext(ctx, "rpc.inbound.notification", slog.String("method", msg.Method))
	}
}

func (s *Session) answer(ctx context.Context, req *jsonrpc.Request) {
	var resp *jsonrpc.Response
	switch mcp.Method(req.Method) {
	case mcp.PingMethod:
		resp, _ = jsonrpc.NewResultResponse(req.ID, mcp.EmptyResult{})
	case mcp.RootsListMethod:
		resp, _ = jsonrpc.NewResultResponse(req.ID, mcp.ListRootsResult{Roots: []mcp.Root{}})
	default:
		resp = jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil)
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: "request"})
	if err := s.send(ctx, resp); err != nil {
		s.log.DebugContext(ctx, "rpc.answer.fail", slog.String("err", err.Error()))
	}
}

func serverLogLevel(l mcp.LoggingLevel) slog.Level {
	switch l {
	case mcp.LoggingLevelDebug:
		return slog.LevelDebug
	case mcp.LoggingLevelInfo, mcp.LoggingLevelNotice:
		return slog.LevelInfo
	case mcp.LoggingLevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// dispatchTransport adapts the session's Transport to the dispatcher.
type dispatchTransport struct{ s *Session }

func (t dispatchTransport) SendRequest(ctx context.Context, req *jsonrpc.Request) error {
	return t.s.send(ctx, req)
}

func (t dispatchTransport) SendCancelled(ctx context.Context, id *jsonrpc.RequestID, reason string) error {
	return t.s.notify(ctx, mcp.CancelledNotificationMethod, mcp.CancelledNotification{RequestID: id.Value(), Reason: reason})
}
