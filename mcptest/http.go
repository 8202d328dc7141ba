package mcptest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/internal/logctx"
	"github.com/ggoodman/mcp-explore/mcp"
)

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")
	responseMediaTypes   = []contenttype.MediaType{jsonMediaType, eventStreamMediaType}
	eventStreamOnly      = []contenttype.MediaType{eventStreamMediaType}
)

const (
	mcpSessionIDHeader       = "Mcp-Session-Id"
	mcpProtocolVersionHeader = "Mcp-Protocol-Version"
)

// HTTPOption configures Handler.
type HTTPOption func(*HTTPHandler)

// WithEventStream answers requests with a text/event-stream body whenever
// the client accepts one. The default is a plain JSON body.
func WithEventStream() HTTPOption {
	return func(h *HTTPHandler) { h.sse = true }
}

// WithAuth rejects requests whose Authorization header differs from want
// with 401 and the given WWW-Authenticate challenge.
func WithAuth(want, challenge string) HTTPOption {
	return func(h *HTTPHandler) {
		h.authz = want
		h.challenge = challenge
	}
}

var _ http.Handler = (*HTTPHandler)(nil)

// HTTPHandler serves a Server over the streamable HTTP transport.
type HTTPHandler struct {
	s         *Server
	sse       bool
	authz     string
	challenge string

	mu       sync.Mutex
	sessions map[string]string // id -> protocol version
}

// Handler serves the streamable HTTP transport on every path. Sessions are
// created by initialize and ended by DELETE. The optional GET stream is not
// offered.
func (s *Server) Handler(opts ...HTTPOption) *HTTPHandler {
	h := &HTTPHandler{s: s, sessions: map[string]string{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Sessions returns the number of live sessions.
func (h *HTTPHandler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.authz != "" && r.Header.Get("Authorization") != h.authz {
		w.Header().Set("WWW-Authenticate", h.challenge)
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *HTTPHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessID := r.Header.Get(mcpSessionIDHeader)
	if sessID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	_, ok := h.sessions[sessID]
	delete(h.sessions, sessID)
	h.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.s.log()

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	if _, _, err := contenttype.GetAcceptableMediaType(r, responseMediaTypes); err != nil {
		writeJSONError(w, http.StatusNotAcceptable, "client must accept application/json or text/event-stream")
		return
	}

	var msg jsonrpc.AnyMessage
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<20)).Decode(&msg); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON-RPC message: "+err.Error())
		return
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: msg.Method, ID: msg.ID.String(), Type: msg.Type()})

	sessID := r.Header.Get(mcpSessionIDHeader)
	if msg.Method == string(mcp.InitializeMethod) {
		sessID = uuid.NewString()
	} else {
		h.mu.Lock()
		_, ok := h.sessions[sessID]
		h.mu.Unlock()
		if !ok {
			writeJSONError(w, http.StatusNotFound, "session not found")
			log.InfoContext(ctx, "mcptest.session.miss", slog.String("id", sessID))
			return
		}
	}

	resp := h.s.handle(ctx, &msg)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	if msg.Method == string(mcp.InitializeMethod) && resp.Error == nil {
		var res mcp.InitializeResult
		_ = json.Unmarshal(resp.Result, &res)
		h.mu.Lock()
		h.sessions[sessID] = res.ProtocolVersion
		h.mu.Unlock()
		w.Header().Set(mcpSessionIDHeader, sessID)
		w.Header().Set(mcpProtocolVersionHeader, res.ProtocolVersion)
	}

	body, err := json.Marshal(resp)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	if h.sse && acceptsEventStream(r) {
		w.Header().Set("Content-Type", eventStreamMediaType.String())
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, "event: message\ndata: %s\n\n", body); err != nil {
			log.WarnContext(ctx, "mcptest.sse.write.fail", slog.String("err", err.Error()))
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		return
	}

	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func acceptsEventStream(r *http.Request) bool {
	_, _, err := contenttype.GetAcceptableMediaType(r, eventStreamOnly)
	return err == nil
}
