// Package mcptest provides a small in-process MCP server for exercising
// clients. It serves a fixed catalogue of tools, resources, prompts and
// resource templates over the streamable HTTP transport (Handler) or over
// newline-delimited standard streams (ServeStdio).
package mcptest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/mcp"
)

// Server is a static MCP server. Configure the exported fields before the
// first request; they are read without locking afterwards.
type Server struct {
	Info         mcp.ImplementationInfo
	Instructions string

	Tools     []Tool
	Resources []mcp.Resource
	Prompts   []mcp.Prompt
	Templates []mcp.ResourceTemplate

	// PageSize splits list results into pages of this many entries. Zero
	// returns everything in one page.
	PageSize int

	// Fail makes the named methods answer with the given error instead of
	// their usual result.
	Fail map[mcp.Method]*jsonrpc.Error

	Logger *slog.Logger

	mu    sync.Mutex
	calls []string
}

// Calls returns the methods received so far, in arrival order.
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Server) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// handle answers one inbound message. Notifications and responses yield
// nil.
func (s *Server) handle(ctx context.Context, msg *jsonrpc.AnyMessage) *jsonrpc.Response {
	if msg.Method != "" {
		s.mu.Lock()
		s.calls = append(s.calls, msg.Method)
		s.mu.Unlock()
	}

	req := msg.AsRequest()
	if req == nil || req.ID == nil {
		s.log().DebugContext(ctx, "mcptest.ignored", slog.String("method", msg.Method), slog.String("type", msg.Type()))
		return nil
	}

	method := mcp.Method(req.Method)
	if e, ok := s.Fail[method]; ok {
		return jsonrpc.NewErrorResponse(req.ID, e.Code, e.Message, e.Data)
	}

	result, rpcErr := s.dispatch(ctx, method, req.Params)
	if rpcErr != nil {
		return jsonrpc.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}
	return resp
}

func (s *Server) dispatch(ctx context.Context, method mcp.Method, params json.RawMessage) (any, *jsonrpc.Error) {
	switch method {
	case mcp.InitializeMethod:
		var req mcp.InitializeRequest
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, invalidParams(err)
		}
		return s.initializeResult(req), nil

	case mcp.PingMethod:
		return struct{}{}, nil

	case mcp.ToolsListMethod:
		descs := make([]mcp.Tool, len(s.Tools))
		for i, t := range s.Tools {
			descs[i] = t.Descriptor
		}
		page, next, err := paginate(descs, params, s.PageSize)
		if err != nil {
			return nil, err
		}
		return mcp.ListToolsResult{Tools: page, PaginatedResult: mcp.PaginatedResult{NextCursor: next}}, nil

	case mcp.ResourcesListMethod:
		page, next, err := paginate(s.Resources, params, s.PageSize)
		if err != nil {
			return nil, err
		}
		return mcp.ListResourcesResult{Resources: page, PaginatedResult: mcp.PaginatedResult{NextCursor: next}}, nil

	case mcp.PromptsListMethod:
		page, next, err := paginate(s.Prompts, params, s.PageSize)
		if err != nil {
			return nil, err
		}
		return mcp.ListPromptsResult{Prompts: page, PaginatedResult: mcp.PaginatedResult{NextCursor: next}}, nil

	case mcp.ResourcesTemplatesListMethod:
		page, next, err := paginate(s.Templates, params, s.PageSize)
		if err != nil {
			return nil, err
		}
		return mcp.ListResourceTemplatesResult{ResourceTemplates: page, PaginatedResult: mcp.PaginatedResult{NextCursor: next}}, nil

	case mcp.ToolsCallMethod:
		var req struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments,omitempty"`
		}
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, invalidParams(err)
		}
		for _, t := range s.Tools {
			if t.Descriptor.Name == req.Name {
				res, err := t.Handler(ctx, req.Arguments)
				if err != nil {
					return nil, &jsonrpc.Error{Code: jsonrpc.ErrorCodeInternalError, Message: err.Error()}
				}
				return res, nil
			}
		}
		return nil, &jsonrpc.Error{Code: jsonrpc.ErrorCodeInvalidParams, Message: fmt.Sprintf("unknown tool %q", req.Name)}

	default:
		return nil, &jsonrpc.Error{Code: jsonrpc.ErrorCodeMethodNotFound, Message: "method not found"}
	}
}

func (s *Server) initializeResult(req mcp.InitializeRequest) *mcp.InitializeResult {
	res := &mcp.InitializeResult{
		ProtocolVersion: mcp.LatestProtocolVersion,
		ServerInfo:      s.Info,
		Instructions:    s.Instructions,
	}
	if mcp.IsSupportedProtocolVersion(req.ProtocolVersion) {
		res.ProtocolVersion = req.ProtocolVersion
	}
	if res.ServerInfo.Name == "" {
		res.ServerInfo = mcp.ImplementationInfo{Name: "mcptest", Version: "0.0.0"}
	}
	if len(s.Tools) > 0 {
		res.Capabilities.Tools = &mcp.ListChanged{}
	}
	if len(s.Resources) > 0 || len(s.Templates) > 0 {
		res.Capabilities.Resources = &mcp.ResourcesCapability{}
	}
	if len(s.Prompts) > 0 {
		res.Capabilities.Prompts = &mcp.ListChanged{}
	}
	return res
}

// paginate returns the page of items starting at the cursor in params. The
// cursor is the decimal offset of the page's first item.
func paginate[T any](items []T, params json.RawMessage, size int) ([]T, string, *jsonrpc.Error) {
	var req mcp.PaginatedRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, "", invalidParams(err)
		}
	}
	start := 0
	if req.Cursor != "" {
		n, err := strconv.Atoi(req.Cursor)
		if err != nil || n < 0 || n > len(items) {
			return nil, "", &jsonrpc.Error{Code: jsonrpc.ErrorCodeInvalidParams, Message: "invalid cursor"}
		}
		start = n
	}
	if items == nil {
		items = []T{}
	}
	if size <= 0 || start+size >= len(items) {
		return items[start:], "", nil
	}
	return items[start : start+size], strconv.Itoa(start + size), nil
}

func invalidParams(err error) *jsonrpc.Error {
	return &jsonrpc.Error{Code: jsonrpc.ErrorCodeInvalidParams, Message: "invalid params: " + err.Error()}
}
