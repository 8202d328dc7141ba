package mcptest_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/internal/testlog"
	"github.com/ggoodman/mcp-explore/mcp"
	"github.com/ggoodman/mcp-explore/mcpclient"
	"github.com/ggoodman/mcp-explore/mcptest"
	"github.com/ggoodman/mcp-explore/stdio"
)

func fixture(t *testing.T) *mcptest.Server {
	return &mcptest.Server{
		Info:  mcp.ImplementationInfo{Name: "fixture", Version: "1.2.3"},
		Tools: []mcptest.Tool{mcptest.Calculator()},
		Resources: []mcp.Resource{
			{URI: "file:///a.txt", Name: "a", MimeType: "text/plain"},
			{URI: "file:///b.txt", Name: "b"},
			{URI: "file:///c.txt", Name: "c"},
		},
		Prompts: []mcp.Prompt{{Name: "greet", Arguments: []mcp.PromptArgument{{Name: "who", Required: true}}}},
		Logger:  testlog.Logger(t),
	}
}

func TestHandler_GoSDKClient(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		opts []mcptest.HTTPOption
	}{
		{name: "json"},
		{name: "sse", opts: []mcptest.HTTPOption{mcptest.WithEventStream()}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(fixture(t).Handler(tc.opts...))
			t.Cleanup(srv.Close)

			ctx := t.Context()
			client := sdk.NewClient(&sdk.Implementation{Name: "interop", Version: "0.0.0"}, &sdk.ClientOptions{})
			cs, err := client.Connect(ctx, &sdk.StreamableClientTransport{Endpoint: srv.URL}, &sdk.ClientSessionOptions{})
			if err != nil {
				t.Fatalf("connect failed: %v", err)
			}
			defer cs.Close()

			lt, err := cs.ListTools(ctx, &sdk.ListToolsParams{})
			if err != nil {
				t.Fatalf("ListTools failed: %v", err)
			}
			if len(lt.Tools) != 1 || lt.Tools[0].Name != "calculate" {
				t.Fatalf("unexpected tools: %+v", lt.Tools)
			}

			res, err := cs.CallTool(ctx, &sdk.CallToolParams{
				Name:      "calculate",
				Arguments: map[string]any{"operation": "add", "a": 2, "b": 3},
			})
			if err != nil {
				t.Fatalf("CallTool failed: %v", err)
			}
			if res.IsError || len(res.Content) != 1 {
				t.Fatalf("unexpected call result: %+v", res)
			}
			text, ok := res.Content[0].(*sdk.TextContent)
			if !ok || text.Text != `{"result":5}` {
				t.Fatalf("unexpected content: %#v", res.Content[0])
			}

			lr, err := cs.ListResources(ctx, &sdk.ListResourcesParams{})
			if err != nil {
				t.Fatalf("ListResources failed: %v", err)
			}
			if len(lr.Resources) != 3 {
				t.Fatalf("expected 3 resources, got %d", len(lr.Resources))
			}
		})
	}
}

func TestHandler_DeleteEndsSession(t *testing.T) {
	t.Parallel()

	h := fixture(t).Handler()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := sdk.NewClient(&sdk.Implementation{Name: "interop", Version: "0.0.0"}, &sdk.ClientOptions{})
	cs, err := client.Connect(t.Context(), &sdk.StreamableClientTransport{Endpoint: srv.URL}, &sdk.ClientSessionOptions{})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	if n := h.Sessions(); n != 1 {
		t.Fatalf("expected 1 live session, got %d", n)
	}
	if err := cs.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := h.Sessions(); n != 0 {
		t.Fatalf("expected session to be deleted, %d remain", n)
	}
}

func TestServeStdio_Paginates(t *testing.T) {
	t.Parallel()

	s := fixture(t)
	s.PageSize = 2

	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- s.ServeStdio(ctx, serverR, serverW)
		serverW.Close()
	}()

	sess, err := mcpclient.Connect(ctx, stdio.NewStream(clientR, clientW, stdio.WithLogger(testlog.Logger(t))), mcpclient.WithLogger(testlog.Logger(t)))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := sess.ServerInfo(); got.Name != "fixture" || got.Version != "1.2.3" {
		t.Fatalf("unexpected server info %+v", got)
	}

	res, err := sess.ListResources(ctx)
	if err != nil {
		t.Fatalf("list resources: %v", err)
	}
	if len(res) != 3 || res[2].URI != "file:///c.txt" {
		t.Fatalf("unexpected resources %+v", res)
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}

	var lists int
	for _, m := range s.Calls() {
		if m == string(mcp.ResourcesListMethod) {
			lists++
		}
	}
	if lists != 2 {
		t.Fatalf("expected 2 resources/list pages, got %d", lists)
	}
}

func TestFail(t *testing.T) {
	t.Parallel()

	s := fixture(t)
	s.Fail = map[mcp.Method]*jsonrpc.Error{
		mcp.PromptsListMethod: {Code: jsonrpc.ErrorCodeMethodNotFound, Message: "prompts unsupported"},
	}

	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()
	go func() {
		_ = s.ServeStdio(t.Context(), serverR, serverW)
		serverW.Close()
	}()

	sess, err := mcpclient.Connect(t.Context(), stdio.NewStream(clientR, clientW))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer sess.Close()

	if _, err := sess.ListPrompts(t.Context()); !mcpclient.IsMethodNotFound(err) {
		t.Fatalf("expected method not found, got %v", err)
	}
	if _, err := sess.ListTools(t.Context()); err != nil {
		t.Fatalf("tools should still list: %v", err)
	}
}

func TestCalculator(t *testing.T) {
	t.Parallel()

	calc := mcptest.Calculator()

	var schema struct {
		Type       string                     `json:"type"`
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	if err := json.Unmarshal(calc.Descriptor.InputSchema, &schema); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if schema.Type != "object" || len(schema.Properties) != 3 || len(schema.Required) != 3 {
		t.Fatalf("unexpected schema %s", calc.Descriptor.InputSchema)
	}

	tests := []struct {
		args    string
		want    string
		isError bool
	}{
		{args: `{"operation":"multiply","a":4,"b":2.5}`, want: `{"result":10}`},
		{args: `{"operation":"subtract","a":1,"b":3}`, want: `{"result":-2}`},
		{args: `{"operation":"divide","a":1,"b":0}`, want: "Division by zero is not allowed", isError: true},
		{args: `{"operation":"modulo","a":1,"b":2}`, want: "Unknown operation: modulo", isError: true},
		{args: `{"operation":"add","a":1,"b":2,"c":3}`, isError: true},
	}
	for _, tc := range tests {
		res, err := calc.Handler(t.Context(), json.RawMessage(tc.args))
		if err != nil {
			t.Fatalf("%s: %v", tc.args, err)
		}
		if res.IsError != tc.isError {
			t.Errorf("%s: IsError = %v", tc.args, res.IsError)
		}
		if tc.want != "" && res.Content[0].Text != tc.want {
			t.Errorf("%s: got %q, want %q", tc.args, res.Content[0].Text, tc.want)
		}
	}
}
