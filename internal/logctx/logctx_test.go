package logctx

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestHandler_AddsSessionAndRPCGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(Wrap(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx := WithSessionData(context.Background(), &SessionData{Transport: "stdio", Target: "npx server", ProtocolVersion: "2025-06-18"})
	ctx = WithRPCMessage(ctx, &RPCMessage{Method: "tools/list", ID: "3", Type: "request"})
	log.InfoContext(ctx, "rpc.outbound")

	out := buf.String()
	for _, want := range []string{
		"sess.transport=stdio",
		`sess.target="npx server"`,
		"sess.protocol_version=2025-06-18",
		"rpc.method=tools/list",
		"rpc.id=3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "sess.id=") {
		t.Errorf("empty session id should be omitted: %q", out)
	}
}

func TestWrap_Idempotent(t *testing.T) {
	h := Wrap(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if _, ok := Wrap(h).(Handler); !ok {
		t.Fatalf("expected Handler")
	}
	if inner := Wrap(h).(Handler).Handler; func() bool { _, nested := inner.(Handler); return nested }() {
		t.Fatalf("Wrap nested a Handler inside a Handler")
	}
}
