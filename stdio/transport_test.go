package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/internal/testlog"
)

const helperEnv = "STDIO_TRANSPORT_HELPER"

// TestMain lets the test binary double as a tiny stdio server when
// re-executed with helperEnv set.
func TestMain(m *testing.M) {
	switch os.Getenv(helperEnv) {
	case "":
		os.Exit(m.Run())
	case "echo":
		runEchoServer()
		os.Exit(0)
	case "hang":
		// Ignore stdin EOF entirely.
		time.Sleep(time.Hour)
		os.Exit(0)
	case "exit":
		fmt.Fprintln(os.Stdout, "bye")
		os.Exit(3)
	}
}

// runEchoServer answers every request with {"method": <method>} after
// printing a banner line that is not JSON.
func runEchoServer() {
	fmt.Fprintln(os.Stdout, "echo server ready")
	fmt.Fprintln(os.Stderr, "diagnostics go to stderr")
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		var msg jsonrpc.AnyMessage
		if err := json.Unmarshal(sc.Bytes(), &msg); err != nil || msg.Type() != "request" {
			continue
		}
		resp, _ := jsonrpc.NewResultResponse(msg.ID, map[string]string{"method": msg.Method})
		b, _ := json.Marshal(resp)
		fmt.Fprintf(os.Stdout, "%s\n", b)
	}
}

type recorder struct {
	msgs   chan jsonrpc.AnyMessage
	closed chan error
}

func newRecorder() *recorder {
	return &recorder{msgs: make(chan jsonrpc.AnyMessage, 16), closed: make(chan error, 1)}
}

func (r *recorder) HandleMessage(ctx context.Context, raw jsonrpc.Message) {
	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	r.msgs <- msg
}

func (r *recorder) HandleClose(err error) { r.closed <- err }

func (r *recorder) next(t *testing.T) jsonrpc.AnyMessage {
	t.Helper()
	select {
	case msg := <-r.msgs:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for message")
		return jsonrpc.AnyMessage{}
	}
}

func helper(t *testing.T, mode string, opts ...Option) *Transport {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("executable: %v", err)
	}
	opts = append([]Option{WithLogger(testlog.Logger(t)), WithEnv([]string{helperEnv + "=" + mode})}, opts...)
	return NewCommand(exe, nil, opts...)
}

func request(t *testing.T, id int, method string) jsonrpc.Message {
	t.Helper()
	req, err := jsonrpc.NewRequest(jsonrpc.NewRequestID(id), method, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	b, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestCommand_RoundTripSkipsNoise(t *testing.T) {
	tr := helper(t, "echo")
	rec := newRecorder()
	if err := tr.Start(t.Context(), rec); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := tr.Send(t.Context(), request(t, 1, "tools/list")); err != nil {
		t.Fatalf("send: %v", err)
	}
	msg := rec.next(t)
	if msg.ID.String() != "1" {
		t.Fatalf("unexpected id %q", msg.ID)
	}
	var res struct{ Method string }
	if err := json.Unmarshal(msg.Result, &res); err != nil || res.Method != "tools/list" {
		t.Fatalf("unexpected result %s (%v)", msg.Result, err)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := tr.Send(t.Context(), request(t, 2, "ping")); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
	select {
	case err := <-rec.closed:
		t.Fatalf("HandleClose must not fire on a local Close, got %v", err)
	default:
	}
}

func TestCommand_CloseKillsUnresponsiveChild(t *testing.T) {
	tr := helper(t, "hang", WithTerminateTimeout(50*time.Millisecond))
	if err := tr.Start(t.Context(), newRecorder()); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- tr.Close() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("close did not kill the child")
	}
}

func TestCommand_ServerExitReportsClose(t *testing.T) {
	tr := helper(t, "exit")
	rec := newRecorder()
	if err := tr.Start(t.Context(), rec); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = tr.Close() })

	select {
	case err := <-rec.closed:
		if !errors.Is(err, ErrServerClosed) {
			t.Fatalf("expected ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("HandleClose was not called")
	}
}

func TestCommand_MissingExecutable(t *testing.T) {
	t.Parallel()

	tr := NewCommand("definitely-not-a-real-mcp-server-binary", nil, WithLogger(testlog.Logger(t)))
	err := tr.Start(t.Context(), newRecorder())
	if !errors.Is(err, exec.ErrNotFound) {
		t.Fatalf("expected exec.ErrNotFound, got %v", err)
	}
}

func TestStream_Framing(t *testing.T) {
	t.Parallel()

	serverIn, clientOut := io.Pipe()
	clientIn, serverOut := io.Pipe()
	t.Cleanup(func() { _ = serverOut.Close() })

	tr := NewStream(clientIn, clientOut, WithLogger(testlog.Logger(t)))
	rec := newRecorder()
	if err := tr.Start(t.Context(), rec); err != nil {
		t.Fatalf("start: %v", err)
	}

	lines := make(chan string, 1)
	go func() {
		sc := bufio.NewScanner(serverIn)
		if sc.Scan() {
			lines <- sc.Text()
		}
	}()

	if err := tr.Send(t.Context(), jsonrpc.Message(`{"jsonrpc":"2.0","method":"ping","id":7}`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	select {
	case line := <-lines:
		if line != `{"jsonrpc":"2.0","method":"ping","id":7}` {
			t.Fatalf("unexpected line %q", line)
		}
	case <-time.After(time.Second):
		t.Fatalf("server did not receive a line")
	}

	go func() {
		_, _ = io.WriteString(serverOut, "not json\n\n")
		_, _ = io.WriteString(serverOut, `{"jsonrpc":"2.0","result":{},"id":7}`+"\n")
	}()
	if msg := rec.next(t); msg.ID.String() != "7" {
		t.Fatalf("unexpected message %+v", msg)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
