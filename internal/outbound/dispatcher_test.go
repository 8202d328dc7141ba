package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/mcp"
)

// recordingTransport captures outbound requests and cancellations.
type recordingTransport struct {
	mu        sync.Mutex
	sent      chan *jsonrpc.Request
	cancelled []string
	sendErr   error
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{sent: make(chan *jsonrpc.Request, 8)}
}

func (r *recordingTransport) SendRequest(ctx context.Context, req *jsonrpc.Request) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	r.sent <- req
	return nil
}

func (r *recordingTransport) SendCancelled(ctx context.Context, id *jsonrpc.RequestID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, id.String())
	return nil
}

func (r *recordingTransport) next(t *testing.T) *jsonrpc.Request {
	t.Helper()
	select {
	case req := <-r.sent:
		return req
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for outbound request")
		return nil
	}
}

func TestDispatcher_RequestResponse_OutOfOrder(t *testing.T) {
	t.Parallel()

	rt := newRecordingTransport()
	d := New(rt)
	ctx := context.Background()

	type result struct {
		resp *jsonrpc.Response
		err  error
	}
	resCh := make(chan result, 2)
	for _, m := range []string{"test/m1", "test/m2"} {
		go func() {
			resp, err := d.Call(ctx, m, map[string]any{"m": m})
			resCh <- result{resp, err}
		}()
	}

	req1 := rt.next(t)
	req2 := rt.next(t)
	if req1.ID.String() == req2.ID.String() {
		t.Fatalf("expected distinct ids, both were %s", req1.ID)
	}

	// Reply out of order.
	resp2, _ := jsonrpc.NewResultResponse(req2.ID, map[string]any{"method": req2.Method})
	if !d.OnResponse(resp2) {
		t.Fatalf("response 2 was not matched")
	}
	resp1, _ := jsonrpc.NewResultResponse(req1.ID, map[string]any{"method": req1.Method})
	if !d.OnResponse(resp1) {
		t.Fatalf("response 1 was not matched")
	}

	for range 2 {
		r := <-resCh
		if r.err != nil {
			t.Fatalf("call failed: %v", r.err)
		}
		var got struct{ Method string }
		if err := r.resp.Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Method != "test/m1" && got.Method != "test/m2" {
			t.Errorf("unexpected echoed method %q", got.Method)
		}
	}
	if n := d.Pending(); n != 0 {
		t.Errorf("expected no pending calls, got %d", n)
	}
}

func TestDispatcher_ErrorResponse_DecodesAsError(t *testing.T) {
	t.Parallel()

	rt := newRecordingTransport()
	d := New(rt)

	done := make(chan error, 1)
	go func() {
		resp, err := d.Call(context.Background(), "tools/list", nil)
		if err != nil {
			done <- err
			return
		}
		done <- resp.Decode(&struct{}{})
	}()

	req := rt.next(t)
	d.OnResponse(jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil))

	err := <-done
	var rpcErr *jsonrpc.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *jsonrpc.Error, got %T %v", err, err)
	}
	if rpcErr.Code != jsonrpc.ErrorCodeMethodNotFound {
		t.Errorf("unexpected code %d", rpcErr.Code)
	}
}

func TestDispatcher_CancelContext_SendsCancelled(t *testing.T) {
	t.Parallel()

	rt := newRecordingTransport()
	d := New(rt)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := d.Call(ctx, "test/m", nil)
		done <- err
	}()

	req := rt.next(t)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.cancelled) != 1 || rt.cancelled[0] != req.ID.String() {
		t.Fatalf("expected cancellation for %s, got %v", req.ID, rt.cancelled)
	}
}

func TestDispatcher_RemoteCancelled(t *testing.T) {
	t.Parallel()

	rt := newRecordingTransport()
	d := New(rt)

	done := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), "test/m", nil)
		done <- err
	}()

	req := rt.next(t)
	params, _ := json.Marshal(map[string]any{"requestId": req.ID.Value()})
	d.OnNotification(jsonrpc.AnyMessage{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		Method:         string(mcp.CancelledNotificationMethod),
		Params:         params,
	})

	if err := <-done; !errors.Is(err, ErrRemoteCancelled) {
		t.Fatalf("expected ErrRemoteCancelled, got %v", err)
	}
}

func TestDispatcher_Close_FailsPendingAndFutureCalls(t *testing.T) {
	t.Parallel()

	rt := newRecordingTransport()
	d := New(rt)

	done := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), "test/m", nil)
		done <- err
	}()
	rt.next(t)

	boom := errors.New("transport gone")
	d.Close(boom)

	if err := <-done; !errors.Is(err, boom) {
		t.Fatalf("pending call: expected %v, got %v", boom, err)
	}
	if _, err := d.Call(context.Background(), "test/again", nil); !errors.Is(err, boom) {
		t.Fatalf("call after close: expected %v, got %v", boom, err)
	}
}

func TestDispatcher_Progress(t *testing.T) {
	t.Parallel()

	d := New(newRecordingTransport())
	var got []float64
	d.OnProgress(func(p mcp.ProgressNotificationParams) { got = append(got, p.Progress) })

	params, _ := json.Marshal(mcp.ProgressNotificationParams{ProgressToken: "op", Progress: 42, Total: 100})
	d.OnNotification(jsonrpc.AnyMessage{JSONRPCVersion: jsonrpc.ProtocolVersion, Method: string(mcp.ProgressNotificationMethod), Params: params})

	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("unexpected progress observations: %v", got)
	}
}
