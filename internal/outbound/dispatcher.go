package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
	"github.com/ggoodman/mcp-explore/mcp"
)

// Transport abstracts how requests and cancellations reach the peer.
type Transport interface {
	// SendRequest emits req, whose ID has already been registered with the
	// dispatcher. Responses may arrive through OnResponse before SendRequest
	// returns (the HTTP transport delivers them from inside the POST), which
	// is why registration happens first.
	SendRequest(ctx context.Context, req *jsonrpc.Request) error
	// SendCancelled emits notifications/cancelled for the given id.
	SendCancelled(ctx context.Context, id *jsonrpc.RequestID, reason string) error
}

var (
	// ErrDispatcherClosed indicates the dispatcher is closed.
	ErrDispatcherClosed = errors.New("dispatcher closed")
	// ErrRemoteCancelled indicates the peer cancelled the request.
	ErrRemoteCancelled = errors.New("remote cancelled")
)

// ProgressFunc observes notifications/progress for in-flight calls.
type ProgressFunc func(p mcp.ProgressNotificationParams)

type pendingCall struct {
	method string
	respCh chan *jsonrpc.Response
	errCh  chan error
}

// Dispatcher correlates client-initiated JSON-RPC requests with the
// responses that come back on the transport's read side. It is
// transport-agnostic and safe for concurrent callers.
type Dispatcher struct {
	t          Transport
	onProgress ProgressFunc

	mu      sync.Mutex
	pending map[string]*pendingCall // id.String() -> call

	nextID atomic.Int64

	closed   atomic.Bool
	closeErr error
}

// New constructs a Dispatcher using the provided transport.
func New(t Transport) *Dispatcher {
	return &Dispatcher{t: t, pending: make(map[string]*pendingCall)}
}

// OnProgress installs a progress observer. It must be called before the
// first Call.
func (d *Dispatcher) OnProgress(fn ProgressFunc) { d.onProgress = fn }

// Call sends a JSON-RPC request and waits for its response or for ctx to end.
// JSON-RPC error responses are returned as a response, not an error; use
// Response.Decode to surface them.
func (d *Dispatcher) Call(ctx context.Context, method string, params any) (*jsonrpc.Response, error) {
	if err := d.closedErr(); err != nil {
		return nil, err
	}

	id := jsonrpc.NewRequestID(d.nextID.Add(1))
	key := id.String()

	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	pc := &pendingCall{method: method, respCh: make(chan *jsonrpc.Response, 1), errCh: make(chan error, 1)}
	d.mu.Lock()
	if d.closed.Load() {
		d.mu.Unlock()
		return nil, d.closedErr()
	}
	d.pending[key] = pc
	d.mu.Unlock()

	if err := d.t.SendRequest(ctx, req); err != nil {
		d.forget(key)
		return nil, err
	}

	select {
	case resp := <-pc.respCh:
		return resp, nil
	case err := <-pc.errCh:
		if err != nil {
			return nil, err
		}
		return nil, ErrDispatcherClosed
	case <-ctx.Done():
		// Best-effort: tell the server to stop working on it.
		_ = d.t.SendCancelled(context.WithoutCancel(ctx), id, ctx.Err().Error())
		d.forget(key)
		return nil, ctx.Err()
	}
}

// OnResponse delivers an incoming response to a waiting call. Unmatched
// responses are reported as false.
func (d *Dispatcher) OnResponse(resp *jsonrpc.Response) bool {
	if resp == nil || resp.ID.IsNil() {
		return false
	}
	key := resp.ID.String()
	d.mu.Lock()
	pc, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	d.mu.Unlock()
	if ok {
		pc.respCh <- resp
	}
	return ok
}

// OnNotification processes peer notifications relevant to outbound calls
// (cancel/progress). Other methods are ignored.
func (d *Dispatcher) OnNotification(msg jsonrpc.AnyMessage) {
	switch mcp.Method(msg.Method) {
	case mcp.CancelledNotificationMethod:
		var p mcp.CancelledNotification
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return
		}
		key := jsonrpc.NewRequestID(p.RequestID).String()
		d.mu.Lock()
		pc, ok := d.pending[key]
		if ok {
			delete(d.pending, key)
		}
		d.mu.Unlock()
		if ok {
			pc.errCh <- ErrRemoteCancelled
		}
	case mcp.ProgressNotificationMethod:
		if d.onProgress == nil {
			return
		}
		var p mcp.ProgressNotificationParams
		if err := json.Unmarshal(msg.Params, &p); err != nil {
			return
		}
		d.onProgress(p)
	}
}

// Pending reports the number of calls awaiting a response.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Close fails all pending calls with err and prevents new calls.
func (d *Dispatcher) Close(err error) {
	if err == nil {
		err = ErrDispatcherClosed
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.closeErr = err
	for key, pc := range d.pending {
		delete(d.pending, key)
		pc.errCh <- err
	}
}

func (d *Dispatcher) closedErr() error {
	if !d.closed.Load() {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closeErr != nil {
		return d.closeErr
	}
	return ErrDispatcherClosed
}

func (d *Dispatcher) forget(key string) {
	d.mu.Lock()
	delete(d.pending, key)
	d.mu.Unlock()
}
