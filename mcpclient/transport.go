package mcpclient

import (
	"context"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
)

// Transport moves serialized JSON-RPC messages between the session and a
// server. Implementations must deliver every inbound message to the
// Handler passed to Start, and call HandleClose once when the inbound side
// ends for any reason other than Close.
type Transport interface {
	// Start establishes the channel. It is called exactly once, before Send.
	Start(ctx context.Context, h Handler) error
	// Send writes one message. Transports that receive replies inline (such
	// as an HTTP POST) may invoke the handler before Send returns.
	Send(ctx context.Context, msg jsonrpc.Message) error
	// Close tears the channel down. It must be safe to call more than once.
	Close() error
}

// Handler consumes inbound messages from a Transport.
type Handler interface {
	HandleMessage(ctx context.Context, msg jsonrpc.Message)
	HandleClose(err error)
}

// SessionIDer is implemented by transports that carry a server-assigned
// session id.
type SessionIDer interface {
	SessionID() string
}

// ProtocolVersionSetter is implemented by transports that must echo the
// negotiated protocol version on later messages.
type ProtocolVersionSetter interface {
	SetProtocolVersion(v string)
}
