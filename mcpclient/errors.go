package mcpclient

import (
	"errors"
	"fmt"

	"github.com/ggoodman/mcp-explore/internal/jsonrpc"
)

var (
	// ErrSessionClosed is returned by every Session method after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrTransportClosed is returned to in-flight calls when the transport's
	// inbound side ends without an error of its own.
	ErrTransportClosed = errors.New("transport closed")
	// ErrTooManyPages is returned when a list operation keeps receiving a
	// next cursor past maxPages.
	ErrTooManyPages = errors.New("too many pages")
)

// RPCError is a JSON-RPC error object returned by the server.
type RPCError = jsonrpc.Error

// UnsupportedVersionError reports a handshake answered with a protocol
// revision this client does not speak.
type UnsupportedVersionError struct {
	Version string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("server selected unsupported protocol version %q", e.Version)
}

// IsMethodNotFound reports whether err carries a JSON-RPC method-not-found
// error, which servers use for capabilities they do not implement.
func IsMethodNotFound(err error) bool {
	var rpcErr *jsonrpc.Error
	return errors.As(err, &rpcErr) && rpcErr.Code == jsonrpc.ErrorCodeMethodNotFound
}
