package mcpclient

import (
	"log/slog"
	"time"

	"github.com/ggoodman/mcp-explore/mcp"
)

// Option customizes a Session.
type Option func(*Session)

// WithLogger overrides the logger. Nil is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClientInfo sets the implementation info sent during initialize.
func WithClientInfo(info mcp.ImplementationInfo) Option {
	return func(s *Session) {
		if info.Name != "" {
			s.clientInfo = info
		}
	}
}

// WithRequestTimeout bounds every request issued by the session. Zero
// disables the bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d >= 0 {
			s.requestTimeout = d
		}
	}
}

// WithTarget labels the session's log records with the transport kind and
// the endpoint or command it is attached to.
func WithTarget(transport, target string) Option {
	return func(s *Session) {
		s.transportName = transport
		s.target = target
	}
}
