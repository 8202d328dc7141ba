// Package mcpclient implements the client half of an MCP session.
//
// A Session is created by Connect, which starts a Transport and performs
// the initialize handshake before returning. Every request the session
// issues is correlated by id, so a single Session may be queried from
// several goroutines at once. Close releases the transport exactly once;
// any later call fails with ErrSessionClosed.
//
// Transports live in sibling packages: stdio spawns a local subprocess and
// streaminghttp talks to a remote endpoint over the streamable HTTP
// binding.
package mcpclient
