// Package stdio implements the local subprocess MCP transport: the client
// spawns the server as a child process and exchanges newline-delimited
// JSON-RPC messages over its stdin and stdout.
//
// Characteristics
//
//	Connection model : 1 client <-> 1 child process
//	Framing          : one JSON message per line
//	Diagnostics      : child stderr is drained to the logger at debug level
//	Lifetime         : Close shuts stdin, waits, then kills the child
//
// Example:
//
//	t := stdio.NewCommand("npx", []string{"-y", "@modelcontextprotocol/server-everything"},
//	    stdio.WithEnv([]string{"DEBUG=1"}),
//	)
//	sess, err := mcpclient.Connect(ctx, t)
//	if err != nil { log.Fatal(err) }
//	defer sess.Close()
//
// NewStream attaches the same framing to an arbitrary reader and writer,
// which is how in-process servers are driven in tests.
package stdio
