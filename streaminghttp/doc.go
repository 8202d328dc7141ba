// Package streaminghttp implements the client side of the MCP streamable
// HTTP transport.
//
// Every outbound message is an HTTP POST to a single endpoint. The server
// answers a request either with one JSON body or with a Server-Sent Events
// stream whose data frames carry the response and any messages the server
// sends before it. Notifications and responses are acknowledged with 202.
//
// Characteristics
//
//	Session          : server-assigned Mcp-Session-Id, echoed on every POST
//	Protocol version : Mcp-Protocol-Version sent once negotiated
//	Authorization    : static headers; a 401/403 becomes an *auth.Challenge
//	Teardown         : DELETE with the session id (best effort)
//
// Example:
//
//	t, err := streaminghttp.New("https://mcp.example/mcp",
//	    streaminghttp.WithHeader("Authorization", "Bearer "+token),
//	)
//	if err != nil { log.Fatal(err) }
//	sess, err := mcpclient.Connect(ctx, t)
//
// The transport does not open the optional GET stream for unsolicited
// server messages; an explorer session only needs replies to its own
// requests.
package streaminghttp
