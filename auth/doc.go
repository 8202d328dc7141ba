// Package auth helps a client understand why a protected MCP endpoint
// refused it.
//
// InspectBearer decodes, without verifying, the JWT carried in an
// Authorization header so the caller can warn about an expired token
// before connecting.
//
// When a streamable HTTP endpoint answers 401, the transport returns a
// *Challenge built from the WWW-Authenticate header. Discover then follows
// the challenge the way an interactive client would: it fetches the
// protected resource metadata document (RFC 9728), runs OpenID discovery
// against the first authorization server it names, and, when a JWT was
// sent, checks it against that server's published keys.
//
// Example:
//
//	sess, err := connect.Connect(ctx, strategy)
//	var ch *auth.Challenge
//	if errors.As(err, &ch) {
//	    auth.Discover(ctx, http.DefaultClient, endpoint, ch, token)
//	    fmt.Println(ch.Resource.AuthorizationServers)
//	}
//
// Discovery failures never replace the challenge; they are recorded in
// Challenge.Notes.
package auth
