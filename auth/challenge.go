package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ggoodman/mcp-explore/internal/wellknown"
)

const wwwAuthenticateHeader = "WWW-Authenticate"

// Challenge describes a refused request and, once Discover has run, what
// the endpoint expects from the client. It implements error.
type Challenge struct {
	StatusCode int
	Scheme     string
	// Params holds the auth-params of the challenge (realm, scope, error,
	// error_description, resource_metadata, ...), keys lowercased.
	Params map[string]string

	// Filled by Discover.
	ResourceMetadataURL string
	Resource            *wellknown.ProtectedResourceMetadata
	AuthServer          *wellknown.AuthServerMetadata
	Token               *TokenInfo
	// TokenChecked is set when the sent token was validated against the
	// authorization server's keys; TokenErr holds the outcome.
	TokenChecked bool
	TokenErr     error
	Notes        []string
}

// NewChallenge builds a Challenge from a 401 or 403 response.
func NewChallenge(resp *http.Response) *Challenge {
	c := &Challenge{StatusCode: resp.StatusCode, Params: map[string]string{}}
	for _, v := range resp.Header.Values(wwwAuthenticateHeader) {
		scheme, params := ParseWWWAuthenticate(v)
		if c.Scheme == "" || strings.EqualFold(scheme, "bearer") {
			c.Scheme = scheme
			c.Params = params
		}
	}
	c.ResourceMetadataURL = c.Params["resource_metadata"]
	return c
}

func (c *Challenge) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "server requires authorization (HTTP %d)", c.StatusCode)
	if e := c.Params["error"]; e != "" {
		fmt.Fprintf(&b, ": %s", e)
		if d := c.Params["error_description"]; d != "" {
			fmt.Fprintf(&b, " (%s)", d)
		}
	}
	return b.String()
}

// Scopes returns the scopes the challenge asks for, if any.
func (c *Challenge) Scopes() []string {
	return strings.Fields(c.Params["scope"])
}

// ParseWWWAuthenticate splits one challenge into its scheme and auth-params
// (RFC 9110 section 11.6.1). Quoted values are unescaped. A token68 value
// is stored under the empty key.
func ParseWWWAuthenticate(v string) (scheme string, params map[string]string) {
	params = map[string]string{}
	v = strings.TrimSpace(v)
	scheme, rest, _ := strings.Cut(v, " ")

	for rest = strings.TrimSpace(rest); rest != ""; rest = strings.TrimLeft(rest, " ,") {
		eq := strings.IndexByte(rest, '=')
		comma := strings.IndexByte(rest, ',')
		if eq < 0 || (comma >= 0 && comma < eq) {
			// token68
			end := len(rest)
			if comma >= 0 {
				end = comma
			}
			params[""] = strings.TrimSpace(rest[:end])
			rest = rest[end:]
			continue
		}

		key := strings.ToLower(strings.TrimSpace(rest[:eq]))
		rest = strings.TrimLeft(rest[eq+1:], " ")

		var val string
		if strings.HasPrefix(rest, `"`) {
			val, rest = readQuoted(rest[1:])
		} else {
			end := strings.IndexByte(rest, ',')
			if end < 0 {
				end = len(rest)
			}
			val, rest = strings.TrimSpace(rest[:end]), rest[end:]
		}
		params[key] = val
	}
	return scheme, params
}

// readQuoted consumes a quoted-string body (the opening quote already
// stripped) and returns the unescaped value and the remainder.
func readQuoted(s string) (string, string) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
			}
		case '"':
			return b.String(), s[i+1:]
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), ""
}
