package auth

import (
	"net/http"
	"testing"
)

func TestParseWWWAuthenticate(t *testing.T) {
	tests := []struct {
		in         string
		wantScheme string
		want       map[string]string
	}{
		{in: "Bearer", wantScheme: "Bearer", want: map[string]string{}},
		{
			in:         `Bearer resource_metadata="https://mcp.example/.well-known/oauth-protected-resource"`,
			wantScheme: "Bearer",
			want:       map[string]string{"resource_metadata": "https://mcp.example/.well-known/oauth-protected-resource"},
		},
		{
			in:         `Bearer realm="mcp", error="invalid_token", error_description="token \"expired\"", scope="a b"`,
			wantScheme: "Bearer",
			want: map[string]string{
				"realm":             "mcp",
				"error":             "invalid_token",
				"error_description": `token "expired"`,
				"scope":             "a b",
			},
		},
		{
			in:         `Bearer Realm=mcp,error=insufficient_scope`,
			wantScheme: "Bearer",
			want:       map[string]string{"realm": "mcp", "error": "insufficient_scope"},
		},
	}
	for _, tc := range tests {
		scheme, params := ParseWWWAuthenticate(tc.in)
		if scheme != tc.wantScheme {
			t.Errorf("%q: scheme %q, want %q", tc.in, scheme, tc.wantScheme)
		}
		if len(params) != len(tc.want) {
			t.Errorf("%q: params %v, want %v", tc.in, params, tc.want)
			continue
		}
		for k, v := range tc.want {
			if params[k] != v {
				t.Errorf("%q: %s=%q, want %q", tc.in, k, params[k], v)
			}
		}
	}
}

func TestNewChallenge(t *testing.T) {
	resp := &http.Response{StatusCode: http.StatusUnauthorized, Header: http.Header{}}
	resp.Header.Add("WWW-Authenticate", `Basic realm="legacy"`)
	resp.Header.Add("WWW-Authenticate", `Bearer error="invalid_token", error_description="expired", resource_metadata="/prm", scope="mcp:read mcp:write"`)

	c := NewChallenge(resp)
	if c.Scheme != "Bearer" {
		t.Fatalf("expected the Bearer challenge to win, got %q", c.Scheme)
	}
	if c.ResourceMetadataURL != "/prm" {
		t.Errorf("unexpected resource metadata %q", c.ResourceMetadataURL)
	}
	if got := c.Error(); got != "server requires authorization (HTTP 401): invalid_token (expired)" {
		t.Errorf("unexpected error string %q", got)
	}
	if s := c.Scopes(); len(s) != 2 || s[0] != "mcp:read" {
		t.Errorf("unexpected scopes %v", s)
	}
}

func TestResourceMetadataURL(t *testing.T) {
	tests := []struct{ endpoint, advertised, want string }{
		{"https://mcp.example/mcp", "", "https://mcp.example/.well-known/oauth-protected-resource/mcp"},
		{"https://mcp.example/", "", "https://mcp.example/.well-known/oauth-protected-resource"},
		{"https://mcp.example/mcp", "/prm", "https://mcp.example/prm"},
		{"https://mcp.example/mcp", "https://other.example/prm", "https://other.example/prm"},
	}
	for _, tc := range tests {
		got, err := resourceMetadataURL(tc.endpoint, tc.advertised)
		if err != nil || got != tc.want {
			t.Errorf("resourceMetadataURL(%q, %q) = %q, %v; want %q", tc.endpoint, tc.advertised, got, err, tc.want)
		}
	}
}
