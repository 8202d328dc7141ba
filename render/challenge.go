package render

import (
	"io"
	"strings"
	"time"

	"github.com/ggoodman/mcp-explore/auth"
)

// Challenge explains an authorization refusal: what the server asked for,
// where its authorization server lives and what was wrong with the token
// that was sent, if any.
func Challenge(w io.Writer, c *auth.Challenge, now time.Time) error {
	p := &printer{w: w}
	header(p, "Authorization required")
	p.printf("  Status:               HTTP %d\n", c.StatusCode)
	if c.Scheme != "" {
		p.printf("  Scheme:               %s\n", c.Scheme)
	}
	if e := c.Params["error"]; e != "" {
		if d := c.Params["error_description"]; d != "" {
			e += " (" + d + ")"
		}
		p.printf("  Error:                %s\n", e)
	}
	if scopes := c.Scopes(); len(scopes) > 0 {
		p.printf("  Scopes requested:     %s\n", strings.Join(scopes, " "))
	}
	if c.ResourceMetadataURL != "" {
		p.printf("  Resource metadata:    %s\n", c.ResourceMetadataURL)
	}

	if prm := c.Resource; prm != nil {
		p.printf("  Resource:             %s\n", prm.Resource)
		if prm.ResourceName != "" {
			p.printf("  Resource name:        %s\n", prm.ResourceName)
		}
		if len(prm.ScopesSupported) > 0 {
			p.printf("  Scopes supported:     %s\n", strings.Join(prm.ScopesSupported, " "))
		}
	}

	if as := c.AuthServer; as != nil {
		p.printf("  Authorization server: %s\n", as.Issuer)
		optionalLine(p, "    Authorization endpoint: ", as.AuthorizationEndpoint)
		optionalLine(p, "    Token endpoint:         ", as.TokenEndpoint)
		optionalLine(p, "    Registration endpoint:  ", as.RegistrationEndpoint)
		if len(as.CodeChallengeMethodsSupported) > 0 {
			p.printf("    PKCE methods:           %s\n", strings.Join(as.CodeChallengeMethodsSupported, " "))
		}
	}

	if ti := c.Token; ti != nil {
		p.println("  Token sent:")
		optionalLine(p, "    Subject:   ", ti.Subject)
		optionalLine(p, "    Issuer:    ", ti.Issuer)
		if len(ti.Audience) > 0 {
			p.printf("    Audience:  %s\n", strings.Join(ti.Audience, " "))
		}
		optionalLine(p, "    Scope:     ", ti.Scope)
		if ti.ExpiresAt != nil {
			state := ""
			if ti.Expired(now) {
				state = " (expired)"
			}
			p.printf("    Expires:   %s%s\n", ti.ExpiresAt.UTC().Format(time.RFC3339), state)
		}
		if c.TokenChecked {
			if c.TokenErr != nil {
				p.printf("    Verified:  no, %v\n", c.TokenErr)
			} else {
				p.println("    Verified:  yes")
			}
		}
	}

	for _, n := range c.Notes {
		p.printf("  Note: %s\n", n)
	}
	return p.err
}

func optionalLine(p *printer, label, v string) {
	if v != "" {
		p.printf("%s%s\n", label, v)
	}
}
