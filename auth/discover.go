package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/ggoodman/mcp-explore/internal/jwtauth"
	"github.com/ggoodman/mcp-explore/internal/wellknown"
)

const (
	protectedResourceWellKnown = "/.well-known/oauth-protected-resource"
	authServerWellKnown        = "/.well-known/oauth-authorization-server"
	maxMetadataBytes           = 1 << 20
)

// Discover fills in c by following the challenge issued by endpoint. token
// is the bearer token that was sent, if any. Every step is best effort:
// failures are appended to c.Notes and the next step is attempted when it
// can still run.
func Discover(ctx context.Context, client *http.Client, endpoint string, c *Challenge, token string) {
	if client == nil {
		client = http.DefaultClient
	}

	if token != "" {
		if ti, err := InspectBearer(token); err == nil {
			c.Token = ti
		}
	}

	prmURL, err := resourceMetadataURL(endpoint, c.ResourceMetadataURL)
	if err != nil {
		c.note("resource metadata location: %v", err)
		return
	}
	c.ResourceMetadataURL = prmURL

	var prm wellknown.ProtectedResourceMetadata
	if err := getJSON(ctx, client, prmURL, &prm); err != nil {
		c.note("fetch protected resource metadata: %v", err)
		return
	}
	c.Resource = &prm

	if len(prm.AuthorizationServers) == 0 {
		c.note("protected resource metadata names no authorization server")
		return
	}
	issuer := prm.AuthorizationServers[0]

	asm, err := discoverAuthServer(ctx, client, issuer)
	if err != nil {
		c.note("discover authorization server %s: %v", issuer, err)
		return
	}
	c.AuthServer = asm

	if c.Token == nil || asm.JwksUri == "" {
		return
	}
	cfg := jwtauth.DefaultConfig()
	cfg.Issuer = asm.Issuer
	cfg.JWKSURI = asm.JwksUri
	cfg.Audience = prm.Resource
	cfg.RequiredScopes = c.Scopes()
	_, c.TokenErr = jwtauth.Verify(ctx, cfg, BearerToken(token))
	c.TokenChecked = true
}

func (c *Challenge) note(format string, args ...any) {
	c.Notes = append(c.Notes, fmt.Sprintf(format, args...))
}

// resourceMetadataURL resolves the advertised metadata location against
// endpoint, or derives the RFC 9728 well-known location when none was
// advertised.
func resourceMetadataURL(endpoint, advertised string) (string, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if advertised != "" {
		ref, err := url.Parse(advertised)
		if err != nil {
			return "", err
		}
		return base.ResolveReference(ref).String(), nil
	}
	u := url.URL{Scheme: base.Scheme, Host: base.Host, Path: protectedResourceWellKnown}
	if p := strings.TrimSuffix(base.Path, "/"); p != "" {
		u.Path += p
	}
	return u.String(), nil
}

// discoverAuthServer tries OpenID discovery first and falls back to RFC 8414
// authorization server metadata, which plain OAuth servers publish instead.
func discoverAuthServer(ctx context.Context, client *http.Client, issuer string) (*wellknown.AuthServerMetadata, error) {
	var asm wellknown.AuthServerMetadata

	provider, oidcErr := oidc.NewProvider(oidc.ClientContext(ctx, client), issuer)
	if oidcErr == nil {
		if err := provider.Claims(&asm); err != nil {
			return nil, fmt.Errorf("invalid discovery metadata: %w", err)
		}
		return &asm, nil
	}

	u, err := url.Parse(issuer)
	if err != nil {
		return nil, err
	}
	wk := url.URL{Scheme: u.Scheme, Host: u.Host, Path: authServerWellKnown + strings.TrimSuffix(u.Path, "/")}
	if err := getJSON(ctx, client, wk.String(), &asm); err != nil {
		return nil, errors.Join(oidcErr, err)
	}
	if asm.Issuer != issuer {
		return nil, fmt.Errorf("issuer mismatch: metadata names %q", asm.Issuer)
	}
	return &asm, nil
}

func getJSON(ctx context.Context, client *http.Client, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxMetadataBytes))
		return fmt.Errorf("GET %s: %s", u, resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}
