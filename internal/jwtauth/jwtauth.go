// Package jwtauth checks a bearer access token against the signing keys of
// the authorization server a protected MCP endpoint names. The client uses
// it to explain a 401, not to make access decisions.
package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Config controls which checks Verify applies.
type Config struct {
	Issuer  string
	JWKSURI string
	// Audience, when set, must appear in the token's aud claim. Protected
	// resources usually expect their own resource identifier here.
	Audience       string
	RequiredScopes []string
	AllowedAlgs    []string
	Leeway         time.Duration
}

// DefaultConfig returns a Config with safe defaults for algorithm and leeway.
func DefaultConfig() *Config {
	return &Config{
		AllowedAlgs: []string{"RS256", "ES256", "PS256"},
		Leeway:      60 * time.Second,
	}
}

var (
	// ErrInvalidToken indicates the token failed signature, issuer,
	// audience or time validation.
	ErrInvalidToken = errors.New("jwtauth: invalid token")
	// ErrInsufficientScope indicates a valid token lacking a required scope.
	ErrInsufficientScope = errors.New("jwtauth: insufficient_scope")
)

// Claims is the subset of access token claims the explorer reports.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"`
}

// Verify fetches the key set at cfg.JWKSURI and validates tok against it.
// Key fetching is bounded by ctx.
func Verify(ctx context.Context, cfg *Config, tok string) (*Claims, error) {
	if cfg == nil || cfg.JWKSURI == "" {
		return nil, errors.New("jwks_uri is required")
	}
	if tok == "" {
		return nil, errors.New("empty token")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	kf, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURI})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(cfg.AllowedAlgs),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	var claims Claims
	if _, err := jwt.NewParser(opts...).ParseWithClaims(tok, &claims, kf.Keyfunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if missing := missingScopes(claims.Scope, cfg.RequiredScopes); len(missing) > 0 {
		return &claims, fmt.Errorf("%w: missing %s", ErrInsufficientScope, strings.Join(missing, " "))
	}
	return &claims, nil
}

func missingScopes(have string, want []string) []string {
	set := map[string]bool{}
	for _, s := range strings.Fields(have) {
		set[s] = true
	}
	var missing []string
	for _, w := range want {
		if !set[w] {
			missing = append(missing, w)
		}
	}
	return missing
}
