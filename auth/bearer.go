package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by InspectBearer for tokens that are not JWTs.
// Opaque tokens are valid; there is simply nothing to inspect.
var ErrOpaqueToken = errors.New("bearer token is not a JWT")

// TokenInfo is what an unverified JWT says about itself.
type TokenInfo struct {
	Subject   string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	Issuer    string     `json:"issuer,omitempty" yaml:"issuer,omitempty"`
	Audience  []string   `json:"audience,omitempty" yaml:"audience,omitempty"`
	Scope     string     `json:"scope,omitempty" yaml:"scope,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expires_at,omitempty"`
}

// Expired reports whether the token carries an expiry before now.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && ti.ExpiresAt.Before(now)
}

// BearerToken extracts the token from an Authorization header value. The
// scheme match is case-insensitive; a value without a scheme is returned
// as-is.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, tok, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		return strings.TrimSpace(tok)
	}
	return header
}

// InspectBearer parses the JWT in an Authorization header value without
// checking its signature.
func InspectBearer(header string) (*TokenInfo, error) {
	tok := BearerToken(header)
	if strings.Count(tok, ".") != 2 {
		return nil, ErrOpaqueToken
	}

	var claims struct {
		jwt.RegisteredClaims
		Scope string `json:"scope"`
	}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}

	ti := &TokenInfo{
		Subject:  claims.Subject,
		Issuer:   claims.Issuer,
		Audience: []string(claims.Audience),
		Scope:    claims.Scope,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		ti.ExpiresAt = &exp
	}
	return ti, nil
}
