// Package jwtauthtest runs a throwaway OpenID issuer for tests: discovery
// document, a JWKS holding one RSA key, and a signer for that key.
package jwtauthtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/golang-jwt/jwt/v5"
)

const keyID = "test-key"

// Issuer is an httptest-backed authorization server. Mux may be extended
// with extra routes (for example a protected resource metadata document).
type Issuer struct {
	URL string
	Mux *http.ServeMux
	// Meta overrides or extends the discovery document.
	Meta map[string]any

	srv *httptest.Server
	key *rsa.PrivateKey
}

// NewIssuer starts an Issuer that is closed when t finishes.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	jwks, err := json.Marshal(struct {
		Keys []jose.JSONWebKey `json:"keys"`
	}{Keys: []jose.JSONWebKey{{Key: &pk.PublicKey, KeyID: keyID, Algorithm: "RS256", Use: "sig"}}})
	if err != nil {
		t.Fatalf("marshal jwks: %v", err)
	}

	i := &Issuer{Mux: http.NewServeMux(), Meta: map[string]any{}, key: pk}
	i.Mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		meta := map[string]any{
			"issuer":                   i.URL,
			"jwks_uri":                 i.JWKSURI(),
			"authorization_endpoint":   i.URL + "/oauth2/auth",
			"token_endpoint":           i.URL + "/oauth2/token",
			"response_types_supported": []string{"code"},
		}
		for k, v := range i.Meta {
			meta[k] = v
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(meta)
	})
	i.Mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(jwks)
	})
	i.srv = httptest.NewServer(i.Mux)
	i.URL = i.srv.URL
	t.Cleanup(i.srv.Close)
	return i
}

// JWKSURI returns the key set location.
func (i *Issuer) JWKSURI() string { return i.URL + "/keys" }

// Sign returns claims signed with the issuer's key.
func (i *Issuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = keyID
	tok.Header["typ"] = "at+jwt"
	s, err := tok.SignedString(i.key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

// SignForeign returns claims signed with a key the issuer does not publish.
func SignForeign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = keyID
	s, err := tok.SignedString(pk)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}
