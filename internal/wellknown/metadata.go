// Package wellknown holds the OAuth metadata documents an MCP server can
// point a client at when it refuses an unauthenticated request.
package wellknown

// ProtectedResourceMetadata is the RFC 9728 document published by a
// protected MCP endpoint.
type ProtectedResourceMetadata struct {
	Resource                              string   `json:"resource" yaml:"resource"`
	AuthorizationServers                  []string `json:"authorization_servers,omitempty" yaml:"authorization_servers,omitempty"`
	JwksURI                               string   `json:"jwks_uri,omitempty" yaml:"jwks_uri,omitempty"`
	ScopesSupported                       []string `json:"scopes_supported,omitempty" yaml:"scopes_supported,omitempty"`
	BearerMethodsSupported                []string `json:"bearer_methods_supported,omitempty" yaml:"bearer_methods_supported,omitempty"`
	ResourceSigningAlgValuesSupported     []string `json:"resource_signing_alg_values_supported,omitempty" yaml:"-"`
	ResourceName                          string   `json:"resource_name,omitempty" yaml:"resource_name,omitempty"`
	ResourceDocumentation                 string   `json:"resource_documentation,omitempty" yaml:"resource_documentation,omitempty"`
	ResourcePolicyURI                     string   `json:"resource_policy_uri,omitempty" yaml:"-"`
	ResourceTosURI                        string   `json:"resource_tos_uri,omitempty" yaml:"-"`
	TlsClientCertificateBoundAccessTokens bool     `json:"tls_client_certificate_bound_access_tokens,omitempty" yaml:"-"`
	AuthorizationDetailsTypesSupported    []string `json:"authorization_details_types_supported,omitempty" yaml:"-"`
	DpopSigningAlgValuesSupported         []string `json:"dpop_signing_alg_values_supported,omitempty" yaml:"-"`
	DpopBoundAccessTokensRequired         bool     `json:"dpop_bound_access_tokens_required,omitempty" yaml:"-"`
}

// AuthServerMetadata is the subset of RFC 8414 / OpenID discovery metadata
// an interactive client needs to start an authorization flow.
type AuthServerMetadata struct {
	Issuer                            string   `json:"issuer" yaml:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint,omitempty" yaml:"authorization_endpoint,omitempty"`
	TokenEndpoint                     string   `json:"token_endpoint,omitempty" yaml:"token_endpoint,omitempty"`
	RegistrationEndpoint              string   `json:"registration_endpoint,omitempty" yaml:"registration_endpoint,omitempty"`
	JwksUri                           string   `json:"jwks_uri,omitempty" yaml:"jwks_uri,omitempty"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty" yaml:"scopes_supported,omitempty"`
	ResponseTypesSupported            []string `json:"response_types_supported,omitempty" yaml:"-"`
	GrantTypesSupported               []string `json:"grant_types_supported,omitempty" yaml:"-"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported,omitempty" yaml:"code_challenge_methods_supported,omitempty"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty" yaml:"-"`
	ServiceDocumentation              string   `json:"service_documentation,omitempty" yaml:"-"`
}
