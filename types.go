package authd

import "github.com/giantswarm/mcp-authd/server"

// ErrorResponse represents an OAuth error response body
type ErrorResponse struct {
	// Error is the OAuth error code
	Error string `json:"error"`

	// ErrorDescription provides additional information
	ErrorDescription string `json:"error_description,omitempty"`
}

// TokenResponse is the token endpoint success body (RFC 6749 §5.1)
type TokenResponse = server.TokenResponse

// IntrospectionResponse is the token introspection response body (RFC 7662)
type IntrospectionResponse = server.IntrospectionResponse

// ClientRegistrationRequest is the dynamic client registration request body (RFC 7591)
type ClientRegistrationRequest = server.ClientRegistrationRequest

// ClientRegistrationResponse is the dynamic client registration response body (RFC 7591)
type ClientRegistrationResponse = server.ClientRegistrationResponse

// ==================== Discovery Metadata Types ====================

// AuthorizationServerMetadata represents OAuth 2.0 Authorization Server
// Metadata (RFC 8414). The same document is served from both well-known
// paths; the OIDC-specific fields are harmless extras for plain OAuth
// clients.
type AuthorizationServerMetadata struct {
	// Issuer is the authorization server's issuer identifier URL
	Issuer string `json:"issuer"`

	// AuthorizationEndpoint is the URL of the authorization endpoint
	AuthorizationEndpoint string `json:"authorization_endpoint"`

	// TokenEndpoint is the URL of the token endpoint
	TokenEndpoint string `json:"token_endpoint"`

	// JWKSURI is the URL of the verification key set
	JWKSURI string `json:"jwks_uri"`

	// IntrospectionEndpoint is the URL of the token introspection endpoint (RFC 7662)
	IntrospectionEndpoint string `json:"introspection_endpoint,omitempty"`

	// RegistrationEndpoint is the URL of the dynamic client registration endpoint (RFC 7591)
	RegistrationEndpoint string `json:"registration_endpoint,omitempty"`

	// ScopesSupported lists the OAuth scopes supported
	ScopesSupported []string `json:"scopes_supported,omitempty"`

	// ResponseTypesSupported lists the OAuth response types supported
	ResponseTypesSupported []string `json:"response_types_supported"`

	// GrantTypesSupported lists the OAuth grant types supported
	GrantTypesSupported []string `json:"grant_types_supported,omitempty"`

	// TokenEndpointAuthMethodsSupported lists the client authentication
	// methods supported at the token endpoint
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported,omitempty"`

	// CodeChallengeMethodsSupported lists the PKCE challenge methods supported (RFC 7636)
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported,omitempty"`

	// IDTokenSigningAlgValuesSupported lists the signing algorithms used for
	// issued tokens
	IDTokenSigningAlgValuesSupported []string `json:"id_token_signing_alg_values_supported,omitempty"`

	// SubjectTypesSupported lists the subject identifier types supported
	SubjectTypesSupported []string `json:"subject_types_supported,omitempty"`
}
