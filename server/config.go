package server

// Config holds OAuth server configuration
type Config struct {
	// Issuer is the server's issuer identifier (base URL). It appears as the
	// iss claim of every minted token and in the discovery metadata.
	Issuer string

	// ResourceURL is the identifier of the protected resource this server
	// issues tokens for. The resource parameter of /authorize and /token must
	// match it exactly (RFC 8707), and it becomes the aud claim.
	ResourceURL string

	// AuthorizationCodeTTL is how long authorization codes are valid
	AuthorizationCodeTTL int64 // seconds, default: 600 (10 minutes)

	// AccessTokenTTL is how long access tokens are valid
	AccessTokenTTL int64 // seconds, default: 28800 (8 hours)

	// DefaultScopes is the scope set granted when a request carries no scope,
	// and always granted for the client_credentials grant
	DefaultScopes []string // default: ["mcp:tools"]

	// TestRefreshClientID names the client that receives an already-expired
	// access token on its first issuance in the process lifetime. This enables
	// deterministic "expired access token, valid refresh token" test scenarios.
	TestRefreshClientID string // default: "test-refresh-client"

	// RegistryPath is the path of the JSON client registry file
	RegistryPath string // default: "clients.json"

	// SigningKeyPath is the path of the PEM-encoded RSA signing key
	SigningKeyPath string // default: "signing_key.pem"

	// EphemeralSigningKey skips key persistence entirely and generates a
	// fresh keypair at startup. Takes precedence over SigningKeyPath.
	// Intended for tests and throwaway instances.
	EphemeralSigningKey bool

	// AuditEnabled turns on security audit logging
	AuditEnabled bool

	// TrustProxy enables trusting X-Forwarded-For headers for client IP
	// extraction. Only enable behind a trusted reverse proxy.
	// Default: false
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of this
	// server, used with TrustProxy to pick the right X-Forwarded-For entry.
	// Default: 1
	TrustedProxyCount int
}

// ApplyDefaults fills in default values for unset configuration fields.
// New calls it automatically; the root package calls it earlier to resolve
// storage and signing key paths before constructing the stores.
func ApplyDefaults(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.AuthorizationCodeTTL == 0 {
		config.AuthorizationCodeTTL = 600 // 10 minutes
	}
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = 28800 // 8 hours
	}
	if len(config.DefaultScopes) == 0 {
		config.DefaultScopes = []string{"mcp:tools"}
	}
	if config.TestRefreshClientID == "" {
		config.TestRefreshClientID = "test-refresh-client"
	}
	if config.RegistryPath == "" {
		config.RegistryPath = "clients.json"
	}
	if config.SigningKeyPath == "" {
		config.SigningKeyPath = "signing_key.pem"
	}
	if config.TrustedProxyCount == 0 {
		config.TrustedProxyCount = 1
	}
	return config
}
