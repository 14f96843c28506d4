package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-authd/instrumentation"
	"github.com/giantswarm/mcp-authd/keys"
	"github.com/giantswarm/mcp-authd/security"
	"github.com/giantswarm/mcp-authd/storage"
)

// Server implements the OAuth 2.0 authorization server logic. It coordinates
// the protocol state machine over the injected stores and signing key; the
// HTTP surface lives in the root package.
type Server struct {
	clientStore storage.ClientStore
	flowStore   storage.FlowStore
	tokenStore  storage.TokenStore
	keys        *keys.Manager

	Auditor                  *security.Auditor
	SecurityEventRateLimiter *security.RateLimiter // limits audit log volume for repeated failures
	Logger                   *slog.Logger
	Config                   *Config

	instrumentation *instrumentation.Instrumentation

	// expiredTokenIssued flips permanently the first time the testing client
	// receives its deliberately expired access token.
	expiredTokenIssued atomic.Bool
}

// New creates a new OAuth server
func New(
	clientStore storage.ClientStore,
	flowStore storage.FlowStore,
	tokenStore storage.TokenStore,
	keyManager *keys.Manager,
	config *Config,
	logger *slog.Logger,
) (*Server, error) {
	if clientStore == nil {
		return nil, fmt.Errorf("client store is required")
	}
	if flowStore == nil {
		return nil, fmt.Errorf("flow store is required")
	}
	if tokenStore == nil {
		return nil, fmt.Errorf("token store is required")
	}
	if keyManager == nil {
		return nil, fmt.Errorf("key manager is required")
	}
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	config = ApplyDefaults(config)

	if config.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if config.ResourceURL == "" {
		return nil, fmt.Errorf("resource URL is required")
	}

	return &Server{
		clientStore: clientStore,
		flowStore:   flowStore,
		tokenStore:  tokenStore,
		keys:        keyManager,
		Config:      config,
		Logger:      logger,
	}, nil
}

// Keys returns the server's signing key manager
func (s *Server) Keys() *keys.Manager {
	return s.keys
}

// SetAuditor sets the security auditor
func (s *Server) SetAuditor(aud *security.Auditor) {
	s.Auditor = aud
}

// SetSecurityEventRateLimiter sets the rate limiter for security event logging.
// This prevents log flooding from repeated authentication failures.
func (s *Server) SetSecurityEventRateLimiter(rl *security.RateLimiter) {
	s.SecurityEventRateLimiter = rl
}

// SetInstrumentation sets OpenTelemetry instrumentation for the server
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.instrumentation = inst
}

// Instrumentation returns the configured instrumentation, or nil
func (s *Server) Instrumentation() *instrumentation.Instrumentation {
	return s.instrumentation
}

// DefaultPresetClients returns the fixed demonstration clients that are
// upserted into the registry on every startup, overwriting any persisted
// copy with the same id.
func DefaultPresetClients() []*storage.Client {
	return []*storage.Client{
		{
			ClientID:                "demo-client",
			ClientSecret:            "demo-secret",
			ClientName:              "Demo Client",
			RedirectURIs:            []string{"http://localhost:6274/oauth/callback"},
			GrantTypes:              []string{"authorization_code", "refresh_token", "client_credentials"},
			ResponseTypes:           []string{"code"},
			TokenEndpointAuthMethod: "client_secret_post",
		},
		{
			ClientID:                "test-refresh-client",
			ClientSecret:            "test-refresh-secret",
			ClientName:              "Refresh Flow Test Client",
			RedirectURIs:            []string{"http://localhost:6274/oauth/callback"},
			GrantTypes:              []string{"authorization_code", "refresh_token", "client_credentials"},
			ResponseTypes:           []string{"code"},
			TokenEndpointAuthMethod: "client_secret_post",
		},
	}
}

// RegisterPreset upserts a fixed client into the registry. It always
// overwrites an existing entry with the same client id.
func (s *Server) RegisterPreset(ctx context.Context, client *storage.Client) error {
	if err := s.clientStore.SaveClient(ctx, client); err != nil {
		return fmt.Errorf("failed to register preset client %s: %w", client.ClientID, err)
	}
	return nil
}

// Authenticate verifies client credentials. Unknown clients and wrong
// secrets produce the same ErrClientAuthentication so callers cannot probe
// for client existence.
func (s *Server) Authenticate(ctx context.Context, clientID, clientSecret, clientIP string) (*storage.Client, error) {
	if err := s.clientStore.ValidateClientSecret(ctx, clientID, clientSecret); err != nil {
		s.auditAuthFailure(ctx, clientID, clientIP, "invalid client credentials")
		return nil, ErrClientAuthentication
	}
	client, err := s.clientStore.GetClient(ctx, clientID)
	if err != nil {
		return nil, ErrClientAuthentication
	}
	return client, nil
}

// auditAuthFailure logs an authentication failure through the auditor,
// subject to the security event rate limiter.
func (s *Server) auditAuthFailure(ctx context.Context, clientID, clientIP, reason string) {
	if s.Auditor == nil {
		return
	}
	if s.SecurityEventRateLimiter != nil && !s.SecurityEventRateLimiter.Allow(clientIP) {
		if s.instrumentation != nil {
			s.instrumentation.Metrics().RecordRateLimitExceeded(ctx, "security_event")
		}
		return
	}
	s.Auditor.LogAuthFailure(clientID, clientIP, reason)
	if s.instrumentation != nil {
		s.instrumentation.Metrics().RecordAuditEvent(ctx, security.EventAuthFailure)
	}
}

// metrics returns the instrumentation metrics, or nil when instrumentation
// is not configured.
func (s *Server) metrics() *instrumentation.Metrics {
	if s.instrumentation == nil {
		return nil
	}
	return s.instrumentation.Metrics()
}

// generateRandomToken generates a cryptographically secure random token.
// This is an alias for oauth2.GenerateVerifier() which produces a URL-safe,
// base64-encoded random string suitable for codes, refresh tokens and
// client credentials.
func generateRandomToken() string {
	return oauth2.GenerateVerifier()
}
