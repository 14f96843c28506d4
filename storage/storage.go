// Package storage defines interfaces for persisting OAuth clients,
// authorization codes, and issued refresh tokens. It supports various backend
// implementations; the in-memory backend with optional file persistence lives
// in storage/memory.
package storage

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by store implementations.
var (
	// ErrClientNotFound indicates the client ID is not registered
	ErrClientNotFound = errors.New("client not found")

	// ErrInvalidClientSecret indicates the client secret does not match
	ErrInvalidClientSecret = errors.New("invalid client secret")

	// ErrCodeNotFound indicates the authorization code does not exist,
	// has expired, or was already consumed
	ErrCodeNotFound = errors.New("authorization code not found")

	// ErrTokenNotFound indicates the refresh token does not exist or was
	// already consumed
	ErrTokenNotFound = errors.New("refresh token not found")
)

// ClientStore defines the interface for managing OAuth client registrations.
// All methods accept context.Context for tracing and cancellation.
type ClientStore interface {
	// SaveClient saves a registered client, overwriting any existing entry
	// with the same client ID
	SaveClient(ctx context.Context, client *Client) error

	// GetClient retrieves a client by ID
	GetClient(ctx context.Context, clientID string) (*Client, error)

	// ValidateClientSecret validates a client's secret.
	// Unknown client and wrong secret are deliberately indistinguishable
	// to callers, to avoid a client-existence oracle.
	ValidateClientSecret(ctx context.Context, clientID, clientSecret string) error

	// ListClients lists all registered clients (for admin purposes)
	ListClients(ctx context.Context) ([]*Client, error)
}

// FlowStore defines the interface for managing issued authorization codes.
// All methods accept context.Context for tracing and cancellation.
type FlowStore interface {
	// SaveAuthorizationCode saves an issued authorization code
	SaveAuthorizationCode(ctx context.Context, code *AuthorizationCode) error

	// TakeAuthorizationCode atomically retrieves and deletes an
	// authorization code. An expired code is treated as absent.
	//
	// SECURITY: This operation MUST be atomic. Two concurrent exchange
	// attempts for the same code must result in exactly one success;
	// the loser gets ErrCodeNotFound.
	TakeAuthorizationCode(ctx context.Context, code string) (*AuthorizationCode, error)
}

// TokenStore defines the interface for tracking issued refresh tokens.
// Access tokens are self-contained JWTs and are never stored.
// All methods accept context.Context for tracing and cancellation.
type TokenStore interface {
	// SaveIssuedToken records the refresh token minted alongside an
	// access token, keyed by the opaque refresh-token string
	SaveIssuedToken(ctx context.Context, refreshToken string, token *IssuedToken) error

	// GetIssuedToken retrieves an issued token without consuming it.
	// Used by introspection; checking expiry is the caller's concern.
	GetIssuedToken(ctx context.Context, refreshToken string) (*IssuedToken, error)

	// TakeIssuedToken atomically retrieves and deletes a refresh token.
	//
	// SECURITY: This operation MUST be atomic to guarantee one-time use
	// under concurrent redemption (refresh token rotation).
	TakeIssuedToken(ctx context.Context, refreshToken string) (*IssuedToken, error)
}

// Client represents a registered OAuth client. The JSON tags define the
// persisted registry file format (a JSON object mapping client ID to record).
type Client struct {
	ClientID                string    `json:"client_id"`
	ClientSecret            string    `json:"client_secret"`
	ClientName              string    `json:"client_name,omitempty"`
	RedirectURIs            []string  `json:"redirect_uris"`
	GrantTypes              []string  `json:"grant_types,omitempty"`
	ResponseTypes           []string  `json:"response_types,omitempty"`
	TokenEndpointAuthMethod string    `json:"token_endpoint_auth_method,omitempty"`
	CreatedAt               time.Time `json:"created_at"`
}

// AuthorizationCode represents a one-time authorization code bound to a PKCE
// challenge, target audience, and scope.
type AuthorizationCode struct {
	Code          string
	ClientID      string
	RedirectURI   string
	CodeChallenge string // S256 challenge, base64url without padding
	Scope         []string
	Resource      string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// IssuedToken is the server-side record of a minted token pair, keyed by the
// opaque refresh-token string. ExpiresAt is the paired access token's expiry;
// the refresh token itself does not expire, it is consumed by rotation.
type IssuedToken struct {
	ClientID  string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Resource  string
	JWTID     string
}
