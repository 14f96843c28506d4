package jwt

import (
	"fmt"
	"strings"
	"time"

	jose "gopkg.in/square/go-jose.v2"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

// Claims is the access token claim set minted by the server.
//
// aud is a single string, not an array: each token is bound to exactly one
// resource. iat and exp are Unix seconds. scope is the space-delimited form
// required by RFC 8693 interoperability.
type Claims struct {
	Issuer   string `json:"iss"`
	Subject  string `json:"sub"`
	Name     string `json:"name,omitempty"`
	Audience string `json:"aud"`
	ClientID string `json:"client_id"`
	JWTID    string `json:"jti"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
	Scope    string `json:"scope,omitempty"`
}

// SetScopes sets the scope claim from a scope list.
func (c *Claims) SetScopes(scopes []string) {
	c.Scope = strings.Join(scopes, " ")
}

// Scopes returns the scope claim split back into a list.
func (c *Claims) Scopes() []string {
	if c.Scope == "" {
		return nil
	}
	return strings.Fields(c.Scope)
}

// Expired reports whether the token's exp claim is in the past.
func (c *Claims) Expired(now time.Time) bool {
	return now.Unix() >= c.Expiry
}

// Encode signs the claims into a compact-serialized JWT.
func Encode(signer jose.Signer, claims *Claims) (string, error) {
	token, err := josejwt.Signed(signer).Claims(claims).CompactSerialize()
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Decode verifies the compact JWT's signature against the key set and
// returns its claims. Expiry is NOT checked here; callers decide whether an
// expired token is acceptable for their operation.
func Decode(jwks *jose.JSONWebKeySet, raw string) (*Claims, error) {
	token, err := josejwt.ParseSigned(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	var claims Claims
	if err := token.Claims(jwks, &claims); err != nil {
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}

	return &claims, nil
}
