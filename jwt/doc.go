// Package jwt encodes and decodes the server's RS256 access tokens.
//
// It wraps go-jose with the fixed claim shape this server mints: issuer,
// subject, display name, a single-string audience, client_id, jti, Unix
// iat/exp, and a space-delimited scope string. Decode verifies signatures
// against a JSONWebKeySet but deliberately leaves expiry to the caller, so
// introspection can report exp for tokens that have already lapsed.
package jwt
