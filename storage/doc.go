// Package storage provides interfaces and types for OAuth client, code, and
// token persistence.
//
// The storage package defines the core storage interfaces used throughout the
// mcp-authd library:
//   - ClientStore: Manages registered OAuth clients
//   - FlowStore: Manages one-time authorization codes
//   - TokenStore: Manages issued refresh tokens
//
// Access tokens are self-contained JWTs and are never stored; only the opaque
// refresh token minted alongside each access token is tracked, so rotation can
// enforce one-time use.
//
// Implementations are provided in subpackages:
//   - storage/memory: In-memory storage with an optional file-backed client registry
package storage
