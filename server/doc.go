// Package server implements the core OAuth 2.0 authorization server logic.
//
// This package provides the protocol state machine behind the HTTP surface:
// the authorization code flow with mandatory PKCE (S256), the token endpoint
// with its three grant types, refresh token rotation, dynamic client
// registration, and refresh-token introspection. It coordinates between the
// storage backends, the signing key manager, and the security features.
//
// The Server type delegates to specialized modules:
//   - Client, code, and refresh-token storage (storage package)
//   - RSA signing key management and JWKS publication (keys package)
//   - Access token encoding (jwt package)
//   - Security auditing (security package)
//
// Key features:
//   - Authorization codes bound to client, PKCE challenge, scope, and resource
//   - One-time code redemption and refresh token rotation, atomic under
//     concurrent access
//   - Resource indicator enforcement (RFC 8707)
//   - Dynamic client registration (RFC 7591)
//   - Security auditing with hashed identifiers
//
// Example usage:
//
//	store := memory.NewWithRegistry("clients.json")
//	keyManager, err := keys.NewManager("signing_key.pem", logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	config := &server.Config{
//	    Issuer:      "https://auth.example.com",
//	    ResourceURL: "https://mcp.example.com",
//	}
//
//	srv, err := server.New(store, store, store, keyManager, config, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
package server
