// Package keys manages the server's RSA signing key material.
//
// The Manager loads a PKCS#1 PEM-encoded private key from disk, generating
// and persisting a new 2048-bit key on first run. It produces the RS256
// signer used for access token minting and the public JSONWebKeySet served
// at the JWKS endpoint. The key ID is regenerated per process; resource
// servers discover the current key through the JWKS rather than pinning a
// kid.
package keys
