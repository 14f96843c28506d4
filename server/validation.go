package server

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net"
	"net/url"

	"github.com/giantswarm/mcp-authd/internal/helpers"
)

// PKCE validation constants (RFC 7636)
const (
	MinCodeVerifierLength = 43
	MaxCodeVerifierLength = 128
	PKCEMethodS256        = "S256"
)

// validatePKCE verifies a code_verifier against the stored S256
// code_challenge: SHA-256 over the verifier, base64url-encoded without
// padding, compared in constant time (RFC 7636 §4.6).
func validatePKCE(codeVerifier, codeChallenge string) error {
	if codeVerifier == "" {
		return fmt.Errorf("code_verifier is required")
	}
	if len(codeVerifier) < MinCodeVerifierLength || len(codeVerifier) > MaxCodeVerifierLength {
		return fmt.Errorf("code_verifier length must be between %d and %d characters",
			MinCodeVerifierLength, MaxCodeVerifierLength)
	}
	if !isValidCodeVerifierCharset(codeVerifier) {
		return fmt.Errorf("code_verifier contains invalid characters")
	}

	hash := sha256.Sum256([]byte(codeVerifier))
	computed := base64.RawURLEncoding.EncodeToString(hash[:])

	if subtle.ConstantTimeCompare([]byte(computed), []byte(codeChallenge)) != 1 {
		return fmt.Errorf("code_verifier does not match code_challenge")
	}
	return nil
}

// isValidCodeVerifierCharset checks the unreserved character set allowed by
// RFC 7636 §4.1: ALPHA / DIGIT / "-" / "." / "_" / "~".
func isValidCodeVerifierCharset(verifier string) bool {
	for _, c := range verifier {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '.' || c == '_' || c == '~':
		default:
			return false
		}
	}
	return true
}

// validateRegistrationRedirectURIs checks the redirect URIs supplied during
// dynamic client registration: at least one URI, each an absolute http or
// https URI. Plain http is accepted but logged unless it targets a loopback
// host, since it is only sensible for local development.
func (s *Server) validateRegistrationRedirectURIs(uris []string) *Error {
	if len(uris) == 0 {
		return ErrInvalidRedirectURI("at least one redirect URI is required")
	}
	for _, raw := range uris {
		parsed, err := url.Parse(raw)
		if err != nil {
			return ErrInvalidRedirectURI(fmt.Sprintf("malformed redirect URI: %s", raw))
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return ErrInvalidRedirectURI(fmt.Sprintf("redirect URI must be absolute: %s", raw))
		}
		switch parsed.Scheme {
		case "https":
		case "http":
			if host := parsed.Hostname(); !helpers.IsLoopbackHostname(host) {
				s.Logger.Warn("Registering non-loopback http redirect URI",
					"redirect_uri", raw,
					"host", host,
					"private_address", isPrivateAddress(host))
			}
		default:
			return ErrInvalidRedirectURI(
				fmt.Sprintf("unsupported redirect URI scheme: %s", parsed.Scheme))
		}
	}
	return nil
}

// isPrivateAddress reports whether a hostname is an IP literal in
// non-public address space. Hostnames that are not IP literals report false;
// no DNS resolution is attempted.
func isPrivateAddress(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && helpers.IsPrivateOrInternal(ip)
}
