// Package security provides security-related functionality for the OAuth
// server, including audit logging, rate limiting, request ID propagation,
// client IP extraction, and secure response headers.
//
// # Audit Logging
//
// The Auditor emits structured slog events for security-relevant operations
// (code issuance, token minting, rotation, auth failures, registration,
// introspection). Client IP addresses are hashed before logging.
//
// # Rate Limiting
//
// The RateLimiter provides per-identifier rate limiting using a token bucket
// algorithm with automatic memory management through LRU (Least Recently
// Used) eviction. The server uses it to bound the volume of security-event
// log lines a single source can generate, not to throttle OAuth traffic.
//
// Example usage:
//
//	limiter := security.NewRateLimiter(10, 20, logger)
//	defer limiter.Stop()
//
//	if limiter.Allow(clientIP) {
//	    auditor.LogAuthFailure(clientID, clientIP, "invalid client secret")
//	}
package security
