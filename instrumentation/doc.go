// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for the mcp-authd library.
//
// This package enables observability across all library layers through:
// - Metrics: Counters, histograms, and gauges for monitoring OAuth operations
// - Traces: Distributed tracing for request flows across components
//
// # Quick Start
//
// Enable basic instrumentation:
//
//	import "github.com/giantswarm/mcp-authd/instrumentation"
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "my-auth-service",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
//	// Pass to server configuration
//	server.SetInstrumentation(inst)
//
// # Available Metrics
//
// HTTP Layer:
//   - oauth.http.requests.total{method, endpoint, status} - Total HTTP requests
//   - oauth.http.request.duration{endpoint} - Request duration in milliseconds
//
// OAuth Flows:
//   - oauth.code.issued{client_id} - Authorization codes issued
//   - oauth.token.issued{client_id, grant_type} - Access tokens minted
//   - oauth.token.refreshed{client_id} - Refresh token rotations
//   - oauth.client.registered - Dynamic client registrations
//   - oauth.introspection.total{active} - Introspection requests
//
// Security:
//   - oauth.pkce.validation_failed{method} - PKCE validation failures
//   - oauth.audience.rejected{client_id} - Rejected resource audiences
//   - oauth.rate_limit.exceeded{limiter_type} - Rate limit violations
//   - oauth.audit.events.total{event_type} - Audit events
//
// Storage:
//   - storage.operation.total{operation, result} - Storage operations
//   - storage.operation.duration{operation} - Operation duration in milliseconds
//   - storage.clients.count - Registered clients
//   - storage.codes.count - Outstanding authorization codes
//   - storage.tokens.count - Outstanding refresh tokens
//
// # Distributed Tracing
//
// Spans are created for all major operations:
//   - HTTP requests (one span per endpoint)
//   - OAuth flows (authorize, token exchange, refresh, introspection, registration)
//   - Storage operations (save, get, take)
//
// Example span structure:
//
//	oauth.http.token
//	└── oauth.server.exchange_code
//	    ├── storage.take_authorization_code
//	    └── storage.save_issued_token
//
// # Performance
//
// When instrumentation is not configured or disabled:
//   - Zero overhead (uses no-op providers)
//   - No allocations or latency impact
//
// # Thread Safety
//
// All instrumentation operations are thread-safe and can be called
// concurrently from multiple goroutines.
//
// # Security Considerations
//
// IMPORTANT: This package is designed to collect observability data, not
// sensitive credentials.
//
// When instrumenting OAuth flows, you MUST:
//   - NEVER log actual token values (access tokens, refresh tokens, authorization codes)
//   - NEVER log client secrets or PKCE verifiers
//   - ONLY log metadata (token types, expiry times, validation results)
//
// Data collected in traces and metrics may be persisted for extended periods
// in observability backends and accessible to wider audiences than production
// systems. Configure appropriate retention policies and access controls.
package instrumentation
