package authd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/mcp-authd/instrumentation"
	"github.com/giantswarm/mcp-authd/security"
	"github.com/giantswarm/mcp-authd/server"
)

const (
	// maxRegistrationBodySize bounds the dynamic registration request body
	maxRegistrationBodySize = 1 << 20 // 1 MiB

	// Well-known discovery paths
	pathAuthServerMetadata = "/.well-known/oauth-authorization-server"
	pathOpenIDConfig       = "/.well-known/openid-configuration"
	pathJWKS               = "/.well-known/jwks.json"
)

// Handler is a thin HTTP adapter for the OAuth server.
// It parses requests, delegates to the server package for protocol logic,
// and renders OAuth-standard responses.
type Handler struct {
	server          *server.Server
	logger          *slog.Logger
	tracer          trace.Tracer // OpenTelemetry tracer for the HTTP layer
	instrumentation *instrumentation.Instrumentation
}

// NewHandler creates a new HTTP handler
func NewHandler(srv *server.Server, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		server: srv,
		logger: logger,
	}
	h.setInstrumentation(srv.Instrumentation())
	return h
}

func (h *Handler) setInstrumentation(inst *instrumentation.Instrumentation) {
	h.instrumentation = inst
	if inst != nil {
		h.tracer = inst.Tracer("http")
	} else {
		h.tracer = nil
	}
}

// Routes registers all endpoints on the given mux. Every route carries the
// request-ID middleware so log lines can be correlated per request.
func (h *Handler) Routes(mux *http.ServeMux) {
	register := func(pattern string, handlerFn http.HandlerFunc) {
		mux.Handle(pattern, security.RequestIDMiddleware(handlerFn))
	}

	register(pathAuthServerMetadata, h.ServeAuthorizationServerMetadata)
	register(pathOpenIDConfig, h.ServeAuthorizationServerMetadata)
	register(pathJWKS, h.ServeJWKS)
	register("/authorize", h.ServeAuthorization)
	register("/token", h.ServeToken)
	register("/introspect", h.ServeIntrospection)
	register("/register", h.ServeRegistration)
}

// ==================== Discovery endpoints ====================

// ServeAuthorizationServerMetadata serves RFC 8414 authorization server
// metadata. The same document is served for the OpenID configuration path.
func (h *Handler) ServeAuthorizationServerMetadata(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, "metadata", r.Method, startTime)
		return
	}

	h.writeJSON(w, http.StatusOK, h.buildMetadata())
	h.recordHTTPMetrics("metadata", r.Method, http.StatusOK, startTime)
}

// buildMetadata assembles the discovery document from the configuration
func (h *Handler) buildMetadata() *AuthorizationServerMetadata {
	issuer := strings.TrimRight(h.server.Config.Issuer, "/")
	return &AuthorizationServerMetadata{
		Issuer:                issuer,
		AuthorizationEndpoint: issuer + "/authorize",
		TokenEndpoint:         issuer + "/token",
		JWKSURI:               issuer + pathJWKS,
		IntrospectionEndpoint: issuer + "/introspect",
		RegistrationEndpoint:  issuer + "/register",
		ScopesSupported:       h.server.Config.DefaultScopes,
		ResponseTypesSupported: []string{"code"},
		GrantTypesSupported: []string{
			server.GrantTypeAuthorizationCode,
			server.GrantTypeRefreshToken,
			server.GrantTypeClientCredentials,
		},
		TokenEndpointAuthMethodsSupported: []string{"client_secret_post"},
		CodeChallengeMethodsSupported:     []string{server.PKCEMethodS256},
		IDTokenSigningAlgValuesSupported:  []string{"RS256"},
		SubjectTypesSupported:             []string{"public"},
	}
}

// ServeJWKS serves the verification key set for issued tokens
func (h *Handler) ServeJWKS(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, "jwks", r.Method, startTime)
		return
	}

	h.writeJSON(w, http.StatusOK, h.server.Keys().JWKS())
	h.recordHTTPMetrics("jwks", r.Method, http.StatusOK, startTime)
}

// ==================== Authorization endpoint ====================

// ServeAuthorization handles the front channel of the authorization code
// flow (GET /authorize). Success and post-validation failures both answer
// with a 302 to the client's redirect URI; early failures answer directly.
func (h *Handler) ServeAuthorization(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "oauth.http.authorize")
		defer span.End()
	}
	span := trace.SpanFromContext(ctx)

	if r.Method != http.MethodGet {
		h.methodNotAllowed(w, "authorization", r.Method, startTime)
		return
	}

	query := r.URL.Query()
	req := &server.AuthorizeRequest{
		ClientID:            query.Get("client_id"),
		RedirectURI:         query.Get("redirect_uri"),
		ResponseType:        query.Get("response_type"),
		CodeChallenge:       query.Get("code_challenge"),
		CodeChallengeMethod: query.Get("code_challenge_method"),
		Scope:               query.Get("scope"),
		State:               query.Get("state"),
		Resource:            query.Get("resource"),
		ClientIP:            h.clientIP(r),
	}
	instrumentation.AddOAuthFlowAttributes(span, req.ClientID, req.Scope, req.Resource)

	location, err := h.server.Authorize(ctx, req)
	if err != nil {
		var redirectErr *server.RedirectError
		if errors.As(err, &redirectErr) {
			instrumentation.SetSpanError(span, redirectErr.Err.Code)
			h.recordHTTPMetrics("authorization", r.Method, http.StatusFound, startTime)
			http.Redirect(w, r, redirectErr.Location(), http.StatusFound)
			return
		}
		status := h.writeOAuthError(ctx, w, err)
		instrumentation.RecordError(span, err)
		h.recordHTTPMetrics("authorization", r.Method, status, startTime)
		return
	}

	instrumentation.SetSpanSuccess(span)
	h.recordHTTPMetrics("authorization", r.Method, http.StatusFound, startTime)
	http.Redirect(w, r, location, http.StatusFound)
}

// ==================== Token endpoint ====================

// ServeToken handles the back channel (POST /token) for all three grant
// types. Client authentication failures answer with a bare 401; protocol
// failures answer with an OAuth error body.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "oauth.http.token")
		defer span.End()
	}
	span := trace.SpanFromContext(ctx)

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, "token", r.Method, startTime)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeError(w, ErrorCodeInvalidRequest, "malformed form body", http.StatusBadRequest)
		h.recordHTTPMetrics("token", r.Method, http.StatusBadRequest, startTime)
		return
	}

	req := &server.TokenRequest{
		GrantType:    r.PostFormValue("grant_type"),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		Code:         r.PostFormValue("code"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		Resource:     r.PostFormValue("resource"),
		ClientIP:     h.clientIP(r),
	}
	instrumentation.SetSpanAttributes(span,
		attribute.String(instrumentation.AttrClientID, req.ClientID),
		attribute.String(instrumentation.AttrGrantType, req.GrantType))

	resp, err := h.server.Token(ctx, req)
	if err != nil {
		if errors.Is(err, server.ErrClientAuthentication) {
			instrumentation.SetSpanError(span, "client authentication failed")
			h.recordHTTPMetrics("token", r.Method, http.StatusUnauthorized, startTime)
			security.SetSecurityHeaders(w, h.server.Config.Issuer)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		status := h.writeOAuthError(ctx, w, err)
		instrumentation.RecordError(span, err)
		h.recordHTTPMetrics("token", r.Method, status, startTime)
		return
	}

	instrumentation.SetSpanSuccess(span)
	instrumentation.SetSpanAttributes(span,
		attribute.Int64(instrumentation.AttrExpiresIn, resp.ExpiresIn))
	h.writeJSON(w, http.StatusOK, resp)
	h.recordHTTPMetrics("token", r.Method, http.StatusOK, startTime)
}

// ==================== Introspection endpoint ====================

// ServeIntrospection handles POST /introspect. Only opaque refresh tokens
// are recognized; anything else comes back inactive with a 200.
func (h *Handler) ServeIntrospection(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "oauth.http.introspect")
		defer span.End()
	}
	span := trace.SpanFromContext(ctx)

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, "introspection", r.Method, startTime)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.writeError(w, ErrorCodeInvalidRequest, "malformed form body", http.StatusBadRequest)
		h.recordHTTPMetrics("introspection", r.Method, http.StatusBadRequest, startTime)
		return
	}

	resp, err := h.server.Introspect(ctx, r.PostFormValue("token"), h.clientIP(r))
	if err != nil {
		status := h.writeOAuthError(ctx, w, err)
		instrumentation.RecordError(span, err)
		h.recordHTTPMetrics("introspection", r.Method, status, startTime)
		return
	}

	instrumentation.SetSpanSuccess(span)
	instrumentation.SetSpanAttributes(span,
		attribute.Bool(instrumentation.AttrTokenActive, resp.Active))
	h.writeJSON(w, http.StatusOK, resp)
	h.recordHTTPMetrics("introspection", r.Method, http.StatusOK, startTime)
}

// ==================== Registration endpoint ====================

// ServeRegistration handles dynamic client registration (POST /register)
func (h *Handler) ServeRegistration(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()
	if h.tracer != nil {
		var span trace.Span
		ctx, span = h.tracer.Start(ctx, "oauth.http.register")
		defer span.End()
	}
	span := trace.SpanFromContext(ctx)

	if r.Method != http.MethodPost {
		h.methodNotAllowed(w, "register", r.Method, startTime)
		return
	}

	var req server.ClientRegistrationRequest
	body := http.MaxBytesReader(w, r.Body, maxRegistrationBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		h.writeError(w, ErrorCodeInvalidRequest, "malformed registration request body", http.StatusBadRequest)
		h.recordHTTPMetrics("register", r.Method, http.StatusBadRequest, startTime)
		return
	}

	resp, err := h.server.RegisterClient(ctx, &req, h.clientIP(r))
	if err != nil {
		status := h.writeOAuthError(ctx, w, err)
		instrumentation.RecordError(span, err)
		h.recordHTTPMetrics("register", r.Method, status, startTime)
		return
	}

	instrumentation.SetSpanSuccess(span)
	instrumentation.SetSpanAttributes(span,
		attribute.String(instrumentation.AttrClientID, resp.ClientID))
	h.writeJSON(w, http.StatusCreated, resp)
	h.recordHTTPMetrics("register", r.Method, http.StatusCreated, startTime)
}

// ==================== Response helpers ====================

// clientIP extracts the caller's IP, honoring proxy headers only when the
// configuration says the proxy chain is trusted.
func (h *Handler) clientIP(r *http.Request) string {
	return security.GetClientIP(r, h.server.Config.TrustProxy, h.server.Config.TrustedProxyCount)
}

// writeJSON writes a JSON response with security headers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	security.SetSecurityHeaders(w, h.server.Config.Issuer)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an OAuth-standard error body
func (h *Handler) writeError(w http.ResponseWriter, code, description string, status int) {
	security.SetSecurityHeaders(w, h.server.Config.Issuer)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(&ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeOAuthError renders a protocol-layer error and returns the HTTP status
// it answered with. Unexpected error types are masked as server_error; the
// logged request ID lets the masked detail be found in the logs.
func (h *Handler) writeOAuthError(ctx context.Context, w http.ResponseWriter, err error) int {
	var oauthErr *server.Error
	if errors.As(err, &oauthErr) {
		h.writeError(w, oauthErr.Code, oauthErr.Description, oauthErr.Status)
		return oauthErr.Status
	}

	h.logger.Error("Unexpected error from protocol layer",
		"error", err,
		"request_id", security.GetRequestID(ctx))
	h.writeError(w, ErrorCodeServerError, "internal server error", http.StatusInternalServerError)
	return http.StatusInternalServerError
}

// methodNotAllowed answers a request with the wrong HTTP method
func (h *Handler) methodNotAllowed(w http.ResponseWriter, endpoint, method string, startTime time.Time) {
	h.writeError(w, ErrorCodeInvalidRequest,
		fmt.Sprintf("method %s not allowed", method), http.StatusMethodNotAllowed)
	h.recordHTTPMetrics(endpoint, method, http.StatusMethodNotAllowed, startTime)
}

// recordHTTPMetrics records HTTP request metrics (total count and duration)
func (h *Handler) recordHTTPMetrics(endpoint, method string, status int, startTime time.Time) {
	if h.instrumentation == nil {
		return
	}
	durationMs := time.Since(startTime).Seconds() * 1000
	h.instrumentation.Metrics().RecordHTTPRequest(context.Background(), method, endpoint, status, durationMs)
}
