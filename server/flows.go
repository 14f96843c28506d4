package server

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/mcp-authd/internal/util"
	"github.com/giantswarm/mcp-authd/jwt"
	"github.com/giantswarm/mcp-authd/security"
	"github.com/giantswarm/mcp-authd/storage"
)

// Grant type constants (RFC 6749)
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypeClientCredentials = "client_credentials"
)

// TokenResponse is the token endpoint's success body (RFC 6749 §5.1)
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
}

// AuthorizeRequest carries the parameters of a front-channel authorization
// request (GET /authorize).
type AuthorizeRequest struct {
	ClientID            string
	RedirectURI         string
	ResponseType        string
	CodeChallenge       string
	CodeChallengeMethod string
	Scope               string
	State               string
	Resource            string
	ClientIP            string
}

// TokenRequest carries the form parameters of a back-channel token request
// (POST /token). Grant-specific fields are only consulted for their grant.
type TokenRequest struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Code         string
	CodeVerifier string
	RefreshToken string
	Resource     string
	ClientIP     string
}

// Authorize runs the authorization code flow's front-channel step. On success
// it returns the redirect URL carrying the freshly minted code (and state).
//
// Failure routing follows the redirect-URI trust boundary: errors detected
// before the redirect URI is validated come back as *Error and must be shown
// directly; once the URI is trusted, errors come back as *RedirectError and
// must be delivered to the client via redirect.
func (s *Server) Authorize(ctx context.Context, req *AuthorizeRequest) (string, error) {
	client, err := s.clientStore.GetClient(ctx, req.ClientID)
	if err != nil {
		s.auditAuthFailure(ctx, req.ClientID, req.ClientIP, "unknown client on authorize")
		return "", ErrInvalidClient("unknown client")
	}

	redirectURI, err := s.resolveRedirectURI(client, req.RedirectURI)
	if err != nil {
		if s.Auditor != nil {
			s.Auditor.LogEvent(security.Event{
				Type:      security.EventInvalidRedirect,
				ClientID:  req.ClientID,
				IPAddress: req.ClientIP,
				Details:   map[string]any{"redirect_uri": util.SafeTruncate(req.RedirectURI, 256)},
			})
		}
		return "", err
	}

	// The redirect URI is trusted from here on; remaining failures are
	// delivered to it per RFC 6749 §4.1.2.1.
	redirectErr := func(oauthErr *Error) error {
		return &RedirectError{RedirectURI: redirectURI, State: req.State, Err: oauthErr}
	}

	if req.ResponseType != "code" {
		return "", redirectErr(ErrUnsupportedResponseType(
			fmt.Sprintf("unsupported response_type: %s", util.SafeTruncate(req.ResponseType, 64))))
	}

	if req.CodeChallenge == "" {
		return "", redirectErr(ErrInvalidRequest("code_challenge is required"))
	}
	if req.CodeChallengeMethod != PKCEMethodS256 {
		if m := s.metrics(); m != nil {
			m.RecordPKCEValidationFailed(ctx, req.CodeChallengeMethod)
		}
		return "", redirectErr(ErrInvalidRequest(
			fmt.Sprintf("unsupported code_challenge_method: %s (only S256 is supported)",
				util.SafeTruncate(req.CodeChallengeMethod, 64))))
	}

	if err := s.validateResource(ctx, client.ClientID, req.Resource); err != nil {
		return "", redirectErr(err)
	}

	scopes := strings.Fields(req.Scope)
	if len(scopes) == 0 {
		scopes = s.Config.DefaultScopes
	}

	// The stored resource is the configured identifier, not the request's
	// spelling, so the aud claim of every token minted from this code is an
	// exact match for what the protected resource expects.
	now := time.Now()
	code := generateRandomToken()
	authCode := &storage.AuthorizationCode{
		Code:          code,
		ClientID:      client.ClientID,
		RedirectURI:   redirectURI,
		CodeChallenge: req.CodeChallenge,
		Scope:         scopes,
		Resource:      s.Config.ResourceURL,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Duration(s.Config.AuthorizationCodeTTL) * time.Second),
	}
	if err := s.flowStore.SaveAuthorizationCode(ctx, authCode); err != nil {
		s.Logger.Error("Failed to save authorization code", "client_id", client.ClientID, "error", err)
		return "", redirectErr(ErrServerError("failed to store authorization code"))
	}

	if s.Auditor != nil {
		s.Auditor.LogCodeIssued(client.ClientID, req.ClientIP, scopes, authCode.Resource)
	}
	if m := s.metrics(); m != nil {
		m.RecordCodeIssued(ctx, client.ClientID)
	}
	s.Logger.Info("Authorization code issued",
		"client_id", client.ClientID,
		"scope", strings.Join(scopes, " "))

	return buildCodeRedirect(redirectURI, code, req.State), nil
}

// resolveRedirectURI picks the redirect URI for an authorization request.
// A missing URI defaults to the client's single registered URI; a provided
// URI must exactly match one registered entry.
func (s *Server) resolveRedirectURI(client *storage.Client, requested string) (string, error) {
	if requested == "" {
		if len(client.RedirectURIs) == 1 {
			return client.RedirectURIs[0], nil
		}
		return "", ErrInvalidRequest("redirect_uri is required when multiple redirect URIs are registered")
	}
	for _, registered := range client.RedirectURIs {
		if requested == registered {
			return requested, nil
		}
	}
	return "", ErrInvalidRequest("redirect_uri does not match any registered redirect URI")
}

// buildCodeRedirect appends code and state to the redirect URI. The code is
// URL-safe by construction and is not modified further.
func buildCodeRedirect(redirectURI, code, state string) string {
	sep := "?"
	if strings.Contains(redirectURI, "?") {
		sep = "&"
	}
	location := redirectURI + sep + "code=" + code
	if state != "" {
		location += "&state=" + url.QueryEscape(state)
	}
	return location
}

// Token runs the back-channel token endpoint: client authentication, resource
// validation, then the grant-specific branch.
func (s *Server) Token(ctx context.Context, req *TokenRequest) (*TokenResponse, error) {
	client, err := s.Authenticate(ctx, req.ClientID, req.ClientSecret, req.ClientIP)
	if err != nil {
		return nil, err
	}

	if err := s.validateResource(ctx, client.ClientID, req.Resource); err != nil {
		return nil, err
	}

	switch req.GrantType {
	case GrantTypeAuthorizationCode:
		return s.exchangeAuthorizationCode(ctx, client, req)
	case GrantTypeRefreshToken:
		return s.refreshAccessToken(ctx, client, req)
	case GrantTypeClientCredentials:
		return s.clientCredentialsGrant(ctx, client, req)
	default:
		return nil, ErrUnsupportedGrantType(
			fmt.Sprintf("unsupported grant_type: %s", util.SafeTruncate(req.GrantType, 64)))
	}
}

// exchangeAuthorizationCode redeems a one-time authorization code. The code
// is consumed atomically before any further validation, so a failed exchange
// still burns it.
func (s *Server) exchangeAuthorizationCode(ctx context.Context, client *storage.Client, req *TokenRequest) (*TokenResponse, error) {
	if req.Code == "" {
		return nil, ErrInvalidRequest("code is required")
	}

	codeInfo, err := s.flowStore.TakeAuthorizationCode(ctx, req.Code)
	if err != nil {
		return nil, ErrInvalidGrant("authorization code is invalid, expired, or already redeemed")
	}

	if codeInfo.ClientID != client.ClientID {
		s.auditAuthFailure(ctx, client.ClientID, req.ClientIP, "authorization code bound to a different client")
		return nil, ErrInvalidGrant("authorization code was issued to a different client")
	}

	if err := validatePKCE(req.CodeVerifier, codeInfo.CodeChallenge); err != nil {
		if s.Auditor != nil {
			s.Auditor.LogEvent(security.Event{
				Type:      security.EventPKCEValidationFailed,
				ClientID:  client.ClientID,
				IPAddress: req.ClientIP,
				Details:   map[string]any{"reason": err.Error()},
			})
		}
		if m := s.metrics(); m != nil {
			m.RecordPKCEValidationFailed(ctx, PKCEMethodS256)
		}
		return nil, ErrInvalidGrant("PKCE verification failed")
	}

	return s.mintTokens(ctx, client, codeInfo.Scope, codeInfo.Resource, GrantTypeAuthorizationCode, req.ClientIP)
}

// refreshAccessToken rotates a refresh token: the presented token is consumed
// atomically and a brand-new one is minted alongside the access token.
func (s *Server) refreshAccessToken(ctx context.Context, client *storage.Client, req *TokenRequest) (*TokenResponse, error) {
	if req.RefreshToken == "" {
		return nil, ErrInvalidRequest("refresh_token is required")
	}

	tokenInfo, err := s.tokenStore.TakeIssuedToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidGrant("refresh token is invalid or has been rotated")
	}

	if tokenInfo.ClientID != client.ClientID {
		s.auditAuthFailure(ctx, client.ClientID, req.ClientIP, "refresh token bound to a different client")
		return nil, ErrInvalidGrant("refresh token was issued to a different client")
	}

	resp, err := s.mintTokens(ctx, client, tokenInfo.Scopes, tokenInfo.Resource, GrantTypeRefreshToken, req.ClientIP)
	if err != nil {
		return nil, err
	}

	if s.Auditor != nil {
		s.Auditor.LogTokenRefreshed(client.ClientID, req.ClientIP)
	}
	if m := s.metrics(); m != nil {
		m.RecordTokenRefresh(ctx, client.ClientID)
	}
	return resp, nil
}

// clientCredentialsGrant mints a token directly for the authenticated client.
// Any requested scope is ignored; the configured default scopes are granted.
func (s *Server) clientCredentialsGrant(ctx context.Context, client *storage.Client, req *TokenRequest) (*TokenResponse, error) {
	return s.mintTokens(ctx, client, s.Config.DefaultScopes, s.Config.ResourceURL, GrantTypeClientCredentials, req.ClientIP)
}

// mintTokens is the shared minting path for all three grants: it signs a JWT
// access token, generates a fresh opaque refresh token, and records the
// refresh token in the token store.
func (s *Server) mintTokens(ctx context.Context, client *storage.Client, scopes []string, resource, grantType, clientIP string) (*TokenResponse, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(s.Config.AccessTokenTTL) * time.Second)

	// The designated testing client gets an already-expired access token on
	// its first issuance in the process lifetime, so integration tests can
	// exercise the refresh flow deterministically.
	if client.ClientID == s.Config.TestRefreshClientID && s.expiredTokenIssued.CompareAndSwap(false, true) {
		expiresAt = now.Add(-1 * time.Hour)
		s.Logger.Info("Issuing deliberately expired access token for refresh flow testing",
			"client_id", client.ClientID)
	}

	claims := &jwt.Claims{
		Issuer:   s.Config.Issuer,
		Subject:  client.ClientID,
		Name:     client.ClientName,
		Audience: resource,
		ClientID: client.ClientID,
		JWTID:    uuid.NewString(),
		IssuedAt: now.Unix(),
		Expiry:   expiresAt.Unix(),
	}
	claims.SetScopes(scopes)

	signer, err := s.keys.Signer()
	if err != nil {
		s.Logger.Error("Failed to create token signer", "error", err)
		return nil, ErrServerError("failed to sign access token")
	}
	accessToken, err := jwt.Encode(signer, claims)
	if err != nil {
		s.Logger.Error("Failed to encode access token", "error", err)
		return nil, ErrServerError("failed to sign access token")
	}

	refreshToken := generateRandomToken()
	issued := &storage.IssuedToken{
		ClientID:  client.ClientID,
		Scopes:    scopes,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		Resource:  resource,
		JWTID:     claims.JWTID,
	}
	if err := s.tokenStore.SaveIssuedToken(ctx, refreshToken, issued); err != nil {
		s.Logger.Error("Failed to save issued token", "client_id", client.ClientID, "error", err)
		return nil, ErrServerError("failed to store refresh token")
	}

	if s.Auditor != nil {
		s.Auditor.LogTokenIssued(client.ClientID, clientIP, grantType, scopes)
	}
	if m := s.metrics(); m != nil {
		m.RecordTokenIssued(ctx, client.ClientID, grantType)
	}
	s.Logger.Info("Access token issued",
		"client_id", client.ClientID,
		"grant_type", grantType,
		"jti", claims.JWTID,
		"expires_in", int64(time.Until(expiresAt).Seconds()))

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresAt.Unix() - now.Unix(),
		Scope:        strings.Join(scopes, " "),
	}, nil
}

// validateResource enforces resource indicator matching (RFC 8707): the
// requested resource must identify the one protected resource this server
// issues tokens for. Comparison tolerates a trailing slash but nothing else;
// issued artifacts always carry Config.ResourceURL verbatim, never the
// request's spelling.
func (s *Server) validateResource(ctx context.Context, clientID, resource string) *Error {
	if resource == "" {
		if m := s.metrics(); m != nil {
			m.RecordAudienceRejected(ctx, clientID)
		}
		return ErrInvalidTarget("resource parameter is required")
	}
	if util.NormalizeURL(resource) != util.NormalizeURL(s.Config.ResourceURL) {
		if s.Auditor != nil {
			s.Auditor.LogEvent(security.Event{
				Type:     security.EventResourceMismatch,
				ClientID: clientID,
				Details:  map[string]any{"resource": util.SafeTruncate(resource, 256)},
			})
		}
		if m := s.metrics(); m != nil {
			m.RecordAudienceRejected(ctx, clientID)
		}
		return ErrInvalidTarget(
			fmt.Sprintf("unknown resource: %s", util.SafeTruncate(resource, 256)))
	}
	return nil
}
