package server

import (
	"context"
	"strings"
	"time"
)

// IntrospectionResponse is the token introspection response body
// (RFC 7662 §2.2). Claim fields are only populated when Active is true.
type IntrospectionResponse struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
	Aud      string `json:"aud,omitempty"`
}

// Introspect reports the status of an opaque refresh token. It only consults
// the refresh-token store; JWT access tokens are self-contained and are not
// recognized here. Lookups do not consume the token. An unknown token and an
// expired one both come back inactive, indistinguishable from each other.
func (s *Server) Introspect(ctx context.Context, token, clientIP string) (*IntrospectionResponse, error) {
	if token == "" {
		return nil, ErrInvalidRequest("token is required")
	}

	tokenInfo, err := s.tokenStore.GetIssuedToken(ctx, token)
	if err != nil {
		if s.Auditor != nil {
			s.Auditor.LogIntrospection("", clientIP, false)
		}
		if m := s.metrics(); m != nil {
			m.RecordIntrospection(ctx, false)
		}
		return &IntrospectionResponse{Active: false}, nil
	}

	active := time.Now().Before(tokenInfo.ExpiresAt)
	if s.Auditor != nil {
		s.Auditor.LogIntrospection(tokenInfo.ClientID, clientIP, active)
	}
	if m := s.metrics(); m != nil {
		m.RecordIntrospection(ctx, active)
	}

	if !active {
		return &IntrospectionResponse{Active: false}, nil
	}
	return &IntrospectionResponse{
		Active:   true,
		ClientID: tokenInfo.ClientID,
		Scope:    strings.Join(tokenInfo.Scopes, " "),
		Exp:      tokenInfo.ExpiresAt.Unix(),
		Aud:      tokenInfo.Resource,
	}, nil
}
