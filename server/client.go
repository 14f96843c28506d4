package server

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/giantswarm/mcp-authd/security"
	"github.com/giantswarm/mcp-authd/storage"
)

// ClientRegistrationRequest is the dynamic client registration request body
// (RFC 7591). Only redirect URIs and an optional display name are honored;
// all other client metadata is fixed by this server.
type ClientRegistrationRequest struct {
	RedirectURIs []string `json:"redirect_uris"`
	ClientName   string   `json:"client_name,omitempty"`
}

// ClientRegistrationResponse is the dynamic client registration response body
// (RFC 7591 §3.2.1).
type ClientRegistrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret"`
	ClientIDIssuedAt        int64    `json:"client_id_issued_at"`
	ClientName              string   `json:"client_name,omitempty"`
	RedirectURIs            []string `json:"redirect_uris"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// RegisterClient handles dynamic client registration: it validates the
// redirect URIs, generates fresh credentials, and persists the new client.
// The registered metadata beyond redirect URIs is fixed.
func (s *Server) RegisterClient(ctx context.Context, req *ClientRegistrationRequest, clientIP string) (*ClientRegistrationResponse, error) {
	if err := s.validateRegistrationRedirectURIs(req.RedirectURIs); err != nil {
		if s.Auditor != nil {
			s.Auditor.LogEvent(security.Event{
				Type:      security.EventInvalidRedirect,
				IPAddress: clientIP,
				Details:   map[string]any{"reason": err.Description},
			})
		}
		return nil, err
	}

	now := time.Now()
	client := &storage.Client{
		ClientID:                uuid.NewString(),
		ClientSecret:            generateRandomToken(),
		ClientName:              req.ClientName,
		RedirectURIs:            req.RedirectURIs,
		GrantTypes:              []string{GrantTypeAuthorizationCode, GrantTypeRefreshToken},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: "client_secret_post",
		CreatedAt:               now,
	}

	if err := s.clientStore.SaveClient(ctx, client); err != nil {
		s.Logger.Error("Failed to save registered client", "error", err)
		return nil, ErrServerError("failed to persist client registration")
	}

	if s.Auditor != nil {
		s.Auditor.LogClientRegistered(client.ClientID, client.ClientName, clientIP)
	}
	if m := s.metrics(); m != nil {
		m.RecordClientRegistration(ctx)
	}
	s.Logger.Info("Client registered",
		"client_id", client.ClientID,
		"redirect_uris", len(client.RedirectURIs))

	return &ClientRegistrationResponse{
		ClientID:                client.ClientID,
		ClientSecret:            client.ClientSecret,
		ClientIDIssuedAt:        now.Unix(),
		ClientName:              client.ClientName,
		RedirectURIs:            client.RedirectURIs,
		GrantTypes:              client.GrantTypes,
		ResponseTypes:           client.ResponseTypes,
		TokenEndpointAuthMethod: client.TokenEndpointAuthMethod,
	}, nil
}
