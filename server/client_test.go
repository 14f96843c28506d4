package server

import (
	"context"
	"errors"
	"testing"
)

func TestServer_RegisterClient(t *testing.T) {
	srv := setupFlowTestServer(t)
	ctx := context.Background()

	resp, err := srv.RegisterClient(ctx, &ClientRegistrationRequest{
		RedirectURIs: []string{"https://app.example.com/callback"},
		ClientName:   "My App",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}

	if resp.ClientID == "" || resp.ClientSecret == "" {
		t.Fatal("registration response missing credentials")
	}
	if resp.ClientIDIssuedAt == 0 {
		t.Error("client_id_issued_at not set")
	}
	if resp.ClientName != "My App" {
		t.Errorf("client_name = %q, want My App", resp.ClientName)
	}
	if len(resp.GrantTypes) != 2 || resp.GrantTypes[0] != GrantTypeAuthorizationCode || resp.GrantTypes[1] != GrantTypeRefreshToken {
		t.Errorf("grant_types = %v", resp.GrantTypes)
	}
	if len(resp.ResponseTypes) != 1 || resp.ResponseTypes[0] != "code" {
		t.Errorf("response_types = %v", resp.ResponseTypes)
	}
	if resp.TokenEndpointAuthMethod != "client_secret_post" {
		t.Errorf("token_endpoint_auth_method = %q", resp.TokenEndpointAuthMethod)
	}

	// The new credentials must authenticate on the token endpoint.
	if _, err := srv.Authenticate(ctx, resp.ClientID, resp.ClientSecret, ""); err != nil {
		t.Errorf("Authenticate() with registered credentials error = %v", err)
	}
}

func TestServer_RegisterClient_UniqueCredentials(t *testing.T) {
	srv := setupFlowTestServer(t)
	ctx := context.Background()

	first, err := srv.RegisterClient(ctx, &ClientRegistrationRequest{
		RedirectURIs: []string{"https://app.example.com/callback"},
	}, "")
	if err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}
	second, err := srv.RegisterClient(ctx, &ClientRegistrationRequest{
		RedirectURIs: []string{"https://app.example.com/callback"},
	}, "")
	if err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}

	if first.ClientID == second.ClientID {
		t.Error("client IDs must be unique")
	}
	if first.ClientSecret == second.ClientSecret {
		t.Error("client secrets must be unique")
	}
}

func TestServer_RegisterClient_InvalidRedirectURIs(t *testing.T) {
	srv := setupFlowTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		uris []string
	}{
		{name: "empty list", uris: nil},
		{name: "relative URI", uris: []string{"/callback"}},
		{name: "missing host", uris: []string{"https:///callback"}},
		{name: "custom scheme", uris: []string{"myapp://callback"}},
		{name: "javascript scheme", uris: []string{"javascript:alert(1)"}},
		{name: "one bad among good", uris: []string{"https://ok.example.com/cb", "not a uri at all ://"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.RegisterClient(ctx, &ClientRegistrationRequest{RedirectURIs: tt.uris}, "")
			var oauthErr *Error
			if !errors.As(err, &oauthErr) {
				t.Fatalf("error = %v, want *Error", err)
			}
			if oauthErr.Code != ErrorCodeInvalidRedirectURI {
				t.Errorf("error code = %q, want %q", oauthErr.Code, ErrorCodeInvalidRedirectURI)
			}
		})
	}
}

func TestServer_RegisterClient_AllowsLoopbackHTTP(t *testing.T) {
	srv := setupFlowTestServer(t)

	resp, err := srv.RegisterClient(context.Background(), &ClientRegistrationRequest{
		RedirectURIs: []string{"http://localhost:6274/oauth/callback", "http://127.0.0.1:8080/cb"},
	}, "")
	if err != nil {
		t.Fatalf("RegisterClient() error = %v", err)
	}
	if len(resp.RedirectURIs) != 2 {
		t.Errorf("redirect_uris = %v", resp.RedirectURIs)
	}
}
