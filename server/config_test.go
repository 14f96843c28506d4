package server

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	config := ApplyDefaults(&Config{})

	if config.AuthorizationCodeTTL != 600 {
		t.Errorf("AuthorizationCodeTTL = %d, want 600", config.AuthorizationCodeTTL)
	}
	if config.AccessTokenTTL != 28800 {
		t.Errorf("AccessTokenTTL = %d, want 28800", config.AccessTokenTTL)
	}
	if len(config.DefaultScopes) != 1 || config.DefaultScopes[0] != "mcp:tools" {
		t.Errorf("DefaultScopes = %v, want [mcp:tools]", config.DefaultScopes)
	}
	if config.TestRefreshClientID != "test-refresh-client" {
		t.Errorf("TestRefreshClientID = %q, want test-refresh-client", config.TestRefreshClientID)
	}
	if config.RegistryPath != "clients.json" {
		t.Errorf("RegistryPath = %q, want clients.json", config.RegistryPath)
	}
	if config.SigningKeyPath != "signing_key.pem" {
		t.Errorf("SigningKeyPath = %q, want signing_key.pem", config.SigningKeyPath)
	}
	if config.TrustedProxyCount != 1 {
		t.Errorf("TrustedProxyCount = %d, want 1", config.TrustedProxyCount)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	config := ApplyDefaults(&Config{
		Issuer:               "https://auth.example.com",
		ResourceURL:          "https://mcp.example.com",
		AuthorizationCodeTTL: 120,
		AccessTokenTTL:       3600,
		DefaultScopes:        []string{"custom:scope"},
		TestRefreshClientID:  "other-test-client",
		RegistryPath:         "/var/lib/authd/clients.json",
		SigningKeyPath:       "/var/lib/authd/key.pem",
	})

	if config.AuthorizationCodeTTL != 120 {
		t.Errorf("AuthorizationCodeTTL = %d, want 120", config.AuthorizationCodeTTL)
	}
	if config.AccessTokenTTL != 3600 {
		t.Errorf("AccessTokenTTL = %d, want 3600", config.AccessTokenTTL)
	}
	if config.DefaultScopes[0] != "custom:scope" {
		t.Errorf("DefaultScopes = %v, want [custom:scope]", config.DefaultScopes)
	}
	if config.TestRefreshClientID != "other-test-client" {
		t.Errorf("TestRefreshClientID = %q", config.TestRefreshClientID)
	}
	if config.RegistryPath != "/var/lib/authd/clients.json" {
		t.Errorf("RegistryPath = %q", config.RegistryPath)
	}
	if config.SigningKeyPath != "/var/lib/authd/key.pem" {
		t.Errorf("SigningKeyPath = %q", config.SigningKeyPath)
	}
}
