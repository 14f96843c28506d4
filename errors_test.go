package authd

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		description string
		want        string
	}{
		{
			name:        "simple error",
			code:        "invalid_request",
			description: "Missing required parameter",
			want:        "invalid_request: Missing required parameter",
		},
		{
			name:        "error with empty description",
			code:        "server_error",
			description: "",
			want:        "server_error: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Error{
				Code:        tt.code,
				Description: tt.description,
			}
			if got := e.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *Error
		wantCode   string
		wantStatus int
	}{
		{"invalid request", ErrInvalidRequest("bad"), ErrorCodeInvalidRequest, http.StatusBadRequest},
		{"invalid client", ErrInvalidClient("bad"), ErrorCodeInvalidClient, http.StatusUnauthorized},
		{"invalid grant", ErrInvalidGrant("bad"), ErrorCodeInvalidGrant, http.StatusBadRequest},
		{"invalid scope", ErrInvalidScope("bad"), ErrorCodeInvalidScope, http.StatusBadRequest},
		{"invalid target", ErrInvalidTarget("bad"), ErrorCodeInvalidTarget, http.StatusBadRequest},
		{"invalid redirect uri", ErrInvalidRedirectURI("bad"), ErrorCodeInvalidRedirectURI, http.StatusBadRequest},
		{"unsupported grant type", ErrUnsupportedGrantType("bad"), ErrorCodeUnsupportedGrantType, http.StatusBadRequest},
		{"unsupported response type", ErrUnsupportedResponseType("bad"), ErrorCodeUnsupportedResponseType, http.StatusBadRequest},
		{"server error", ErrServerError("bad"), ErrorCodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.wantStatus)
			}
			if tt.err.Description != "bad" {
				t.Errorf("Description = %q, want %q", tt.err.Description, "bad")
			}
		})
	}
}

func TestRedirectError_Location(t *testing.T) {
	tests := []struct {
		name        string
		redirectURI string
		state       string
		err         *Error
		wantParams  url.Values
	}{
		{
			name:        "error with state",
			redirectURI: "https://client.example.com/callback",
			state:       "abc123",
			err:         ErrInvalidTarget("resource mismatch"),
			wantParams: url.Values{
				"error":             {"invalid_target"},
				"error_description": {"resource mismatch"},
				"state":             {"abc123"},
			},
		},
		{
			name:        "error without state",
			redirectURI: "https://client.example.com/callback",
			state:       "",
			err:         ErrUnsupportedResponseType("only code is supported"),
			wantParams: url.Values{
				"error":             {"unsupported_response_type"},
				"error_description": {"only code is supported"},
			},
		},
		{
			name:        "redirect URI with existing query",
			redirectURI: "https://client.example.com/callback?app=demo",
			state:       "s1",
			err:         ErrInvalidRequest("code_challenge is required"),
			wantParams: url.Values{
				"app":               {"demo"},
				"error":             {"invalid_request"},
				"error_description": {"code_challenge is required"},
				"state":             {"s1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := &RedirectError{
				RedirectURI: tt.redirectURI,
				State:       tt.state,
				Err:         tt.err,
			}

			loc, err := url.Parse(re.Location())
			if err != nil {
				t.Fatalf("Location() produced unparseable URL: %v", err)
			}
			got := loc.Query()
			for key, want := range tt.wantParams {
				if got.Get(key) != want[0] {
					t.Errorf("Location() param %q = %q, want %q", key, got.Get(key), want[0])
				}
			}
		})
	}
}

func TestRedirectError_Unwrap(t *testing.T) {
	inner := ErrInvalidTarget("wrong audience")
	re := &RedirectError{
		RedirectURI: "https://client.example.com/callback",
		Err:         inner,
	}

	var oauthErr *Error
	if !errors.As(re, &oauthErr) {
		t.Fatal("errors.As should unwrap RedirectError to *Error")
	}
	if oauthErr.Code != ErrorCodeInvalidTarget {
		t.Errorf("unwrapped Code = %q, want %q", oauthErr.Code, ErrorCodeInvalidTarget)
	}
}
