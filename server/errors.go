package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// OAuth 2.0 error codes from RFC 6749 (plus invalid_target from RFC 8707).
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidClient           = "invalid_client"
	ErrorCodeInvalidGrant            = "invalid_grant"
	ErrorCodeInvalidScope            = "invalid_scope"
	ErrorCodeInvalidTarget           = "invalid_target"
	ErrorCodeInvalidRedirectURI      = "invalid_redirect_uri"
	ErrorCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrorCodeUnsupportedResponseType = "unsupported_response_type"
	ErrorCodeServerError             = "server_error"
)

// ErrClientAuthentication signals that client authentication on the token
// endpoint failed. The HTTP layer translates it into a bare 401 response
// rather than a structured OAuth error body.
var ErrClientAuthentication = errors.New("client authentication failed")

// Error represents an OAuth 2.0 error response
type Error struct {
	Code        string // OAuth error code (e.g., "invalid_request", "invalid_grant")
	Description string // Human-readable error description
	Status      int    // HTTP status code
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// NewError creates a new OAuth error
func NewError(code, description string, status int) *Error {
	return &Error{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Common OAuth errors as reusable constructors
var (
	// ErrInvalidRequest indicates the request is malformed or missing required parameters
	ErrInvalidRequest = func(desc string) *Error {
		return NewError(ErrorCodeInvalidRequest, desc, http.StatusBadRequest)
	}

	// ErrInvalidClient indicates the client is unknown or authentication failed
	ErrInvalidClient = func(desc string) *Error {
		return NewError(ErrorCodeInvalidClient, desc, http.StatusUnauthorized)
	}

	// ErrInvalidGrant indicates the authorization code or refresh token is invalid,
	// consumed, or bound to a different client
	ErrInvalidGrant = func(desc string) *Error {
		return NewError(ErrorCodeInvalidGrant, desc, http.StatusBadRequest)
	}

	// ErrInvalidScope indicates the requested scope is invalid or unsupported
	ErrInvalidScope = func(desc string) *Error {
		return NewError(ErrorCodeInvalidScope, desc, http.StatusBadRequest)
	}

	// ErrInvalidTarget indicates the resource parameter is missing or does not
	// match the configured resource identifier (RFC 8707)
	ErrInvalidTarget = func(desc string) *Error {
		return NewError(ErrorCodeInvalidTarget, desc, http.StatusBadRequest)
	}

	// ErrInvalidRedirectURI indicates a redirect URI failed registration validation
	ErrInvalidRedirectURI = func(desc string) *Error {
		return NewError(ErrorCodeInvalidRedirectURI, desc, http.StatusBadRequest)
	}

	// ErrUnsupportedGrantType indicates the grant type is not supported
	ErrUnsupportedGrantType = func(desc string) *Error {
		return NewError(ErrorCodeUnsupportedGrantType, desc, http.StatusBadRequest)
	}

	// ErrUnsupportedResponseType indicates the response type is not "code"
	ErrUnsupportedResponseType = func(desc string) *Error {
		return NewError(ErrorCodeUnsupportedResponseType, desc, http.StatusBadRequest)
	}

	// ErrServerError indicates an internal server error occurred
	ErrServerError = func(desc string) *Error {
		return NewError(ErrorCodeServerError, desc, http.StatusInternalServerError)
	}
)

// RedirectError is an authorization endpoint error that must be delivered to
// the client's redirect URI rather than directly in the response. It is only
// produced after the redirect URI has been validated against the client's
// registration, so the target is trusted.
type RedirectError struct {
	RedirectURI string
	State       string
	Err         *Error
}

// Error implements the error interface
func (e *RedirectError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying OAuth error
func (e *RedirectError) Unwrap() error {
	return e.Err
}

// Location builds the redirect URL carrying error, error_description and
// state query parameters.
func (e *RedirectError) Location() string {
	params := url.Values{}
	params.Set("error", e.Err.Code)
	params.Set("error_description", e.Err.Description)
	if e.State != "" {
		params.Set("state", e.State)
	}

	sep := "?"
	if strings.Contains(e.RedirectURI, "?") {
		sep = "&"
	}
	return e.RedirectURI + sep + params.Encode()
}
