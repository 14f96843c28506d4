package authd

import "github.com/giantswarm/mcp-authd/server"

// OAuth error codes, re-exported from the server package for convenience
const (
	ErrorCodeInvalidRequest          = server.ErrorCodeInvalidRequest
	ErrorCodeInvalidClient           = server.ErrorCodeInvalidClient
	ErrorCodeInvalidGrant            = server.ErrorCodeInvalidGrant
	ErrorCodeInvalidScope            = server.ErrorCodeInvalidScope
	ErrorCodeInvalidTarget           = server.ErrorCodeInvalidTarget
	ErrorCodeInvalidRedirectURI      = server.ErrorCodeInvalidRedirectURI
	ErrorCodeUnsupportedGrantType    = server.ErrorCodeUnsupportedGrantType
	ErrorCodeUnsupportedResponseType = server.ErrorCodeUnsupportedResponseType
	ErrorCodeServerError             = server.ErrorCodeServerError
)

// Error is the OAuth 2.0 error type shared between the protocol layer and
// the HTTP layer
type Error = server.Error

// RedirectError is an authorization endpoint error delivered via redirect
type RedirectError = server.RedirectError

// NewError creates a structured OAuth error with an HTTP status
var NewError = server.NewError

// Common OAuth error constructors
var (
	ErrInvalidRequest          = server.ErrInvalidRequest
	ErrInvalidClient           = server.ErrInvalidClient
	ErrInvalidGrant            = server.ErrInvalidGrant
	ErrInvalidScope            = server.ErrInvalidScope
	ErrInvalidTarget           = server.ErrInvalidTarget
	ErrInvalidRedirectURI      = server.ErrInvalidRedirectURI
	ErrUnsupportedGrantType    = server.ErrUnsupportedGrantType
	ErrUnsupportedResponseType = server.ErrUnsupportedResponseType
	ErrServerError             = server.ErrServerError
)
