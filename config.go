package authd

import "github.com/giantswarm/mcp-authd/server"

// Config holds the authorization server configuration. It is shared with the
// protocol layer; see the server package for field documentation and
// defaults.
type Config = server.Config

// ApplyDefaults fills in default values for unset configuration fields
var ApplyDefaults = server.ApplyDefaults
