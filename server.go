package authd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/giantswarm/mcp-authd/instrumentation"
	"github.com/giantswarm/mcp-authd/keys"
	"github.com/giantswarm/mcp-authd/security"
	"github.com/giantswarm/mcp-authd/server"
	"github.com/giantswarm/mcp-authd/storage/memory"
)

// securityEventRate bounds audit log volume for repeated auth failures.
const (
	securityEventRate  = 10
	securityEventBurst = 20
)

// Server is the embeddable authorization server. It owns the in-memory
// store, the signing key, the protocol state machine and the HTTP handler;
// the host process mounts its routes on its own mux and handles transport
// concerns (TLS, listeners) itself.
type Server struct {
	core    *server.Server
	handler *Handler
	store   *memory.Store
	keys    *keys.Manager
	limiter *security.RateLimiter
	logger  *slog.Logger
}

// New creates a fully wired authorization server: it loads (or creates) the
// signing key and client registry, seeds the preset clients, and builds the
// HTTP handler.
func New(config *Config, logger *slog.Logger) (*Server, error) {
	if config == nil {
		config = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	config = ApplyDefaults(config)

	store := memory.NewWithRegistry(config.RegistryPath)
	store.SetLogger(logger)

	keyPath := config.SigningKeyPath
	if config.EphemeralSigningKey {
		keyPath = ""
	}
	keyManager, err := keys.NewManager(keyPath, logger)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}

	core, err := server.New(store, store, store, keyManager, config, logger)
	if err != nil {
		return nil, err
	}

	srv := &Server{
		core:   core,
		store:  store,
		keys:   keyManager,
		logger: logger,
	}

	if config.AuditEnabled {
		core.SetAuditor(security.NewAuditor(logger, true))
		srv.limiter = security.NewRateLimiter(securityEventRate, securityEventBurst, logger)
		core.SetSecurityEventRateLimiter(srv.limiter)
	}

	ctx := context.Background()
	for _, preset := range server.DefaultPresetClients() {
		if err := core.RegisterPreset(ctx, preset); err != nil {
			return nil, err
		}
	}

	srv.handler = NewHandler(core, logger)
	return srv, nil
}

// SetInstrumentation wires OpenTelemetry instrumentation through the store,
// the protocol layer, and the HTTP handler.
func (s *Server) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.core.SetInstrumentation(inst)
	s.store.SetInstrumentation(inst)
	s.handler.setInstrumentation(inst)
}

// Handler returns the HTTP adapter
func (s *Server) Handler() *Handler {
	return s.handler
}

// Core returns the underlying protocol server, for hosts that need direct
// access beyond the HTTP surface (e.g. registering extra preset clients).
func (s *Server) Core() *server.Server {
	return s.core
}

// Keys returns the signing key manager
func (s *Server) Keys() *keys.Manager {
	return s.keys
}

// Routes registers all endpoints on the given mux
func (s *Server) Routes(mux *http.ServeMux) {
	s.handler.Routes(mux)
}

// Stop releases background resources (the security event rate limiter's
// cleanup goroutine). Safe to call on a server without auditing enabled.
func (s *Server) Stop() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}
