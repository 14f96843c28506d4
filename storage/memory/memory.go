// Package memory provides an in-memory implementation of all storage
// interfaces. It is suitable for development, testing, and single-instance
// deployments. Client registrations can optionally be persisted to a JSON
// file so they survive restarts; codes and refresh tokens are process-local.
package memory

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/giantswarm/mcp-authd/instrumentation"
	"github.com/giantswarm/mcp-authd/internal/util"
	"github.com/giantswarm/mcp-authd/storage"
)

const (
	// tokenIDLogLength is the number of characters to include when logging
	// codes and token IDs. Enough uniqueness for debugging while keeping
	// logs safe.
	tokenIDLogLength = 8

	// registryFileMode restricts the persisted registry to the owning user
	// since it contains client secrets
	registryFileMode = 0600
)

// Store is an in-memory implementation of all storage interfaces.
// It implements ClientStore, FlowStore, and TokenStore.
type Store struct {
	mu sync.RWMutex

	// Client storage
	clients map[string]*storage.Client

	// Flow storage (one-time authorization codes)
	authCodes map[string]*storage.AuthorizationCode

	// Issued refresh tokens, keyed by the opaque token string
	issuedTokens map[string]*storage.IssuedToken

	// Registry persistence (optional); empty path disables it
	registryPath string

	// Instrumentation
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer
	meter           metric.Meter

	// Atomic counters for metrics (lock-free access during collection)
	clientsCountAtomic      atomic.Int64
	authCodesCountAtomic    atomic.Int64
	issuedTokensCountAtomic atomic.Int64

	logger *slog.Logger
}

// Compile-time interface checks to ensure Store implements all storage interfaces
var (
	_ storage.ClientStore = (*Store)(nil)
	_ storage.FlowStore   = (*Store)(nil)
	_ storage.TokenStore  = (*Store)(nil)
)

// New creates a new in-memory store without registry persistence.
func New() *Store {
	return &Store{
		clients:      make(map[string]*storage.Client),
		authCodes:    make(map[string]*storage.AuthorizationCode),
		issuedTokens: make(map[string]*storage.IssuedToken),
		logger:       slog.Default(),
	}
}

// NewWithRegistry creates a new in-memory store that persists client
// registrations to the JSON file at registryPath. Existing registrations are
// loaded immediately; a missing file is not an error, and an unreadable or
// malformed file is logged and the store starts empty rather than refusing
// to serve.
func NewWithRegistry(registryPath string) *Store {
	s := New()
	s.registryPath = registryPath

	if registryPath != "" {
		if err := s.loadRegistry(); err != nil {
			s.logger.Warn("Failed to load client registry, starting with empty registry",
				"path", registryPath,
				"error", err)
		}
	}

	return s
}

// SetLogger sets a custom logger
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = logger
}

// SetInstrumentation sets OpenTelemetry instrumentation for the store
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	s.instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("storage")
		s.meter = inst.Meter("storage")
	}

	// Initialize atomic counters with current counts
	s.clientsCountAtomic.Store(int64(len(s.clients)))
	s.authCodesCountAtomic.Store(int64(len(s.authCodes)))
	s.issuedTokensCountAtomic.Store(int64(len(s.issuedTokens)))
	s.mu.Unlock()

	if inst != nil {
		// Register storage size callbacks using atomic counters (lock-free).
		// Real-time visibility into storage size helps spot flows that never
		// complete and refresh tokens that never rotate.
		err := inst.RegisterStorageSizeCallbacks(
			func() int64 { return s.clientsCountAtomic.Load() },
			func() int64 { return s.authCodesCountAtomic.Load() },
			func() int64 { return s.issuedTokensCountAtomic.Load() },
		)
		if err != nil {
			s.logger.Warn("Failed to register storage size callbacks", "error", err)
		}
	}
}

// ============================================================
// ClientStore Implementation
// ============================================================

// SaveClient saves a registered client and persists the registry if a
// registry path is configured. An existing entry with the same client ID is
// overwritten.
func (s *Store) SaveClient(ctx context.Context, client *storage.Client) error {
	ctx, span := s.startStorageSpan(ctx, "save_client")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "save_client", err, startTime)
	}()

	if client == nil || client.ClientID == "" {
		err = fmt.Errorf("invalid client")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track if this is a new client (for atomic counter)
	_, existed := s.clients[client.ClientID]

	s.clients[client.ClientID] = client

	if !existed {
		s.clientsCountAtomic.Add(1)
	}

	if s.registryPath != "" {
		if persistErr := s.persistRegistryLocked(); persistErr != nil {
			// The client is registered in memory either way; persistence is
			// best-effort and the failure is surfaced in the logs.
			s.logger.Warn("Failed to persist client registry",
				"path", s.registryPath,
				"error", persistErr)
		}
	}

	s.logger.Debug("Saved client", "client_id", client.ClientID)
	return nil
}

// GetClient retrieves a client by ID
func (s *Store) GetClient(ctx context.Context, clientID string) (*storage.Client, error) {
	ctx, span := s.startStorageSpan(ctx, "get_client")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "get_client", err, startTime)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[clientID]
	if !ok {
		err = fmt.Errorf("%w: %s", storage.ErrClientNotFound, clientID)
		return nil, err
	}

	return client, nil
}

// ValidateClientSecret validates a client's secret using a constant-time
// comparison. Unknown client and wrong secret return the same error so the
// endpoint cannot be used as a client-existence oracle.
func (s *Store) ValidateClientSecret(ctx context.Context, clientID, clientSecret string) error {
	s.mu.RLock()
	client, ok := s.clients[clientID]
	s.mu.RUnlock()

	// Always perform a comparison, even for unknown clients, to keep the
	// timing profile of the two failure modes close.
	expected := ""
	if ok {
		expected = client.ClientSecret
	}

	match := subtle.ConstantTimeCompare([]byte(expected), []byte(clientSecret)) == 1

	if !ok || !match {
		return storage.ErrInvalidClientSecret
	}

	return nil
}

// ListClients lists all registered clients
func (s *Store) ListClients(ctx context.Context) ([]*storage.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clients := make([]*storage.Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}

	return clients, nil
}

// ============================================================
// FlowStore Implementation
// ============================================================

// SaveAuthorizationCode saves an issued authorization code
func (s *Store) SaveAuthorizationCode(ctx context.Context, code *storage.AuthorizationCode) error {
	ctx, span := s.startStorageSpan(ctx, "save_authorization_code")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "save_authorization_code", err, startTime)
	}()

	if code == nil || code.Code == "" {
		err = fmt.Errorf("invalid authorization code")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.authCodes[code.Code]

	s.authCodes[code.Code] = code

	if !existed {
		s.authCodesCountAtomic.Add(1)
	}

	s.logger.Debug("Saved authorization code",
		"code_prefix", util.SafeTruncate(code.Code, tokenIDLogLength),
		"client_id", code.ClientID)
	return nil
}

// TakeAuthorizationCode atomically retrieves and deletes an authorization
// code. Expired codes are removed and reported as not found, so an attacker
// cannot distinguish an expired code from one that never existed.
//
// SECURITY: This operation is atomic. Of any number of concurrent exchange
// attempts for the same code, exactly one succeeds; the rest get
// storage.ErrCodeNotFound.
func (s *Store) TakeAuthorizationCode(ctx context.Context, code string) (*storage.AuthorizationCode, error) {
	ctx, span := s.startStorageSpan(ctx, "take_authorization_code")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "take_authorization_code", err, startTime)
	}()

	s.mu.Lock() // MUST use write lock for atomic get-and-delete
	defer s.mu.Unlock()

	authCode, ok := s.authCodes[code]
	if !ok {
		err = fmt.Errorf("%w: not found or already used", storage.ErrCodeNotFound)
		return nil, err
	}

	// ATOMIC DELETE - ensures only one request succeeds
	delete(s.authCodes, code)
	s.authCodesCountAtomic.Add(-1)

	if time.Now().After(authCode.ExpiresAt) {
		err = fmt.Errorf("%w: expired", storage.ErrCodeNotFound)
		return nil, err
	}

	s.logger.Debug("Consumed authorization code",
		"code_prefix", util.SafeTruncate(code, tokenIDLogLength),
		"client_id", authCode.ClientID)

	return authCode, nil
}

// ============================================================
// TokenStore Implementation
// ============================================================

// SaveIssuedToken records a minted refresh token
func (s *Store) SaveIssuedToken(ctx context.Context, refreshToken string, token *storage.IssuedToken) error {
	ctx, span := s.startStorageSpan(ctx, "save_issued_token")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "save_issued_token", err, startTime)
	}()

	if refreshToken == "" {
		err = fmt.Errorf("refresh token cannot be empty")
		return err
	}
	if token == nil {
		err = fmt.Errorf("token cannot be nil")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.issuedTokens[refreshToken]

	s.issuedTokens[refreshToken] = token

	if !existed {
		s.issuedTokensCountAtomic.Add(1)
	}

	s.logger.Debug("Saved issued token",
		"client_id", token.ClientID,
		"jti", token.JWTID,
		"expires_at", token.ExpiresAt)
	return nil
}

// GetIssuedToken retrieves an issued token without consuming it
func (s *Store) GetIssuedToken(ctx context.Context, refreshToken string) (*storage.IssuedToken, error) {
	ctx, span := s.startStorageSpan(ctx, "get_issued_token")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "get_issued_token", err, startTime)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.issuedTokens[refreshToken]
	if !ok {
		err = storage.ErrTokenNotFound
		return nil, err
	}

	return token, nil
}

// TakeIssuedToken atomically retrieves and deletes a refresh token.
//
// SECURITY: This operation is atomic - only ONE concurrent request can
// succeed. All other concurrent requests receive storage.ErrTokenNotFound,
// which guarantees one-time use under rotation.
func (s *Store) TakeIssuedToken(ctx context.Context, refreshToken string) (*storage.IssuedToken, error) {
	ctx, span := s.startStorageSpan(ctx, "take_issued_token")
	defer span.End()

	startTime := time.Now()
	var err error

	defer func() {
		s.recordStorageOperation(ctx, span, "take_issued_token", err, startTime)
	}()

	s.mu.Lock() // MUST use write lock for atomic get-and-delete
	defer s.mu.Unlock()

	token, ok := s.issuedTokens[refreshToken]
	if !ok {
		err = fmt.Errorf("%w: not found or already rotated", storage.ErrTokenNotFound)
		return nil, err
	}

	// ATOMIC DELETE - ensures only one request succeeds
	delete(s.issuedTokens, refreshToken)
	s.issuedTokensCountAtomic.Add(-1)

	s.logger.Debug("Consumed refresh token",
		"client_id", token.ClientID,
		"jti", token.JWTID)

	return token, nil
}

// ============================================================
// Registry Persistence
// ============================================================

// loadRegistry reads the registry file and merges its clients into the
// store. Entries loaded from disk do not overwrite clients registered in
// memory before the load (presets win).
func (s *Store) loadRegistry() error {
	data, err := os.ReadFile(s.registryPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil // first run, nothing to load
		}
		return fmt.Errorf("failed to read registry file: %w", err)
	}

	var persisted map[string]*storage.Client
	if err := json.Unmarshal(data, &persisted); err != nil {
		return fmt.Errorf("failed to parse registry file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := 0
	for clientID, client := range persisted {
		if client == nil || clientID == "" {
			continue
		}
		if _, exists := s.clients[clientID]; exists {
			continue
		}
		client.ClientID = clientID
		s.clients[clientID] = client
		s.clientsCountAtomic.Add(1)
		loaded++
	}

	s.logger.Info("Loaded client registry",
		"path", s.registryPath,
		"clients_loaded", loaded)
	return nil
}

// persistRegistryLocked writes the full client map to the registry file.
// Callers must hold s.mu. The write goes through a temp file and rename so a
// crash mid-write cannot corrupt the registry.
func (s *Store) persistRegistryLocked() error {
	data, err := json.MarshalIndent(s.clients, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	tmpPath := s.registryPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, registryFileMode); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}

	if err := os.Rename(tmpPath, s.registryPath); err != nil {
		return fmt.Errorf("failed to replace registry file: %w", err)
	}

	return nil
}

// ============================================================
// Instrumentation Helpers
// ============================================================

// startStorageSpan starts a new span for a storage operation
// Returns a context with the span attached and the span itself
func (s *Store) startStorageSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("storage.%s", operation),
		trace.WithAttributes(
			attribute.String("operation", operation),
		))

	return ctx, span
}

// recordStorageOperation records metrics for a storage operation and sets span status
func (s *Store) recordStorageOperation(ctx context.Context, span trace.Span, operation string, err error, startTime time.Time) {
	if s.instrumentation == nil {
		return
	}

	durationMs := float64(time.Since(startTime).Milliseconds())
	result := "success"
	if err != nil {
		result = "error"
		if span != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	} else {
		if span != nil {
			span.SetStatus(codes.Ok, "")
		}
	}

	s.instrumentation.Metrics().RecordStorageOperation(ctx, operation, result, durationMs)
}
