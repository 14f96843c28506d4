// Package memory provides an in-memory implementation of the OAuth storage interfaces.
//
// This package implements ClientStore, FlowStore, and TokenStore using Go's
// built-in maps with mutex protection for thread safety. It is suitable for
// development, testing, and single-instance deployments.
//
// Features:
//   - Thread-safe operations using sync.RWMutex
//   - Atomic take operations for one-time codes and refresh token rotation
//   - Optional JSON file persistence for the client registry
//   - Constant-time client secret comparison
//
// Authorization codes and refresh tokens are process-local: they live until
// consumed or until the process exits.
//
// Example usage:
//
//	store := memory.NewWithRegistry("clients.json")
//
//	// Use store for ClientStore, FlowStore, and TokenStore interfaces
//	server, _ := authd.NewServer(store, store, store, config, logger)
package memory
