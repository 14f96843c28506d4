// Package helpers provides common utility functions used across the mcp-authd library.
//
// This package contains helper functions for IP classification and other
// shared operations that don't fit into domain-specific packages. These
// utilities are used internally by multiple packages to avoid code
// duplication and maintain consistent behavior across the codebase.
//
// Key utilities:
//   - ClassifyIP: Classifies IP addresses (public, private, loopback, etc.)
//   - IsLinkLocal: Checks if an IP is link-local
//   - IsLoopbackHostname: Checks if a hostname represents a loopback address
package helpers
