package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/giantswarm/mcp-authd/internal/helpers"
)

// Auditor handles security event logging with PII protection.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type      string
	ClientID  string
	IPAddress string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event. The raw IP address is never logged; events
// carry a truncated hash (stable per address, so events can be correlated)
// and the address classification (loopback, private, public, ...), which is
// not PII but tells an operator where a failure pattern originates.
func (a *Auditor) LogEvent(event Event) {
	if !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"client_id", event.ClientID,
		"ip_address_hash", hashForLogging(event.IPAddress),
		"ip_class", classifyAddress(event.IPAddress),
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogCodeIssued logs when an authorization code is issued
func (a *Auditor) LogCodeIssued(clientID, ipAddress string, scopes []string, resource string) {
	a.LogEvent(Event{
		Type:      EventCodeIssued,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"scope":    strings.Join(scopes, " "),
			"resource": resource,
		},
	})
}

// LogTokenIssued logs when an access token is minted
func (a *Auditor) LogTokenIssued(clientID, ipAddress, grantType string, scopes []string) {
	a.LogEvent(Event{
		Type:      EventTokenIssued,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"grant_type": grantType,
			"scope":      strings.Join(scopes, " "),
		},
	})
}

// LogTokenRefreshed logs a refresh token rotation
func (a *Auditor) LogTokenRefreshed(clientID, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventTokenRefreshed,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"rotated": true,
		},
	})
}

// LogAuthFailure logs an authentication failure
func (a *Auditor) LogAuthFailure(clientID, ipAddress, reason string) {
	a.LogEvent(Event{
		Type:      EventAuthFailure,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogClientRegistered logs when a new client is registered
func (a *Auditor) LogClientRegistered(clientID, clientName, ipAddress string) {
	a.LogEvent(Event{
		Type:      EventClientRegistered,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"client_name": clientName,
		},
	})
}

// LogIntrospection logs a token introspection request
func (a *Auditor) LogIntrospection(clientID, ipAddress string, active bool) {
	a.LogEvent(Event{
		Type:      EventIntrospection,
		ClientID:  clientID,
		IPAddress: ipAddress,
		Details: map[string]any{
			"active": active,
		},
	})
}

// classifyAddress returns the classification of an IP address string for
// audit events. Addresses that do not parse (including empty) come back as
// "unknown" rather than being dropped.
func classifyAddress(ipAddress string) string {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return "unknown"
	}
	return helpers.ClassifyIP(ip).String()
}

// hashForLogging creates a SHA256 hash of sensitive data for logging
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
