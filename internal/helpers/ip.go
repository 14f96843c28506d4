// Package helpers provides common utility functions used across the mcp-authd library.
package helpers

import "net"

// IPClassification represents the security classification of an IP address.
// Audit events carry the classification of the requesting address, and
// redirect URI validation uses it to flag private address space.
type IPClassification int

const (
	// IPClassificationPublic indicates a publicly routable IP address.
	IPClassificationPublic IPClassification = iota
	// IPClassificationLoopback indicates a loopback address (127.0.0.0/8, ::1).
	IPClassificationLoopback
	// IPClassificationPrivate indicates a private/internal address (RFC 1918, ULA).
	IPClassificationPrivate
	// IPClassificationLinkLocal indicates a link-local address (169.254.x.x, fe80::/10).
	IPClassificationLinkLocal
	// IPClassificationUnspecified indicates an unspecified address (0.0.0.0, ::).
	IPClassificationUnspecified
)

// String returns a human-readable name for the IP classification.
func (c IPClassification) String() string {
	switch c {
	case IPClassificationPublic:
		return "public"
	case IPClassificationLoopback:
		return "loopback"
	case IPClassificationPrivate:
		return "private"
	case IPClassificationLinkLocal:
		return "link_local"
	case IPClassificationUnspecified:
		return "unspecified"
	default:
		return "unknown"
	}
}

// ClassifyIP returns the security classification of an IP address. It is the
// single source of truth for IP classification across the library.
//
// Classifications:
//   - Unspecified: 0.0.0.0, ::
//   - Loopback: 127.0.0.0/8, ::1 (allowed for native apps per RFC 8252)
//   - LinkLocal: 169.254.0.0/16, fe80::/10 (includes cloud metadata addresses)
//   - Private: RFC 1918 (10/8, 172.16/12, 192.168/16), fc00::/7
//   - Public: all other addresses
func ClassifyIP(ip net.IP) IPClassification {
	if ip == nil {
		return IPClassificationUnspecified
	}

	if ip.IsUnspecified() {
		return IPClassificationUnspecified
	}

	if ip.IsLoopback() {
		return IPClassificationLoopback
	}

	if IsLinkLocal(ip) {
		return IPClassificationLinkLocal
	}

	// net.IP.IsPrivate covers RFC 1918 (IPv4) and fc00::/7 (IPv6 ULA)
	if ip.IsPrivate() {
		return IPClassificationPrivate
	}

	return IPClassificationPublic
}

// IsLinkLocal checks if an IP address is link-local (unicast or multicast):
// 169.254.0.0/16 (which includes the cloud metadata address 169.254.169.254),
// fe80::/10, and ff02::/16.
func IsLinkLocal(ip net.IP) bool {
	return ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}

// IsPrivateOrInternal checks if an IP is private, loopback, link-local, or
// unspecified: any non-public address. Redirect URI validation uses it to
// flag http URIs that point into private address space.
func IsPrivateOrInternal(ip net.IP) bool {
	classification := ClassifyIP(ip)
	return classification != IPClassificationPublic
}

// IsLoopbackHostname checks if a hostname represents a loopback address.
// This includes the entire 127.0.0.0/8 range (RFC 1122) and IPv6 ::1.
// Expects hostname without port (as returned by url.URL.Hostname()).
//
// Note: This function does NOT consider 0.0.0.0 as loopback (it's "unspecified").
func IsLoopbackHostname(hostname string) bool {
	// Handle "localhost" hostname directly
	if hostname == "localhost" {
		return true
	}

	// Normalize hostname (strip brackets from IPv6 like [::1])
	cleanHostname := hostname
	if len(hostname) > 2 && hostname[0] == '[' && hostname[len(hostname)-1] == ']' {
		cleanHostname = hostname[1 : len(hostname)-1]
	}

	// Parse as IP and use stdlib's IsLoopback for correct handling of:
	// - 127.0.0.0/8 range (all 16M addresses)
	// - ::1 (IPv6 loopback)
	// - ::ffff:127.0.0.1 (IPv4-mapped IPv6 loopback)
	if ip := net.ParseIP(cleanHostname); ip != nil {
		return ip.IsLoopback()
	}

	return false
}
