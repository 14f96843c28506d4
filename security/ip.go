package security

import (
	"net"
	"net/http"
	"strings"
)

// GetClientIP resolves the address audit events attribute a request to.
// With trustProxy off the connection's remote address is used unconditionally,
// since forwarding headers are client-controlled on direct connections.
// With trustProxy on, X-Forwarded-For is consulted first, then X-Real-IP,
// falling back to the remote address when neither carries a parseable IP.
func GetClientIP(r *http.Request, trustProxy bool, trustedProxyCount int) string {
	if trustProxy {
		if ip := clientIPFromForwardedFor(r.Header.Get("X-Forwarded-For"), trustedProxyCount); ip != "" {
			return ip
		}
		if ip := r.Header.Get("X-Real-IP"); net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ipFromRemoteAddr(r.RemoteAddr)
}

// clientIPFromForwardedFor picks the client entry out of an
// X-Forwarded-For list. Each proxy appends the address it received the
// request from, so only the rightmost trustedProxyCount entries were
// written by infrastructure we control; the entry just left of those is
// the closest address the client cannot forge.
func clientIPFromForwardedFor(xff string, trustedProxyCount int) string {
	if xff == "" {
		return ""
	}

	ips := strings.Split(xff, ",")
	ip := strings.TrimSpace(ips[clientIPIndex(len(ips), trustedProxyCount)])
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}

// clientIPIndex returns the index of the client entry. A trustedProxyCount
// of 0 is treated as 1, and a list shorter than the proxy chain degrades to
// the leftmost entry.
func clientIPIndex(numIPs, trustedProxyCount int) int {
	if trustedProxyCount == 0 {
		trustedProxyCount = 1
	}
	idx := numIPs - trustedProxyCount - 1
	if idx < 0 {
		return 0
	}
	return idx
}

// ipFromRemoteAddr strips the port from a host:port remote address.
// Addresses without a port come back unchanged.
func ipFromRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
