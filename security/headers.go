package security

import (
	"net/http"
	"net/url"
)

// SetSecurityHeaders applies the response headers every OAuth endpoint
// answers with. The endpoints serve JSON and redirects only, so framing,
// sniffing, and all resource loading are denied outright, and responses
// are marked uncacheable since they carry codes and tokens. HSTS is sent
// only when the issuer itself is served over https.
func SetSecurityHeaders(w http.ResponseWriter, serverURL string) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-XSS-Protection", "1; mode=block")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
	w.Header().Set("Referrer-Policy", "no-referrer")

	if parsed, err := url.Parse(serverURL); err == nil && parsed.Scheme == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
	w.Header().Set("Pragma", "no-cache")
}
