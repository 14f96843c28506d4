package security

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if len(id) != 22 {
		t.Errorf("len(GenerateRequestID()) = %d, want 22", len(id))
	}
	if id == GenerateRequestID() {
		t.Error("consecutive request IDs should differ")
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-abc-123")
	if got := GetRequestID(ctx); got != "req-abc-123" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-abc-123")
	}
	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID() on bare context = %q, want empty", got)
	}
}

func TestIsValidRequestID(t *testing.T) {
	tests := []struct {
		name      string
		requestID string
		want      bool
	}{
		{"alphanumeric", "abc123", true},
		{"uuid", "550e8400-e29b-41d4-a716-446655440000", true},
		{"underscores and hyphens", "req_ID-123", true},
		{"single character", "a", true},
		{"max length", strings.Repeat("a", 128), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", 129), false},
		{"newline injection", "id\nX-Injected: evil", false},
		{"carriage return", "id\rX", false},
		{"space", "id 123", false},
		{"equals sign", "Root=1-abc", false},
		{"angle brackets", "<script>", false},
		{"null byte", "id\x00123", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidRequestID(tt.requestID); got != tt.want {
				t.Errorf("isValidRequestID(%q) = %v, want %v", tt.requestID, got, tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		upstreamID   string
		wantUpstream bool
	}{
		{"missing ID is generated", "", false},
		{"valid upstream ID is kept", "upstream-request-id", true},
		{"malformed upstream ID is replaced", "id with spaces", false},
		{"oversized upstream ID is replaced", strings.Repeat("a", 129), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seenID string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/token", nil)
			if tt.upstreamID != "" {
				req.Header.Set(RequestIDHeader, tt.upstreamID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			echoed := rec.Header().Get(RequestIDHeader)
			if echoed == "" {
				t.Fatal("response should carry the request ID header")
			}
			if echoed != seenID {
				t.Errorf("response header %q does not match context ID %q", echoed, seenID)
			}

			if tt.wantUpstream {
				if seenID != tt.upstreamID {
					t.Errorf("request ID = %q, want upstream %q", seenID, tt.upstreamID)
				}
			} else {
				if seenID == tt.upstreamID {
					t.Error("invalid upstream ID should have been replaced")
				}
				if len(seenID) != 22 {
					t.Errorf("len(generated ID) = %d, want 22", len(seenID))
				}
			}
		})
	}
}
