package util

import "testing"

func TestSafeTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"shorter than limit", "short", 10, "short"},
		{"exactly at limit", "exactly10c", 10, "exactly10c"},
		{"token prefix", "rt_9f83ab2e4c1d5f60", 8, "rt_9f83a"},
		{"empty input", "", 5, ""},
		{"zero limit", "token", 0, ""},
		{"negative limit", "token", -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeTruncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("SafeTruncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trailing slash stripped", "https://mcp.example.com/", "https://mcp.example.com"},
		{"already canonical", "https://mcp.example.com", "https://mcp.example.com"},
		{"multiple trailing slashes", "https://mcp.example.com///", "https://mcp.example.com"},
		{"path with trailing slash", "https://mcp.example.com/api/v1/", "https://mcp.example.com/api/v1"},
		{"port preserved", "https://mcp.example.com:8443/", "https://mcp.example.com:8443"},
		{"empty", "", ""},
		{"only slashes", "///", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.input); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
