// AngelaMos | 2026
// redirect_test.go

package auth

import (
	"strings"
	"testing"
)

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "/home"},
		{"/bookings/mine", "/bookings/mine"},
		{"/properties/3?tab=rooms#book", "/properties/3?tab=rooms#book"},
		{"/", "/"},
		{"https://evil.example/", "/home"},
		{"//evil.example/path", "/home"},
		{"/\\evil.example", "/home"},
		{"/path\\with\\backslash", "/home"},
		{"javascript:alert(1)", "/home"},
		{"relative/path", "/home"},
		{"/with space", "/home"},
		{"/line\nbreak", "/home"},
		{"/" + strings.Repeat("a", 2048), "/home"},
	}

	for _, tt := range tests {
		if got := SafeRedirect(tt.raw, "/home"); got != tt.want {
			t.Errorf("SafeRedirect(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}

	if got := SafeRedirect("https://evil.example/", ""); got != "/" {
		t.Errorf("empty fallback = %q, want /", got)
	}
}
