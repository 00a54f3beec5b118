package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestIsSecureRequest(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(r *http.Request)
		expected bool
	}{
		{
			name:     "plain http",
			mutate:   func(r *http.Request) {},
			expected: false,
		},
		{
			name:     "direct tls",
			mutate:   func(r *http.Request) { r.TLS = &tls.ConnectionState{} },
			expected: true,
		},
		{
			name:     "behind tls-terminating proxy",
			mutate:   func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") },
			expected: true,
		},
		{
			name:     "proxy announcing http",
			mutate:   func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "http") },
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			tt.mutate(r)
			if got := IsSecureRequest(r); got != tt.expected {
				t.Errorf("IsSecureRequest() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSessionCookieFlags(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")
	expires := time.Now().Add(time.Hour)

	c := CreateSessionCookie(r, "session", "abc", expires)

	if !c.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if !c.Secure {
		t.Error("Secure flag not set on an HTTPS request")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
}

func TestDeleteCookieExpiresImmediately(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)

	c := CreateDeleteCookie(r, "session")

	if c.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", c.MaxAge)
	}
	if c.Value != "" {
		t.Errorf("Value = %q, want empty", c.Value)
	}
}

func TestGenerateSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateSessionID()
		if id == "" {
			t.Fatal("empty session ID")
		}
		if seen[id] {
			t.Fatalf("duplicate session ID %q", id)
		}
		seen[id] = true
	}
}
