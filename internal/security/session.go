package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID returns a fresh opaque session identifier. Session IDs
// carry no data; they are only keys into the sessions table.
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest reports whether the request reached us over HTTPS, either
// directly or through a TLS-terminating proxy announcing itself with
// X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	switch {
	case r.TLS != nil:
		return true
	case r.Header.Get("X-Forwarded-Proto") == "https":
		return true
	case r.URL.Scheme == "https":
		return true
	}
	return false
}

// CreateSessionCookie builds the cookie that carries a session ID. It is
// HttpOnly and SameSite Lax always; Secure is set when the request itself
// came in over HTTPS, so local development over plain HTTP still works.
func CreateSessionCookie(r *http.Request, name, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie builds a cookie that clears the named cookie on the
// client, matching the flags the session cookie was set with.
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
