package security

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// bucketIdleFactor controls when an untouched client bucket is evicted,
// measured in windows since its last refill.
const bucketIdleFactor = 2

// RateLimiter caps requests per client IP using one token bucket per
// client. A bucket holds rate tokens and refills completely once a full
// window has passed since the last refill.
type RateLimiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	rate    int
	window  time.Duration
}

type bucket struct {
	mu         sync.Mutex
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter returns a limiter allowing rate requests per window for
// each client IP. Idle buckets are evicted by a background sweep so the
// map does not grow with every address ever seen.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		window:  window,
	}
	go rl.sweep()
	return rl
}

// Allow reports whether a request from the given IP fits within the budget
// and consumes a token when it does.
func (rl *RateLimiter) Allow(ip string) bool {
	b := rl.bucketFor(ip)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if now.Sub(b.lastRefill) >= rl.window {
		b.tokens = rl.rate
		b.lastRefill = now
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (rl *RateLimiter) bucketFor(ip string) *bucket {
	rl.mu.RLock()
	b, ok := rl.buckets[ip]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	// Another request may have created the bucket between the locks
	if b, ok := rl.buckets[ip]; ok {
		return b
	}
	b = &bucket{tokens: rl.rate, lastRefill: time.Now()}
	rl.buckets[ip] = b
	return b
}

// sweep drops buckets that have sat idle for several windows.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.window * bucketIdleFactor)
		rl.mu.Lock()
		for ip, b := range rl.buckets {
			b.mu.Lock()
			idle := b.lastRefill.Before(cutoff)
			b.mu.Unlock()
			if idle {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// GetClientIP returns the address requests should be rate-limited by.
// Proxy headers win over the socket address: X-Forwarded-For (first hop),
// then X-Real-IP, then RemoteAddr with the port stripped.
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// The header accumulates one entry per proxy hop; the first is
		// the original client
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
