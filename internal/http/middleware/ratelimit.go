package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiter is a fixed-window counter per key (client IP for login attempts).
type RateLimiter struct {
	// TrustProxyHeaders keys Limit on X-Forwarded-For / X-Real-IP instead of
	// the peer address. Enable only behind a reverse proxy that sets them.
	TrustProxyHeaders bool

	mu      sync.Mutex
	window  time.Duration
	limit   int
	buckets map[string]rateEntry
	now     func() time.Time
}

type rateEntry struct {
	count   int
	expires time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		window:  window,
		limit:   limit,
		buckets: make(map[string]rateEntry),
		now:     time.Now,
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	if rl == nil {
		return true
	}
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry := rl.buckets[key]
	if now.After(entry.expires) {
		entry.count = 0
		entry.expires = now.Add(rl.window)
	}
	if entry.count >= rl.limit {
		rl.buckets[key] = entry
		return false
	}
	entry.count++
	rl.buckets[key] = entry

	if len(rl.buckets) > rl.limit*50 {
		for k, v := range rl.buckets {
			if now.After(v.expires) {
				delete(rl.buckets, k)
			}
		}
	}

	return true
}

// Limit answers 429 once the client IP has used up its window.
// A nil limiter lets everything through.
func Limit(rl *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		trust := rl != nil && rl.TrustProxyHeaders
		if !rl.Allow(ClientIP(r, trust)) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "too many attempts", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the peer address of r. With trustProxy the forwarding
// headers set by a reverse proxy take precedence; clients can forge them.
func ClientIP(r *http.Request, trustProxy bool) string {
	if r == nil {
		return ""
	}
	if !trustProxy {
		return remoteHost(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		ip := strings.TrimSpace(parts[0])
		if ip != "" {
			return ip
		}
	}
	if xrip := strings.TrimSpace(r.Header.Get("X-Real-IP")); xrip != "" {
		return xrip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
