package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

const (
	rateWindow      = time.Minute
	visitorIdleTime = 5 * time.Minute
)

type visitor struct {
	lastSeen time.Time
	count    int
}

// RateLimiter counts requests per client IP in fixed one minute windows.
type RateLimiter struct {
	requestsPerMinute int
	proxies           *TrustedProxies
	now               func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewRateLimiter creates a limiter. A non-positive limit disables limiting.
// Clients are keyed by proxies.ClientIP; a nil proxies keys by the peer address.
func NewRateLimiter(requestsPerMinute int, proxies *TrustedProxies) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		proxies:           proxies,
		now:               time.Now,
		visitors:          make(map[string]*visitor),
	}
}

// Middleware rejects requests over the limit with 429
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	if l.requestsPerMinute <= 0 {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(l.proxies.ClientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   http.StatusText(http.StatusTooManyRequests),
				"message": "rate limit exceeded",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *RateLimiter) allow(ip string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, exists := l.visitors[ip]
	if !exists {
		l.visitors[ip] = &visitor{lastSeen: now, count: 1}
		return true
	}

	if now.Sub(v.lastSeen) > rateWindow {
		v.count = 1
		v.lastSeen = now
		return true
	}

	if v.count >= l.requestsPerMinute {
		return false
	}

	v.count++
	return true
}

// Cleanup drops idle visitors every interval until ctx is done.
func (l *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.sweep()
			}
		}
	}()
}

func (l *RateLimiter) sweep() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > visitorIdleTime {
			delete(l.visitors, ip)
		}
	}
}
