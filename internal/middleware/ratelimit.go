package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter keeps a sliding window of request times per client IP.
// Idle clients are swept lazily on every sweepEvery-th call.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time
	calls  int
}

const sweepEvery = 1024

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow records a request from ip. When the window is full it returns false
// and how long until the oldest request leaves the window.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.calls++
	if rl.calls%sweepEvery == 0 {
		rl.sweep(now)
	}

	hits := prune(rl.hits[ip], now.Add(-rl.window))
	if len(hits) >= rl.limit {
		rl.hits[ip] = hits
		return false, hits[0].Add(rl.window).Sub(now)
	}
	rl.hits[ip] = append(hits, now)
	return true, 0
}

func (rl *RateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-rl.window)
	for ip, hits := range rl.hits {
		if len(prune(hits, cutoff)) == 0 {
			delete(rl.hits, ip)
		}
	}
}

// prune drops times at or before cutoff; hits is in ascending order.
func prune(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// RateLimit limits each client IP to limit requests per window. A limit of
// zero disables limiting. Forwarding headers are only honoured when
// trustProxy is set; otherwise the connection address is the key.
func RateLimit(limit int, window time.Duration, trustProxy bool) func(http.HandlerFunc) http.HandlerFunc {
	if limit <= 0 {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}
	limiter := NewRateLimiter(limit, window)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustProxy)

			ok, wait := limiter.Allow(ip)
			if !ok {
				slog.Warn("generate rate limit exceeded", "ip", ip, "retry_after", wait)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				writeJSONError(w, http.StatusTooManyRequests, "RateLimited", "too many requests, please try again later")
				return
			}

			next(w, r)
		}
	}
}

// clientIP behind a trusted proxy prefers the first X-Forwarded-For hop, then
// X-Real-IP. Otherwise it is the connection address.
func clientIP(r *http.Request, trustProxy bool) string {
	if !trustProxy {
		return remoteHost(r)
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
