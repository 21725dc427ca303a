// Per-client request budget for the admin step endpoint.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimiter grants each client IP a fixed number of requests per window.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	clients   map[string]*clientWindow
	lastSweep time.Time
}

type clientWindow struct {
	start time.Time
	used  int
}

// NewRateLimiter allows limit requests per window for every client.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		clients: make(map[string]*clientWindow),
	}
}

// Allow spends one request from ip's budget. When the budget is gone it
// reports false and how long until the window resets.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > 2*rl.window {
		for k, cw := range rl.clients {
			if now.Sub(cw.start) > 2*rl.window {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	cw := rl.clients[ip]
	if cw == nil || now.Sub(cw.start) >= rl.window {
		cw = &clientWindow{start: now}
		rl.clients[ip] = cw
	}
	if cw.used >= rl.limit {
		return false, cw.start.Add(rl.window).Sub(now)
	}
	cw.used++
	return true, 0
}

// clientIP prefers the first X-Forwarded-For hop, then the remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitMiddleware answers 429 with Retry-After once a client is over budget.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := rl.Allow(clientIP(r))
		if !ok {
			secs := int(wait.Seconds())
			if wait%time.Second != 0 {
				secs++
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
