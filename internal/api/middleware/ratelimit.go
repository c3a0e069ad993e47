package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/taskify-app/taskify-be/internal/apperr"
)

type clientWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window per-client request counter. Windows are keyed
// by remote IP (use chi's RealIP middleware upstream so proxies don't collapse
// every caller onto one key).
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientWindow
	max       int
	window    time.Duration
	lastSweep time.Time
}

// NewRateLimiter creates a limiter admitting max requests per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		max:     max,
		window:  window,
	}
}

// Handler wraps next with the rate limit. Requests beyond the window budget
// are rejected with 429.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.allow(host, time.Now()) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			apperr.WriteStatus(w, http.StatusTooManyRequests, apperr.Kind("rate_limited"), "Too many requests. Try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Drop lapsed windows at most once per window so the map stays bounded
	// by the number of clients active in the last window.
	if now.Sub(rl.lastSweep) > rl.window {
		for k, cw := range rl.clients {
			if now.Sub(cw.start) > rl.window {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.start) > rl.window {
		cw = &clientWindow{start: now}
		rl.clients[key] = cw
	}

	cw.count++
	return cw.count <= rl.max
}
