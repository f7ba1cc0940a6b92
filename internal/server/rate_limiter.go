package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipRateLimiter caps requests per client IP over fixed windows. The first
// request from an IP opens its window; the window holds limit tokens with
// no refill and is replaced once it ends.
type ipRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*ipWindow
	limit   int
	window  time.Duration
	now     func() time.Time
	lastGC  time.Time
}

type ipWindow struct {
	limiter *rate.Limiter
	resetAt time.Time
}

func newIPRateLimiter(limit int, window time.Duration) *ipRateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &ipRateLimiter{
		windows: make(map[string]*ipWindow),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.pruneLocked(now)

	w, ok := l.windows[ip]
	if !ok || !now.Before(w.resetAt) {
		// A zero rate never refills: the burst is the whole window's budget.
		w = &ipWindow{
			limiter: rate.NewLimiter(0, l.limit),
			resetAt: now.Add(l.window),
		}
		l.windows[ip] = w
	}

	return w.limiter.AllowN(now, 1)
}

// pruneLocked drops windows that have ended. Runs at most once per window.
func (l *ipRateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastGC) < l.window {
		return
	}
	l.lastGC = now

	for ip, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, ip)
		}
	}
}

func (l *ipRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// clientIP is the host part of RemoteAddr. Forwarding headers are ignored.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
