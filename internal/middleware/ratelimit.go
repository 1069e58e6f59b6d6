package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trackpoint-dev/locations-backend-go/pkg/response"
)

// rateLimiter is a fixed-window per-client counter. A client gets at most
// limit requests per window; buckets for idle clients are dropped by a
// background sweep.
type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	count       int
	windowStart time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go rl.sweep()
	return rl
}

func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for now := range ticker.C {
		rl.mu.Lock()
		for client, b := range rl.buckets {
			if now.Sub(b.windowStart) >= rl.window {
				delete(rl.buckets, client)
			}
		}
		rl.mu.Unlock()
	}
}

// allow counts one request for the client and reports whether it fits the
// current window.
func (rl *rateLimiter) allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[client]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[client] = &bucket{count: 1, windowStart: now}
		return true
	}
	if b.count >= rl.limit {
		return false
	}
	b.count++
	return true
}

// RateLimit limits requests per client IP. Used on the ingest route, where
// misconfigured trackers can flood.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := newRateLimiter(limit, window)

	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			response.Error(c, http.StatusTooManyRequests, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
