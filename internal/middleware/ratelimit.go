package middleware

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// hitWindow tracks how many tracking hits one client IP has made in the
// current window.
type hitWindow struct {
	hits      int
	expiresAt time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*hitWindow
	maxHits int
	window  time.Duration
}

// RateLimiter caps tracking hits per client IP within a fixed window. The
// limit is deliberately generous: it exists to blunt pixel-hammering
// scanners, not to throttle real recipients. The cleanup goroutine exits when
// ctx is cancelled.
func RateLimiter(ctx context.Context, maxHits int, window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		windows: make(map[string]*hitWindow),
		maxHits: maxHits,
		window:  window,
	}
	go limiter.purgeLoop(ctx)

	return limiter.handle
}

func (rl *rateLimiter) handle(c *gin.Context) {
	ip, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
	if ip == "" {
		ip = c.Request.RemoteAddr
	}

	rl.mu.Lock()
	w, exists := rl.windows[ip]
	now := time.Now()

	if !exists || now.After(w.expiresAt) {
		rl.windows[ip] = &hitWindow{hits: 1, expiresAt: now.Add(rl.window)}
		rl.mu.Unlock()
		c.Next()
		return
	}

	w.hits++
	if w.hits > rl.maxHits {
		rl.mu.Unlock()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate limit exceeded",
		})
		return
	}
	rl.mu.Unlock()
	c.Next()
}

// purgeLoop drops expired windows once per window until ctx is cancelled.
func (rl *rateLimiter) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.purgeExpired(time.Now())
		}
	}
}

func (rl *rateLimiter) purgeExpired(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, w := range rl.windows {
		if now.After(w.expiresAt) {
			delete(rl.windows, ip)
		}
	}
}
