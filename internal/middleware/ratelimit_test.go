//nolint:testpackage // testing internal window behaviour
package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(maxHits int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(context.Background(), maxHits, window))
	router.GET("/t/o/x", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func doRequest(router *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/t/o/x", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterAllowsUnderLimit(t *testing.T) {
	router := newLimitedRouter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if code := doRequest(router, "10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	router := newLimitedRouter(2, time.Minute)

	doRequest(router, "10.0.0.2:1234")
	doRequest(router, "10.0.0.2:1234")

	if code := doRequest(router, "10.0.0.2:1234"); code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", code)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	router := newLimitedRouter(1, time.Minute)

	doRequest(router, "10.0.0.3:1234")

	if code := doRequest(router, "10.0.0.4:1234"); code != http.StatusOK {
		t.Errorf("second client status = %d, want 200", code)
	}
}

func TestRateLimiterResetsAfterWindow(t *testing.T) {
	router := newLimitedRouter(1, 20*time.Millisecond)

	doRequest(router, "10.0.0.5:1234")
	if code := doRequest(router, "10.0.0.5:1234"); code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 before window expiry", code)
	}

	time.Sleep(30 * time.Millisecond)

	if code := doRequest(router, "10.0.0.5:1234"); code != http.StatusOK {
		t.Errorf("status = %d, want 200 after window expiry", code)
	}
}

func TestRateLimiterPurgeLoopExitsOnCancel(t *testing.T) {
	rl := &rateLimiter{windows: map[string]*hitWindow{}, maxHits: 1, window: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.purgeLoop(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("purge loop did not exit after context cancellation")
	}
}

func TestRateLimiterPurgeExpiredDropsStaleWindows(t *testing.T) {
	now := time.Now()
	rl := &rateLimiter{
		windows: map[string]*hitWindow{
			"10.0.0.6": {hits: 2, expiresAt: now.Add(-time.Second)},
			"10.0.0.7": {hits: 1, expiresAt: now.Add(time.Minute)},
		},
		maxHits: 5,
		window:  time.Minute,
	}

	rl.purgeExpired(now)

	if _, kept := rl.windows["10.0.0.6"]; kept {
		t.Error("expired window should be dropped")
	}
	if _, kept := rl.windows["10.0.0.7"]; !kept {
		t.Error("live window should be kept")
	}
}
