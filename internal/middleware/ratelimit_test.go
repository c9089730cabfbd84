package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if _, allowed := rl.allow("10.0.0.1"); !allowed {
			t.Fatalf("request %d rejected within burst", i)
		}
	}
	retryAfter, allowed := rl.allow("10.0.0.1")
	if allowed {
		t.Fatal("request allowed past burst")
	}
	if retryAfter <= 0 {
		t.Fatalf("retryAfter = %f", retryAfter)
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if _, allowed := rl.allow("10.0.0.1"); !allowed {
		t.Fatal("first client rejected")
	}
	if _, allowed := rl.allow("10.0.0.1"); allowed {
		t.Fatal("exhausted client still allowed")
	}
	if _, allowed := rl.allow("10.0.0.2"); !allowed {
		t.Fatal("fresh client throttled by another client's bucket")
	}
}

func TestRateLimiterEvictsAtCapacity(t *testing.T) {
	rl := NewRateLimiter(10, 5)
	rl.maxBuckets = 50

	for i := 0; i < 50; i++ {
		if _, allowed := rl.allow(fmt.Sprintf("198.51.100.%d", i)); !allowed {
			t.Fatalf("fill request %d rejected", i)
		}
	}
	if rl.Len() != 50 {
		t.Fatalf("buckets = %d", rl.Len())
	}

	// A full map must recycle the longest-idle bucket, not lock the new
	// client out until restart.
	if _, allowed := rl.allow("203.0.113.9"); !allowed {
		t.Fatal("new client rejected at capacity")
	}
	if rl.Len() != 50 {
		t.Fatalf("buckets after eviction = %d", rl.Len())
	}
}

func TestRateLimiterCleanupDropsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(10, 5)

	rl.allow("10.0.0.1")
	rl.allow("10.0.0.2")
	rl.buckets["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)

	rl.cleanup(10 * time.Minute)

	if rl.Len() != 1 {
		t.Fatalf("buckets = %d, want stale bucket dropped", rl.Len())
	}
	if _, ok := rl.buckets["10.0.0.2"]; !ok {
		t.Fatal("active bucket dropped")
	}
}

func TestRateLimiterHandlerReturns429(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/tools", nil)
	req.RemoteAddr = "10.0.0.1:4242"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("Retry-After header missing")
	}
}
