package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(6, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("expected burst of 2 to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %v", codes)
	}

	// Another client is unaffected.
	req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
	req.RemoteAddr = "198.51.100.1:4444"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected other IP to pass, got %d", rec.Code)
	}
}

func TestRateLimiterSweepsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("203.0.113.7")
	if len(rl.limiters) != 1 {
		t.Fatalf("expected one limiter, got %d", len(rl.limiters))
	}

	now = now.Add(limiterIdleAfter + limiterSweepEvery)
	rl.allow("198.51.100.1")

	if _, ok := rl.limiters["203.0.113.7"]; ok {
		t.Error("expected idle limiter to be swept")
	}
}
