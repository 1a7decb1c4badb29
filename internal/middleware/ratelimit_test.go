package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	for i := 0; i < 5; i++ {
		if !rl.Allow("1.2.3.4", 5, time.Minute) {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4", 5, time.Minute) {
		t.Error("request 6 should be rejected")
	}
	if !rl.Allow("5.6.7.8", 5, time.Minute) {
		t.Error("different key should be allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl := NewRateLimiter()

	if !rl.Allow("1.2.3.4", 1, 10*time.Millisecond) {
		t.Error("first request should be allowed")
	}
	if rl.Allow("1.2.3.4", 1, 10*time.Millisecond) {
		t.Error("second request should be rejected")
	}

	time.Sleep(15 * time.Millisecond)
	if !rl.Allow("1.2.3.4", 1, 10*time.Millisecond) {
		t.Error("request after window should be allowed")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter()
	rl.Allow("stale", 5, 10*time.Millisecond)
	rl.Allow("fresh", 5, time.Minute)

	time.Sleep(15 * time.Millisecond)
	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.entries["stale"]; ok {
		t.Error("stale entry should be removed")
	}
	if _, ok := rl.entries["fresh"]; !ok {
		t.Error("fresh entry should remain")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimit(rl, RealIP, 2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("request %d status = %d, want 200", i+1, rec.Code)
		}
	}

	req := httptest.NewRequest("POST", "/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{"direct", "10.0.0.1:54321", "", "10.0.0.1"},
		{"forwarded single", "127.0.0.1:8080", "203.0.113.9", "203.0.113.9"},
		{"forwarded chain", "127.0.0.1:8080", "203.0.113.9, 10.0.0.1", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
