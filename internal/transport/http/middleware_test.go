package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimitIsPerClient(t *testing.T) {
	router := NewRouter(RouterConfig{
		Engine:    newTestEngine(t),
		RateLimit: 1,
		RateBurst: 2,
	})
	get := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/sessions/999", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 150; i++ {
		remote := fmt.Sprintf("10.0.%d.%d:4000", i/256, i%256)
		if code := get(remote); code == http.StatusTooManyRequests {
			t.Fatalf("client %d was limited by other clients' traffic", i)
		}
	}

	codes := []int{get("192.0.2.1:5000"), get("192.0.2.1:5001"), get("192.0.2.1:5002")}
	if codes[0] == http.StatusTooManyRequests || codes[1] == http.StatusTooManyRequests {
		t.Fatalf("burst should admit the first two requests, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the client's burst is spent, got %v", codes)
	}
}

func TestClientLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newClientLimiter(rate.Limit(1), 1)
	l.now = func() time.Time { return now }

	l.allow("a")
	l.allow("b")
	if l.size() != 2 {
		t.Fatalf("expected 2 tracked clients, got %d", l.size())
	}

	now = now.Add(10 * time.Minute)
	if !l.allow("c") {
		t.Fatalf("fresh client must be admitted")
	}
	if l.size() != 1 {
		t.Fatalf("expected idle clients to be evicted, got %d", l.size())
	}
}
