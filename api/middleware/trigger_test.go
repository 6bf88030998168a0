package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/durent/durent-backend/pkg/errors"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTriggerSecretOpenWhenUnset(t *testing.T) {
	handler := TriggerSecret("  ", nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/zone-notifications/trigger-digest", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTriggerSecretEnforced(t *testing.T) {
	handler := TriggerSecret("s3cret", nil)(okHandler())

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong", header: "nope", want: http.StatusUnauthorized},
		{name: "match", header: "s3cret", want: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/end-requests/auto-accept", nil)
			if tc.header != "" {
				req.Header.Set(TriggerSecretHeader, tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestTriggerRateLimitBlocksAfterLimit(t *testing.T) {
	store := newFakeRateStore()
	policy := NewTriggerRateLimitPolicy("digest", time.Minute, 2)
	handler := TriggerRateLimit(policy, store, nil)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/zone-notifications/trigger-digest", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if i < 2 {
			if rec.Code != http.StatusOK {
				t.Fatalf("expected success before limit, got %d", rec.Code)
			}
			continue
		}
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("expected 429, got %d", rec.Code)
		}
		if got := rec.Header().Get("Retry-After"); got != "59" {
			t.Fatalf("expected Retry-After 59, got %q", got)
		}
		var payload struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode error: %v", err)
		}
		if payload.Error.Code != string(pkgerrors.CodeRateLimit) {
			t.Fatalf("unexpected code: %s", payload.Error.Code)
		}
	}

	if got := store.counts["trigger:digest:1.2.3.4"]; got != 3 {
		t.Fatalf("expected 3 attempts recorded, got %d", got)
	}
}

func TestTriggerRateLimitKeysByProxyAppendedIP(t *testing.T) {
	store := newFakeRateStore()
	policy := NewTriggerRateLimitPolicy("", time.Minute, 1).WithTrustedProxies(1)
	handler := TriggerRateLimit(policy, store, nil)(okHandler())

	for _, ip := range []string{"9.9.9.9", "8.8.8.8"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "10.0.0.1:443"
		req.Header.Set("X-Forwarded-For", "1.1.1.1, "+ip)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s, got %d", ip, rec.Code)
		}
	}
	if _, ok := store.counts["trigger:trigger:9.9.9.9"]; !ok {
		t.Fatalf("expected proxy-appended ip key, got %v", store.counts)
	}
	if _, ok := store.counts["trigger:trigger:1.1.1.1"]; ok {
		t.Fatal("client-supplied forwarded entry must not be used")
	}
}

func TestTriggerRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	store := newFakeRateStore()
	handler := TriggerRateLimit(NewTriggerRateLimitPolicy("digest", time.Minute, 1), store, nil)(okHandler())

	codes := make([]int, 0, 2)
	for _, spoofed := range []string{"5.5.5.5", "6.6.6.6"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		req.Header.Set("X-Forwarded-For", spoofed)
		req.Header.Set("X-Real-IP", spoofed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected rotating X-Forwarded-For to be ignored, got %v", codes)
	}
	if got := store.counts["trigger:digest:1.2.3.4"]; got != 2 {
		t.Fatalf("expected both hits on the peer address, got %v", store.counts)
	}
}

func TestClientIPTrustedHops(t *testing.T) {
	cases := []struct {
		name   string
		header string
		hops   int
		want   string
	}{
		{name: "no proxies", header: "7.7.7.7", hops: 0, want: "10.0.0.9"},
		{name: "one proxy", header: "7.7.7.7, 3.3.3.3", hops: 1, want: "3.3.3.3"},
		{name: "two proxies", header: "7.7.7.7, 3.3.3.3, 10.1.1.1", hops: 2, want: "3.3.3.3"},
		{name: "short header", header: "3.3.3.3", hops: 2, want: "10.0.0.9"},
		{name: "garbage", header: "not-an-ip", hops: 1, want: "10.0.0.9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.RemoteAddr = "10.0.0.9:1234"
			req.Header.Set("X-Forwarded-For", tc.header)
			if got := clientIP(req, tc.hops); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTriggerRateLimitStoreFailure(t *testing.T) {
	store := newFakeRateStore()
	store.err = errors.New("redis down")
	handler := TriggerRateLimit(NewTriggerRateLimitPolicy("digest", time.Minute, 1), store, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestTriggerRateLimitDisabled(t *testing.T) {
	handler := TriggerRateLimit(NewTriggerRateLimitPolicy("digest", 0, 0), nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

type fakeRateStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeRateStore() *fakeRateStore {
	return &fakeRateStore{counts: map[string]int64{}}
}

func (f *fakeRateStore) Hit(ctx context.Context, scope string, window time.Duration) (int64, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, 0, f.err
	}
	f.counts[scope]++
	return f.counts[scope], window - 1500*time.Millisecond, nil
}
