package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimiter(t *testing.T) {
	tests := []struct {
		name         string
		ip           string
		expectStatus int
		numRequests  int
		sleep        time.Duration
		burst        int
		limit        rate.Limit
	}{
		{
			name:         "within rate limit",
			ip:           "192.168.1.1",
			expectStatus: http.StatusOK,
			numRequests:  20,
			limit:        rate.Every(time.Millisecond),
			burst:        20,
			sleep:        time.Millisecond,
		},
		{
			name:         "exceed rate limit per second",
			ip:           "192.168.1.1",
			expectStatus: http.StatusTooManyRequests,
			numRequests:  65,
			limit:        rate.Every(time.Millisecond),
			burst:        60,
			sleep:        0,
		},
		{
			name:         "ok within limit as limits refresh 1",
			ip:           "192.168.1.1",
			expectStatus: http.StatusOK,
			numRequests:  10,
			limit:        rate.Every(time.Millisecond),
			burst:        1,
			sleep:        time.Millisecond,
		},
		{
			name:         "ok within limit as limits refresh 2",
			ip:           "192.168.1.1",
			expectStatus: http.StatusOK,
			numRequests:  11,
			limit:        rate.Every(time.Millisecond),
			burst:        10,
			sleep:        time.Millisecond / 10,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Create a new rate limiter
			rl := NewRateLimiter(slog.Default(), func(r *http.Request) string {
				return r.RemoteAddr // Use IP address for rate limit
			}, tc.limit, tc.burst)
			defer rl.Stop()

			// Create a simple handler that returns 200 OK
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("test"))
			})

			// Wrap the test handler with the rate limiter middleware
			handler := rl.Limit(testHandler)

			// Set up request and response recorder
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.RemoteAddr = tc.ip

			var rec *httptest.ResponseRecorder
			for i := 0; i < tc.numRequests; i++ {
				rec = httptest.NewRecorder()
				handler.ServeHTTP(rec, req)
				time.Sleep(tc.sleep)
			}

			// Assert the final response status
			assert.Equal(t, tc.expectStatus, rec.Code)
		})
	}
}

func TestRateLimiter_Skipper(t *testing.T) {
	rl := NewRateLimiter(slog.Default(), IPAddressKeyFunc, rate.Every(time.Hour), 1,
		WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }))
	defer rl.Stop()
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoke", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invoke", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestRateLimiter_KeysByIP(t *testing.T) {
	rl := NewRateLimiter(slog.Default(), IPAddressKeyFunc, rate.Every(time.Hour), 1)
	defer rl.Stop()
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	// same client, different source port
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:5678"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
	assert.Equal(t, 2, rl.size())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(slog.Default(), IPAddressKeyFunc, rate.Every(time.Millisecond), 1,
		WithCleanupInterval(5*time.Millisecond))
	defer rl.Stop()
	rl.getLimiter("10.0.0.1")
	assert.Eventually(t, func() bool { return rl.size() == 0 }, time.Second, 5*time.Millisecond)
}
