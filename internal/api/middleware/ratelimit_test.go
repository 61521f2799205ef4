package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(requests int, window time.Duration) (*RateLimiter, *time.Time) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(requests, window)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, now := newTestLimiter(2, time.Minute)
	defer rl.Stop()

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	request := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/embeds/x", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, request("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, request("10.0.0.1:5001").Code, "port is not part of the client key")

	rec := request("10.0.0.1:5002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"RateLimitExceeded"`)

	assert.Equal(t, http.StatusNoContent, request("10.0.0.2:5000").Code, "other clients are unaffected")

	*now = now.Add(time.Minute + time.Second)
	assert.Equal(t, http.StatusNoContent, request("10.0.0.1:5003").Code, "window resets")
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl, now := newTestLimiter(1, time.Minute)
	defer rl.Stop()

	_, ok := rl.allow("a")
	require.True(t, ok)

	*now = now.Add(2 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.clients)
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "forwarded chain", headers: map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, remote: "10.0.0.9:1", want: "203.0.113.5"},
		{name: "real ip", headers: map[string]string{"X-Real-IP": " 198.51.100.7 "}, remote: "10.0.0.9:1", want: "198.51.100.7"},
		{name: "remote with port", remote: "192.0.2.1:4321", want: "192.0.2.1"},
		{name: "ipv6 remote", remote: "[2001:db8::1]:80", want: "2001:db8::1"},
		{name: "remote without port", remote: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
