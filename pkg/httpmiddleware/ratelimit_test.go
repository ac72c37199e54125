package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(remoteAddr string, headers map[string]string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/deals", nil)
	req.RemoteAddr = remoteAddr
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestRateLimit_Budget(t *testing.T) {
	h := RateLimit(RateLimitConfig{Max: 3, Window: time.Minute})(okHandler())

	for i := range 3 {
		w := serve(h, request("10.0.0.1:1000", nil))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Reset"))
	}

	w := serve(h, request("10.0.0.1:2000", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var (
		code int
		msg  string
	)
	require.NoError(t, jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			code, err = d.Int()
		case "message":
			msg, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate limit exceeded", msg)
}

func TestRateLimit_Keys(t *testing.T) {
	tests := []struct {
		name     string
		keyFunc  func(*http.Request) string
		first    *http.Request
		second   *http.Request
		wantCode int
	}{
		{
			name:     "different addresses",
			first:    request("10.0.0.1:1", nil),
			second:   request("10.0.0.2:1", nil),
			wantCode: http.StatusOK,
		},
		{
			name:     "same forwarded client",
			first:    request("192.168.1.1:1", map[string]string{"X-Forwarded-For": "203.0.113.50, 70.41.3.18"}),
			second:   request("192.168.1.2:1", map[string]string{"X-Forwarded-For": "203.0.113.50"}),
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:     "real ip header",
			first:    request("192.168.1.1:1", map[string]string{"X-Real-IP": "198.51.100.7"}),
			second:   request("192.168.1.9:1", map[string]string{"X-Real-IP": "198.51.100.7"}),
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:     "callers share an address",
			keyFunc:  CallerKey,
			first:    request("10.0.0.1:1", map[string]string{"Authorization": "Bearer a"}),
			second:   request("10.0.0.1:1", map[string]string{"Authorization": "Bearer b"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "same api key",
			keyFunc:  CallerKey,
			first:    request("10.0.0.1:1", map[string]string{"api_key": "k"}),
			second:   request("10.0.0.2:1", map[string]string{"api_key": "k"}),
			wantCode: http.StatusTooManyRequests,
		},
		{
			name:     "anonymous callers fall back to address",
			keyFunc:  CallerKey,
			first:    request("10.0.0.1:1", nil),
			second:   request("10.0.0.1:2", nil),
			wantCode: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RateLimit(RateLimitConfig{Max: 1, Window: time.Minute, KeyFunc: tt.keyFunc})(okHandler())
			require.Equal(t, http.StatusOK, serve(h, tt.first).Code)
			assert.Equal(t, tt.wantCode, serve(h, tt.second).Code)
		})
	}
}

func TestCounter_Slides(t *testing.T) {
	l := newLimiter(RateLimitConfig{Max: 4, Window: time.Minute})
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for range 4 {
		_, _, ok := l.take("k", start)
		require.True(t, ok)
	}
	_, _, ok := l.take("k", start.Add(30*time.Second))
	assert.False(t, ok)

	// Half way into the next window the previous count weighs 50%.
	_, _, ok = l.take("k", start.Add(90*time.Second))
	assert.True(t, ok)
	_, _, ok = l.take("k", start.Add(90*time.Second))
	assert.True(t, ok)
	_, _, ok = l.take("k", start.Add(90*time.Second))
	assert.False(t, ok)

	// Two idle windows reset the key completely.
	l.evict(start.Add(5 * time.Minute))
	assert.Empty(t, l.counters)
}
