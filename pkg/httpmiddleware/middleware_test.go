package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_Order(t *testing.T) {
	var trail []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trail = append(trail, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Wrap(okHandler(), mark("outer"), mark("inner"))
	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"outer", "inner"}, trail)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := serve(h, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad\x01id")
	w = serve(h, req)
	assert.Len(t, seen, 36)
	assert.Equal(t, seen, w.Header().Get("X-Request-ID"))
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal server error"}`, w.Body.String())
}

func TestLogRequests(t *testing.T) {
	mux := chi.NewRouter()
	mux.Get("/api/shop/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	find := MakeRouteFinder(mux)

	core, logs := observer.New(zap.DebugLevel)
	h := Wrap(mux,
		RequestID(),
		InjectLogger(zap.New(core)),
		LogRequests(find),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/shop/42", nil)
	req.Header.Set("X-Request-ID", "req-1")
	serve(h, req)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "/api/shop/{id}", fields["http.route"])
	assert.Equal(t, int64(http.StatusNotFound), fields["http.status"])
	assert.Equal(t, "req-1", fields["request_id"])
}

func TestInjectLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := InjectLogger(zap.New(core))(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		zctx.From(r.Context()).Info("inside")
	}))

	serve(h, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1, logs.FilterMessage("inside").Len())
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        CORSConfig
		method     string
		origin     string
		preflight  bool
		wantCode   int
		wantOrigin string
		wantCreds  string
	}{
		{
			name:       "any origin",
			cfg:        CORSConfig{},
			method:     http.MethodGet,
			origin:     "https://app.green.bite",
			wantCode:   http.StatusOK,
			wantOrigin: "*",
		},
		{
			name:       "listed origin keeps configured case",
			cfg:        CORSConfig{AllowOrigins: []string{"https://App.Green.Bite"}},
			method:     http.MethodGet,
			origin:     "https://app.green.bite",
			wantCode:   http.StatusOK,
			wantOrigin: "https://App.Green.Bite",
		},
		{
			name:     "unlisted origin",
			cfg:      CORSConfig{AllowOrigins: []string{"https://app.green.bite"}},
			method:   http.MethodGet,
			origin:   "https://evil.example",
			wantCode: http.StatusOK,
		},
		{
			name:       "preflight with credentials",
			cfg:        CORSConfig{AllowOrigins: []string{"*", "https://app.green.bite"}, AllowCredentials: true, MaxAge: 600},
			method:     http.MethodOptions,
			origin:     "https://app.green.bite",
			preflight:  true,
			wantCode:   http.StatusNoContent,
			wantOrigin: "https://app.green.bite",
			wantCreds:  "true",
		},
		{
			name:      "preflight from unlisted origin",
			cfg:       CORSConfig{AllowOrigins: []string{"https://app.green.bite"}},
			method:    http.MethodOptions,
			origin:    "https://evil.example",
			preflight: true,
			wantCode:  http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.cfg)(okHandler())
			req := httptest.NewRequest(tt.method, "/api/deals", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := serve(h, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials"))
			if tt.preflight && tt.wantOrigin != "" {
				assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
			}
		})
	}
}
