package health

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

// --- Helpers ---

func passing() CheckFunc { return func(context.Context) error { return nil } }

func failing(msg string) CheckFunc {
	return func(context.Context) error { return errors.New(msg) }
}

type probeBody struct {
	status string
	checks map[string]string
}

func probe(t *testing.T, endpoint http.HandlerFunc) (int, probeBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body probeBody
	err := jx.DecodeBytes(w.Body.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "status":
			v, err := d.Str()
			body.status = v
			return err
		case "checks":
			body.checks = map[string]string{}
			return d.Obj(func(d *jx.Decoder, name string) error {
				v, err := d.Str()
				body.checks[name] = v
				return err
			})
		default:
			return d.Skip()
		}
	})
	require.NoError(t, err)
	return w.Code, body
}

func runTimes(c *check, n int) {
	for range n {
		c.run(context.Background())
	}
}

// --- Tests ---

func TestLiveEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		runs       int
		opts       []Option
		wantCode   int
		wantChecks map[string]string
	}{
		{name: "not yet run", runs: 0, wantCode: http.StatusOK},
		{name: "below threshold", runs: 2, wantCode: http.StatusOK},
		{
			name:       "at threshold",
			runs:       3,
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"db": "connection refused"},
		},
		{
			name:       "custom threshold",
			runs:       1,
			opts:       []Option{WithThresholds(1, 1)},
			wantCode:   http.StatusServiceUnavailable,
			wantChecks: map[string]string{"db": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.AddLivenessCheck("ok", time.Second, passing())
			h.AddLivenessCheck("db", time.Second, failing("connection refused"), tt.opts...)
			runTimes(h.liveness[1], tt.runs)

			code, body := probe(t, h.LiveEndpoint)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantChecks, body.checks)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "ok", body.status)
			} else {
				assert.Equal(t, "unhealthy", body.status)
			}
		})
	}
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	pinger := &mockPinger{}
	h.AddReadinessCheck("postgres", time.Second, PingCheck(pinger))

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "service is not ready", body.checks["_readiness"])
	assert.False(t, h.IsReady())

	h.SetReady(true)
	code, _ = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())

	pinger.err = errors.New("no route to host")
	runTimes(h.readiness[0], DefaultFailureThreshold)
	code, body = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "ping: no route to host", body.checks["postgres"])
	assert.NotContains(t, body.checks, "_readiness")
	assert.False(t, h.IsReady())

	// One success recovers with the default success threshold.
	pinger.err = nil
	runTimes(h.readiness[0], 1)
	assert.True(t, h.IsReady())

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestStartStop(t *testing.T) {
	h := New()
	var (
		mu    sync.Mutex
		calls int
	)
	h.AddLivenessCheck("counter", time.Second, func(context.Context) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 3
	}, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()

	mu.Lock()
	stopped := calls
	mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, calls, stopped+1)
}

func TestConcurrentProbes(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, failing("flaky"), WithThresholds(1, 1))
	h.AddReadinessCheck("ok", time.Second, passing())
	h.SetReady(true)
	h.Start(context.Background(), time.Millisecond)
	defer h.Stop()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				w := httptest.NewRecorder()
				h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.IsReady()
			}
		}()
	}
	wg.Wait()
}

func TestCheckers(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
	require.NoError(t, GCMaxPauseCheck(time.Hour)(context.Background()))
}
