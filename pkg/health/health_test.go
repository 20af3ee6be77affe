package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, endpoint http.HandlerFunc) (int, statusResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealth_ReadyGate(t *testing.T) {
	h := New()

	assert.False(t, h.IsReady(), "starts not ready")
	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)

	h.SetReady(true)
	assert.True(t, h.IsReady())
	code, resp = probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestHealth_LivenessAlwaysOKWithoutChecks(t *testing.T) {
	h := New()

	code, resp := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.Checks)
}

func TestHealth_FailureThreshold(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.Add(Readiness, "db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})

	c := h.checks[0]
	ctx := context.Background()

	// Two failures are below the threshold, the check stays healthy.
	c.run(ctx)
	c.run(ctx)
	assert.True(t, h.IsReady())

	c.run(ctx)
	assert.False(t, h.IsReady())

	code, resp := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "connection refused", resp.Checks["db"])
}

func TestHealth_RecoversAfterOneSuccess(t *testing.T) {
	h := New()
	h.SetReady(true)

	healthy := false
	h.Add(Readiness, "upstream", time.Second, func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("timeout")
	})

	c := h.checks[0]
	ctx := context.Background()
	for range 3 {
		c.run(ctx)
	}
	require.False(t, h.IsReady())

	healthy = true
	c.run(ctx)
	assert.True(t, h.IsReady())
}

func TestHealth_LivenessDoesNotAffectReadiness(t *testing.T) {
	h := New()
	h.SetReady(true)
	h.Add(Liveness, "goroutines", time.Second, func(context.Context) error {
		return errors.New("too many")
	})

	c := h.checks[0]
	for range 3 {
		c.run(context.Background())
	}

	assert.True(t, h.IsReady(), "liveness failure must not flip readiness")
	code, _ := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestHealth_StartProbesPeriodically(t *testing.T) {
	h := New()
	h.SetReady(true)

	calls := make(chan struct{}, 16)
	h.Add(Readiness, "ticker", time.Second, func(context.Context) error {
		calls <- struct{}{}
		return nil
	})

	h.Start(context.Background(), 10*time.Millisecond)
	defer h.Stop()

	for range 3 {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("check was not invoked")
		}
	}
	assert.True(t, h.IsReady())
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
