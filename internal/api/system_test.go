package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/empresasbrasil/internal/mode"
	"github.com/JakeFAU/empresasbrasil/internal/monitor"
)

func TestSystem_StatusOffline(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.monitor.status = monitor.Status{Monitoring: true, RetryCount: 3, IntervalMs: 30000}
	rec := h.do(http.MethodGet, "/api/system/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "OFFLINE", resp.System.Mode)
	assert.GreaterOrEqual(t, resp.System.UptimeSeconds, int64(59))
	assert.Positive(t, resp.System.PID)
	railway := resp.Database["railway"]
	assert.False(t, railway.Connected)
	assert.True(t, railway.Monitoring)
	assert.Equal(t, 3, railway.RetryCount)
	assert.Equal(t, map[string]string{
		"authentication": "WORKING",
		"companySearch":  "SAMPLE_DATA",
		"filters":        "STATIC_DATA",
	}, resp.Features)
}

func TestSystem_StatusRailway(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mode.set(mode.Railway)
	rec := h.do(http.MethodGet, "/api/system/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RAILWAY", resp.System.Mode)
	assert.True(t, resp.Database["railway"].Connected)
	assert.Equal(t, "REAL_DATA", resp.Features["companySearch"])
	assert.Equal(t, "REAL_DATA", resp.Features["filters"])
}

func TestSystem_ReconnectRestartsMonitoring(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/system/reconnect", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reconnectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Recovered)
	assert.Equal(t, "OFFLINE", resp.Mode)
	assert.True(t, resp.Monitor.Monitoring)
	assert.Equal(t, 1, h.monitor.resets)
	assert.Equal(t, 1, h.monitor.checks)
	assert.Equal(t, 1, h.monitor.starts)
}

func TestSystem_ReconnectRecovers(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.monitor.result = monitor.Result{Success: true, Recovered: true}
	h.monitor.onCheck = func() { h.mode.set(mode.Railway) }
	rec := h.do(http.MethodPost, "/api/system/reconnect", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp reconnectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Recovered)
	assert.Equal(t, "RAILWAY", resp.Mode)
	assert.Zero(t, h.monitor.starts)
}

func TestSystem_ReconnectWhenConnectedIsNoop(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mode.set(mode.Railway)
	rec := h.do(http.MethodPost, "/api/system/reconnect", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, h.monitor.checks)
	assert.Zero(t, h.monitor.resets)
}

func TestSystem_ReconnectWithoutMonitor(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(d *Deps, _ *Options) { d.Monitor = nil })
	rec := h.do(http.MethodPost, "/api/system/reconnect", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = h.do(http.MethodGet, "/api/system/status", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSystem_ReconnectWithoutDatabaseURL(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(_ *Deps, o *Options) { o.DatabaseConfigured = false })
	rec := h.do(http.MethodPost, "/api/system/reconnect", nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "Banco de dados não configurado", decodeBody(t, rec)["message"])
	assert.Zero(t, h.monitor.resets)
	assert.Zero(t, h.monitor.checks)
	assert.Zero(t, h.monitor.starts)
}
