package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/empresasbrasil/internal/config"
	"github.com/JakeFAU/empresasbrasil/internal/mode"
)

func offlineConfig() *config.Config {
	return &config.Config{
		Env:    "test",
		Server: config.ServerConfig{Port: 6000, FrontendURL: "http://localhost:5173", RequestTimeout: 5 * time.Second},
		DB:     config.DBConfig{MaxConns: 2, ConnectTimeout: time.Second},
		Monitor: config.MonitorConfig{
			Interval:        time.Second,
			BackoffInterval: 2 * time.Second,
			ProbeTimeout:    time.Second,
			MaxRetries:      5,
		},
		Auth:  config.AuthConfig{TokenTTL: time.Hour, Issuer: "empresasbrasil"},
		Email: config.EmailConfig{From: "noreply@empresasbrasil.com.br"},
	}
}

func TestBuildServesOfflineData(t *testing.T) {
	t.Parallel()

	app, err := Build(context.Background(), offlineConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	assert.Equal(t, mode.Offline, app.Mode())

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	var ready map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ready))
	_ = resp.Body.Close()
	assert.Equal(t, "OFFLINE", ready["mode"])

	body, err := json.Marshal(map[string]string{"email": offlineUserEmail, "password": offlineUserPassword})
	require.NoError(t, err)
	resp, err = http.Post(srv.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/companies/filtered", "application/json",
		bytes.NewReader([]byte(`{"uf":"SP","companyLimit":1000,"page":1}`)))
	require.NoError(t, err)
	var search struct {
		Offline bool `json:"offline"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&search))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, search.Offline)

	resp, err = http.Post(srv.URL+"/api/stripe/webhook", "application/json", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestOfflineUsersSeedsTestAccount(t *testing.T) {
	t.Parallel()

	users, err := offlineUsers()
	require.NoError(t, err)
	u, err := users.ByEmail(context.Background(), offlineUserEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
}
