package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokoerp/etims-bridge/api"
	"github.com/sokoerp/etims-bridge/simulator"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	handler := NewHandler(simulator.New(slog.Default()), slog.Default())
	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		Log:                      slog.Default(),
		DrainDuration:            10 * time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, handler)
	require.NoError(t, err)
	return srv
}

func TestDeviceCallEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	body := `{"tin":"P000000000X","bhfId":"00","invcNo":1}`
	resp, err := http.Post(ts.URL+"/etims/api/saveTrnsSalesOsdc", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var envelope api.ResponseEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, api.ResultSuccess, envelope.ResultCode)
	assert.Contains(t, envelope.Data, "rcptSign")
	assert.Contains(t, envelope.Data, "intrlData")
}

func TestDeviceCallRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/etims/api/saveItem", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeviceCallEmptyBody(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/etims/api/selectCodeList", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope api.ResponseEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, api.ResultSuccess, envelope.ResultCode)
}

func TestHealthAndDrainEndpoints(t *testing.T) {
	srv := newTestServer(t)
	ts := httptest.NewServer(srv.getRouter())
	defer ts.Close()

	get := func(path string) (int, string) {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/livez")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "alive")

	code, _ = get("/readyz")
	assert.Equal(t, http.StatusOK, code)

	code, body = get("/drain")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "draining")

	code, _ = get("/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, code)

	code, _ = get("/undrain")
	assert.Equal(t, http.StatusOK, code)

	code, _ = get("/readyz")
	assert.Equal(t, http.StatusOK, code)
}
