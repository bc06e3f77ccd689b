package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clipfeed/notepress/internal/pipeline"
)

func TestHealthEndpoints(t *testing.T) {
	srv := httptest.NewServer(NewServer(zap.NewNop()).Handler())
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
		_ = resp.Body.Close()
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewServer(zap.NewNop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLatestRun(t *testing.T) {
	s := NewServer(zap.NewNop())
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/runs/latest")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()

	s.SetLatest(pipeline.RunSummary{
		RunID:   "run-1",
		Total:   3,
		Created: 2,
		Failed:  1,
		Started: time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC),
	})

	resp, err = http.Get(srv.URL + "/v1/runs/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Run pipeline.RunSummary `json:"run"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body.Run.RunID)
	assert.Equal(t, 3, body.Run.Total)
	assert.Equal(t, 2, body.Run.Created)
}

func TestRequestIDPreserved(t *testing.T) {
	srv := httptest.NewServer(NewServer(zap.NewNop()).Handler())
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "caller-supplied")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "caller-supplied", resp.Header.Get("X-Request-ID"))
}
