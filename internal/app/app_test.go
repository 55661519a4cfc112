package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpipulse/internal/config"
	"kpipulse/internal/shared/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Dashboard.ExportDir = filepath.Join(t.TempDir(), "exports")
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.Environment = "test"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app
}

func serve(app *Application, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestNew_InvalidTotalMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.TotalMetrics = []string{"Organic Total Sessions:median"}

	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestApplication_Routes(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	tests := []struct {
		name           string
		method         string
		target         string
		contentType    string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{"health", http.MethodGet, "/api/health", "", "", http.StatusOK, `"status":"ok"`},
		{"ready", http.MethodGet, "/api/health/ready", "", "", http.StatusOK, `"pipeline"`},
		{"version", http.MethodGet, "/api/version", "", "", http.StatusOK, `"version"`},
		{"dashboard", http.MethodPost, "/api/v1/dashboard", "text/csv", testutil.KPICSV, http.StatusOK, `"latest_month":"May"`},
		{"cards", http.MethodPost, "/api/v1/dashboard/cards?month=April", "text/csv", testutil.KPICSV, http.StatusOK, `"month":"April"`},
		{"cards for absent month", http.MethodPost, "/api/v1/dashboard/cards?month=June", "text/csv", testutil.KPICSV, http.StatusNotFound, `"month":"June"`},
		{"empty upload", http.MethodPost, "/api/v1/dashboard", "text/csv", "", http.StatusBadRequest, `"EMPTY_UPLOAD"`},
		{"unknown route", http.MethodGet, "/api/nope", "", "", http.StatusNotFound, `"status":404`},
		{"wrong method", http.MethodGet, "/api/v1/dashboard/", "", "", http.StatusMethodNotAllowed, `"status":405`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.target, tt.contentType, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_Export(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	rec := serve(app, http.MethodPost, "/api/v1/dashboard/export?format=csv&table=totals&display=true", "text/csv", testutil.KPICSV)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "kpi_totals.csv")
	assert.Contains(t, rec.Body.String(), "16.8K")
}

func TestApplication_ProcessResult(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	rec := serve(app, http.MethodPost, "/api/v1/dashboard", "text/plain", testutil.KPICSV)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string `json:"status"`
		Data   struct {
			RowCount    int `json:"row_count"`
			Diagnostics []struct {
				Kind string `json:"kind"`
			} `json:"diagnostics"`
		} `json:"data"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "success", body.Status)
	assert.Equal(t, 6, body.Data.RowCount)
	assert.Len(t, body.Data.Diagnostics, body.Counts["missing_data"])
}

func TestApplication_Metrics(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	serve(app, http.MethodPost, "/api/v1/dashboard", "text/csv", testutil.KPICSV)
	rec := serve(app, http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pipeline_runs_total")
	assert.Contains(t, rec.Body.String(), `source="http"`)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.EnableMetrics = false
	app := newTestApp(t, cfg)

	rec := serve(app, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_UploadLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.MaxUploadBytes = 64
	app := newTestApp(t, cfg)

	rec := serve(app, http.MethodPost, "/api/v1/dashboard", "text/csv", testutil.KPICSV)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestApplication_RateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security.RateLimit.Enabled = true
	cfg.Security.RateLimit.RPS = 0.001
	cfg.Security.RateLimit.Burst = 1
	app := newTestApp(t, cfg)

	first := serve(app, http.MethodGet, "/api/health", "", "")
	second := serve(app, http.MethodGet, "/api/health", "", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestApplication_StartStop(t *testing.T) {
	app := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))

	resp, err := http.Get(fmt.Sprintf("http://%s/api/health/live", app.Addr()))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"alive"`)
	assert.DirExists(t, app.Config.Dashboard.ExportDir)

	require.NoError(t, app.Stop(context.Background()))
	_, err = http.Get(fmt.Sprintf("http://%s/api/health", app.Addr()))
	assert.Error(t, err)
}
