package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"kpipulse/internal/config"
	"kpipulse/internal/dataprocessing"
	"kpipulse/internal/shared/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func scrape(t *testing.T, providers *OTelProviders) string {
	t.Helper()
	require.NotNil(t, providers.PrometheusHTTP)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestInitializeOTel(t *testing.T) {
	tests := []struct {
		name           string
		cfg            *OTelConfig
		wantErr        string
		wantPrometheus bool
		wantTracer     bool
	}{
		{
			name:           "defaults",
			cfg:            nil,
			wantPrometheus: true,
		},
		{
			name: "stdout tracing",
			cfg: &OTelConfig{
				ServiceName:    "kpipulse-test",
				TraceExporter:  "stdout",
				MetricExporter: "none",
				EnableTracing:  true,
				EnableMetrics:  true,
				SampleRatio:    1,
			},
			wantTracer: true,
		},
		{
			name: "everything disabled",
			cfg: &OTelConfig{
				ServiceName: "kpipulse-test",
			},
		},
		{
			name: "unknown trace exporter",
			cfg: &OTelConfig{
				ServiceName:   "kpipulse-test",
				TraceExporter: "jaeger",
				EnableTracing: true,
			},
			wantErr: "unsupported trace exporter",
		},
		{
			name: "unknown metric exporter",
			cfg: &OTelConfig{
				ServiceName:    "kpipulse-test",
				MetricExporter: "statsd",
				EnableMetrics:  true,
			},
			wantErr: "unsupported metric exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(tt.cfg, quietLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantPrometheus, providers.PrometheusHTTP != nil)
			assert.Equal(t, tt.wantTracer, providers.TracerProvider != nil)
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:   "kpipulse",
		Environment:   "production",
		TraceExporter: "none",
		EnableTracing: true,
		EnableMetrics: false,
		SampleRatio:   0.5,
	})

	assert.Equal(t, "kpipulse", cfg.ServiceName)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "none", cfg.MetricExporter)
	assert.False(t, cfg.EnableMetrics)
	assert.Equal(t, 0.5, cfg.SampleRatio)
	assert.NotEmpty(t, cfg.ServiceVersion)
}

func TestRecordPipelineRun(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	processor := dataprocessing.NewProcessor(quietLogger(), dataprocessing.DefaultOptions())
	result := processor.Run(context.Background(), testutil.KPICSV)

	RecordPipelineRun(context.Background(), metrics, result, "cli", 25*time.Millisecond)

	body := scrape(t, providers)
	assert.Contains(t, body, `pipeline_runs_total{`)
	assert.Contains(t, body, `source="cli"`)
	assert.Contains(t, body, `pipeline_rows_parsed_total{`)
	assert.Contains(t, body, `kind="missing_data"`)
	assert.Contains(t, body, "pipeline_run_duration_seconds")

	// A nil recorder or result is ignored.
	assert.NotPanics(t, func() {
		RecordPipelineRun(context.Background(), nil, result, "cli", time.Second)
		RecordPipelineRun(context.Background(), metrics, nil, "cli", time.Second)
	})
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	assert.Empty(t, TraceIDFromContext(context.Background()))

	ctx, span := tp.Tracer("test").Start(context.Background(), "export")
	traceID := span.SpanContext().TraceID().String()
	assert.Equal(t, traceID, TraceIDFromContext(ctx))
	assert.Equal(t, traceID, GetTraceID(ctx))

	// An explicit trace ID wins over the span.
	assert.Equal(t, "req-1", GetTraceID(WithTraceID(ctx, "req-1")))

	RecordError(ctx, errors.New("workbook write failed"))
	span.End()

	// No recording span, nothing to do.
	assert.NotPanics(t, func() { RecordError(context.Background(), errors.New("ignored")) })

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "workbook write failed", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}
