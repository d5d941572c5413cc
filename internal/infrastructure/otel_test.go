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
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"csvanalyst/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_Defaults(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.Nil(t, providers.TracerProvider, "tracing is off by default")
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)
}

func TestInitializeOTel_Configurations(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.TelemetryConfig
		wantTracing bool
		wantMetrics bool
		wantErr     bool
	}{
		{"all off", config.TelemetryConfig{TraceExporter: "none"}, false, false, false},
		{"stdout traces", config.TelemetryConfig{TraceExporter: "stdout", MetricsEnabled: true}, true, true, false},
		{"unknown exporter", config.TelemetryConfig{TraceExporter: "zipkin"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(OTelConfigFrom(tt.cfg), quietLogger())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer providers.Shutdown(context.Background())

			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)

			// no-op instruments are always usable
			_, err = NewMetrics(providers.Meter)
			assert.NoError(t, err)
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(OTelConfigFrom(config.TelemetryConfig{TraceExporter: "none", MetricsEnabled: true}), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordRun(context.Background(), "statistical", time.Second, nil)

	server := httptest.NewServer(providers.PrometheusHTTP)
	defer server.Close()

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "analysis_runs")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))

	RecordError(ctx, errors.New("boom"))
	AddSpanEvent(ctx, "checkpoint")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "boom", spans[0].Status().Description)
	names := []string{}
	for _, e := range spans[0].Events() {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "exception")
	assert.Contains(t, names, "checkpoint")
}

func TestMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordUpload(ctx, 1024, true)
	m.RecordUpload(ctx, 0, false)
	m.RecordRun(ctx, "pca", 2*time.Second, errors.New("runner failed"))
	m.RecordRunnerFailure(ctx, "pca", "exit")
	m.RecordPreprocess(ctx, "standard", 10*time.Millisecond)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if data, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), sums["analysis_uploads_total"])
	assert.Equal(t, int64(1), sums["analysis_runs_total"])
	assert.Equal(t, int64(1), sums["analysis_runner_failures_total"])

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.RecordRun(ctx, "none", 0, nil)
		nilMetrics.RecordUpload(ctx, 1, true)
	})
}
