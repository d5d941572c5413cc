package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the application instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	UploadsTotal       metric.Int64Counter
	UploadBytes        metric.Int64Histogram
	RunsTotal          metric.Int64Counter
	RunDuration        metric.Float64Histogram
	RunnerFailures     metric.Int64Counter
	PreprocessDuration metric.Float64Histogram
}

// NewMetrics creates the instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(InstrumentationName)
	}

	var (
		m   Metrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.UploadsTotal, err = meter.Int64Counter(
		"analysis_uploads_total",
		metric.WithDescription("Uploaded CSV files by outcome"),
	); err != nil {
		return nil, err
	}

	if m.UploadBytes, err = meter.Int64Histogram(
		"analysis_upload_size_bytes",
		metric.WithDescription("Size of accepted uploads"),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}

	if m.RunsTotal, err = meter.Int64Counter(
		"analysis_runs_total",
		metric.WithDescription("Analysis runs by analysis type and status"),
	); err != nil {
		return nil, err
	}

	if m.RunDuration, err = meter.Float64Histogram(
		"analysis_run_duration_seconds",
		metric.WithDescription("Analysis run duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.RunnerFailures, err = meter.Int64Counter(
		"analysis_runner_failures_total",
		metric.WithDescription("Failed invocations of the analysis runner"),
	); err != nil {
		return nil, err
	}

	if m.PreprocessDuration, err = meter.Float64Histogram(
		"analysis_preprocess_duration_seconds",
		metric.WithDescription("Preprocessing duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// RecordUpload counts an upload and, when accepted, its size
func (m *Metrics) RecordUpload(ctx context.Context, size int64, accepted bool) {
	if m == nil {
		return
	}
	status := "accepted"
	if !accepted {
		status = "rejected"
	}
	m.UploadsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	if accepted {
		m.UploadBytes.Record(ctx, size)
	}
}

// RecordRun records one analysis run
func (m *Metrics) RecordRun(ctx context.Context, analysis string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("analysis", analysis),
		attribute.String("status", status),
	)
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRunnerFailure counts a failed runner invocation
func (m *Metrics) RecordRunnerFailure(ctx context.Context, analysis, reason string) {
	if m == nil {
		return
	}
	m.RunnerFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analysis", analysis),
		attribute.String("reason", reason),
	))
}

// RecordPreprocess records the time spent preprocessing a table
func (m *Metrics) RecordPreprocess(ctx context.Context, scaler string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PreprocessDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("scaler", scaler)))
}
