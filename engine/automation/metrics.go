package automation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/focusmcp/focusmcp/engine/infra/monitoring/metrics"
)

type runnerMetrics struct {
	initOnce sync.Once

	scriptLatency metric.Float64Histogram
	errorCounter  metric.Int64Counter
	retryCounter  metric.Int64Counter
}

var metricsContainer runnerMetrics

func metricsRecorder() *runnerMetrics {
	metricsContainer.initOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("focusmcp.automation")
		metricsContainer.scriptLatency = mustHistogram(
			meter,
			monitoringmetrics.MetricNameWithSubsystem("automation", "script_seconds"),
			"Latency of automation script executions",
			monitoringmetrics.ScriptDurationBuckets,
		)
		metricsContainer.errorCounter = mustCounter(
			meter,
			monitoringmetrics.MetricNameWithSubsystem("automation", "errors_total"),
			"Automation script failures by failure point",
		)
		metricsContainer.retryCounter = mustCounter(
			meter,
			monitoringmetrics.MetricNameWithSubsystem("automation", "retries_total"),
			"Automation scripts retried after a transient failure",
		)
	})
	return &metricsContainer
}

func mustHistogram(meter metric.Meter, name, description string, boundaries []float64) metric.Float64Histogram {
	h, err := meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(boundaries...),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create automation histogram %s: %w", name, err))
	}
	return h
}

func mustCounter(meter metric.Meter, name, description string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(description))
	if err != nil {
		panic(fmt.Errorf("failed to create automation counter %s: %w", name, err))
	}
	return c
}

func recordScript(ctx context.Context, d time.Duration, outcome string) {
	metricsRecorder().scriptLatency.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}

func recordError(ctx context.Context, kind string) {
	metricsRecorder().errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func recordRetry(ctx context.Context) {
	metricsRecorder().retryCounter.Add(ctx, 1)
}
