package batch

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

const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeCycle     = "cycle"
	outcomeSkipped   = "skipped"
)

type engineMetrics struct {
	initOnce sync.Once

	items    metric.Int64Counter
	duration metric.Float64Histogram
	cycles   metric.Int64Counter
}

var batchMetrics engineMetrics

func recorder() *engineMetrics {
	batchMetrics.initOnce.Do(func() {
		meter := otel.GetMeterProvider().Meter("focusmcp.batch")
		var err error
		batchMetrics.items, err = meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("batch", "items_total"),
			metric.WithDescription("Batch items by kind and outcome"),
		)
		if err != nil {
			panic(fmt.Errorf("failed to create batch items counter: %w", err))
		}
		batchMetrics.duration, err = meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem("batch", "duration_seconds"),
			metric.WithDescription("Wall time of one batch run"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(monitoringmetrics.BatchDurationBuckets...),
		)
		if err != nil {
			panic(fmt.Errorf("failed to create batch duration histogram: %w", err))
		}
		batchMetrics.cycles, err = meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("batch", "cycles_total"),
			metric.WithDescription("Reference cycles found in submitted batches"),
		)
		if err != nil {
			panic(fmt.Errorf("failed to create batch cycle counter: %w", err))
		}
	})
	return &batchMetrics
}

func recordItem(ctx context.Context, kind Kind, outcome string) {
	if kind == "" {
		kind = "unknown"
	}
	recorder().items.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("outcome", outcome),
	))
}

func recordRun(ctx context.Context, d time.Duration, success bool) {
	recorder().duration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

func recordCycles(ctx context.Context, n int) {
	if n > 0 {
		recorder().cycles.Add(ctx, int64(n))
	}
}
