package schema

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	monitoringmetrics "github.com/focusmcp/focusmcp/engine/infra/monitoring/metrics"
)

const metricSubsystem = "schema"

var validateBuckets = []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05}

type schemaMetrics struct {
	once sync.Once
	err  error

	compiles    metric.Int64Counter
	validations metric.Int64Counter
	validateDur metric.Float64Histogram
	cacheSize   metric.Int64ObservableGauge
}

var instruments schemaMetrics

func ensureMetrics() *schemaMetrics {
	instruments.once.Do(func() {
		instruments.err = instruments.init(otel.GetMeterProvider().Meter("focusmcp.schema"))
	})
	return &instruments
}

func (m *schemaMetrics) init(meter metric.Meter) error {
	var err error
	m.compiles, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "compiles_total"),
		metric.WithDescription("Schema compilations by cache outcome"),
	)
	if err != nil {
		return err
	}
	m.validations, err = meter.Int64Counter(
		monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "validations_total"),
		metric.WithDescription("Tool argument validations by outcome"),
	)
	if err != nil {
		return err
	}
	m.validateDur, err = meter.Float64Histogram(
		monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "validate_duration_seconds"),
		metric.WithDescription("Tool argument validation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(validateBuckets...),
	)
	if err != nil {
		return err
	}
	m.cacheSize, err = meter.Int64ObservableGauge(
		monitoringmetrics.MetricNameWithSubsystem(metricSubsystem, "cache_size"),
		metric.WithDescription("Compiled schemas held in memory"),
	)
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		var n int64
		compiled.Range(func(_, _ any) bool {
			n++
			return true
		})
		o.ObserveInt64(m.cacheSize, n)
		return nil
	}, m.cacheSize)
	return err
}

func recordCompile(ctx context.Context, cacheHit bool) {
	m := ensureMetrics()
	if m.err != nil {
		return
	}
	m.compiles.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(attribute.Bool("cache_hit", cacheHit)))
}

func recordValidation(ctx context.Context, d time.Duration, valid bool) {
	m := ensureMetrics()
	if m.err != nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	outcome := "invalid"
	if valid {
		outcome = "valid"
	}
	m.validations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	m.validateDur.Record(ctx, d.Seconds())
}
