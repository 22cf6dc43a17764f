package middleware

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/focusmcp/focusmcp/engine/infra/monitoring/metrics"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

type httpInstruments struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inFlight metric.Int64UpDownCounter
}

var (
	instruments *httpInstruments
	initOnce    sync.Once
)

func initMetrics(ctx context.Context, meter metric.Meter) *httpInstruments {
	initOnce.Do(func() {
		log := logger.FromContext(ctx)
		inst := &httpInstruments{}
		var err error
		inst.requests, err = meter.Int64Counter(
			metrics.MetricNameWithSubsystem("http", "requests_total"),
			metric.WithDescription("Total HTTP requests"),
		)
		if err != nil {
			log.Error("Failed to create http requests counter", "error", err)
			return
		}
		inst.duration, err = meter.Float64Histogram(
			metrics.MetricNameWithSubsystem("http", "request_duration_seconds"),
			metric.WithDescription("HTTP request latency"),
			metric.WithExplicitBucketBoundaries(metrics.HTTPDurationBuckets...),
		)
		if err != nil {
			log.Error("Failed to create http duration histogram", "error", err)
			return
		}
		inst.inFlight, err = meter.Int64UpDownCounter(
			metrics.MetricNameWithSubsystem("http", "requests_in_flight"),
			metric.WithDescription("Currently active HTTP requests"),
		)
		if err != nil {
			log.Error("Failed to create http in-flight counter", "error", err)
			return
		}
		instruments = inst
	})
	return instruments
}

// HTTPMetrics records request count, latency and in-flight requests per route.
func HTTPMetrics(ctx context.Context, meter metric.Meter) gin.HandlerFunc {
	inst := initMetrics(ctx, meter)
	return func(c *gin.Context) {
		if inst == nil {
			c.Next()
			return
		}
		reqCtx := c.Request.Context()
		start := time.Now()
		inst.inFlight.Add(reqCtx, 1)
		defer inst.inFlight.Add(reqCtx, -1)
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", path),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		inst.requests.Add(reqCtx, 1, attrs)
		inst.duration.Record(reqCtx, time.Since(start).Seconds(), attrs)
	}
}
