package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/focusmcp/focusmcp/engine/core"
	monitoringmetrics "github.com/focusmcp/focusmcp/engine/infra/monitoring/metrics"
	"github.com/focusmcp/focusmcp/pkg/logger"
)

type toolMetrics struct {
	once     sync.Once
	calls    metric.Int64Counter
	duration metric.Float64Histogram
}

var toolInstruments toolMetrics

func (m *toolMetrics) get() *toolMetrics {
	m.once.Do(func() {
		meter := otel.GetMeterProvider().Meter("focusmcp.mcpserver")
		var err error
		m.calls, err = meter.Int64Counter(
			monitoringmetrics.MetricNameWithSubsystem("mcp", "tool_calls_total"),
			metric.WithDescription("MCP tool calls by tool and outcome"),
		)
		if err != nil {
			panic(fmt.Errorf("failed to create tool call counter: %w", err))
		}
		m.duration, err = meter.Float64Histogram(
			monitoringmetrics.MetricNameWithSubsystem("mcp", "tool_duration_seconds"),
			metric.WithDescription("MCP tool call latency"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(monitoringmetrics.ScriptDurationBuckets...),
		)
		if err != nil {
			panic(fmt.Errorf("failed to create tool duration histogram: %w", err))
		}
	})
	return m
}

// withRequestScope gives every tool call a request id, a scoped logger and
// a metrics sample.
func withRequestScope(base logger.Logger) server.ToolHandlerMiddleware {
	return func(next server.ToolHandlerFunc) server.ToolHandlerFunc {
		return func(ctx context.Context, req mcp.CallToolRequest) (result *mcp.CallToolResult, err error) {
			id := core.NewID()
			log := base.With("request_id", id.String(), "tool", req.Params.Name)
			ctx = core.WithRequestID(ctx, id)
			ctx = logger.ContextWithLogger(ctx, log)
			start := time.Now()
			defer func() {
				if r := recover(); r != nil {
					log.Error("Tool handler panicked", "panic", r, "stack", string(debug.Stack()))
					result, err = mcp.NewToolResultError(fmt.Sprintf("internal error in %s", req.Params.Name)), nil
				}
				outcome := "ok"
				switch {
				case err != nil:
					outcome = "error"
				case result != nil && result.IsError:
					outcome = "failed"
				}
				m := toolInstruments.get()
				attrs := metric.WithAttributes(
					attribute.String("tool", req.Params.Name),
					attribute.String("outcome", outcome),
				)
				mctx := context.WithoutCancel(ctx)
				m.calls.Add(mctx, 1, attrs)
				m.duration.Record(mctx, time.Since(start).Seconds(), attrs)
				log.Info("Tool call finished", "outcome", outcome, "duration", time.Since(start))
			}()
			log.Debug("Tool call started")
			return next(ctx, req)
		}
	}
}

// requestLogger replaces gin's default access log with the structured logger.
func requestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.EscapedPath()
		keyvals := []any{
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Error("HTTP request failed", keyvals...)
			return
		}
		if strings.HasPrefix(path, "/healthz") {
			return
		}
		log.Debug("HTTP request", keyvals...)
	}
}

// withLogger carries the server logger into streamable HTTP requests.
func withLogger(log logger.Logger) server.HTTPContextFunc {
	return func(ctx context.Context, _ *http.Request) context.Context {
		return logger.ContextWithLogger(ctx, log)
	}
}

// logWriter lets mcp-go's stdlib error logger write through our logger.
type logWriter struct {
	log logger.Logger
}

func (w logWriter) Write(p []byte) (int, error) {
	w.log.Error(strings.TrimSpace(string(p)), "component", "mcp-go")
	return len(p), nil
}
