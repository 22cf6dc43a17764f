package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("Should accept the default path", func(t *testing.T) {
		require.NoError(t, DefaultConfig().Validate())
	})
	t.Run("Should reject relative and query paths", func(t *testing.T) {
		assert.Error(t, (&Config{Path: "metrics"}).Validate())
		assert.Error(t, (&Config{Path: "/metrics?x=1"}).Validate())
		assert.Error(t, (&Config{}).Validate())
	})
}

func TestService(t *testing.T) {
	t.Run("Should report unavailable when disabled", func(t *testing.T) {
		svc, err := NewService(t.Context(), &Config{Enabled: false, Path: "/metrics"})
		require.NoError(t, err)
		assert.False(t, svc.IsInitialized())
		rec := httptest.NewRecorder()
		svc.ExporterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Should export recorded instruments in Prometheus format", func(t *testing.T) {
		svc, err := NewService(t.Context(), &Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = svc.Shutdown(t.Context()) })
		counter, err := svc.Meter().Int64Counter("focusmcp_test_events", metric.WithDescription("test events"))
		require.NoError(t, err)
		counter.Add(t.Context(), 3)

		rec := httptest.NewRecorder()
		svc.ExporterHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
		body, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "focusmcp_test_events")
	})

	t.Run("Should record HTTP metrics through the gin middleware", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		svc, err := NewService(t.Context(), &Config{Enabled: true, Path: "/metrics"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = svc.Shutdown(t.Context()) })
		router := gin.New()
		router.Use(svc.GinMiddleware(t.Context()))
		router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
		router.GET(svc.Path(), gin.WrapH(svc.ExporterHandler()))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
