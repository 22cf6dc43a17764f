package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricName(t *testing.T) {
	t.Run("Should add the prefix once", func(t *testing.T) {
		assert.Equal(t, "focusmcp_requests_total", MetricName("requests_total"))
		assert.Equal(t, "focusmcp_custom", MetricName("focusmcp_custom"))
	})
}

func TestMetricNameWithSubsystem(t *testing.T) {
	t.Run("Should join subsystem and name", func(t *testing.T) {
		assert.Equal(t, "focusmcp_batch_items_total", MetricNameWithSubsystem("batch", "items_total"))
		assert.Equal(t, "focusmcp_automation_retries_total", MetricNameWithSubsystem("_automation_", "retries_total"))
		assert.Equal(t, "focusmcp_batch", MetricNameWithSubsystem("batch", ""))
		assert.Equal(t, "focusmcp_x", MetricNameWithSubsystem("", "x"))
	})
}
