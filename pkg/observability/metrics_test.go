package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	m.RecordOperation("user.new", "ok", 25*time.Millisecond)
	m.RecordOperation("user.new", "ok", 10*time.Millisecond)
	m.RecordOperation("user.del", "error", 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("user.new", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues("user.del", "error")))
}

func TestNewMetricsNilRegistry(t *testing.T) {
	m := NewMetrics(nil)
	require.NotNil(t, m)
	m.RecordOperation("noop", "ok", time.Millisecond)
}
