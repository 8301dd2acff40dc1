package checkout

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCountOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.submission("success")
	m.submission("success")
	m.submission(string(FailOrderChanged))
	m.completion("not_found")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Submissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Submissions.WithLabelValues(string(FailOrderChanged))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completions.WithLabelValues("not_found")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.submission("success")
	m.completion("failed")
}
