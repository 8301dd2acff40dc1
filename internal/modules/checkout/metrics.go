package checkout

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts pipeline outcomes for observability.
type Metrics struct {
	Submissions *prometheus.CounterVec
	Completions *prometheus.CounterVec
}

// NewMetrics registers the checkout counters on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "payment_submissions_total",
		Help:      "Payment submissions by terminal outcome.",
	}, []string{"outcome"})
	completions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "checkout",
		Name:      "payment_completions_total",
		Help:      "Off-site payment completions by result.",
	}, []string{"result"})

	reg.MustRegister(submissions, completions)
	return &Metrics{Submissions: submissions, Completions: completions}
}

func (m *Metrics) submission(outcome string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) completion(result string) {
	if m != nil {
		m.Completions.WithLabelValues(result).Inc()
	}
}
