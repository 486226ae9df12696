package acl

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourceShare   = "share"
	sourceGlobal  = "global"
	sourceDefault = "default"
)

// Metrics tracks access-control evaluations. A nil *Metrics is a no-op.
type Metrics struct {
	// EvaluationDuration tracks the time to reach a verdict.
	EvaluationDuration prometheus.Histogram

	// Verdicts counts decisions by verdict and by where the decision came
	// from (share, global or default).
	Verdicts *prometheus.CounterVec

	// ParseErrors counts rules rejected at configuration time by type.
	ParseErrors *prometheus.CounterVec
}

// NewMetrics creates access-control metrics and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cifsgate",
			Subsystem: "acl",
			Name:      "evaluation_duration_seconds",
			Help:      "Time to evaluate access-control rules for a share",
			Buckets:   []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3},
		}),
		Verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "acl",
			Name:      "verdicts_total",
			Help:      "Access-control decisions by verdict and source",
		}, []string{"verdict", "source"}),
		ParseErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "acl",
			Name:      "parse_errors_total",
			Help:      "Rules rejected at configuration time by rule type",
		}, []string{"type"}),
	}
	if reg != nil {
		reg.MustRegister(m.EvaluationDuration, m.Verdicts, m.ParseErrors)
	}
	return m
}

func (m *Metrics) observe(d time.Duration, v Verdict, source string) {
	if m == nil {
		return
	}
	m.EvaluationDuration.Observe(d.Seconds())
	m.Verdicts.WithLabelValues(v.String(), source).Inc()
}

func (m *Metrics) observeParseError(typeName string) {
	if m == nil {
		return
	}
	m.ParseErrors.WithLabelValues(typeName).Inc()
}
