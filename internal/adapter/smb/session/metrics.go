package session

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks session counts. A nil *Metrics is a no-op.
type Metrics struct {
	Active *prometheus.GaugeVec
	Opened *prometheus.CounterVec
	Logons *prometheus.CounterVec
}

// NewMetrics creates session metrics and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cifsgate",
			Subsystem: "sessions",
			Name:      "active",
			Help:      "Number of registered sessions by protocol",
		}, []string{"protocol"}),
		Opened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "sessions",
			Name:      "opened_total",
			Help:      "Total sessions registered by protocol",
		}, []string{"protocol"}),
		Logons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "sessions",
			Name:      "logons_total",
			Help:      "Total successful logons by logon type",
		}, []string{"logon_type"}),
	}
	if reg != nil {
		reg.MustRegister(m.Active, m.Opened, m.Logons)
	}
	return m
}

func (m *Metrics) sessionAdded(protocol string) {
	if m == nil {
		return
	}
	m.Active.WithLabelValues(protocol).Inc()
	m.Opened.WithLabelValues(protocol).Inc()
}

func (m *Metrics) sessionRemoved(protocol string) {
	if m == nil {
		return
	}
	m.Active.WithLabelValues(protocol).Dec()
}

// ObserveLogon counts a successful logon.
func (m *Metrics) ObserveLogon(t LogonType) {
	if m == nil {
		return
	}
	m.Logons.WithLabelValues(t.String()).Inc()
}
