package server

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks connection lifecycle per handler. A nil *Metrics is a no-op.
type Metrics struct {
	Accepted    *prometheus.CounterVec
	Closed      *prometheus.CounterVec
	ForceClosed *prometheus.CounterVec
	Active      *prometheus.GaugeVec
	Rejected    *prometheus.CounterVec
	Frames      *prometheus.CounterVec
}

// NewMetrics creates connection metrics and registers them with reg.
// A nil reg leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	labels := []string{"handler"}
	m := &Metrics{
		Accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Total accepted client connections",
		}, labels),
		Closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "connections",
			Name:      "closed_total",
			Help:      "Total closed client connections",
		}, labels),
		ForceClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "connections",
			Name:      "force_closed_total",
			Help:      "Connections closed because the shutdown timeout expired",
		}, labels),
		Active: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cifsgate",
			Subsystem: "connections",
			Name:      "active",
			Help:      "Currently open client connections",
		}, labels),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "connections",
			Name:      "rejected_total",
			Help:      "Connections refused during the NetBIOS session request",
		}, labels),
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "connections",
			Name:      "frames_total",
			Help:      "Session messages received by direction",
		}, []string{"handler", "direction"}),
	}
	if reg != nil {
		reg.MustRegister(m.Accepted, m.Closed, m.ForceClosed, m.Active, m.Rejected, m.Frames)
	}
	return m
}

func (m *Metrics) connectionAccepted(handler string) {
	if m == nil {
		return
	}
	m.Accepted.WithLabelValues(handler).Inc()
	m.Active.WithLabelValues(handler).Inc()
}

func (m *Metrics) connectionClosed(handler string) {
	if m == nil {
		return
	}
	m.Closed.WithLabelValues(handler).Inc()
	m.Active.WithLabelValues(handler).Dec()
}

func (m *Metrics) connectionForceClosed(handler string) {
	if m == nil {
		return
	}
	m.ForceClosed.WithLabelValues(handler).Inc()
}

func (m *Metrics) connectionRejected(handler string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(handler).Inc()
}

func (m *Metrics) frame(handler, direction string) {
	if m == nil {
		return
	}
	m.Frames.WithLabelValues(handler, direction).Inc()
}
