package lock

import "github.com/prometheus/client_golang/prometheus"

const (
	resultGranted     = "granted"
	resultConflict    = "conflict"
	resultUnsupported = "unsupported"
)

// Metrics tracks lock table activity. A nil *Metrics is a no-op.
type Metrics struct {
	Opens       *prometheus.CounterVec
	LockOps     *prometheus.CounterVec
	UnlockOps   *prometheus.CounterVec
	ActiveLocks prometheus.Gauge
}

// NewMetrics creates lock metrics and registers them with reg. A nil reg
// leaves the collectors unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Opens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "locks",
			Name:      "opens_total",
			Help:      "File opens by result (ok, sharing_violation)",
		}, []string{"result"}),
		LockOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "locks",
			Name:      "lock_requests_total",
			Help:      "Byte-range lock requests by result",
		}, []string{"result"}),
		UnlockOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cifsgate",
			Subsystem: "locks",
			Name:      "unlock_requests_total",
			Help:      "Byte-range unlock requests by result (ok, not_locked)",
		}, []string{"result"}),
		ActiveLocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cifsgate",
			Subsystem: "locks",
			Name:      "active",
			Help:      "Byte-range locks currently held",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Opens, m.LockOps, m.UnlockOps, m.ActiveLocks)
	}
	return m
}

func (m *Metrics) observeOpen(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.Opens.WithLabelValues("ok").Inc()
	} else {
		m.Opens.WithLabelValues("sharing_violation").Inc()
	}
}

func (m *Metrics) observeLock(result string) {
	if m == nil {
		return
	}
	m.LockOps.WithLabelValues(result).Inc()
	if result == resultGranted {
		m.ActiveLocks.Inc()
	}
}

func (m *Metrics) observeUnlock(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.UnlockOps.WithLabelValues("ok").Inc()
	} else {
		m.UnlockOps.WithLabelValues("not_locked").Inc()
	}
}

func (m *Metrics) locksReleased(n int) {
	if m == nil || n == 0 {
		return
	}
	m.ActiveLocks.Sub(float64(n))
}
