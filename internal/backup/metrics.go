package backup

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts backup outcomes. A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	drops    prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "backup",
			Name:      "attempts_total",
			Help:      "Backup push attempts by result.",
		}, []string{"result"}),
		drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fitlog",
			Subsystem: "backup",
			Name:      "dropped_total",
			Help:      "Backup payloads dropped after exhausting retries.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.drops)
	}
	return m
}

func (m *Metrics) attempt(ok bool) {
	if m == nil {
		return
	}
	result := "failure"
	if ok {
		result = "success"
	}
	m.attempts.WithLabelValues(result).Inc()
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.drops.Inc()
}
