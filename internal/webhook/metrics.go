package webhook

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the webhook Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	events       *prometheus.CounterVec
	suppressions *prometheus.CounterVec
}

// NewMetrics creates the webhook collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sesrelay",
				Subsystem: "webhook",
				Name:      "events_total",
				Help:      "Inbound webhook payloads by kind and response message",
			},
			[]string{"kind", "message"},
		),
		suppressions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sesrelay",
				Subsystem: "webhook",
				Name:      "suppressions_total",
				Help:      "Suppression entries produced by reason",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.events, m.suppressions)
	return m
}

func (m *Metrics) observeEvent(kind, message string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, message).Inc()
}

func (m *Metrics) observeSuppression(reason ReasonCode) {
	if m == nil {
		return
	}
	m.suppressions.WithLabelValues(string(reason)).Inc()
}
