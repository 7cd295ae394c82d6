package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSent   = "sent"
	outcomeFailed = "failed"
)

// Metrics holds the dispatch Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	payloadsTotal *prometheus.CounterVec
	sendDuration  prometheus.Histogram
	sendsTotal    *prometheus.CounterVec
	effectiveRate prometheus.Gauge
}

// NewMetrics creates the dispatch collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		payloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sesrelay",
				Subsystem: "dispatch",
				Name:      "payloads_total",
				Help:      "Provider calls by outcome",
			},
			[]string{"outcome"},
		),
		sendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "sesrelay",
				Subsystem: "dispatch",
				Name:      "send_duration_seconds",
				Help:      "Duration of one logical send including pacing",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		sendsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sesrelay",
				Subsystem: "dispatch",
				Name:      "sends_total",
				Help:      "Logical sends by result",
			},
			[]string{"result"},
		),
		effectiveRate: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sesrelay",
				Subsystem: "dispatch",
				Name:      "effective_rate",
				Help:      "Send rate used by the most recent send",
			},
		),
	}
	reg.MustRegister(m.payloadsTotal, m.sendDuration, m.sendsTotal, m.effectiveRate)
	return m
}

func (m *Metrics) observePayload(outcome string) {
	if m == nil {
		return
	}
	m.payloadsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeSend(result string, rate int, d time.Duration) {
	if m == nil {
		return
	}
	m.sendsTotal.WithLabelValues(result).Inc()
	m.effectiveRate.Set(float64(rate))
	m.sendDuration.Observe(d.Seconds())
}
