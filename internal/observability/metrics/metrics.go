package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the conversational intake flow.
type IntakeMetrics struct {
	turnsTotal     *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	ticketsCreated prometheus.Counter
	oracleErrors   prometheus.Counter
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "grievance",
			Subsystem: "intake",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"intent", "outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "grievance",
			Subsystem: "intake",
			Name:      "turn_latency_seconds",
			Help:      "Latency of full turn processing including oracle calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
		ticketsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grievance",
			Subsystem: "intake",
			Name:      "tickets_created_total",
			Help:      "Total tickets persisted by the intake flow",
		}),
		oracleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "grievance",
			Subsystem: "intake",
			Name:      "oracle_errors_total",
			Help:      "Total oracle or extraction failures absorbed by the turn boundary",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.ticketsCreated, m.oracleErrors)
	return m
}

func (m *IntakeMetrics) ObserveTurn(intent, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(intent, outcome).Inc()
	m.turnLatency.WithLabelValues(intent).Observe(seconds)
}

func (m *IntakeMetrics) TicketCreated() {
	if m == nil {
		return
	}
	m.ticketsCreated.Inc()
}

func (m *IntakeMetrics) OracleError() {
	if m == nil {
		return
	}
	m.oracleErrors.Inc()
}
