package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "packboard"

const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	mutations     *prometheus.CounterVec
	subscriptions *prometheus.GaugeVec
	pushes        *prometheus.CounterVec
	dropped       *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_total",
			Help:      "Scoreboard mutations by operation and outcome.",
		}, []string{"op", "outcome"}),
		subscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscriptions_active",
			Help:      "Open live subscriptions by topic kind.",
		}, []string{"kind"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_pushes_total",
			Help:      "Full snapshots delivered to subscribers by topic kind.",
		}, []string{"kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscribers_dropped_total",
			Help:      "Subscribers dropped for not keeping up, by topic kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.mutations, m.subscriptions, m.pushes, m.dropped)
	return m
}

func (m *Metrics) Mutation(op, outcome string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) Subscribed(kind string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(kind).Inc()
}

func (m *Metrics) Unsubscribed(kind string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(kind).Dec()
}

func (m *Metrics) Pushed(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.pushes.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) Dropped(kind string) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(kind).Inc()
}
