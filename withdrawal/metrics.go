package withdrawal

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the delivery engine. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	outcomes      *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	itemsCredited prometheus.Counter
	tickDuration  prometheus.Histogram
	inboxDepth    prometheus.Gauge
	ledgerEntries prometheus.Gauge
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawal_outcomes_total",
				Help:      "Request files processed, by outcome",
			},
			[]string{"outcome"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawal_transitions_total",
				Help:      "Request file moves, by target directory and result",
			},
			[]string{"target", "result"},
		),
		itemsCredited: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "withdrawal_items_credited_total",
				Help:      "Items added to player inventories",
			},
		),
		tickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "withdrawal_tick_duration_seconds",
				Help:      "Duration of one inbox scan",
				Buckets:   prometheus.DefBuckets,
			},
		),
		inboxDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "withdrawal_inbox_files",
				Help:      "Request files waiting in the inbox at the last scan",
			},
		),
		ledgerEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "withdrawal_ledger_entries",
				Help:      "Files with retry or backoff state",
			},
		),
	}
	m.registry.MustRegister(m.outcomes, m.transitions, m.itemsCredited, m.tickDuration, m.inboxDepth, m.ledgerEntries)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordOutcome(o Outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(o.String()).Inc()
}

func (m *Metrics) RecordTransition(target string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.transitions.WithLabelValues(target, result).Inc()
}

func (m *Metrics) RecordCredited(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsCredited.Add(float64(n))
}

func (m *Metrics) RecordTick(d time.Duration, inbox, ledger int) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
	m.inboxDepth.Set(float64(inbox))
	m.ledgerEntries.Set(float64(ledger))
}
