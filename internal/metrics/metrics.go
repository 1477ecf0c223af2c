// Package metrics holds the Prometheus collectors for the sync layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "siteops"

// Discard reasons.
const (
	ReasonOutOfScope   = "out_of_scope"
	ReasonStale        = "stale_version"
	ReasonDeleted      = "deleted"
	ReasonUndecodable  = "undecodable"
	ReasonUnknownTable = "unknown_table"
	ReasonMalformed    = "malformed"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	EventsReceived    *prometheus.CounterVec
	EventsApplied     *prometheus.CounterVec
	EventsDiscarded   *prometheus.CounterVec
	LocalReconciles   *prometheus.CounterVec
	ActionFailures    *prometheus.CounterVec
	SubscriptionState *prometheus.GaugeVec
	CachedRows        *prometheus.GaugeVec
}

// New creates the collectors and registers them on reg. A nil reg skips
// registration, which keeps tests free of global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_events_received_total",
			Help:      "Change events received from the stream, by table.",
		}, []string{"table"}),
		EventsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_applied_total",
			Help:      "Events applied to the cache, by table, change type and source.",
		}, []string{"table", "type", "source"}),
		EventsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_discarded_total",
			Help:      "Events dropped before reaching the cache, by reason.",
		}, []string{"reason"}),
		LocalReconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_reconciles_total",
			Help:      "Confirmed local writes reconciled into the cache, by table.",
		}, []string{"table"}),
		ActionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_failures_total",
			Help:      "Supervisor actions that failed validation or RPC, by action.",
		}, []string{"action"}),
		SubscriptionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscription_state",
			Help:      "1 for the current change-stream connection state, 0 otherwise.",
		}, []string{"state"}),
		CachedRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cached_rows",
			Help:      "Rows held in the cache, by table.",
		}, []string{"table"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.EventsReceived,
			m.EventsApplied,
			m.EventsDiscarded,
			m.LocalReconciles,
			m.ActionFailures,
			m.SubscriptionState,
			m.CachedRows,
		)
	}
	return m
}

// States lists every value SetState may receive.
var States = []string{"connecting", "subscribed", "closed", "error"}

func (m *Metrics) Received(table string) {
	if m == nil {
		return
	}
	m.EventsReceived.WithLabelValues(table).Inc()
}

func (m *Metrics) Applied(table, changeType, source string) {
	if m == nil {
		return
	}
	m.EventsApplied.WithLabelValues(table, changeType, source).Inc()
}

func (m *Metrics) Discarded(reason string) {
	if m == nil {
		return
	}
	m.EventsDiscarded.WithLabelValues(reason).Inc()
}

func (m *Metrics) Reconciled(table string) {
	if m == nil {
		return
	}
	m.LocalReconciles.WithLabelValues(table).Inc()
}

func (m *Metrics) ActionFailed(action string) {
	if m == nil {
		return
	}
	m.ActionFailures.WithLabelValues(action).Inc()
}

// SetState marks state as the current subscription state.
func (m *Metrics) SetState(state string) {
	if m == nil {
		return
	}
	for _, s := range States {
		v := 0.0
		if s == state {
			v = 1
		}
		m.SubscriptionState.WithLabelValues(s).Set(v)
	}
}

func (m *Metrics) SetRows(table string, n int) {
	if m == nil {
		return
	}
	m.CachedRows.WithLabelValues(table).Set(float64(n))
}
