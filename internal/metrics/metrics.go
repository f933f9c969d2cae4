package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admin dashboard.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SignIns             *prometheus.CounterVec
	GateDecisions       *prometheus.CounterVec
	VerificationActions *prometheus.CounterVec
	ActiveSubscriptions prometheus.Gauge
	ActiveListeners     prometheus.Gauge
	RefreshDuration     prometheus.Histogram
	SessionResolve      prometheus.Histogram
}

// New registers all dashboard metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SignIns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medadmin_sign_ins_total",
			Help: "Sign-in attempts by outcome",
		}, []string{"outcome"}),
		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medadmin_gate_decisions_total",
			Help: "Authorization gate decisions by outcome",
		}, []string{"decision"}),
		VerificationActions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medadmin_verification_actions_total",
			Help: "Account workflow mutations by action and result",
		}, []string{"action", "result"}),
		ActiveSubscriptions: f.NewGauge(prometheus.GaugeOpts{
			Name: "medadmin_live_subscriptions",
			Help: "Distinct live queries currently subscribed",
		}),
		ActiveListeners: f.NewGauge(prometheus.GaugeOpts{
			Name: "medadmin_live_listeners",
			Help: "Listeners attached to live queries",
		}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "medadmin_live_refresh_duration_seconds",
			Help:    "Duration of a full live query refresh",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SessionResolve: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "medadmin_session_resolve_duration_seconds",
			Help:    "Time for a gate to leave the loading state",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) IncSignIn(outcome string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncGateDecision(decision string) {
	if m == nil {
		return
	}
	m.GateDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncVerificationAction(action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.VerificationActions.WithLabelValues(action, result).Inc()
}

// SetLive records the hub's current subscription and listener counts.
func (m *Metrics) SetLive(subscriptions, listeners int) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.Set(float64(subscriptions))
	m.ActiveListeners.Set(float64(listeners))
}

// ObserveRefresh records the duration of a hub refresh.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRefresh(start time.Time) {
	if m == nil {
		return
	}
	m.RefreshDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveSessionResolve(start time.Time) {
	if m == nil {
		return
	}
	m.SessionResolve.Observe(time.Since(start).Seconds())
}
