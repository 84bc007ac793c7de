// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "openlingua"

// Gate outcomes.
const (
	GateAccessValid   = "access_valid"
	GateRotated       = "rotated"
	GateNoCredentials = "no_credentials"
	GateRefreshFailed = "refresh_invalid"
	GateUserMissing   = "user_not_found"
	GateError         = "error"
)

// Account operation results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

type Metrics struct {
	gateOutcomes *prometheus.CounterVec
	accountOps   *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		gateOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "gate_outcomes_total",
			Help:      "Authentication gate decisions by outcome",
		}, []string{"outcome"}),
		accountOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "account_operations_total",
			Help:      "Account operations by operation and result",
		}, []string{"operation", "result"}),
	}
}

// GateOutcome is safe to call on a nil *Metrics.
func (m *Metrics) GateOutcome(outcome string) {
	if m == nil {
		return
	}
	m.gateOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AccountOperation(operation string, result string) {
	if m == nil {
		return
	}
	m.accountOps.WithLabelValues(operation, result).Inc()
}
