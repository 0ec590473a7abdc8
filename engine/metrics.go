// ABOUTME: Prometheus counters for mutation outcomes, conflicts, and cascade sizes
// ABOUTME: All methods are nil-safe so metrics stay optional
package engine

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's counters.
type Metrics struct {
	Mutations         *prometheus.CounterVec
	Conflicts         *prometheus.CounterVec
	ChangeLogFailures prometheus.Counter
	CascadeDeleted    *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pursuit_mutations_total",
			Help: "Engagement mutations by operation and result.",
		}, []string{"op", "result"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pursuit_conflicts_total",
			Help: "Guarded writes refused because the record changed or was deleted.",
		}, []string{"record_type"}),
		ChangeLogFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pursuit_changelog_failures_total",
			Help: "Change-log appends that failed and were skipped.",
		}),
		CascadeDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pursuit_cascade_records_deleted_total",
			Help: "Records removed by cascading deletes, by collection.",
		}, []string{"collection"}),
	}
	if reg != nil {
		reg.MustRegister(m.Mutations, m.Conflicts, m.ChangeLogFailures, m.CascadeDeleted)
	}
	return m
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "error"
}

func (m *Metrics) observeMutation(op string, err error) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, resultLabel(err)).Inc()
}

func (m *Metrics) conflict(recordType string) {
	if m == nil {
		return
	}
	m.Conflicts.WithLabelValues(recordType).Inc()
}

func (m *Metrics) changeLogFailure() {
	if m == nil {
		return
	}
	m.ChangeLogFailures.Inc()
}

func (m *Metrics) cascadeDeleted(collection string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.CascadeDeleted.WithLabelValues(collection).Add(float64(n))
}
