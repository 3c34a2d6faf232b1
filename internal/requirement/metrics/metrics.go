// Package metrics provides observability for the requirement module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RequirementsCreated prometheus.Counter
	OverdueMarked       prometheus.Counter
	SweepDuration       prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		RequirementsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_requirements_created_total",
			Help: "Total number of requirements created",
		}),
		OverdueMarked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "docuflow_requirements_overdue_total",
			Help: "Total number of requirements marked overdue by the sweep",
		}),
		SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "docuflow_overdue_sweep_duration_seconds",
			Help:    "Duration of overdue sweep runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
	}
}

// ObserveSweep records the duration of one overdue sweep. Call with
// time.Now() captured at sweep start.
func (m *Metrics) ObserveSweep(start time.Time) {
	m.SweepDuration.Observe(time.Since(start).Seconds())
}
