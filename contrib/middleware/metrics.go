package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/syssam/crudl"
)

// Metrics holds the Prometheus collectors of crudl operations.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	InFlight          prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil
// reg registers with the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "crudl",
				Name:      "operations_total",
				Help:      "Total number of operations executed",
			},
			[]string{"name", "op", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "crudl",
				Name:      "operation_duration_seconds",
				Help:      "Operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"name", "op"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "crudl",
				Name:      "operations_in_flight",
				Help:      "Number of operations currently being executed",
			},
		),
	}
}

// Step returns a step recording the outcome and duration of every
// execution. Argument validation happens before the steps of a bound
// resolver: the "invalid" status counts validation errors returned by
// later steps, not rejected arguments.
func (m *Metrics) Step() crudl.Step {
	return func(c *crudl.Context, next crudl.Next) error {
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		err := next()
		op := c.Op.String()
		m.OperationDuration.WithLabelValues(c.Name, op).Observe(time.Since(start).Seconds())
		m.OperationsTotal.WithLabelValues(c.Name, op, status(err)).Inc()
		return err
	}
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case crudl.IsValidationError(err):
		return "invalid"
	case crudl.IsPrivacyError(err):
		return "denied"
	case crudl.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
