package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the machine's counters on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	Dispensed      *prometheus.CounterVec
	Rejected       *prometheus.CounterVec
	InvalidInput   *prometheus.CounterVec
	UnitsRemaining *prometheus.GaugeVec
}

// NewMetrics creates and registers the machine collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Dispensed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vending_dispensed_total",
				Help: "Total number of units dispensed",
			},
			[]string{"product"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vending_rejected_total",
				Help: "Total number of rejected purchases",
			},
			[]string{"reason"},
		),
		InvalidInput: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vending_invalid_input_total",
				Help: "Total number of unusable console inputs",
			},
			[]string{"reason"},
		),
		UnitsRemaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "vending_units_remaining",
				Help: "Units currently in stock per product",
			},
			[]string{"product"},
		),
	}
	m.Registry.MustRegister(m.Dispensed, m.Rejected, m.InvalidInput, m.UnitsRemaining)
	return m
}

// WriteTextfile dumps the registry in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
