// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/lidar-bank/internal/lidar"
)

// Metrics exports bank telemetry to Prometheus. It plugs into the
// controller as a reading and transition observer, so the control loop
// stays free of instrumentation code.
type Metrics struct {
	reg *prometheus.Registry

	readings     *prometheus.CounterVec
	suspects     *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	forcedResets *prometheus.CounterVec

	distance *prometheus.GaugeVec
	strength *prometheus.GaugeVec
	state    *prometheus.GaugeVec
}

// New builds a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lidarbank",
			Name:      "readings_total",
			Help:      "Completed acquisitions per slot.",
		}, []string{"slot"}),
		suspects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lidarbank",
			Name:      "suspect_readings_total",
			Help:      "Readings flagged implausible (jump or range) per slot.",
		}, []string{"slot"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lidarbank",
			Name:      "state_transitions_total",
			Help:      "State machine transitions per slot and target state.",
		}, []string{"slot", "to"}),
		forcedResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lidarbank",
			Name:      "forced_resets_total",
			Help:      "Power-cycle recoveries per slot.",
		}, []string{"slot"}),
		distance: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lidarbank",
			Name:      "distance_cm",
			Help:      "Last stored distance per slot.",
		}, []string{"slot"}),
		strength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lidarbank",
			Name:      "signal_strength",
			Help:      "Last signal strength per slot.",
		}, []string{"slot"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "lidarbank",
			Name:      "state",
			Help:      "Current lifecycle state per slot (enumeration value).",
		}, []string{"slot"}),
	}

	m.reg.MustRegister(
		m.readings, m.suspects, m.transitions, m.forcedResets,
		m.distance, m.strength, m.state,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// ---- lidar.ReadingObserver ----

func (m *Metrics) ObserveReading(r lidar.Reading) {
	slot := strconv.Itoa(r.Slot)
	m.readings.WithLabelValues(slot).Inc()
	if r.Suspect {
		m.suspects.WithLabelValues(slot).Inc()
	}
	m.distance.WithLabelValues(slot).Set(float64(r.Distance))
	m.strength.WithLabelValues(slot).Set(float64(r.Strength))
}

// ---- lidar.TransitionObserver ----

func (m *Metrics) ObserveTransition(slot int, from, to lidar.State) {
	s := strconv.Itoa(slot)
	m.transitions.WithLabelValues(s, to.String()).Inc()
	m.state.WithLabelValues(s).Set(float64(to))
	if to == lidar.StatePoweringDown {
		m.forcedResets.WithLabelValues(s).Inc()
	}
}
