package cmd

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/production-sim/production-sim/sim"
)

// promMetrics holds the gauges exported after a run. Each run gets its own registry so the
// snapshot holds only that run's series.
type promMetrics struct {
	registry       *prometheus.Registry
	ticks          prometheus.Gauge
	detailsCount   prometheus.Gauge
	delivered      prometheus.Gauge
	processed      prometheus.Gauge
	nudges         prometheus.Gauge
	trimmedWorkers prometheus.Gauge
	utilization    prometheus.Gauge
	wallSeconds    prometheus.Gauge
	regimeTicks    *prometheus.GaugeVec
	centerServed   *prometheus.GaugeVec
	centerPeak     *prometheus.GaugeVec
}

func newPromMetrics(runID string) *promMetrics {
	labels := prometheus.Labels{"run": runID}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: labels})
	}
	vec := func(name, help, label string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help, ConstLabels: labels}, []string{label})
	}
	pm := &promMetrics{
		registry:       prometheus.NewRegistry(),
		ticks:          gauge("production_sim_ticks", "Ticks completed by the run"),
		detailsCount:   gauge("production_sim_details", "Details seeded into the start center"),
		delivered:      gauge("production_sim_delivered", "Details that left the system"),
		processed:      gauge("production_sim_processed", "Details served by any center"),
		nudges:         gauge("production_sim_route_nudges", "Routing decisions weighed on a fresh allocation"),
		trimmedWorkers: gauge("production_sim_trimmed_workers", "Workers removed by the excess trim"),
		utilization:    gauge("production_sim_worker_utilization", "Fraction of worker-ticks that were assigned"),
		wallSeconds:    gauge("production_sim_wall_seconds", "Wall-clock duration of the run"),
		regimeTicks:    vec("production_sim_regime_ticks", "Ticks allocated under each regime", "regime"),
		centerServed:   vec("production_sim_center_processed", "Details served per center", "center"),
		centerPeak:     vec("production_sim_center_peak_buffer", "Largest buffer seen per center at a tick boundary", "center"),
	}
	pm.registry.MustRegister(
		pm.ticks,
		pm.detailsCount,
		pm.delivered,
		pm.processed,
		pm.nudges,
		pm.trimmedWorkers,
		pm.utilization,
		pm.wallSeconds,
		pm.regimeTicks,
		pm.centerServed,
		pm.centerPeak,
	)
	return pm
}

func (pm *promMetrics) update(m *sim.Metrics) {
	pm.ticks.Set(float64(m.Ticks))
	pm.detailsCount.Set(float64(m.DetailsCount))
	pm.delivered.Set(float64(m.Delivered))
	pm.processed.Set(float64(m.Processed))
	pm.nudges.Set(float64(m.Nudges))
	pm.trimmedWorkers.Set(float64(m.TrimmedWorkers))
	pm.utilization.Set(m.Utilization())
	pm.wallSeconds.Set(m.WallTime.Seconds())
	for regime, n := range m.RegimeTicks {
		pm.regimeTicks.WithLabelValues(string(regime)).Set(float64(n))
	}
	for id, n := range m.ProcessedByCenter {
		pm.centerServed.WithLabelValues(id).Set(float64(n))
	}
	for id, n := range m.PeakBuffer {
		pm.centerPeak.WithLabelValues(id).Set(float64(n))
	}
}

// writePrometheusFile exports the run metrics in the Prometheus text format, e.g. for the
// node exporter's textfile collector.
func writePrometheusFile(path string, m *sim.Metrics) error {
	pm := newPromMetrics(m.RunID)
	pm.update(m)
	if err := prometheus.WriteToTextfile(path, pm.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
