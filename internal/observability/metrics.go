package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jonathan/uv-repair/internal/types"
)

const metricsNamespace = "uv_repair"

// RunMetrics holds the Prometheus collectors for one repair run.
//
// Collectors live on a private registry so a run can be written out as a
// node_exporter textfile without touching the global default registry.
type RunMetrics struct {
	registry *prometheus.Registry

	// AnomaliesTotal counts corrupted texture records by final status.
	// Labels: status (repaired, failed, skipped)
	AnomaliesTotal *prometheus.CounterVec

	// AcceptedThreshold records the threshold at which each repair was accepted.
	AcceptedThreshold prometheus.Histogram

	// RelaxationCycles records how many threshold increases each repair needed.
	RelaxationCycles prometheus.Histogram

	// FaceGroups is the number of face groups indexed in the input.
	FaceGroups prometheus.Gauge

	// MalformedPairs is the number of attribute pairs excluded from ranking.
	MalformedPairs prometheus.Gauge

	// RunDurationSeconds is the wall time of the last run.
	RunDurationSeconds prometheus.Gauge
}

// NewRunMetrics creates and registers the run collectors on a fresh registry.
func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()

	m := &RunMetrics{
		registry: reg,
		AnomaliesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "anomalies_total",
				Help:      "Corrupted texture records by final status",
			},
			[]string{"status"},
		),
		AcceptedThreshold: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "accepted_threshold",
			Help:      "Sibling distance threshold at which a repair was accepted",
			Buckets:   prometheus.LinearBuckets(0.25, 0.25, 8),
		}),
		RelaxationCycles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "relaxation_cycles",
			Help:      "Threshold increases needed before a repair was accepted",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		FaceGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "face_groups",
			Help:      "Face groups indexed in the input file",
		}),
		MalformedPairs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "malformed_pairs",
			Help:      "Attribute pairs excluded from ranking because they failed to parse",
		}),
		RunDurationSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the repair run in seconds",
		}),
	}

	reg.MustRegister(
		m.AnomaliesTotal,
		m.AcceptedThreshold,
		m.RelaxationCycles,
		m.FaceGroups,
		m.MalformedPairs,
		m.RunDurationSeconds,
	)

	// Pre-create the status series so zero counts are exported.
	for _, status := range []types.AnomalyStatus{types.StatusRepaired, types.StatusFailed, types.StatusSkipped} {
		m.AnomaliesTotal.WithLabelValues(string(status))
	}

	return m
}

// ObserveReport records every outcome of a finished run.
func (m *RunMetrics) ObserveReport(report *types.RepairReport) {
	if report == nil {
		return
	}

	m.FaceGroups.Set(float64(report.FaceGroups))
	m.MalformedPairs.Set(float64(report.MalformedPairs))
	m.RunDurationSeconds.Set(report.Duration().Seconds())

	for _, rec := range report.Anomalies {
		m.AnomaliesTotal.WithLabelValues(string(rec.Status)).Inc()
		if rec.Status == types.StatusRepaired {
			m.AcceptedThreshold.Observe(rec.Threshold)
			m.RelaxationCycles.Observe(float64(rec.Cycles))
		}
	}
}

// WriteTextfile writes the registry in Prometheus text format, atomically.
func (m *RunMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
