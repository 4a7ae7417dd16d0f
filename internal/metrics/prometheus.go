package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Reclaim metrics
	PlotsReclaimed  *prometheus.CounterVec
	BytesReclaimed  *prometheus.CounterVec
	ReclaimFailures *prometheus.CounterVec
	PlotsGone       prometheus.Counter

	// Watch metrics
	NewPlots      *prometheus.CounterVec
	IgnoredEvents *prometheus.CounterVec

	// Index metrics
	Rotations         prometheus.Counter
	DirectoriesByRole *prometheus.GaugeVec
	RequiredBytes     prometheus.Gauge
	FreeBytes         *prometheus.GaugeVec
}

// New creates Prometheus metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PlotsReclaimed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plots_begone_plots_reclaimed_total",
				Help: "Total number of old plots deleted",
			},
			[]string{"directory"},
		),

		BytesReclaimed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plots_begone_bytes_reclaimed_total",
				Help: "Total bytes freed by deleting old plots",
			},
			[]string{"directory"},
		),

		ReclaimFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plots_begone_reclaim_failures_total",
				Help: "Total number of old plots that could not be deleted",
			},
			[]string{"directory"},
		),

		PlotsGone: f.NewCounter(
			prometheus.CounterOpts{
				Name: "plots_begone_plots_gone_total",
				Help: "Total number of old plots that vanished before deletion",
			},
		),

		NewPlots: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plots_begone_new_plots_total",
				Help: "Total number of new plots seen in indexed directories",
			},
			[]string{"directory"},
		),

		IgnoredEvents: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plots_begone_ignored_events_total",
				Help: "Total number of new plot events outside the index",
			},
			[]string{"reason"},
		),

		Rotations: f.NewCounter(
			prometheus.CounterOpts{
				Name: "plots_begone_rotations_total",
				Help: "Total number of directories demoted from the index",
			},
		),

		DirectoriesByRole: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "plots_begone_directories",
				Help: "Number of managed directories by role",
			},
			[]string{"role"},
		),

		RequiredBytes: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "plots_begone_required_bytes",
				Help: "Free bytes each indexed directory keeps for the next plot",
			},
		),

		FreeBytes: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "plots_begone_free_bytes",
				Help: "Free bytes of a directory after its last reclaim",
			},
			[]string{"directory"},
		),
	}
}
