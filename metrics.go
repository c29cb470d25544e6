package ephem

import "github.com/prometheus/client_golang/prometheus"

var (
	kernelsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ephem_kernels_loaded",
			Help: "Number of SPK kernels currently loaded across all pools.",
		},
	)

	segmentLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ephem_segment_lookups_total",
			Help: "Total number of segment lookups by result.",
		},
		[]string{"result"},
	)

	segmentEvaluations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ephem_segment_evaluations_total",
			Help: "Total number of segment evaluations by SPK data type.",
		},
		[]string{"type"},
	)

	lightTimeIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ephem_light_time_iterations",
			Help:    "Iterations of the light-time solution by correction.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"correction"},
	)
)

func init() {
	prometheus.MustRegister(kernelsLoaded)
	prometheus.MustRegister(segmentLookups)
	prometheus.MustRegister(segmentEvaluations)
	prometheus.MustRegister(lightTimeIterations)
}
