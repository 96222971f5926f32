package alert

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the alert subsystem.
type Metrics struct {
	IngestsTotal     *prometheus.CounterVec
	DetectionsTotal  *prometheus.CounterVec
	AlertsCreated    prometheus.Counter
	FanOutDuration   prometheus.Histogram
	FanOutMatches    prometheus.Histogram
	FanOutProfiles   prometheus.Histogram
	DispatchesTotal  *prometheus.CounterVec
	SweepRunsTotal   *prometheus.CounterVec
	SweepRecovered   prometheus.Counter
	DetectorCalls    *prometheus.CounterVec
	DetectorDuration prometheus.Histogram
}

// NewMetrics registers and returns alert metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IngestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_ingests_total",
			Help: "Total detection ingestions by result.",
		}, []string{"result"}),
		DetectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_detections_total",
			Help: "Total persisted detections by species.",
		}, []string{"species"}),
		AlertsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildwatch_alerts_created_total",
			Help: "Total alert rows created.",
		}),
		FanOutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wildwatch_fanout_duration_seconds",
			Help:    "Duration of fan-out runs including the alert batch insert.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms .. ~4s
		}),
		FanOutMatches: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wildwatch_fanout_matches",
			Help:    "Matched subscribers per fan-out run.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 .. 512
		}),
		FanOutProfiles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wildwatch_fanout_profiles_scanned",
			Help:    "Profiles scanned per fan-out run.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8), // 1 .. ~16k
		}),
		DispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_dispatches_total",
			Help: "Total alert dispatch attempts by result.",
		}, []string{"result"}),
		SweepRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_sweep_runs_total",
			Help: "Total reconciliation sweep runs by result.",
		}, []string{"result"}),
		SweepRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wildwatch_sweep_recovered_total",
			Help: "Detections whose fan-out was re-run by the sweep.",
		}),
		DetectorCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wildwatch_detector_calls_total",
			Help: "Total external detector calls by result.",
		}, []string{"result"}),
		DetectorDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wildwatch_detector_call_duration_seconds",
			Help:    "Duration of external detector calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. ~51s
		}),
	}

	reg.MustRegister(
		m.IngestsTotal,
		m.DetectionsTotal,
		m.AlertsCreated,
		m.FanOutDuration,
		m.FanOutMatches,
		m.FanOutProfiles,
		m.DispatchesTotal,
		m.SweepRunsTotal,
		m.SweepRecovered,
		m.DetectorCalls,
		m.DetectorDuration,
	)

	return m
}
