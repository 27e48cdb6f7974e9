package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// mirrorAttemptsTotal counts fetch attempts per mirror and outcome
	mirrorAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osz_mirror_attempts_total",
		Help: "Archive fetch attempts by mirror and outcome.",
	}, []string{"source", "outcome"})

	// mirrorFetchDuration observes how long each mirror attempt took
	mirrorFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "osz_mirror_fetch_duration_seconds",
		Help:    "Duration of a single mirror fetch attempt.",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"source"})

	// fetchedBytesTotal counts archive bytes received from mirrors
	fetchedBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osz_fetched_bytes_total",
		Help: "Archive bytes received from mirrors.",
	})

	// persistedAssetsTotal counts audio files written to the library root
	persistedAssetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osz_persisted_assets_total",
		Help: "Audio assets written to the library by extension.",
	}, []string{"extension"})
)
