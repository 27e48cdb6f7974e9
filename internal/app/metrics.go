package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// acquisitionsTotal counts finished acquisitions by outcome
	acquisitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osz_acquisitions_total",
		Help: "Finished beatmapset acquisitions by outcome.",
	}, []string{"outcome"})

	// acquisitionsRejectedTotal counts requests refused because the id was already in flight
	acquisitionsRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osz_acquisitions_rejected_total",
		Help: "Acquisition requests rejected as already in progress.",
	})

	// acquisitionDuration observes the full pipeline duration
	acquisitionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osz_acquisition_duration_seconds",
		Help:    "Duration of a beatmapset acquisition from acceptance to completion.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	})

	// activeAcquisitions is the number of pipelines currently running
	activeAcquisitions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "osz_active_acquisitions",
		Help: "Acquisitions currently in progress.",
	})

	// tracksIngestedTotal counts tracks newly added to the library
	tracksIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osz_tracks_ingested_total",
		Help: "Tracks newly added to the library.",
	})
)
