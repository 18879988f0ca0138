package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	viewRecomputesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "penguindash_view_recomputes_total",
		Help: "Derived-view recomputations across all sessions",
	})

	viewCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "penguindash_view_cache_hits_total",
		Help: "Derived-view reads served from the memoized result",
	})

	filterUpdatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "penguindash_filter_updates_total",
		Help: "Filter state updates received from user input",
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "penguindash_sessions_active",
		Help: "Sessions currently held in the registry",
	})

	viewRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "penguindash_view_rows",
		Help:    "Row counts of freshly recomputed derived views",
		Buckets: []float64{0, 10, 25, 50, 100, 200, 400},
	})
)
