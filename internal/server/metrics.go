package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "databank_cache_hits_total",
		Help: "Data queries answered entirely from the indicator cache.",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "databank_cache_misses_total",
		Help: "Data queries that required a fetch from the remote source.",
	})

	saveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "databank_cache_save_failures_total",
		Help: "Merged cache entries that could not be persisted; results were served from memory only.",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "databank_source_fetch_seconds",
		Help:    "Latency of remote source fetches during miss resolution.",
		Buckets: prometheus.DefBuckets,
	})
)
