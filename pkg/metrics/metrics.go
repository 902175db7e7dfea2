// Package metrics holds the Prometheus collectors shared by the analysis
// pipeline. They are registered on the default registry and exposed by the
// dev server on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	FilesAnalyzedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuin_files_analyzed_total",
		Help: "Total number of source files analyzed.",
	})

	FileFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuin_file_failures_total",
		Help: "Total number of files that contributed no usages because of an error.",
	}, []string{"stage"})

	UsagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuin_usages_total",
		Help: "Total number of component usages identified.",
	})

	Components = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cuin_components",
		Help: "Number of distinct components in the latest report.",
	})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cuin_analysis_seconds",
		Help:    "Time spent on a full analysis run.",
		Buckets: prometheus.DefBuckets,
	})

	ParseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cuin_parse_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})

	ResolverCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cuin_resolver_cache_total",
		Help: "Module resolver cache lookups by cache and result.",
	}, []string{"cache", "result"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cuin_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// CacheLookup records one resolver cache lookup.
func CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	ResolverCacheTotal.WithLabelValues(cache, result).Inc()
}
