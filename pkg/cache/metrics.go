package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup kinds used as metric labels.
const (
	KindMovie     = "movie"
	KindMovies    = "movies"
	KindQuotes    = "quotes"
	KindCharacter = "character"
)

var (
	// CacheHits tracks lookups answered from the store by kind
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oneapi_cache_hits_total",
			Help: "Total number of catalog cache hits",
		},
		[]string{"kind"},
	)

	// CacheMisses tracks lookups that fell through to the API by kind
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oneapi_cache_misses_total",
			Help: "Total number of catalog cache misses",
		},
		[]string{"kind"},
	)

	// CacheEntries tracks the number of cached entries by kind
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "oneapi_cache_entries",
			Help: "Current number of cached catalog entries",
		},
		[]string{"kind"},
	)
)

func observe(kind string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(kind).Inc()
	} else {
		CacheMisses.WithLabelValues(kind).Inc()
	}
}
