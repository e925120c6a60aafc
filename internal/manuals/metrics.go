package manuals

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RetrievalFallbacks counts searches that degraded to empty results
	// because the store or embedder failed.
	RetrievalFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repaird",
			Subsystem: "manuals",
			Name:      "retrieval_fallbacks_total",
			Help:      "Total number of manual searches that degraded to generic guidance",
		},
	)

	// ManualsIndexed counts successfully indexed manuals.
	ManualsIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "repaird",
			Subsystem: "manuals",
			Name:      "indexed_total",
			Help:      "Total number of repair manuals indexed",
		},
	)
)
