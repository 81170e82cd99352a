// Package telemetry registers the pipeline's prometheus collectors.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceFetches counts upstream fetch outcomes per source.
	SourceFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trenchpulse_source_fetches_total",
		Help: "Upstream fetch attempts by source and outcome",
	}, []string{"source", "outcome"})

	// CacheHits counts guard cache hits per source.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trenchpulse_cache_hits_total",
		Help: "Guard cache hits by source",
	}, []string{"source"})

	// TickDuration observes full assembler tick latency.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trenchpulse_tick_duration_seconds",
		Help:    "Feed assembler tick duration",
		Buckets: prometheus.DefBuckets,
	})

	// FeedSize tracks the published token count.
	FeedSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trenchpulse_feed_tokens",
		Help: "Tokens in the currently published snapshot",
	})

	// NarrativeCount tracks the published narrative count.
	NarrativeCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trenchpulse_feed_narratives",
		Help: "Narratives in the currently published snapshot",
	})

	// FilteredTokens counts tokens dropped by the scam filter.
	FilteredTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trenchpulse_scam_filtered_total",
		Help: "Tokens excluded from publication by the scam filter",
	})

	// TickInterval reports the current adaptive tick interval in seconds.
	TickInterval = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trenchpulse_tick_interval_seconds",
		Help: "Current adaptive tick interval",
	})

	// ModelCalls counts model proxy invocations by outcome.
	ModelCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trenchpulse_model_calls_total",
		Help: "Model proxy calls by endpoint and outcome",
	}, []string{"endpoint", "outcome"})
)
