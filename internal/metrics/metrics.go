// Package metrics provides Prometheus metrics for learnsnap.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesTotal counts routed messages by kind and outcome.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnsnap",
			Subsystem: "router",
			Name:      "messages_total",
			Help:      "Total number of routed messages",
		},
		[]string{"type", "outcome"},
	)

	// MessageDuration measures handler duration.
	MessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "learnsnap",
			Subsystem: "router",
			Name:      "duration_seconds",
			Help:      "Duration of routed message handling in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// ImagesLocalized counts inlined images by result.
	ImagesLocalized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnsnap",
			Subsystem: "extractor",
			Name:      "images_total",
			Help:      "Images seen during localization",
		},
		[]string{"result"},
	)

	// TranslationCache counts translation cache lookups.
	TranslationCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "learnsnap",
			Subsystem: "translation",
			Name:      "cache_lookups_total",
			Help:      "Translation cache lookups by result",
		},
		[]string{"result"},
	)
)

// Outcome labels.
const (
	OutcomeSuccess       = "success"
	OutcomeFailedLookup  = "failed_lookup"
	OutcomeFailedHandler = "failed_handler"
)

// UnknownKind is the type label of messages without a registered handler.
const UnknownKind = "unknown"

// RecordMessage records one routed message.
func RecordMessage(kind, outcome string, seconds float64) {
	MessagesTotal.WithLabelValues(kind, outcome).Inc()
	MessageDuration.WithLabelValues(kind).Observe(seconds)
}

func RecordImage(ok bool) {
	if ok {
		ImagesLocalized.WithLabelValues("inlined").Inc()
		return
	}
	ImagesLocalized.WithLabelValues("kept_remote").Inc()
}

func RecordCacheLookup(hit bool) {
	if hit {
		TranslationCache.WithLabelValues("hit").Inc()
		return
	}
	TranslationCache.WithLabelValues("miss").Inc()
}
