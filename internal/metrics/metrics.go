// Package metrics provides Prometheus metrics for the card grader backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgrader_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardgrader_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Grading API Metrics
	GradingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgrader_grading_requests_total",
			Help: "Total grading API requests by result",
		},
		[]string{"result"}, // "success", "network", "read", "api", "rate_limited"
	)

	GradingAPILatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardgrader_grading_api_latency_seconds",
			Help:    "Grading API call latency",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	GradingCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cardgrader_grading_cache_hits_total",
			Help: "Grading responses served from the in-memory cache",
		},
	)

	// Recognition Metrics
	RecognitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgrader_recognitions_total",
			Help: "Card recognitions by outcome",
		},
		[]string{"outcome"}, // "recognized", "fallback"
	)

	RecognitionConfidence = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cardgrader_recognition_confidence",
			Help:    "Confidence of recognized cards",
			Buckets: []float64{0.1, 0.3, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1.0},
		},
	)

	// Collection Metrics
	CollectionCardsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardgrader_collection_cards_total",
			Help: "Total number of cards in collection",
		},
	)

	CollectionUniqueCards = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardgrader_collection_unique_cards",
			Help: "Number of distinct cards in collection",
		},
	)

	CollectionValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardgrader_collection_value_usd",
			Help: "Total estimated value of collection in USD",
		},
	)

	// Persistence Metrics
	PersistenceSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgrader_persistence_saves_total",
			Help: "Persistence save attempts by key and result",
		},
		[]string{"key", "result"}, // result: "success", "failed"
	)

	PersistenceLoadFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardgrader_persistence_load_fallbacks_total",
			Help: "Loads that fell back to empty/default state",
		},
		[]string{"key", "reason"}, // reason: "not_found", "read", "decode"
	)
)
