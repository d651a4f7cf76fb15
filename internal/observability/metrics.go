package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
)

// Pipeline counters. Label values come from closed enums so cardinality
// stays bounded.
var (
	crisisDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_crisis_detected_total",
			Help: "Messages that took the crisis short-circuit, by risk level.",
		},
		[]string{"risk_level"},
	)

	providerFallback = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_provider_fallback_total",
			Help: "Replies served from the degraded-mode template, by reason.",
		},
		[]string{"reason"},
	)

	tierSelected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_storage_tier_total",
			Help: "Storage tier chosen per request.",
		},
		[]string{"tier"},
	)

	persistenceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wellness_persistence_failures_total",
			Help: "Conversation writes that failed after retries, by tier.",
		},
		[]string{"tier"},
	)

	providerLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wellness_provider_latency_seconds",
			Help:    "Language-model call latency in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 25, 40},
		},
		[]string{"model"},
	)
)

func init() {
	prometheus.MustRegister(crisisDetected, providerFallback, tierSelected, persistenceFailures, providerLatency)
}

// Fallback reasons.
const (
	FallbackTimeout = "timeout"
	FallbackError   = "error"
	FallbackEmpty   = "empty"
)

// RecordCrisis counts a crisis short-circuit.
func RecordCrisis(level domain.RiskLevel) { crisisDetected.WithLabelValues(string(level)).Inc() }

// RecordProviderFallback counts a degraded reply.
func RecordProviderFallback(reason string) { providerFallback.WithLabelValues(reason).Inc() }

// RecordTier counts the tier selected for a request.
func RecordTier(t domain.StorageTier) { tierSelected.WithLabelValues(string(t)).Inc() }

// RecordPersistenceFailure counts a write that could not be stored.
func RecordPersistenceFailure(t domain.StorageTier) {
	persistenceFailures.WithLabelValues(string(t)).Inc()
}

// ObserveProviderLatency records how long a model call took.
func ObserveProviderLatency(model string, d time.Duration) {
	providerLatency.WithLabelValues(model).Observe(d.Seconds())
}
