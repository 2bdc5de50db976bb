// Package metrics exposes Prometheus metrics for the recommendation service.
//
// All collectors are registered on the default registry and served at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Personalized recommendation requests by outcome",
		},
		[]string{"strategy"}, // insufficient_data, advanced, error
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time spent building personalized recommendations",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"strategy"},
	)

	RecommendedMovies = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_movies_returned",
			Help:    "Number of movies left after scoring and filtering",
			Buckets: []float64{0, 1, 5, 10, 15, 20},
		},
	)

	// TMDB gateway
	TMDBRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Requests sent to the TMDB API",
		},
		[]string{"endpoint", "result"}, // result: success, retry, failure, rejected
	)

	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "TMDB API call latency including the retry",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Caches
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Cache lookups by cache and result",
		},
		[]string{"cache", "result"}, // result: hit, miss
	)

	// Inbound rate limiting
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)

// ObserveRecommendation records one finished recommendation request.
func ObserveRecommendation(strategy string, start time.Time, returned int) {
	RecommendationRequests.WithLabelValues(strategy).Inc()
	RecommendationDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	if strategy == "advanced" {
		RecommendedMovies.Observe(float64(returned))
	}
}

// CacheHit, CacheMiss and CacheStale count lookups against the named cache.
func CacheHit(cache string)   { CacheRequests.WithLabelValues(cache, "hit").Inc() }
func CacheMiss(cache string)  { CacheRequests.WithLabelValues(cache, "miss").Inc() }
func CacheStale(cache string) { CacheRequests.WithLabelValues(cache, "stale").Inc() }
