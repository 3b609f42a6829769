package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// DatabaseQueryLatency observes repository query durations.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chirp_db_query_duration_seconds",
		Help:    "Database query latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// ScheduledPublishes counts deferred post publications by outcome.
	ScheduledPublishes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_scheduled_publishes_total",
		Help: "Deferred post publish transitions fired, by outcome",
	}, []string{"outcome"})
)

// TrackQuery returns a function that observes the elapsed time for a query.
// Usage: defer observability.TrackQuery("select", "posts")()
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
