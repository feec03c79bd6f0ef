package query

import "github.com/prometheus/client_golang/prometheus"

var (
	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_query_lookups_total",
			Help: "Query cache lookups by resource and result (hit, miss).",
		},
		[]string{"resource", "result"},
	)

	cacheInvalidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_query_invalidated_entries_total",
			Help: "Cache entries invalidated by successful mutations.",
		},
		[]string{"resource"},
	)

	// Responses that arrived after their key was invalidated and were dropped.
	cacheStaleDiscards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_query_stale_discards_total",
			Help: "In-flight responses discarded because a newer generation superseded them.",
		},
		[]string{"resource"},
	)

	cacheFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_query_failures_total",
			Help: "Failed queries and mutations by operation and error kind.",
		},
		[]string{"op", "kind"},
	)
)

func init() {
	prometheus.MustRegister(cacheLookups, cacheInvalidations, cacheStaleDiscards, cacheFailures)
}
