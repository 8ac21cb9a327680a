package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"field-planner/internal/planner"
)

var (
	routeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "field_planner_route_requests_total",
		Help: "Route requests by outcome.",
	}, []string{"outcome"})

	routeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "field_planner_route_duration_seconds",
		Help:    "End-to-end duration of a route request.",
		Buckets: prometheus.DefBuckets,
	})

	gridNodes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "field_planner_grid_nodes",
		Help:    "Grid nodes per planning graph.",
		Buckets: prometheus.ExponentialBuckets(8, 2, 12),
	})

	searchExpanded = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "field_planner_search_expanded_nodes",
		Help:    "Nodes expanded per search.",
		Buckets: prometheus.ExponentialBuckets(8, 2, 12),
	})

	validityChecks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "field_planner_validity_checks",
		Help:    "Reachability checks per planning request.",
		Buckets: prometheus.ExponentialBuckets(16, 2, 14),
	})
)

// observeStats feeds one planning run into the metrics. Wired into the
// planner through its stats hook.
func observeStats(s planner.Stats) {
	gridNodes.Observe(float64(s.Nodes))
	searchExpanded.Observe(float64(s.Expanded))
	validityChecks.Observe(float64(s.Checks))
}
