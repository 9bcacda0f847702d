package utils

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	CheckIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodstreak",
			Subsystem: "streak",
			Name:      "check_ins_total",
			Help:      "Check-in attempts by period and outcome.",
		},
		[]string{"period", "outcome"},
	)

	Milestones = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodstreak",
			Subsystem: "streak",
			Name:      "milestones_total",
			Help:      "Milestone streaks reached by period.",
		},
		[]string{"period"},
	)

	BadgeAwards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodstreak",
			Subsystem: "badges",
			Name:      "awards_total",
			Help:      "Badge award attempts by outcome.",
		},
		[]string{"outcome"},
	)

	HandlerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodstreak",
			Subsystem: "events",
			Name:      "handler_failures_total",
			Help:      "Event subscribers that returned an error or panicked.",
		},
		[]string{"event"},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodstreak",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moodstreak",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)
)

func init() {
	Registry.MustRegister(
		CheckIns,
		Milestones,
		BadgeAwards,
		HandlerFailures,
		HTTPRequests,
		HTTPDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// MetricsHandler exposes the registry for scraping.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
