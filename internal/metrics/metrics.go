package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus metrics for the deployment resolution pipeline:
var (
	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_resolutions_total",
			Help: "Number of deployment resolutions by terminal outcome.",
		},
		[]string{"outcome"},
	)

	resolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "escrow_resolution_duration_seconds",
			Help:    "End-to-end duration of deployment resolutions.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	settlementPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "escrow_settlement_polls_total",
			Help: "Number of settlement-status polls issued to the relay.",
		},
	)

	providerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "escrow_provider_requests_total",
			Help: "Number of log-fetch requests by provider and result.",
		},
		[]string{"provider", "result"},
	)
)

// ObserveResolution records one terminal resolution outcome and its duration.
func ObserveResolution(outcome string, elapsed time.Duration) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
	resolutionDuration.Observe(elapsed.Seconds())
}

// IncSettlementPoll counts one settlement-status poll.
func IncSettlementPoll() {
	settlementPollsTotal.Inc()
}

// IncProviderRequest counts one provider call; result is "ok" or "error".
func IncProviderRequest(provider, result string) {
	providerRequestsTotal.WithLabelValues(provider, result).Inc()
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
