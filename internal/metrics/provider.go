package metrics

import "github.com/prometheus/client_golang/prometheus"

// Provider and cache Prometheus metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nichescope",
			Name:      "provider_requests_total",
			Help:      "Total number of remote provider requests",
		},
		[]string{"provider", "op", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nichescope",
			Name:      "provider_request_duration_seconds",
			Help:      "Remote provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "op"},
	)

	CacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nichescope",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	QuotaUnitsUsed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nichescope",
			Name:      "quota_units_used",
			Help:      "Estimated provider quota units consumed this process lifetime",
		},
	)

	QuotaUnitsRemaining = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nichescope",
			Name:      "quota_units_remaining",
			Help:      "Estimated provider quota units remaining (-1 when unlimited)",
		},
	)
)

var providerMetricsRegistered bool

// RegisterProviderMetrics registers provider metrics. Must be called once from main.
func RegisterProviderMetrics() {
	if providerMetricsRegistered {
		return
	}
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(ProviderRequestDuration)
	prometheus.MustRegister(CacheLookupsTotal)
	prometheus.MustRegister(QuotaUnitsUsed)
	prometheus.MustRegister(QuotaUnitsRemaining)
	providerMetricsRegistered = true
}
