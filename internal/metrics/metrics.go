package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)

	// Quota
	QuotaChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_checks_total",
			Help: "Quota checks by result",
		},
		[]string{"result"},
	)
	QuotaIncrementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_increments_total",
			Help: "Usage increments by result",
		},
		[]string{"result"},
	)

	// Translation
	TranslationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translations_total",
			Help: "Translation requests by outcome",
		},
		[]string{"outcome"},
	)
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of inference API requests",
		},
		[]string{"model", "status"},
	)
	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Duration of inference API requests in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"model"},
	)

	// Billing
	StripeWebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stripe_webhook_events_total",
			Help: "Stripe webhook events by type and handling status",
		},
		[]string{"type", "status"},
	)
)

// Quota check results.
const (
	ResultAllowed  = "allowed"
	ResultDenied   = "denied"
	ResultDegraded = "degraded"
	ResultError    = "error"
	ResultOK       = "ok"
	ResultMissing  = "missing"
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestsInFlight)

	prometheus.MustRegister(QuotaChecksTotal)
	prometheus.MustRegister(QuotaIncrementsTotal)

	prometheus.MustRegister(TranslationsTotal)
	prometheus.MustRegister(GatewayRequestsTotal)
	prometheus.MustRegister(GatewayRequestDuration)

	prometheus.MustRegister(StripeWebhookEventsTotal)

	// The default registry already carries the Go and process collectors;
	// build info is the only runtime collector added here.
	prometheus.MustRegister(collectors.NewBuildInfoCollector())
}
