package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CheckoutTotal counts checkout calls by how they ended: display, enrolled, order_created, failed
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillacademy_checkout_total",
		Help: "Total number of checkout requests by result",
	}, []string{"mode"})

	PaymentVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillacademy_payment_verifications_total",
		Help: "Total number of payment verification callbacks by outcome",
	}, []string{"outcome"})

	EnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillacademy_enrollments_total",
		Help: "Total number of enrollments written",
	}, []string{"paid"})

	GatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillacademy_gateway_request_duration_seconds",
		Help:    "Latency of payment gateway API calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillacademy_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	CronJobRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillacademy_cron_job_runs_total",
		Help: "Total number of background job runs by status",
	}, []string{"job", "status"})
)

// Handler exposes the default registry on a Fiber route
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
