package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTPRequestsTotal counts served requests by route and status.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes request latency by route.
	HTTPRequestDuration *prometheus.HistogramVec

	// ChatMessagesTotal counts inbound chat messages by channel (web, agent, twilio, whatsapp, journey).
	ChatMessagesTotal *prometheus.CounterVec

	// UpstreamCallsTotal counts calls to third-party APIs by upstream and outcome.
	UpstreamCallsTotal *prometheus.CounterVec

	// WhatsAppMessagesSentTotal counts outbound WhatsApp messages by outcome.
	WhatsAppMessagesSentTotal *prometheus.CounterVec

	// TrackingSubscribers is the number of open tracking feed subscriptions.
	TrackingSubscribers prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	ChatMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Inbound chat messages by channel",
		},
		[]string{"channel"},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_calls_total",
			Help: "Calls to third-party APIs by upstream and status",
		},
		[]string{"upstream", "status"},
	)
	WhatsAppMessagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whatsapp_messages_sent_total",
			Help: "Outbound WhatsApp messages by status",
		},
		[]string{"status"},
	)
	TrackingSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_subscribers",
			Help: "Open tracking feed subscriptions",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration,
		ChatMessagesTotal, UpstreamCallsTotal,
		WhatsAppMessagesSentTotal, TrackingSubscribers,
	)
}

// Handler serves the metrics registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// UpstreamStatus maps an upstream call error to a metric label.
func UpstreamStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
