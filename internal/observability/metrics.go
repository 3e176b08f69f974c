package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of HTTP requests processed by the chat engine.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_ws_active_connections",
			Help: "Number of active websocket sessions.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_ws_events_total",
			Help: "Total number of websocket lifecycle events.",
		},
		[]string{"event"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_commands_total",
			Help: "Total number of client commands by name and result.",
		},
		[]string{"command", "result"},
	)
	broadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_broadcasts_total",
			Help: "Total number of server events fanned out to rooms.",
		},
		[]string{"event"},
	)
	notifierErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_notifier_publish_errors_total",
			Help: "Total number of notifier publish errors.",
		},
	)
	notifierDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_notifier_dropped_total",
			Help: "Total number of notifier events dropped on queue overflow.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		commandsTotal,
		broadcastsTotal,
		notifierErrorsTotal,
		notifierDroppedTotal,
	)
}

// HTTPMetricsMiddleware records request counts and latencies per route.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive()              { wsActiveConnections.Inc() }
func DecWSActive()              { wsActiveConnections.Dec() }
func IncWSEvent(event string)   { wsEventsTotal.WithLabelValues(event).Inc() }
func IncBroadcast(event string) { broadcastsTotal.WithLabelValues(event).Inc() }
func IncNotifierError()         { notifierErrorsTotal.Inc() }
func IncNotifierDropped()       { notifierDroppedTotal.Inc() }

// IncCommand records a handled command and whether it succeeded.
func IncCommand(command string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	commandsTotal.WithLabelValues(command, result).Inc()
}
