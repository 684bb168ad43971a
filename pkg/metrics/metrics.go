package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	HttpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
		[]string{"service"},
	)

	// Business metrics
	OpenJourneysGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "open_journeys_total",
			Help: "Current number of open journeys seen by this instance",
		},
		[]string{"service"},
	)

	JourneysStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journeys_started_total",
			Help: "Total number of journeys started",
		},
		[]string{"service", "mode"},
	)

	JourneysFinalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journeys_finalized_total",
			Help: "Total number of journeys finalized",
		},
		[]string{"service", "reason"},
	)

	JourneySamplesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journey_samples_total",
			Help: "Total number of telemetry samples received",
		},
		[]string{"service", "result"},
	)

	PushNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_notifications_total",
			Help: "Total number of push notifications attempted",
		},
		[]string{"service", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_total",
			Help: "Current number of active WebSocket connections",
		},
		[]string{"service"},
	)

	DatabaseQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"service", "operation", "status"},
	)

	DatabaseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	RabbitMQMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rabbitmq_messages_published_total",
			Help: "Total number of messages published to RabbitMQ",
		},
		[]string{"service", "queue", "status"},
	)
)

// RecordHTTPMetrics records HTTP request metrics
func RecordHTTPMetrics(service, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	HttpRequestsTotal.WithLabelValues(service, method, path, status).Inc()
	HttpRequestDuration.WithLabelValues(service, method, path, status).Observe(duration.Seconds())
}

// RecordDatabaseQuery records database query metrics
func RecordDatabaseQuery(service, operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordRabbitMQPublish records RabbitMQ publish metrics
func RecordRabbitMQPublish(service, queue string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RabbitMQMessagesPublished.WithLabelValues(service, queue, status).Inc()
}

// RecordJourneyStarted counts a started journey. mode is "manual" or "guarded".
func RecordJourneyStarted(service, mode string) {
	JourneysStartedTotal.WithLabelValues(service, mode).Inc()
	OpenJourneysGauge.WithLabelValues(service).Inc()
}

// RecordJourneyFinalized counts a finalized journey by reason.
func RecordJourneyFinalized(service, reason string) {
	JourneysFinalizedTotal.WithLabelValues(service, reason).Inc()
	OpenJourneysGauge.WithLabelValues(service).Dec()
}

// RecordSample counts an ingested sample by result ("accepted", "rejected").
func RecordSample(service, result string) {
	JourneySamplesTotal.WithLabelValues(service, result).Inc()
}

// RecordPushNotification records push notification delivery attempts
func RecordPushNotification(service string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PushNotificationsTotal.WithLabelValues(service, status).Inc()
}
