package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry           *prometheus.Registry
	registryOnce       sync.Once
	defaultMetricsPath = "/metrics"
	metricsEnabled     = true

	// Analysis metrics
	AnalysesTotal     *prometheus.CounterVec
	AnalysisDuration  prometheus.Histogram
	DictionaryMatches *prometheus.CounterVec
	PatternsDetected  *prometheus.CounterVec

	// Breach oracle metrics
	HIBPRequestsTotal *prometheus.CounterVec
	HIBPLatency       prometheus.Histogram

	// Roast metrics
	RoastRequestsTotal *prometheus.CounterVec
	RoastLatency       *prometheus.HistogramVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Websocket metrics
	WebsocketClients prometheus.Gauge

	// AMQP metrics
	AMQPPublishedMessages *prometheus.CounterVec
	AMQPReconnectAttempts *prometheus.CounterVec
	AMQPConnectionStatus  prometheus.Gauge
)

// Init initializes all metrics and registers them with Prometheus
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		// Initialize analysis metrics
		AnalysesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_analyses_total",
				Help: "Total number of password analyses by strength tier",
			},
			[]string{"strength"},
		)

		AnalysisDuration = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "passroast_analysis_duration_seconds",
				Help:    "Duration of password analyses",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // From 0.1ms to ~400ms
			},
		)

		DictionaryMatches = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_dictionary_matches_total",
				Help: "Total number of dictionary matches by match type",
			},
			[]string{"type"},
		)

		PatternsDetected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_patterns_detected_total",
				Help: "Total number of structural patterns detected by kind",
			},
			[]string{"kind"},
		)

		// Initialize breach oracle metrics
		HIBPRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_hibp_requests_total",
				Help: "Total number of breach oracle range queries by outcome",
			},
			[]string{"outcome"},
		)

		HIBPLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "passroast_hibp_request_duration_seconds",
				Help:    "Latency of breach oracle range queries",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 11), // From 5ms to ~5s
			},
		)

		// Initialize roast metrics
		RoastRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_roast_requests_total",
				Help: "Total number of roast generations by provider and outcome",
			},
			[]string{"provider", "outcome"},
		)

		RoastLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "passroast_roast_duration_seconds",
				Help:    "Latency of roast generation by provider",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 11), // From 10ms to ~10s
			},
			[]string{"provider"},
		)

		// Initialize HTTP metrics
		HTTPRequestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_http_requests_total",
				Help: "Total number of HTTP requests by path, method and status",
			},
			[]string{"path", "method", "status"},
		)

		HTTPRequestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "passroast_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by path",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // From 1ms to ~4s
			},
			[]string{"path"},
		)

		// Initialize websocket metrics
		WebsocketClients = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "passroast_websocket_clients",
				Help: "Number of connected websocket event feed clients",
			},
		)

		// Initialize AMQP metrics
		AMQPPublishedMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_amqp_published_messages_total",
				Help: "Total number of AMQP messages published by queue and status",
			},
			[]string{"queue", "status"},
		)

		AMQPReconnectAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passroast_amqp_reconnect_attempts_total",
				Help: "Total number of AMQP reconnection attempts by queue",
			},
			[]string{"queue"},
		)

		AMQPConnectionStatus = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "passroast_amqp_connection_status",
				Help: "Current AMQP connection status (1 connected, 0 disconnected)",
			},
		)

		// Register all metrics
		registry.MustRegister(
			AnalysesTotal,
			AnalysisDuration,
			DictionaryMatches,
			PatternsDetected,
			HIBPRequestsTotal,
			HIBPLatency,
			RoastRequestsTotal,
			RoastLatency,
			HTTPRequestsTotal,
			HTTPRequestDuration,
			WebsocketClients,
			AMQPPublishedMessages,
			AMQPReconnectAttempts,
			AMQPConnectionStatus,
		)

		logger.Debug("Prometheus metrics registered")
	})
}

// GetRegistry returns the Prometheus registry
func GetRegistry() *prometheus.Registry {
	return registry
}

// SetMetricsPath sets the HTTP path for metrics endpoint
func SetMetricsPath(path string) {
	defaultMetricsPath = path
}

// EnableMetrics enables or disables metrics collection
func EnableMetrics(enabled bool) {
	metricsEnabled = enabled
}

// IsMetricsEnabled returns whether metrics are enabled
func IsMetricsEnabled() bool {
	return metricsEnabled
}

// RegisterHandler registers the metrics HTTP handler
func RegisterHandler(mux *http.ServeMux) {
	if metricsEnabled && registry != nil {
		handler := promhttp.HandlerFor(
			registry,
			promhttp.HandlerOpts{
				EnableOpenMetrics: true,
				Registry:          registry,
			},
		)
		mux.Handle(defaultMetricsPath, handler)
	}
}

// StartMetrics initializes the metrics service
func StartMetrics(logger *logrus.Logger, enabled bool) {
	if !enabled {
		EnableMetrics(false)
		logger.Info("Metrics collection is disabled")
		return
	}

	Init(logger)
	EnableMetrics(true)
	logger.WithField("metrics_path", defaultMetricsPath).Info("Metrics endpoint initialized")
}

// RecordAnalysis records a completed password analysis
func RecordAnalysis(strength string, duration time.Duration) {
	if metricsEnabled && AnalysesTotal != nil {
		AnalysesTotal.WithLabelValues(strength).Inc()
		AnalysisDuration.Observe(duration.Seconds())
	}
}

// RecordDictionaryMatches records dictionary matches by type
func RecordDictionaryMatches(matchType string, count int) {
	if metricsEnabled && DictionaryMatches != nil && count > 0 {
		DictionaryMatches.WithLabelValues(matchType).Add(float64(count))
	}
}

// RecordPattern records a detected structural pattern
func RecordPattern(kind string) {
	if metricsEnabled && PatternsDetected != nil {
		PatternsDetected.WithLabelValues(kind).Inc()
	}
}

// RecordHIBPRequest records a breach oracle query outcome
func RecordHIBPRequest(outcome string) {
	if metricsEnabled && HIBPRequestsTotal != nil {
		HIBPRequestsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveHIBPLatency records breach oracle latency with a timer function
func ObserveHIBPLatency() func() {
	if !metricsEnabled || HIBPLatency == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		HIBPLatency.Observe(time.Since(start).Seconds())
	}
}

// RecordRoastRequest records a roast generation outcome
func RecordRoastRequest(provider, outcome string) {
	if metricsEnabled && RoastRequestsTotal != nil {
		RoastRequestsTotal.WithLabelValues(provider, outcome).Inc()
	}
}

// ObserveRoastLatency records roast generation latency with a timer function
func ObserveRoastLatency(provider string) func() {
	if !metricsEnabled || RoastLatency == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		RoastLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}
}

// RecordHTTPRequest records a handled HTTP request
func RecordHTTPRequest(path, method string, status int) {
	if metricsEnabled && HTTPRequestsTotal != nil {
		HTTPRequestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	}
}

// ObserveHTTPDuration records HTTP request duration with a timer function
func ObserveHTTPDuration(path string) func() {
	if !metricsEnabled || HTTPRequestDuration == nil {
		return func() {}
	}

	start := time.Now()
	return func() {
		HTTPRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}
}

// IncWebsocketClients increments the connected websocket client gauge
func IncWebsocketClients() {
	if metricsEnabled && WebsocketClients != nil {
		WebsocketClients.Inc()
	}
}

// DecWebsocketClients decrements the connected websocket client gauge
func DecWebsocketClients() {
	if metricsEnabled && WebsocketClients != nil {
		WebsocketClients.Dec()
	}
}

// RecordAMQPPublish records metrics for an AMQP publish
func RecordAMQPPublish(queue, status string) {
	if metricsEnabled && AMQPPublishedMessages != nil {
		AMQPPublishedMessages.WithLabelValues(queue, status).Inc()
	}
}

// RecordAMQPReconnect records an AMQP reconnection attempt
func RecordAMQPReconnect(queue string) {
	if metricsEnabled && AMQPReconnectAttempts != nil {
		AMQPReconnectAttempts.WithLabelValues(queue).Inc()
	}
}

// SetAMQPConnectionStatus sets the AMQP connection status
func SetAMQPConnectionStatus(connected bool) {
	if metricsEnabled && AMQPConnectionStatus != nil {
		if connected {
			AMQPConnectionStatus.Set(1)
		} else {
			AMQPConnectionStatus.Set(0)
		}
	}
}
