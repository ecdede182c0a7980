package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Streaming session metrics
	activeSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assemblyai_active_sessions",
		Help: "Number of active streaming sessions",
	}, []string{"protocol"}) // protocol: "v2" or "v3"

	sessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assemblyai_sessions_total",
		Help: "Total number of streaming sessions opened",
	}, []string{"protocol"})

	audioBytesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assemblyai_audio_bytes_total",
		Help: "Total audio bytes written to the streaming transport",
	}, []string{"protocol"})

	inboundEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assemblyai_inbound_events_total",
		Help: "Total inbound events decoded from the streaming transport",
	}, []string{"protocol", "type"})

	// REST metrics
	apiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assemblyai_api_requests_total",
		Help: "Total REST API requests",
	}, []string{"operation", "status"})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assemblyai_errors_total",
		Help: "Total number of errors",
	}, []string{"component", "type"})
)

// RecordSessionStart records a new streaming session for the given protocol
// version.
func RecordSessionStart(protocol string) {
	activeSessions.WithLabelValues(protocol).Inc()
	sessionsTotal.WithLabelValues(protocol).Inc()
}

// RecordSessionEnd records the end of a streaming session.
func RecordSessionEnd(protocol string) {
	activeSessions.WithLabelValues(protocol).Dec()
}

// RecordAudioBytes records audio bytes written to the transport.
func RecordAudioBytes(protocol string, n int) {
	audioBytesSent.WithLabelValues(protocol).Add(float64(n))
}

// RecordInboundEvent records one decoded inbound event.
func RecordInboundEvent(protocol, eventType string) {
	inboundEvents.WithLabelValues(protocol, eventType).Inc()
}

// RecordAPIRequest records the outcome of a REST API call.
func RecordAPIRequest(operation string, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	apiRequests.WithLabelValues(operation, status).Inc()
}

// RecordError records an error by component and type.
func RecordError(component, errorType string) {
	errorsTotal.WithLabelValues(component, errorType).Inc()
}
