package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Define all Prometheus metrics
var (
	// Active sessions gauge
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "rtmp_client_active_sessions",
		Help: "Number of active RTMP client sessions",
	})

	// Messages processed counter
	Messages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmp_client_messages_total",
		Help: "Total RTMP messages by direction and type id",
	}, []string{"direction", "type"})

	// Bytes transferred counter
	BytesTransferred = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmp_client_bytes_total",
		Help: "Total bytes transferred",
	}, []string{"direction"})

	// Window acknowledgements emitted
	Acknowledgements = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtmp_client_acknowledgements_total",
		Help: "Total Acknowledgement messages sent for window accounting",
	})

	// Ping requests answered
	PingsAnswered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtmp_client_pings_answered_total",
		Help: "Total PingRequest events answered with a PingResponse",
	})

	// Transactions by outcome
	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmp_client_transactions_total",
		Help: "Total AMF command transactions by outcome",
	}, []string{"outcome"})

	// Shared object events applied/flushed
	SharedObjectEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmp_client_shared_object_events_total",
		Help: "Total shared-object events by direction",
	}, []string{"direction"})

	// Protocol errors by kind
	ProtocolErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rtmp_client_protocol_errors_total",
		Help: "Total protocol errors by kind",
	}, []string{"kind"})

	// Dial failures
	DialErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rtmp_client_dial_errors_total",
		Help: "Total failed TCP dial attempts",
	})
)

// RecordSessionStart records a session becoming active
func RecordSessionStart() {
	ActiveSessions.Inc()
}

// RecordSessionEnd records a session closing
func RecordSessionEnd() {
	ActiveSessions.Dec()
}

// RecordMessage records one logical message in a direction ("in"/"out")
func RecordMessage(direction, typeName string) {
	Messages.WithLabelValues(direction, typeName).Inc()
}

// RecordBytes records bytes transferred in a direction
func RecordBytes(direction string, bytes int64) {
	BytesTransferred.WithLabelValues(direction).Add(float64(bytes))
}

// RecordAcknowledgement records an emitted window Acknowledgement
func RecordAcknowledgement() {
	Acknowledgements.Inc()
}

// RecordPingAnswered records a PingRequest answered
func RecordPingAnswered() {
	PingsAnswered.Inc()
}

// RecordTransaction records a completed transaction ("result"/"error"/"orphan")
func RecordTransaction(outcome string) {
	Transactions.WithLabelValues(outcome).Inc()
}

// RecordSharedObjectEvents records applied or flushed shared-object events
func RecordSharedObjectEvents(direction string, n int) {
	SharedObjectEvents.WithLabelValues(direction).Add(float64(n))
}

// RecordProtocolError records a protocol error by kind
func RecordProtocolError(kind string) {
	ProtocolErrors.WithLabelValues(kind).Inc()
}

// RecordDialError records a failed dial attempt
func RecordDialError() {
	DialErrors.Inc()
}
