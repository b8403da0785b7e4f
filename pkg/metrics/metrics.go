// Package metrics exposes Prometheus instruments for the voice, biometric
// and mail flows.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voxmail"

type Metrics struct {
	// Voice sessions
	VoiceSessionsTotal  prometheus.Counter
	VoiceSessionsActive prometheus.Gauge

	// Commands
	CommandsTotal     *prometheus.CounterVec
	CommandErrors     *prometheus.CounterVec
	RecognitionErrors *prometheus.CounterVec
	UtterancesTotal   prometheus.Counter

	// Biometric
	FaceChecksTotal *prometheus.CounterVec

	// Mail
	GmailRequestsTotal *prometheus.CounterVec

	// Kafka publish
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is registered with the default Prometheus registry.
var DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)

// NewMetrics registers a fresh set of instruments on reg. Tests pass a
// throwaway registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		VoiceSessionsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_total",
			Help:      "Total number of voice websocket sessions opened",
		}),
		VoiceSessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_sessions_active",
			Help:      "Number of currently connected voice sessions",
		}),

		CommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_commands_total",
			Help:      "Total number of interpreted voice commands",
		}, []string{"page", "kind"}),
		CommandErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_command_errors_total",
			Help:      "Voice commands that ended in a spoken error",
		}, []string{"page", "reason"}),
		RecognitionErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognition_errors_total",
			Help:      "Speech recognition errors reported by the browser",
		}, []string{"error"}),
		UtterancesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total number of utterances sent for synthesis",
		}),

		FaceChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "face_checks_total",
			Help:      "Face verification and registration outcomes",
		}, []string{"operation", "status"}),

		GmailRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gmail_requests_total",
			Help:      "Gmail API calls by operation and outcome",
		}, []string{"operation", "outcome"}),

		KafkaPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic"}),
		KafkaPublishErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic"}),
		KafkaPublishLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

func (m *Metrics) RecordSessionStart() {
	m.VoiceSessionsTotal.Inc()
	m.VoiceSessionsActive.Inc()
}

func (m *Metrics) RecordSessionEnd() {
	m.VoiceSessionsActive.Dec()
}

// RecordCommand counts a dispatched command and, when reason is not
// empty, the error it was spoken back as.
func (m *Metrics) RecordCommand(page, kind, reason string) {
	m.CommandsTotal.WithLabelValues(page, kind).Inc()
	if reason != "" {
		m.CommandErrors.WithLabelValues(page, reason).Inc()
	}
}

func (m *Metrics) RecordRecognitionError(code string) {
	if code == "" {
		code = "unknown"
	}
	m.RecognitionErrors.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordUtterance() {
	m.UtterancesTotal.Inc()
}

func (m *Metrics) RecordFaceCheck(operation, status string) {
	m.FaceChecksTotal.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) RecordGmailRequest(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GmailRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) RecordKafkaPublish(topic string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic).Inc()
	}
}

// ErrorReason maps an error to a short label value.
func ErrorReason(err error, known ...error) string {
	if err == nil {
		return ""
	}
	for _, k := range known {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return "other"
}
