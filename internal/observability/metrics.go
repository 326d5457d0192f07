// Package observability exposes the server's Prometheus instruments.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/go-wyoming-silero/internal/wyoming"
)

// OtherEventType labels events whose type the service does not handle.
const OtherEventType = "other"

// eventTypes bounds the type label of events_total. Clients choose the type
// string of inbound events.
var eventTypes = map[string]bool{
	wyoming.TypeDescribe:   true,
	wyoming.TypeInfo:       true,
	wyoming.TypeSynthesize: true,
	wyoming.TypeAudioStart: true,
	wyoming.TypeAudioChunk: true,
	wyoming.TypeAudioStop:  true,
}

// Metrics groups all Prometheus instruments used by the server. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	ActiveConnections  prometheus.Gauge
	Events             *prometheus.CounterVec
	SynthesisDuration  prometheus.Histogram
	SynthesisFailures  *prometheus.CounterVec
	AudioBytesStreamed prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics registers the instruments on reg. A nil reg uses a fresh
// registry, which keeps tests independent of the global default.
func NewMetrics(namespace string, reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		ActiveConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Number of open Wyoming connections.",
		}),
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Wyoming events by direction and type.",
		}, []string{"direction", "type"}),
		SynthesisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "synthesis_duration_seconds",
			Help:      "Wall time of engine synthesis calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		SynthesisFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_failures_total",
			Help:      "Synthesis calls that produced no audio, by reason.",
		}, []string{"reason"}),
		AudioBytesStreamed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_streamed_total",
			Help:      "PCM bytes sent in audio-chunk events.",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) ConnectionOpened() {
	if m != nil {
		m.ActiveConnections.Inc()
	}
}

func (m *Metrics) ConnectionClosed() {
	if m != nil {
		m.ActiveConnections.Dec()
	}
}

// Event counts one event; direction is "in" or "out". Types outside the
// Wyoming TTS vocabulary are counted as OtherEventType.
func (m *Metrics) Event(direction, typ string) {
	if m == nil {
		return
	}
	if !eventTypes[typ] {
		typ = OtherEventType
	}
	m.Events.WithLabelValues(direction, typ).Inc()
}

func (m *Metrics) ObserveSynthesis(d time.Duration) {
	if m != nil {
		m.SynthesisDuration.Observe(d.Seconds())
	}
}

// SynthesisFailed counts a failed synthesis; reason is "error" or "panic".
func (m *Metrics) SynthesisFailed(reason string) {
	if m != nil {
		m.SynthesisFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) AudioStreamed(n int) {
	if m != nil {
		m.AudioBytesStreamed.Add(float64(n))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
