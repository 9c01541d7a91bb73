package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for TransportMetrics.Outcomes.
const (
	OutcomeMatched  = "matched"
	OutcomeTimedOut = "timed_out"
	OutcomeSent     = "sent"
	OutcomeError    = "error"
)

// NewRegistry creates a Prometheus registry with the Go runtime and process
// collectors registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler that serves reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// TransportMetrics counts UDP traffic of the protocol client. All methods
// are safe on a nil receiver so the transport can run without metrics.
type TransportMetrics struct {
	DatagramsSent     prometheus.Counter
	DatagramsReceived prometheus.Counter
	Discarded         *prometheus.CounterVec   // labels: reason
	Outcomes          *prometheus.CounterVec   // labels: op, outcome
	RoundTrip         *prometheus.HistogramVec // labels: op
	InFlight          prometheus.Gauge
}

// NewTransportMetrics registers and returns the transport collectors.
func NewTransportMetrics(reg prometheus.Registerer) *TransportMetrics {
	m := &TransportMetrics{
		DatagramsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vento",
			Name:      "datagrams_sent_total",
			Help:      "Total UDP datagrams sent to controllers.",
		}),
		DatagramsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vento",
			Name:      "datagrams_received_total",
			Help:      "Total UDP datagrams received while waiting for replies.",
		}),
		Discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vento",
			Name:      "datagrams_discarded_total",
			Help:      "Received datagrams that were not the awaited reply.",
		}, []string{"reason"}),
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vento",
			Name:      "requests_total",
			Help:      "Protocol client calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		RoundTrip: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vento",
			Name:      "round_trip_seconds",
			Help:      "Time from send to matched reply.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 1.5, 3},
		}, []string{"op"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vento",
			Name:      "sockets_in_flight",
			Help:      "UDP sockets currently open by the client.",
		}),
	}
	reg.MustRegister(m.DatagramsSent, m.DatagramsReceived, m.Discarded, m.Outcomes, m.RoundTrip, m.InFlight)
	return m
}

func (m *TransportMetrics) Sent() {
	if m == nil {
		return
	}
	m.DatagramsSent.Inc()
}

func (m *TransportMetrics) Received() {
	if m == nil {
		return
	}
	m.DatagramsReceived.Inc()
}

// Discard records a datagram ignored for reason (decode, peer, device_id).
func (m *TransportMetrics) Discard(reason string) {
	if m == nil {
		return
	}
	m.Discarded.WithLabelValues(reason).Inc()
}

// Outcome records how a call of op ended and, for matched replies, its
// round-trip time.
func (m *TransportMetrics) Outcome(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Outcomes.WithLabelValues(op, outcome).Inc()
	if outcome == OutcomeMatched {
		m.RoundTrip.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}

// SocketOpened and SocketClosed track the in-flight gauge.
func (m *TransportMetrics) SocketOpened() {
	if m == nil {
		return
	}
	m.InFlight.Inc()
}

func (m *TransportMetrics) SocketClosed() {
	if m == nil {
		return
	}
	m.InFlight.Dec()
}

// BridgeMetrics tracks the WebSocket bridge. Nil-safe like TransportMetrics.
type BridgeMetrics struct {
	Clients  prometheus.Gauge
	Messages *prometheus.CounterVec // labels: direction, type
	Polls    *prometheus.CounterVec // labels: family, result
}

// NewBridgeMetrics registers and returns the bridge collectors.
func NewBridgeMetrics(reg prometheus.Registerer) *BridgeMetrics {
	m := &BridgeMetrics{
		Clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vento",
			Subsystem: "bridge",
			Name:      "clients",
			Help:      "Connected WebSocket clients.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vento",
			Subsystem: "bridge",
			Name:      "messages_total",
			Help:      "WebSocket messages by direction (in, out) and type.",
		}, []string{"direction", "type"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vento",
			Subsystem: "bridge",
			Name:      "polls_total",
			Help:      "Device state polls by family and result (ok, no_response, error).",
		}, []string{"family", "result"}),
	}
	reg.MustRegister(m.Clients, m.Messages, m.Polls)
	return m
}

// ClientConnected and ClientDisconnected track the clients gauge.
func (m *BridgeMetrics) ClientConnected() {
	if m == nil {
		return
	}
	m.Clients.Inc()
}

func (m *BridgeMetrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.Clients.Dec()
}

func (m *BridgeMetrics) Message(direction, kind string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(direction, kind).Inc()
}

func (m *BridgeMetrics) Poll(family, result string) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(family, result).Inc()
}
