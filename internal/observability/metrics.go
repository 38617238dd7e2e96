package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	connectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "connections_active",
			Help:      "Currently live connections.",
		},
	)
	framesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "frames_received_total",
			Help:      "Payload frames fully reassembled.",
		},
	)
	framesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "frames_sent_total",
			Help:      "Payload frames written.",
		},
	)
	bytesReceived = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "payload_bytes_received_total",
			Help:      "Payload bytes fully reassembled.",
		},
	)
	bytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "payload_bytes_sent_total",
			Help:      "Payload bytes written.",
		},
	)
	broadcastFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "broadcast_failures_total",
			Help:      "Per-member broadcast send failures.",
		},
	)
	pingRTT = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "wireline",
			Subsystem: "link",
			Name:      "ping_rtt_seconds",
			Help:      "Heartbeat round-trip time in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wireline",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wireline",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			connectionsActive,
			framesReceived,
			framesSent,
			bytesReceived,
			bytesSent,
			broadcastFailures,
			pingRTT,
			httpRequests,
			httpDuration,
		)
	})
}

func ConnectionOpened() {
	RegisterMetrics()
	connectionsActive.Inc()
}

func ConnectionClosed() {
	RegisterMetrics()
	connectionsActive.Dec()
}

func RecordFrameReceived(payloadBytes int) {
	RegisterMetrics()
	framesReceived.Inc()
	bytesReceived.Add(float64(payloadBytes))
}

func RecordFrameSent(payloadBytes int) {
	RegisterMetrics()
	framesSent.Inc()
	bytesSent.Add(float64(payloadBytes))
}

func RecordBroadcastFailure() {
	RegisterMetrics()
	broadcastFailures.Inc()
}

func ObservePingRTT(rtt time.Duration) {
	RegisterMetrics()
	pingRTT.Observe(rtt.Seconds())
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
