package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	nodeTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidmod",
			Subsystem: "node",
			Name:      "ticks_total",
			Help:      "Node ticks by progress outcome.",
		},
		[]string{"node", "type", "progress"},
	)
	nodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidmod",
			Subsystem: "node",
			Name:      "failures_total",
			Help:      "Fatal node errors returned from tick.",
		},
		[]string{"node", "type"},
	)
	portElements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidmod",
			Subsystem: "port",
			Name:      "elements_total",
			Help:      "Elements moved between linked ports.",
		},
		[]string{"node", "port", "direction"},
	)
	portBuffered = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "vidmod",
			Subsystem: "port",
			Name:      "buffered",
			Help:      "Elements currently buffered on a port.",
		},
		[]string{"node", "port", "direction"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vidmod",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"server", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vidmod",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"server", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(nodeTicks, nodeFailures, portElements, portBuffered, httpRequests, httpDuration)
	})
}

func RecordTick(node, kind string, progress bool) {
	RegisterMetrics()
	nodeTicks.WithLabelValues(node, kind, strconv.FormatBool(progress)).Inc()
}

func RecordFailure(node, kind string) {
	RegisterMetrics()
	nodeFailures.WithLabelValues(node, kind).Inc()
}

func RecordTransfer(node, port, direction string, n int) {
	if n <= 0 {
		return
	}
	RegisterMetrics()
	portElements.WithLabelValues(node, port, direction).Add(float64(n))
}

func SetPortBuffered(node, port, direction string, n int) {
	RegisterMetrics()
	portBuffered.WithLabelValues(node, port, direction).Set(float64(n))
}

func RecordHTTPRequest(server, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(server, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(server, method, path, statusLabel).Observe(duration.Seconds())
}
