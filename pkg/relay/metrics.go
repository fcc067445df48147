package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Labels to use for partitioning requests.
	requestLabels = []string{"endpoint", "status", "cause"}

	// Labels to use for partitioning request latencies.
	requestLatencyLabels = []string{"endpoint"}
)

// Metrics is the relay's instrumentation.
type Metrics struct {
	// Counts of requests served, by endpoint, status and cause.
	RequestCounts *prometheus.CounterVec

	// Latencies of serving incoming requests.
	RequestLatencies *prometheus.HistogramVec

	// Upstream node failures, by node URL.
	NodeFailures *prometheus.CounterVec
}

// NewMetrics registers the relay metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestCounts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addrview_relay_requests",
				Help: "How many relay requests were served, partitioned by endpoint, status, and cause.",
			},
			requestLabels,
		),
		RequestLatencies: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "addrview_relay_request_latencies",
				Help: "How long relay requests take to process, partitioned by endpoint.",
			},
			requestLatencyLabels,
		),
		NodeFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "addrview_relay_node_failures",
				Help: "How many upstream node calls failed, partitioned by node URL.",
			},
			[]string{"node"},
		),
	}
}

// RequestCounter returns the counter for the given endpoint, status and
// cause. Missing labels are left empty.
func (m *Metrics) RequestCounter(labels ...string) prometheus.Counter {
	if len(labels) > len(requestLabels) {
		labels = labels[:len(requestLabels)]
	}
	labels = append(labels, make([]string, len(requestLabels)-len(labels))...)
	return m.RequestCounts.WithLabelValues(labels...)
}

// RequestTimer starts a latency timer for endpoint.
func (m *Metrics) RequestTimer(endpoint string) *prometheus.Timer {
	return prometheus.NewTimer(m.RequestLatencies.WithLabelValues(endpoint))
}
