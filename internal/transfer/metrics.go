package transfer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Outcome labels of chunkstore_chunk_requests_total.
const (
	resultCreated  = "created"
	resultExists   = "exists"
	resultHit      = "hit"
	resultNotFound = "not_found"
	resultCorrupt  = "corrupt"
	resultDeleted  = "deleted"
	resultInvalid  = "invalid"
	resultError    = "error"
)

type serverMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	stored   prometheus.Counter
}

// newServerMetrics registers the chunk counters on a registry owned by one
// Server, so several servers in a process do not collide.
func newServerMetrics() *serverMetrics {
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chunkstore",
			Name:      "chunk_requests_total",
			Help:      "Count of chunk requests by operation and result",
		}, []string{"op", "result"}),
		stored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chunkstore",
			Name:      "chunk_bytes_written_total",
			Help:      "Bytes of newly stored chunks",
		}),
	}

	m.registry.MustRegister(
		m.requests,
		m.stored,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *serverMetrics) observe(op, result string) {
	m.requests.WithLabelValues(op, result).Inc()
}
