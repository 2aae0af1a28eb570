package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "cascade"

// Metrics holds the Prometheus collectors a graph records into. One Metrics
// value can be shared between any number of graphs; series are split by the
// graph name given with WithName. A nil *Metrics records nothing.
type Metrics struct {
	inserts   *prometheus.CounterVec
	failures  *prometheus.CounterVec
	fanout    *prometheus.CounterVec
	staleRefs *prometheus.CounterVec
}

// NewMetrics creates the cascade collectors and registers them with reg.
// If reg is nil the collectors are created but not registered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		inserts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inserts_total",
			Help:      "Values inserted into a segment, by the operator that built it.",
		}, []string{"graph", "op"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "callback_failures_total",
			Help:      "User callbacks that panicked during dispatch, by operator.",
		}, []string{"graph", "op"}),
		fanout: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fanout_tasks_total",
			Help:      "Sibling branches run at fork points, by how they were scheduled.",
		}, []string{"graph", "mode"}),
		staleRefs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "stale_refs_total",
			Help:      "Back-reference insertions dropped because the segment was gone.",
		}, []string{"graph"}),
	}
}

type fanoutMode string

const (
	fanoutSpawned fanoutMode = "spawned"
	fanoutInline  fanoutMode = "inline"
)

// segmentCounters are resolved once per segment so Insert does no label
// lookups on the hot path. The failure series is only created on the first
// failure, so segments that never fail export nothing for it.
type segmentCounters struct {
	inserts  prometheus.Counter
	failures *prometheus.CounterVec
	graph    string
	op       Kind
}

func (m *Metrics) forSegment(graph string, op Kind) segmentCounters {
	if m == nil {
		return segmentCounters{}
	}
	return segmentCounters{
		inserts:  m.inserts.WithLabelValues(graph, string(op)),
		failures: m.failures,
		graph:    graph,
		op:       op,
	}
}

func (m *Metrics) fanoutTask(graph string, mode fanoutMode) {
	if m == nil {
		return
	}
	m.fanout.WithLabelValues(graph, string(mode)).Inc()
}

func (m *Metrics) staleRef(graph string) {
	if m == nil {
		return
	}
	m.staleRefs.WithLabelValues(graph).Inc()
}

func (c segmentCounters) insert() {
	if c.inserts != nil {
		c.inserts.Inc()
	}
}

func (c segmentCounters) failure() {
	if c.failures != nil {
		c.failures.WithLabelValues(c.graph, string(c.op)).Inc()
	}
}
