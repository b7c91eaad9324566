// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/openmediahub/searchsync/internal/model"
)

const namespace = "searchsync"

// Set bundles every collector the engine reports into.
type Set struct {
	DrainCycles   *prometheus.CounterVec
	Subcycles     prometheus.Counter
	Markers       *prometheus.CounterVec
	Upserted      *prometheus.CounterVec
	Deleted       *prometheus.CounterVec
	Mismatches    prometheus.Counter
	QueueDepth    *prometheus.GaugeVec
	DrainDuration prometheus.Histogram
}

// New builds and registers the collector set. A nil registerer keeps
// the collectors private, which is what tests want.
func New(reg prometheus.Registerer) *Set {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Set{
		DrainCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drain_cycles_total",
			Help:      "Completed drain cycles by result.",
		}, []string{"result"}),
		Subcycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subcycles_total",
			Help:      "Executed drain sub-cycles, including empty ones.",
		}),
		Markers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "markers_processed_total",
			Help:      "Queue markers processed by entity kind.",
		}, []string{"kind"}),
		Upserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_upserted_total",
			Help:      "Documents written to the index by entity kind.",
		}, []string{"kind"}),
		Deleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_deleted_total",
			Help:      "Documents removed from the index by entity kind.",
		}, []string{"kind"}),
		Mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marker_delete_mismatch_total",
			Help:      "Sub-cycles whose marker deletion count differed from the chunk size.",
		}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Pending queue markers by entity kind, sampled at drain start.",
		}, []string{"kind"}),
		DrainDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "drain_duration_seconds",
			Help:      "Wall time of full drain cycles.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(s.DrainCycles, s.Subcycles, s.Markers, s.Upserted,
		s.Deleted, s.Mismatches, s.QueueDepth, s.DrainDuration)
	return s
}

// ObserveDrain records one finished drain cycle.
func (s *Set) ObserveDrain(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	s.DrainCycles.WithLabelValues(result).Inc()
	s.DrainDuration.Observe(took.Seconds())
}

// SetQueueDepth publishes the sampled per-kind queue depth.
func (s *Set) SetQueueDepth(depth map[model.Kind]int64) {
	for kind, n := range depth {
		s.QueueDepth.WithLabelValues(kind.String()).Set(float64(n))
	}
}
