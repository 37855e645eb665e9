package prometrics

import (
	"sync"

	"github.com/deniz-oezdemir/Spaeti-SnackEnd-sub000/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

type spec struct {
	help    string
	labels  []string
	buckets []float64
}

// Known instruments, keyed by the vendor-neutral metric names the application
// layer refers to. Registering here keeps label sets low-cardinality and fixed.
var specs = map[observability.MetricKey]spec{
	observability.MPlacementRequests: {
		help:   "Total number of order placement attempts.",
		labels: []string{"outcome"},
	},
	observability.MPlacementDuration: {
		help:    "Duration of order placement attempts in seconds.",
		labels:  []string{},
		buckets: prometheus.DefBuckets,
	},
	observability.MHTTPRequests: {
		help:   "Total number of HTTP requests.",
		labels: []string{"method", "route", "status"},
	},
	observability.MHTTPRequestDuration: {
		help:    "Duration of HTTP requests in seconds.",
		labels:  []string{"method", "route", "status"},
		buckets: prometheus.DefBuckets,
	},
	observability.MExternalRequests: {
		help:   "Total number of calls to external collaborators.",
		labels: []string{"peer", "endpoint", "outcome"},
	},
	observability.MExternalRequestDuration: {
		help:    "Duration of calls to external collaborators in seconds.",
		labels:  []string{"peer", "endpoint"},
		buckets: prometheus.DefBuckets,
	},
}

type registry struct {
	counters   sync.Map // MetricKey -> *prometheus.CounterVec
	histograms sync.Map // MetricKey -> *prometheus.HistogramVec
	namespace  string
	subsystem  string
	reg        prometheus.Registerer
}

// New creates a metrics provider backed by the given Prometheus registerer.
// A nil registerer falls back to the default registry.
func New(namespace, subsystem string, reg prometheus.Registerer) observability.Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{namespace: namespace, subsystem: subsystem, reg: reg}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	if c == nil || c.v == nil {
		return
	}
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	if h == nil || h.v == nil {
		return
	}
	h.v.With(labelMap(labels)).Observe(v)
}

func (r *registry) Counter(name observability.MetricKey) observability.Counter {
	if v, ok := r.counters.Load(name); ok {
		return &counter{v: v.(*prometheus.CounterVec)}
	}
	s, ok := specs[name]
	if !ok {
		return &counter{}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: string(name), Help: s.help,
	}, s.labels)
	r.reg.MustRegister(cv)
	r.counters.Store(name, cv)
	return &counter{v: cv}
}

func (r *registry) Histogram(name observability.MetricKey) observability.Histogram {
	if v, ok := r.histograms.Load(name); ok {
		return &histogram{v: v.(*prometheus.HistogramVec)}
	}
	s, ok := specs[name]
	if !ok {
		return &histogram{}
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: string(name), Help: s.help, Buckets: s.buckets,
	}, s.labels)
	r.reg.MustRegister(hv)
	r.histograms.Store(name, hv)
	return &histogram{v: hv}
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}
