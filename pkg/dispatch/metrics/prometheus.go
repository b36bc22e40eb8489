package metrics

import "github.com/prometheus/client_golang/prometheus"

// PrometheusRecorder is a Recorder backed by client_golang counters, a
// gauge and a histogram, registered under the "dispatch" namespace.
type PrometheusRecorder struct {
	skipped        prometheus.Counter
	giveUp         prometheus.Counter
	drop           prometheus.Counter
	handlerFailure prometheus.Counter
	ringSize       prometheus.Gauge
	queueDepth     prometheus.Histogram
}

// NewPrometheusRecorder creates a PrometheusRecorder and registers its
// collectors with reg. Passing prometheus.DefaultRegisterer is the common
// case; a dedicated registry is preferred in tests to avoid collisions
// between dispatcher instances.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "skipped_total",
			Help:      "Mismatched-head arrivals since start.",
		}),
		giveUp: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "give_up_total",
			Help:      "Give-up events since start.",
		}),
		drop: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "source_drop_total",
			Help:      "Sources evicted since start.",
		}),
		handlerFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dispatch",
			Name:      "handler_failure_total",
			Help:      "Handler invocations that returned an error and were swallowed.",
		}),
		ringSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dispatch",
			Name:      "ring_size",
			Help:      "Number of known sources in the scheduling ring.",
		}),
		queueDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dispatch",
			Name:      "queue_depth",
			Help:      "Queue depth of a source observed after each message served from it.",
			Buckets:   prometheus.LinearBuckets(0, 4, 8),
		}),
	}
	reg.MustRegister(r.skipped, r.giveUp, r.drop, r.handlerFailure, r.ringSize, r.queueDepth)
	return r
}

func (r *PrometheusRecorder) IncSkipped()        { r.skipped.Inc() }
func (r *PrometheusRecorder) IncGiveUp()         { r.giveUp.Inc() }
func (r *PrometheusRecorder) IncDrop()           { r.drop.Inc() }
func (r *PrometheusRecorder) IncHandlerFailure() { r.handlerFailure.Inc() }

func (r *PrometheusRecorder) ObserveRingSize(size int) {
	r.ringSize.Set(float64(size))
}

func (r *PrometheusRecorder) ObserveQueueDepth(depth int) {
	r.queueDepth.Observe(float64(depth))
}

var _ Recorder = (*PrometheusRecorder)(nil)
