// Package metrics holds the Prometheus instruments exported by the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Instrumentation struct {
	// counters
	CounterRequests      *prometheus.CounterVec
	CounterPanics        prometheus.Counter
	CounterAggregations  *prometheus.CounterVec
	CounterPlanInstances prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration    prometheus.Histogram
	HistAggregatedWorkouts prometheus.Histogram
}

// NewRegistry returns a registry with build info, Go runtime and process
// collectors already registered.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewBuildInfoCollector(),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// NewTestInstrumentation registers on a throwaway registry.
func NewTestInstrumentation() *Instrumentation {
	return New("limitbeyond", "test", prometheus.NewRegistry())
}

func New(namespace, subsystem string, reg prometheus.Registerer) *Instrumentation {
	factory := promauto.With(reg)

	return &Instrumentation{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of handled requests",
		}, []string{"method", "status"}),
		CounterPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handle_request_panic",
			Help:      "The total number of recovered handler panics",
		}),
		CounterAggregations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stats_aggregations_total",
			Help:      "Workout statistics aggregations by outcome",
		}, []string{"outcome"}),
		CounterPlanInstances: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "plan_days_copied_total",
			Help:      "Workouts created from plan days",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Requests currently in flight",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of handled requests",
			Buckets:   prometheus.DefBuckets,
		}),
		HistAggregatedWorkouts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stats_workouts_per_aggregation",
			Help:      "Number of workouts folded into one statistics summary",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

// ObserveAggregation records one statistics run over n workouts.
func (i *Instrumentation) ObserveAggregation(n int, err error) {
	if err != nil {
		i.CounterAggregations.WithLabelValues("error").Inc()
		return
	}
	i.CounterAggregations.WithLabelValues("ok").Inc()
	i.HistAggregatedWorkouts.Observe(float64(n))
}
