// Package metrics provides Prometheus observability for the recycling engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the API process.
var Registry = prometheus.NewRegistry()

// factory registers metrics to our custom Registry directly.
var factory = promauto.With(Registry)

// SweepCycles counts completed automatic sweep cycles.
var SweepCycles = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "recycler",
	Name:      "sweep_cycles_total",
	Help:      "Number of automatic sweep cycles executed",
})

// ContactsRecycled counts contacts transitioned back to NEW, by path.
var ContactsRecycled = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recycler",
	Name:      "contacts_recycled_total",
	Help:      "Contacts reset to callable, partitioned by recycle path",
}, []string{"path"})

// SweepConflicts counts conditional updates lost to a concurrent writer
// during automatic sweeps. Conflicts are expected under load, not errors.
var SweepConflicts = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "recycler",
	Name:      "sweep_conflicts_total",
	Help:      "Sweep transitions skipped because the contact changed concurrently",
})

// SweepListFailures counts lists whose evaluation failed within a cycle.
// A failed list is retried on the next cycle.
var SweepListFailures = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "recycler",
	Name:      "sweep_list_failures_total",
	Help:      "Per-list sweep failures (list retried next cycle)",
})

// SweepDuration observes wall time of a full sweep cycle.
var SweepDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "recycler",
	Name:      "sweep_duration_seconds",
	Help:      "Duration of a full automatic sweep cycle",
	Buckets:   prometheus.DefBuckets,
})

// ManualRecycles counts manual bulk recycle invocations by result.
var ManualRecycles = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "recycler",
	Name:      "manual_recycles_total",
	Help:      "Manual list recycle invocations, partitioned by result",
}, []string{"result"})
