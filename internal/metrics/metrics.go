// Package metrics is the domain-level Prometheus registry for one
// intercept+citnames pipeline: executions observed by the collector,
// entries recognised and emitted by the semantic engine, and report
// flush latency. Distinct from internal/collector/interceptors, whose
// metrics describe the gRPC transport itself rather than the build
// being observed.
package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	regOK atomic.Bool

	executionsObserved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bear",
			Subsystem: "intercept",
			Name:      "executions_observed_total",
			Help:      "Number of process executions reported to the collector.",
		}, []string{"event"},
	)
	executionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bear",
			Subsystem: "intercept",
			Name:      "executions_open",
			Help:      "Number of executions currently open (started but not stopped).",
		},
	)
	reportFlushDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bear",
			Subsystem: "intercept",
			Name:      "report_flush_duration_seconds",
			Help:      "Latency of persisting the execution report after each event.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	entriesRecognized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bear",
			Subsystem: "citnames",
			Name:      "entries_recognized_total",
			Help:      "Number of compilation-database entries recognised, by recogniser.",
		}, []string{"recognizer"},
	)
	entriesFiltered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bear",
			Subsystem: "citnames",
			Name:      "entries_filtered_total",
			Help:      "Number of executions that contributed no entries, by reason.",
		}, []string{"reason"},
	)
	entriesEmitted = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bear",
			Subsystem: "citnames",
			Name:      "entries_emitted",
			Help:      "Number of entries written to the final compilation database.",
		},
	)
)

// Register registers every collector with r. Safe to call more than
// once; subsequent calls are no-ops once the first succeeds.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		executionsObserved, executionsOpen, reportFlushDuration,
		entriesRecognized, entriesFiltered, entriesEmitted,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer's metrics over HTTP; the caller
// wires it to a listener.
func Handler() http.Handler { return promhttp.Handler() }

// IncExecutionStarted records a "start" event and opens a gauge slot.
func IncExecutionStarted() {
	if regOK.Load() {
		executionsObserved.WithLabelValues("start").Inc()
		executionsOpen.Inc()
	}
}

// IncExecutionStopped records a "stop" event and closes a gauge slot.
func IncExecutionStopped() {
	if regOK.Load() {
		executionsObserved.WithLabelValues("stop").Inc()
		executionsOpen.Dec()
	}
}

// ObserveReportFlush records how long one Store.Persist call took.
func ObserveReportFlush(seconds float64) {
	if regOK.Load() {
		reportFlushDuration.Observe(seconds)
	}
}

// IncEntryRecognized records one entry produced by recognizer.
func IncEntryRecognized(recognizer string) {
	if regOK.Load() {
		entriesRecognized.WithLabelValues(recognizer).Inc()
	}
}

// IncEntryFiltered records one execution that contributed no entries,
// for reason.
func IncEntryFiltered(reason string) {
	if regOK.Load() {
		entriesFiltered.WithLabelValues(reason).Inc()
	}
}

// SetEntriesEmitted sets the final emitted-entry count for one run.
func SetEntriesEmitted(n int) {
	if regOK.Load() {
		entriesEmitted.Set(float64(n))
	}
}
