// Package metrics registers the Prometheus metrics exposed by the HTTP
// surface. Counters are cheap to bump from CLI paths even when nothing
// scrapes them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for mentat.
type Metrics struct {
	ExecutionsTotal       prometheus.Counter
	ReflectionsTotal      *prometheus.CounterVec
	PatternsAdoptedTotal  prometheus.Counter
	VersionsArchivedTotal prometheus.Counter
	GuardedRunsTotal      *prometheus.CounterVec
	VerificationDuration  prometheus.Histogram
	RevertsTotal          *prometheus.CounterVec
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics. Registration
// happens once; later calls return the shared instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			ExecutionsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mentat_executions_total",
					Help: "Total number of recorded task executions",
				},
			),
			ReflectionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentat_reflections_total",
					Help: "Total number of recorded reflections by outcome",
				},
				[]string{"outcome"},
			),
			PatternsAdoptedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mentat_patterns_adopted_total",
					Help: "Total number of behavioral patterns adopted into the ledger",
				},
			),
			VersionsArchivedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "mentat_prompt_versions_archived_total",
					Help: "Total number of prompt versions archived",
				},
			),
			GuardedRunsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentat_guarded_runs_total",
					Help: "Total number of guarded executions by result",
				},
				[]string{"result"},
			),
			VerificationDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "mentat_verification_duration_seconds",
					Help:    "Verification command duration in seconds",
					Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
				},
			),
			RevertsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mentat_reverts_total",
					Help: "Total number of working-tree reverts by outcome",
				},
				[]string{"outcome"},
			),
		}
	})

	return sharedMetrics
}

// RecordReflection records one reflection with its outcome label.
func (m *Metrics) RecordReflection(outcome string) {
	m.ReflectionsTotal.WithLabelValues(outcome).Inc()
}

// RecordGuardedRun records one guarded execution result.
func (m *Metrics) RecordGuardedRun(passed bool, seconds float64) {
	result := "fail"
	if passed {
		result = "pass"
	}
	m.GuardedRunsTotal.WithLabelValues(result).Inc()
	m.VerificationDuration.Observe(seconds)
}
