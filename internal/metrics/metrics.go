// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors of a pipeline run. Each
// run owns a private registry, which can be exported as a node-exporter
// textfile once the run finishes.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for one pipeline run.
type Metrics struct {
	Registry *prometheus.Registry

	RecordsCollected   *prometheus.CounterVec
	ConnectorFailures  *prometheus.CounterVec
	RecordsDropped     *prometheus.CounterVec
	IdentityConflicts  prometheus.Counter
	PersonsResolved    prometheus.Gauge
	SignalsNotComputed *prometheus.CounterVec
	Decisions          *prometheus.CounterVec
	GuardrailFailures  *prometheus.CounterVec
	RowsEmitted        prometheus.Gauge
	StageDuration      *prometheus.HistogramVec
	LastRunSuccess     prometheus.Gauge
}

// New creates a Metrics instance registered on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RecordsCollected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_records_collected_total",
			Help: "Raw candidate records received from connectors",
		}, []string{"source_system"}),
		ConnectorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_connector_failures_total",
			Help: "Scenario searches that returned an error",
		}, []string{"scenario"}),
		RecordsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_records_dropped_total",
			Help: "Records dropped during identity resolution",
		}, []string{"reason"}),
		IdentityConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "talent_identity_conflicts_total",
			Help: "Records whose handle was bound to a different scholarly id",
		}),
		PersonsResolved: f.NewGauge(prometheus.GaugeOpts{
			Name: "talent_persons_resolved",
			Help: "Distinct persons after identity resolution",
		}),
		SignalsNotComputed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_signals_not_computed_total",
			Help: "Sub-signals marked not computed",
		}, []string{"signal"}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_watchlist_decisions_total",
			Help: "Watchlist decisions by tier and change",
		}, []string{"tier", "change"}),
		GuardrailFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "talent_guardrail_failures_total",
			Help: "Guardrail check failures by kind",
		}, []string{"kind"}),
		RowsEmitted: f.NewGauge(prometheus.GaugeOpts{
			Name: "talent_rows_emitted",
			Help: "Rows in the canonical output",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "talent_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		}, []string{"stage"}),
		LastRunSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "talent_last_run_success",
			Help: "1 if the run passed every guardrail, 0 otherwise",
		}),
	}
}

// ObserveStage records the duration of a stage.
// Call with time.Now() at the start of the stage.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the text exposition format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
