// Package metrics exposes Prometheus metrics for provisioning and probe runs.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gcpm"

// Metrics holds the collectors and the registry they are registered with.
type Metrics struct {
	registry *prometheus.Registry

	stageTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runTotal      *prometheus.CounterVec
	probeChecks   *prometheus.CounterVec
	probeLatency  *prometheus.HistogramVec

	mu      sync.Mutex
	started map[domain.StageKey]time.Time
	now     func() time.Time
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		stageTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_total",
				Help:      "Total number of finished provisioning stages by stage and result",
			},
			[]string{"stage", "result"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of provisioning stages in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8), // 100ms to ~25s
			},
			[]string{"stage"},
		),
		runTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "pipeline",
				Name:      "run_total",
				Help:      "Total number of finished provisioning runs by result",
			},
			[]string{"result"},
		),
		probeChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "checks_total",
				Help:      "Total number of connectivity checks by check and result",
			},
			[]string{"check", "result"},
		),
		probeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "probe",
				Name:      "latency_seconds",
				Help:      "Latency of connectivity checks in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 11), // 10ms to ~10s
			},
			[]string{"check"},
		),
		started: make(map[domain.StageKey]time.Time),
		now:     time.Now,
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.stageTotal,
		m.stageDuration,
		m.runTotal,
		m.probeChecks,
		m.probeLatency,
	)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnLog is a no-op; only stage transitions are measured.
func (m *Metrics) OnLog(domain.LogEntry) {}

// OnStage records stage outcomes and durations. Runs are counted by
// ObserveRun, since a rejected run never reaches a terminal stage.
func (m *Metrics) OnStage(stage domain.Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch stage.Status {
	case domain.StageStatusRunning:
		m.started[stage.Key] = m.now()
		return
	case domain.StageStatusSuccess, domain.StageStatusFailed:
	default:
		return
	}

	result := string(stage.Status)
	m.stageTotal.WithLabelValues(string(stage.Key), result).Inc()
	if start, ok := m.started[stage.Key]; ok {
		m.stageDuration.WithLabelValues(string(stage.Key)).Observe(m.now().Sub(start).Seconds())
		delete(m.started, stage.Key)
	}
}

// ObserveRun counts one finished provisioning run by result: success,
// rejected (invalid input), cancelled, or failed. Its signature matches
// console.RunHook.
func (m *Metrics) ObserveRun(_ *domain.Run, err error) {
	m.runTotal.WithLabelValues(runResult(err)).Inc()
}

func runResult(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrValidation):
		return "rejected"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "failed"
	}
}

// ObserveCheck records one connectivity check. Its signature matches
// probe.ResultFunc.
func (m *Metrics) ObserveCheck(_ int, result domain.CheckResult) {
	label := "unreachable"
	if result.IsSuccess {
		label = "reachable"
	}
	m.probeChecks.WithLabelValues(result.Name, label).Inc()
	m.probeLatency.WithLabelValues(result.Name).Observe(float64(result.LatencyMs) / 1000)
}
