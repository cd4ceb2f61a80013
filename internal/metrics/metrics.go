// Package metrics holds the Prometheus collectors for compiling and
// dispatching rules. Collectors live on a private registry so tests and
// embedded engines never collide with the global default registry.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"

	"github.com/roach88/rulekit/internal/compiler"
	"github.com/roach88/rulekit/internal/engine"
)

var (
	_ engine.Metrics   = (*Metrics)(nil)
	_ compiler.Metrics = (*Metrics)(nil)
)

// Metrics holds every rulekit collector.
type Metrics struct {
	Registry *prometheus.Registry

	RulesCompiledTotal prometheus.Counter
	CompileDuration    prometheus.Histogram
	DiagnosticsTotal   *prometheus.CounterVec

	DispatchesTotal  prometheus.Counter
	DispatchDuration prometheus.Histogram
	RulesMatched     prometheus.Histogram
	FiringsTotal     *prometheus.CounterVec
	RulesLoaded      prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		RulesCompiledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rulekit_rules_compiled_total",
			Help: "Total number of rules compiled.",
		}),
		CompileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rulekit_compile_duration_seconds",
			Help:    "Time spent compiling one rule.",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}),
		DiagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rulekit_diagnostics_total",
			Help: "Compile diagnostics by code.",
		}, []string{"code"}),
		DispatchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rulekit_dispatches_total",
			Help: "Total number of events dispatched.",
		}),
		DispatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rulekit_dispatch_duration_seconds",
			Help:    "Time spent evaluating the rule set for one event.",
			Buckets: prometheus.DefBuckets,
		}),
		RulesMatched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rulekit_rules_matched",
			Help:    "Rules that fired per dispatched event.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		FiringsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rulekit_firings_total",
			Help: "Rule firings by rule name and outcome.",
		}, []string{"rule", "outcome"}),
		RulesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rulekit_rules_loaded",
			Help: "Number of rules in the active generation.",
		}),
	}

	reg.MustRegister(
		m.RulesCompiledTotal,
		m.CompileDuration,
		m.DiagnosticsTotal,
		m.DispatchesTotal,
		m.DispatchDuration,
		m.RulesMatched,
		m.FiringsTotal,
		m.RulesLoaded,
	)

	return m
}

// ObserveCompile records one compiled rule.
func (m *Metrics) ObserveCompile(d time.Duration) {
	m.RulesCompiledTotal.Inc()
	m.CompileDuration.Observe(d.Seconds())
}

// IncDiagnostic counts one diagnostic with the given code.
func (m *Metrics) IncDiagnostic(code string) {
	m.DiagnosticsTotal.WithLabelValues(code).Inc()
}

// ObserveDispatch records one dispatched event and how many rules fired.
func (m *Metrics) ObserveDispatch(d time.Duration, fired int) {
	m.DispatchesTotal.Inc()
	m.DispatchDuration.Observe(d.Seconds())
	m.RulesMatched.Observe(float64(fired))
}

// IncFiring counts one firing.
func (m *Metrics) IncFiring(rule string, outcome engine.Outcome) {
	m.FiringsTotal.WithLabelValues(rule, string(outcome)).Inc()
}

// SetRules sets the size of the active rule set.
func (m *Metrics) SetRules(n int) {
	m.RulesLoaded.Set(float64(n))
}

// Handler returns an HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// WriteText dumps every gathered family in the Prometheus text format.
func (m *Metrics) WriteText(w io.Writer) error {
	fams, err := m.Registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, fam := range fams {
		if _, err := expfmt.MetricFamilyToText(w, fam); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
