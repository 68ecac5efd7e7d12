// Package metrics exposes prometheus counters for the import pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Import outcomes.
const (
	OutcomeImported  = "imported"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// Metrics owns its registry so tests and multiple servers never collide on the
// global default one. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	imports        *prometheus.CounterVec
	gateOpened     *prometheus.CounterVec
	rowsImported   prometheus.Counter
	rowsDropped    prometheus.Counter
	amountFailures prometheus.Counter
	decodeSeconds  prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budget",
			Name:      "imports_total",
			Help:      "Statement import attempts by outcome.",
		}, []string{"outcome"}),
		gateOpened: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budget",
			Name:      "import_gate_opened_total",
			Help:      "Imports that needed column confirmation, by reason.",
		}, []string{"reason"}),
		rowsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "budget",
			Name:      "import_rows_total",
			Help:      "Transactions appended to the ledger.",
		}),
		rowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "budget",
			Name:      "import_rows_dropped_total",
			Help:      "Rows dropped for an empty description or a non-finite amount.",
		}),
		amountFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "budget",
			Name:      "import_amount_parse_failures_total",
			Help:      "Rows whose amount could not be read and was stored as zero.",
		}),
		decodeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "budget",
			Name:      "import_decode_seconds",
			Help:      "Time spent decoding uploaded statements.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.imports, m.gateOpened, m.rowsImported, m.rowsDropped, m.amountFailures, m.decodeSeconds,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ImportFinished(outcome string) {
	if m == nil {
		return
	}
	m.imports.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GateOpened(reason string) {
	if m == nil {
		return
	}
	m.gateOpened.WithLabelValues(reason).Inc()
}

// RowsAssembled records one assembled batch.
func (m *Metrics) RowsAssembled(imported, dropped, amountFailures int) {
	if m == nil {
		return
	}
	m.rowsImported.Add(float64(imported))
	m.rowsDropped.Add(float64(dropped))
	m.amountFailures.Add(float64(amountFailures))
}

func (m *Metrics) DecodeDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.decodeSeconds.Observe(d.Seconds())
}
