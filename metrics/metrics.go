package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mager/species/species"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts analyses and their findings.
type Metrics struct {
	registry *prometheus.Registry

	findings *prometheus.CounterVec
	analyses *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "species_findings_total",
			Help: "Counterpoint rule violations reported, by category.",
		}, []string{"category"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "species_analyses_total",
			Help: "Analyses run, by species and outcome.",
		}, []string{"species", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "species_analysis_duration_seconds",
			Help:    "Time spent running the rule catalogue.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"species"}),
	}
	reg.MustRegister(m.findings, m.analyses, m.duration)
	return m
}

// ProvideMetrics registers the analysis metrics with a fresh registry that
// also carries the Go runtime collectors.
func ProvideMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return New(reg)
}

// Observer counts each rule's findings as the analysis runs.
func (m *Metrics) Observer() species.Observer {
	return func(_ species.Rule, findings []species.Finding) {
		for _, f := range findings {
			m.findings.WithLabelValues(f.Category.String()).Inc()
		}
	}
}

// ObserveAnalysis records one finished analysis. Failed analyses carry err.
func (m *Metrics) ObserveAnalysis(speciesNum int, started time.Time, err error) {
	label := strconv.Itoa(speciesNum)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.analyses.WithLabelValues(label, outcome).Inc()
	m.duration.WithLabelValues(label).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Pattern() string {
	return "/metrics"
}

func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

var Options = ProvideMetrics
