package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Guliveer/sysinv/internal/models"
)

// Metrics records run results in a private Prometheus registry, so several
// orchestrators (and tests) never collide on the default registerer.
type Metrics struct {
	registry *prometheus.Registry

	runDuration    prometheus.Histogram
	runsTotal      *prometheus.CounterVec
	factStatus     *prometheus.GaugeVec
	lastSuccess    prometheus.Gauge
	persistRetries prometheus.Counter
}

// NewMetrics creates and registers the run metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sysinv_run_duration_seconds",
			Help:    "Time taken by one collect, assemble and persist run",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sysinv_runs_total",
			Help: "Total number of runs by result and terminal stage",
		}, []string{"result", "stage"}),
		factStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sysinv_fact_status",
			Help: "Status of each category in the last snapshot (1 for the current status)",
		}, []string{"category", "status"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sysinv_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
		persistRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sysinv_persist_retries_total",
			Help: "Total number of persist attempts retried after a failure",
		}),
	}
	m.registry.MustRegister(m.runDuration, m.runsTotal, m.factStatus, m.lastSuccess, m.persistRetries)
	return m
}


func (m *Metrics) observe(o Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.Observe(elapsed.Seconds())

	result := "success"
	if !o.Success() {
		result = "failed"
	}
	m.runsTotal.WithLabelValues(result, string(o.Stage)).Inc()
	if o.Success() {
		m.lastSuccess.Set(float64(time.Now().Unix()))
	}

	if len(o.Snapshot.Facts) == 0 {
		return
	}
	m.factStatus.Reset()
	for _, f := range o.Snapshot.Facts {
		for _, code := range []models.StatusCode{models.StatusOK, models.StatusUnavailable, models.StatusPartialError} {
			v := 0.0
			if f.Status.Code == code {
				v = 1
			}
			m.factStatus.WithLabelValues(string(f.Category), string(code)).Set(v)
		}
	}
}

func (m *Metrics) retried() {
	if m != nil {
		m.persistRetries.Inc()
	}
}

// WriteTextfile writes the metrics in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
