// Package metrics counts upload pipeline events in a Prometheus registry
// that can be dumped to a node-exporter textfile after a run.
package metrics

import (
	"github.com/dmitrijs2005/dvcurate/internal/models"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements the upload recorder with Prometheus counters.
type Metrics struct {
	registry *prometheus.Registry

	filesUploaded       prometheus.Counter
	filesFailed         prometheus.Counter
	bytesUploaded       prometheus.Counter
	negotiationAttempts *prometheus.CounterVec
	batchesFinalized    *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		filesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dvcurate_files_uploaded_total",
			Help: "Total number of files stored and digested",
		}),
		filesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dvcurate_files_failed_total",
			Help: "Total number of files that could not be uploaded",
		}),
		bytesUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dvcurate_bytes_uploaded_total",
			Help: "Total number of bytes written to the object store",
		}),
		negotiationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dvcurate_negotiation_attempts_total",
			Help: "Upload ticket requests by outcome",
		}, []string{"status"}),
		batchesFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dvcurate_batches_finalized_total",
			Help: "Batch registrations by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.filesUploaded,
		m.filesFailed,
		m.bytesUploaded,
		m.negotiationAttempts,
		m.batchesFinalized,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) NegotiationAttempt(status models.NegotiationStatus) {
	m.negotiationAttempts.WithLabelValues(status.String()).Inc()
}

func (m *Metrics) FileUploaded(bytes int64) {
	m.filesUploaded.Inc()
	m.bytesUploaded.Add(float64(bytes))
}

func (m *Metrics) FileFailed() {
	m.filesFailed.Inc()
}

func (m *Metrics) BatchFinalized(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	m.batchesFinalized.WithLabelValues(result).Inc()
}

// WriteTextfile writes the current values in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
