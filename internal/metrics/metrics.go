// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mindcanvas"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Logins        *prometheus.CounterVec
	Backups       *prometheus.CounterVec
	MirrorUploads *prometheus.CounterVec
	StoreOps      *prometheus.CounterVec
}

// New creates a Metrics with its own registry, so tests can build as many
// as they like without colliding on the global one.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Backups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Backup files written before a save, by result.",
		}, []string{"result"}),
		MirrorUploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_mirror_uploads_total",
			Help:      "Backup uploads to S3, by result.",
		}, []string{"result"}),
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Encrypted store loads and saves, by result.",
		}, []string{"op", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.Logins,
		m.Backups,
		m.MirrorUploads,
		m.StoreOps,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Result maps an error to the "result" label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// Recorder is the subset of Metrics the storage layer reports to. A nil
// *Metrics is a valid Recorder that records nothing.
type Recorder interface {
	ObserveBackup(err error)
	ObserveMirrorUpload(err error)
	ObserveStore(op string, err error)
}

func (m *Metrics) ObserveBackup(err error) {
	if m == nil {
		return
	}
	m.Backups.WithLabelValues(Result(err)).Inc()
}

func (m *Metrics) ObserveMirrorUpload(err error) {
	if m == nil {
		return
	}
	m.MirrorUploads.WithLabelValues(Result(err)).Inc()
}

func (m *Metrics) ObserveStore(op string, err error) {
	if m == nil {
		return
	}
	m.StoreOps.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) ObserveLogin(ok bool) {
	if m == nil {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultError
	}
	m.Logins.WithLabelValues(result).Inc()
}
