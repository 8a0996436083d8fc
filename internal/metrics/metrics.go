// Package metrics instruments sync and the dev server with Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Recorder interface {
	ObserveSync(domain, op string, err error, d time.Duration)
	SetRecords(domain string, n int)
	ObserveRequest(route string, status int, d time.Duration)
}

// Provider records into its own registry so several instances can coexist
// in one process (tests, dbk serve next to the client).
type Provider struct {
	reg *prometheus.Registry

	syncTotal       *prometheus.CounterVec
	syncDuration    *prometheus.HistogramVec
	recordsTotal    *prometheus.GaugeVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() *Provider {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Provider{
		reg: reg,
		syncTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_sync_total",
			Help: "Push and pull attempts by domain and outcome",
		}, []string{"domain", "op", "result"}),
		syncDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "daybook_sync_duration_seconds",
			Help:    "Duration of push and pull calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"domain", "op"}),
		recordsTotal: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "daybook_records",
			Help: "Records in a domain after the last sync",
		}, []string{"domain"}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "daybook_server_requests_total",
			Help: "Requests served by the dev server",
		}, []string{"route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "daybook_server_request_duration_seconds",
			Help:    "Dev server request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

func (p *Provider) ObserveSync(domain, op string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.syncTotal.WithLabelValues(domain, op, result).Inc()
	p.syncDuration.WithLabelValues(domain, op).Observe(d.Seconds())
}

func (p *Provider) SetRecords(domain string, n int) {
	p.recordsTotal.WithLabelValues(domain).Set(float64(n))
}

func (p *Provider) ObserveRequest(route string, status int, d time.Duration) {
	p.requestsTotal.WithLabelValues(route, statusBucket(status)).Inc()
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Gatherer exposes the registry, mainly for tests.
func (p *Provider) Gatherer() prometheus.Gatherer {
	return p.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter's textfile
// collector. An empty path is a no-op.
func (p *Provider) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, p.reg)
}

func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveSync(string, string, error, time.Duration) {}
func (Nop) SetRecords(string, int)                          {}
func (Nop) ObserveRequest(string, int, time.Duration)       {}
