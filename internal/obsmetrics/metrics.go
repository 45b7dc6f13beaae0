// Package obsmetrics provides Prometheus collectors for the decoder,
// adapted from the teacher's shared/metrics package: the same promauto
// registration style and namespaced/labeled collectors, scoped down from
// HTTP RED metrics to decode-pipeline counters and a request-duration
// histogram for the HTTP adapter that does sit on top of this package.
package obsmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config names the metrics namespace, mirroring the teacher's metrics.Config.
type Config struct {
	Namespace string // defaults to "vindecoder"
}

// Metrics holds the decoder's collectors plus HTTP request collectors fed
// through RecordHTTPRequest, which cmd/vindecode-server does not call.
type Metrics struct {
	decodesTotal       *prometheus.CounterVec
	decodeDuration     *prometheus.HistogramVec
	catalogLoadErrors  prometheus.Counter
	patternMatchMisses prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
	httpRequestSeconds *prometheus.HistogramVec
}

// DecodeBuckets are histogram buckets tuned for single-VIN decode latency,
// which runs in the microsecond-to-low-millisecond range against an
// in-memory catalog.
var DecodeBuckets = []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05}

// New creates and registers every collector with the default registry.
func New(cfg Config) *Metrics {
	if cfg.Namespace == "" {
		cfg.Namespace = "vindecoder"
	}

	return &Metrics{
		decodesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "decodes_total",
				Help:      "Total number of VIN decode attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		),
		decodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "decode_duration_seconds",
				Help:      "Time to decode a single VIN end to end.",
				Buckets:   DecodeBuckets,
			},
			[]string{"outcome"},
		),
		catalogLoadErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "catalog_load_errors_total",
				Help:      "Total number of failures loading a catalog layer.",
			},
		),
		patternMatchMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "pattern_match_misses_total",
				Help:      "Total number of decodes where no pattern matched an active schema.",
			},
		),
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests served by the decode server.",
			},
			[]string{"path", "status_code"},
		),
		httpRequestSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "status_code"},
		),
	}
}

// RecordDecode records one decode attempt's outcome and wall-clock duration.
func (m *Metrics) RecordDecode(outcome string, d time.Duration) {
	m.decodesTotal.WithLabelValues(outcome).Inc()
	m.decodeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordCatalogLoadError increments the catalog load error counter.
func (m *Metrics) RecordCatalogLoadError() {
	m.catalogLoadErrors.Inc()
}

// RecordPatternMatchMiss increments the no-pattern-matched counter.
func (m *Metrics) RecordPatternMatchMiss() {
	m.patternMatchMisses.Inc()
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(path, statusCode string, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(path, statusCode).Inc()
	m.httpRequestSeconds.WithLabelValues(path, statusCode).Observe(d.Seconds())
}
