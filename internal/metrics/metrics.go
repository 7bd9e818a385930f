package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	QueryDuration  *prometheus.HistogramVec
	HTTPRequests   *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	RateLimited    prometheus.Counter
	HierarchyNodes prometheus.Gauge
	FactRows       prometheus.Gauge
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gbdrill_query_duration_seconds",
			Help:    "Time spent answering a query, by operation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"op"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gbdrill_http_requests_total",
			Help: "Total number of HTTP requests, by route and status code",
		}, []string{"route", "code"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gbdrill_response_cache_hits_total",
			Help: "Total number of responses served from the cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "gbdrill_response_cache_misses_total",
			Help: "Total number of responses computed because the cache missed",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "gbdrill_rate_limited_total",
			Help: "Total number of requests rejected by the per-client rate limiter",
		}),
		HierarchyNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gbdrill_hierarchy_nodes",
			Help: "Number of causes in the loaded hierarchy",
		}),
		FactRows: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gbdrill_fact_rows",
			Help: "Number of rows in the loaded fact table",
		}),
	}
}

// ObserveQuery records how long a query operation took
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	m.QueryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// SetDatasetSize records the size of the loaded data
func (m *Metrics) SetDatasetSize(nodes, rows int) {
	m.HierarchyNodes.Set(float64(nodes))
	m.FactRows.Set(float64(rows))
}
