package search

import (
	"time"

	"github.com/poiesic/sitesearch/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records retrieval counters and latencies.
type Metrics struct {
	queries           prometheus.Counter
	rowsScanned       prometheus.Counter
	embeddingDuration prometheus.Histogram
	queryDuration     prometheus.Histogram
	results           prometheus.Histogram
}

// NewMetrics creates the retrieval metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitesearch",
			Name:      "queries_total",
			Help:      "Total number of answered queries",
		}),
		rowsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sitesearch",
			Name:      "rows_scanned_total",
			Help:      "Total number of index rows compared against a query",
		}),
		embeddingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sitesearch",
			Name:      "query_embedding_duration_seconds",
			Help:      "Time spent embedding query text",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		queryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sitesearch",
			Name:      "query_duration_seconds",
			Help:      "End to end query duration",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		results: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sitesearch",
			Name:      "query_results",
			Help:      "Number of results returned per query",
			Buckets:   prometheus.LinearBuckets(0, 5, 6),
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.queries, m.rowsScanned, m.embeddingDuration, m.queryDuration, m.results} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Monitor returns a SearchMonitor for one query.
func (m *Metrics) Monitor() SearchMonitor {
	return &metricsMonitor{metrics: m, start: time.Now()}
}

type metricsMonitor struct {
	metrics *Metrics
	start   time.Time
}

func (mm *metricsMonitor) Start(_ string) {
	mm.start = time.Now()
}

func (mm *metricsMonitor) AfterEmbedding(_ []float32) {
	mm.metrics.embeddingDuration.Observe(time.Since(mm.start).Seconds())
}

func (mm *metricsMonitor) AfterScan(rows int) {
	mm.metrics.rowsScanned.Add(float64(rows))
}

func (mm *metricsMonitor) Finish(results []core.SearchResult) {
	mm.metrics.queries.Inc()
	mm.metrics.results.Observe(float64(len(results)))
	mm.metrics.queryDuration.Observe(time.Since(mm.start).Seconds())
}
