package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records dashboard traffic and dataset state.
type Metrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	datasetRows  prometheus.Gauge
	droppedRows  prometheus.Gauge
	generations  prometheus.Counter
	aggregations *prometheus.CounterVec
}

// NewMetrics registers the dashboard metrics on reg. A nil registerer yields a
// Metrics whose methods do nothing.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_rows",
			Help: "Transactions loaded into the dashboard.",
		}),
		droppedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dataset_dropped_rows",
			Help: "Rows dropped while coercing the dataset.",
		}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dataset_generations_total",
			Help: "Times the dataset was regenerated because the file was missing.",
		}),
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_aggregations_total",
			Help: "Filtered aggregate computations, by view.",
		}, []string{"view"}),
	}
	reg.MustRegister(m.requests, m.duration, m.datasetRows, m.droppedRows, m.generations, m.aggregations)
	return m
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil || m.requests == nil {
		return
	}
	route = normalizeLabel(route)
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) SetDataset(rows, dropped int) {
	if m == nil || m.datasetRows == nil {
		return
	}
	m.datasetRows.Set(float64(rows))
	m.droppedRows.Set(float64(dropped))
}

func (m *Metrics) IncGeneration() {
	if m == nil || m.generations == nil {
		return
	}
	m.generations.Inc()
}

func (m *Metrics) IncAggregation(view string) {
	if m == nil || m.aggregations == nil {
		return
	}
	m.aggregations.WithLabelValues(normalizeLabel(view)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
