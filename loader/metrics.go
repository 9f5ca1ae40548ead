package loader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for document loading.
type Metrics struct {
	LoadsTotal   *prometheus.CounterVec
	LoadDuration *prometheus.HistogramVec
	BytesTotal   prometheus.Counter
	RetriesTotal prometheus.Counter
	ErrorsTotal  *prometheus.CounterVec
}

// NewMetrics constructs the loader metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	loads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookparse_loads_total",
			Help: "Total document loads started, by origin.",
		},
		[]string{"origin"},
	)
	loadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookparse_load_duration_seconds",
			Help:    "Latency of successful document loads.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"origin"},
	)
	bytesTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookparse_loaded_bytes_total",
			Help: "Total bytes of document text loaded.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookparse_load_retries_total",
			Help: "Total number of fetch retry attempts.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookparse_load_errors_total",
			Help: "Total number of load errors by type.",
		},
		[]string{"error_type"},
	)

	reg.MustRegister(loads, loadDuration, bytesTotal, retries, errorsTotal)

	return &Metrics{
		LoadsTotal:   loads,
		LoadDuration: loadDuration,
		BytesTotal:   bytesTotal,
		RetriesTotal: retries,
		ErrorsTotal:  errorsTotal,
	}
}

// IncLoad increments the loads counter for an origin.
func (m *Metrics) IncLoad(origin string) {
	if m == nil {
		return
	}
	m.LoadsTotal.WithLabelValues(origin).Inc()
}

// ObserveLoad records a successful load.
func (m *Metrics) ObserveLoad(origin string, d time.Duration, size int) {
	if m == nil {
		return
	}
	m.LoadDuration.WithLabelValues(origin).Observe(d.Seconds())
	m.BytesTotal.Add(float64(size))
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
