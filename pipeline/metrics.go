package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for document parsing.
type Metrics struct {
	DocumentsTotal    *prometheus.CounterVec
	BooksTotal        prometheus.Counter
	DuplicatesTotal   prometheus.Counter
	SyntaxErrorsTotal *prometheus.CounterVec
	ParseDuration     prometheus.Histogram
}

// NewMetrics constructs the pipeline metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	documents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookparse_documents_total",
			Help: "Documents processed, by outcome.",
		},
		[]string{"status"},
	)
	books := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookparse_books_total",
			Help: "Books extracted and sent to the writer.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bookparse_duplicate_books_total",
			Help: "Books dropped as duplicates of an earlier record.",
		},
	)
	syntaxErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookparse_syntax_errors_total",
			Help: "Rejected documents by the grammar rule that failed.",
		},
		[]string{"rule"},
	)
	parseDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bookparse_parse_duration_seconds",
			Help:    "Time spent parsing and extracting one document.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
	)

	reg.MustRegister(documents, books, duplicates, syntaxErrors, parseDuration)

	return &Metrics{
		DocumentsTotal:    documents,
		BooksTotal:        books,
		DuplicatesTotal:   duplicates,
		SyntaxErrorsTotal: syntaxErrors,
		ParseDuration:     parseDuration,
	}
}

// IncDocument increments the documents counter for an outcome.
func (m *Metrics) IncDocument(status string) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(status).Inc()
}

// IncBooks increments the books counter.
func (m *Metrics) IncBooks() {
	if m == nil {
		return
	}
	m.BooksTotal.Inc()
}

// IncDuplicate increments the duplicates counter.
func (m *Metrics) IncDuplicate() {
	if m == nil {
		return
	}
	m.DuplicatesTotal.Inc()
}

// IncSyntaxError increments the syntax error counter for a rule name.
func (m *Metrics) IncSyntaxError(rule string) {
	if m == nil {
		return
	}
	m.SyntaxErrorsTotal.WithLabelValues(rule).Inc()
}

// ObserveParse records the time spent on one document.
func (m *Metrics) ObserveParse(d time.Duration) {
	if m == nil {
		return
	}
	m.ParseDuration.Observe(d.Seconds())
}
