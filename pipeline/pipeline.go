package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-parse-books/config"
	"github.com/aluiziolira/go-parse-books/grammar"
	"github.com/aluiziolira/go-parse-books/models"
	"github.com/aluiziolira/go-parse-books/parser"
)

var (
	// ErrPipelineClosed is returned when Process is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrPipelineCloseTimeout is returned when workers do not drain in time.
	ErrPipelineCloseTimeout = errors.New("pipeline: close timed out")
)

// drainTimeout bounds how long Close waits for in-flight batches.
var drainTimeout = 30 * time.Second

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(books []*models.Book) error
	Close() error
	Validate() error
}

// Pipeline parses documents concurrently, drops duplicate books, and writes
// the rest in batches. A document with a syntax error contributes no books.
type Pipeline struct {
	ctx       context.Context
	writer    OutputWriter
	docCh     chan models.Document
	batchSize int

	wg sync.WaitGroup

	seen *lru.Cache[string, struct{}]

	stats   counters
	metrics *Metrics

	failuresMu sync.Mutex
	failures   []models.DocumentFailure

	mu     sync.Mutex // guards closed/err
	closed bool
	err    error

	closeOnce    sync.Once
	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewPipeline builds a pipeline sized from cfg. metrics may be nil.
func NewPipeline(ctx context.Context, writer OutputWriter, cfg *config.Config, metrics *Metrics) *Pipeline {
	if ctx == nil {
		ctx = context.Background()
	}
	p := &Pipeline{
		ctx:       ctx,
		writer:    writer,
		docCh:     make(chan models.Document, cfg.BufferSize),
		batchSize: cfg.BatchSize,
		stats:     newCounters(),
		metrics:   metrics,
		shutdown:  make(chan struct{}),
	}
	if p.batchSize <= 0 {
		p.batchSize = 1
	}
	if cfg.DedupeMaxSize > 0 {
		if cache, err := lru.New[string, struct{}](cfg.DedupeMaxSize); err == nil {
			p.seen = cache
		}
	}
	return p
}

// Start launches worker goroutines.
func (p *Pipeline) Start(workers int) {
	if workers <= 0 {
		workers = 1
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Process enqueues documents for parsing.
func (p *Pipeline) Process(docs ...models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	closed, err := p.state()
	if err != nil {
		return err
	}
	if closed {
		return ErrPipelineClosed
	}

	for _, doc := range docs {
		if err := p.enqueue(doc); err != nil {
			return err
		}
	}
	return nil
}

// Close waits for workers to finish and prevents more submissions.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
	}
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.docCh)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(drainTimeout)
	defer timer.Stop()
	select {
	case <-done:
		return p.Err()
	case <-timer.C:
		return fmt.Errorf("%w after %s", ErrPipelineCloseTimeout, drainTimeout)
	}
}

// Err returns the first error encountered while writing.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Failures returns the documents that produced no books, in completion order.
func (p *Pipeline) Failures() []models.DocumentFailure {
	p.failuresMu.Lock()
	defer p.failuresMu.Unlock()
	out := make([]models.DocumentFailure, len(p.failures))
	copy(out, p.failures)
	return out
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	return p.stats.snapshot()
}

// StartMetricsReporting emits periodic progress logs.
func (p *Pipeline) StartMetricsReporting(interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				snapshot := p.GetMetrics()
				slog.Info("pipeline progress",
					slog.Int64("documents", snapshot["processed_documents"].(int64)),
					slog.Int64("books", snapshot["processed_books"].(int64)),
					slog.Int64("failed", snapshot["failed_documents"].(int64)),
				)
			case <-p.shutdown:
				return
			}
		}
	}()
}

func (p *Pipeline) worker() {
	defer p.wg.Done()

	batch := make([]*models.Book, 0, p.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.writer.Write(batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for doc := range p.docCh {
		if err := p.ctx.Err(); err != nil {
			p.recordFailure(doc.Name, "canceled", err)
			continue
		}
		batch = append(batch, p.parse(doc)...)
		if len(batch) >= p.batchSize {
			if err := flush(); err != nil {
				p.setErr(fmt.Errorf("write batch: %w", err))
				return
			}
		}
	}

	if err := flush(); err != nil {
		p.setErr(fmt.Errorf("write batch: %w", err))
	}
}

func (p *Pipeline) parse(doc models.Document) []*models.Book {
	start := time.Now()
	books, err := parser.ParseDocument(doc.Text)
	p.metrics.ObserveParse(time.Since(start))
	if err != nil {
		kind := "parse_error"
		var syntaxErr *grammar.SyntaxError
		if errors.As(err, &syntaxErr) {
			kind = "syntax_error"
			p.metrics.IncSyntaxError(syntaxErr.Rule.String())
		}
		p.recordFailure(doc.Name, kind, err)
		return nil
	}

	p.stats.incrementDocuments()
	p.metrics.IncDocument("parsed")

	out := make([]*models.Book, 0, len(books))
	for i := range books {
		book := &books[i]
		if err := parser.ValidateBook(book); err != nil {
			p.stats.addValidation("invalid_record")
			slog.Warn("dropping invalid record",
				slog.String("document", doc.Name),
				slog.Any("error", err),
			)
			continue
		}
		if p.seen != nil {
			if found, _ := p.seen.ContainsOrAdd(parser.BookKey(book), struct{}{}); found {
				p.stats.addValidation("duplicate_book")
				p.metrics.IncDuplicate()
				continue
			}
		}
		p.stats.incrementBooks()
		p.metrics.IncBooks()
		out = append(out, book)
	}
	return out
}

func (p *Pipeline) recordFailure(name, kind string, err error) {
	p.stats.incrementFailed()
	p.metrics.IncDocument("failed")
	slog.Error("document rejected",
		slog.String("document", name),
		slog.String("kind", kind),
		slog.Any("error", err),
	)

	p.failuresMu.Lock()
	p.failures = append(p.failures, models.DocumentFailure{Document: name, Kind: kind, Err: err})
	p.failuresMu.Unlock()
}

func (p *Pipeline) enqueue(doc models.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrPipelineClosed
		}
	}()

	select {
	case <-p.shutdown:
		return ErrPipelineClosed
	case p.docCh <- doc:
		return nil
	}
}

func (p *Pipeline) setErr(err error) {
	if err == nil {
		return
	}

	p.mu.Lock()
	if p.err != nil {
		p.mu.Unlock()
		return
	}
	p.err = err
	p.closed = true
	p.mu.Unlock()

	p.signalShutdown()
	p.closeOnce.Do(func() {
		close(p.docCh)
	})
}

func (p *Pipeline) state() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed, p.err
}

func (p *Pipeline) signalShutdown() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
	})
}

type counters struct {
	mu         sync.Mutex
	documents  int64
	books      int64
	failed     int64
	validation map[string]int
}

func newCounters() counters {
	return counters{
		validation: make(map[string]int),
	}
}

func (c *counters) incrementDocuments() {
	c.mu.Lock()
	c.documents++
	c.mu.Unlock()
}

func (c *counters) incrementBooks() {
	c.mu.Lock()
	c.books++
	c.mu.Unlock()
}

func (c *counters) incrementFailed() {
	c.mu.Lock()
	c.failed++
	c.mu.Unlock()
}

func (c *counters) addValidation(kind string) {
	c.mu.Lock()
	c.validation[kind]++
	c.mu.Unlock()
}

func (c *counters) snapshot() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	copyValidation := make(map[string]int, len(c.validation))
	for k, v := range c.validation {
		copyValidation[k] = v
	}

	return map[string]interface{}{
		"processed_documents": c.documents,
		"processed_books":     c.books,
		"failed_documents":    c.failed,
		"validation_errors":   copyValidation,
	}
}
