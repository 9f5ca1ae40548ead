// Package loader reads book description documents from files, stdin, or URLs.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aluiziolira/go-parse-books/config"
	"github.com/aluiziolira/go-parse-books/models"
	"github.com/gocolly/colly/v2"
)

// Stdin is the location that reads from standard input.
const Stdin = "-"

const (
	originFile  = "file"
	originHTTP  = "http"
	originStdin = "stdin"
)

// Loader fetches document text and normalizes line endings.
type Loader struct {
	cfg       *config.Config
	metrics   *Metrics
	transport http.RoundTripper
	stdin     io.Reader
}

// New builds a loader configured from cfg. metrics may be nil.
func New(cfg *config.Config, metrics *Metrics) *Loader {
	return &Loader{
		cfg:     cfg,
		metrics: metrics,
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout.Duration,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		stdin: os.Stdin,
	}
}

// WithTransport replaces the HTTP transport used for URL locations.
func (l *Loader) WithTransport(rt http.RoundTripper) *Loader {
	l.transport = rt
	return l
}

// WithStdin replaces the reader used for the "-" location.
func (l *Loader) WithStdin(r io.Reader) *Loader {
	l.stdin = r
	return l
}

// Load reads one document. Carriage returns are stripped from the text.
func (l *Loader) Load(ctx context.Context, location string) (models.Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	origin := originOf(location)
	l.metrics.IncLoad(origin)
	start := time.Now()

	var (
		data []byte
		err  error
	)
	switch origin {
	case originStdin:
		data, err = l.readLimited(location, l.stdin)
	case originHTTP:
		data, err = l.fetch(ctx, location)
	default:
		data, err = l.readFile(location)
	}
	if err != nil {
		l.metrics.IncError(errorTypeLabel(err))
		return models.Document{}, err
	}

	l.metrics.ObserveLoad(origin, time.Since(start), len(data))
	slog.Debug("document loaded",
		slog.String("document", location),
		slog.String("origin", origin),
		slog.Int("bytes", len(data)),
	)
	return models.Document{Name: location, Text: Clean(string(data))}, nil
}

// LoadAll loads locations in order and stops at the first failure.
func (l *Loader) LoadAll(ctx context.Context, locations []string) ([]models.Document, error) {
	docs := make([]models.Document, 0, len(locations))
	for _, location := range locations {
		doc, err := l.Load(ctx, location)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", location, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Clean normalizes line endings by dropping every carriage return.
func Clean(text string) string {
	return strings.ReplaceAll(text, "\r", "")
}

func originOf(location string) string {
	switch {
	case location == Stdin:
		return originStdin
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return originHTTP
	default:
		return originFile
	}
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, classifyFileError(path, err)
	}
	defer f.Close()
	return l.readLimited(path, f)
}

func (l *Loader) readLimited(location string, r io.Reader) ([]byte, error) {
	limit := l.cfg.MaxInputBytes
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, ErrRead{Location: location, Err: err}
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge{Location: location, Limit: limit}
	}
	return data, nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, err := l.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if attempt >= l.cfg.MaxRetries || !retryable(err) {
			return nil, err
		}

		l.metrics.IncRetries()
		delay := l.backoff(attempt + 1)
		slog.Debug("retrying fetch",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.Any("error", err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, classifyError(ctx.Err(), 0)
		case <-timer.C:
		}
	}
}

func (l *Loader) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, classifyError(err, 0)
	}

	collector := colly.NewCollector(colly.UserAgent(l.cfg.UserAgent))
	collector.SetRequestTimeout(l.cfg.Timeout.Duration)
	collector.AllowURLRevisit = true
	collector.MaxBodySize = int(l.cfg.MaxInputBytes + 1)
	collector.WithTransport(l.transport)

	var (
		body   []byte
		status int
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})

	if err := collector.Visit(rawURL); err != nil {
		return nil, classifyError(err, status)
	}
	if int64(len(body)) > l.cfg.MaxInputBytes {
		return nil, ErrTooLarge{Location: rawURL, Limit: l.cfg.MaxInputBytes}
	}
	return body, nil
}

func (l *Loader) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := l.cfg.RetryBackoff.Duration
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := l.cfg.RetryBackoffMax.Duration; max > 0 && delay > max {
		delay = max
	}
	return delay
}
