package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-parse-books/config"
	"github.com/aluiziolira/go-parse-books/loader"
	"github.com/aluiziolira/go-parse-books/models"
	"github.com/aluiziolira/go-parse-books/pipeline"
)

// ErrDocumentsFailed is returned by batch when at least one location
// produced no books.
var ErrDocumentsFailed = errors.New("one or more documents failed")

type batchFlags struct {
	output      string
	format      string
	workers     int
	dedupe      int
	metricsAddr string
}

func newBatchCmd(opts *options) *cobra.Command {
	flags := &batchFlags{}

	cmd := &cobra.Command{
		Use:   "batch <location>...",
		Short: "Parse many documents into one output file",
		Long: `Loads every location (file, URL, or - for stdin), parses the documents
concurrently, and writes the books to --output.

A document with a syntax error contributes no books. The command exits with
a non-zero status when any location failed to load or parse.

Examples:
  bookparse batch --format csv --output out/books.csv data/*.txt
  bookparse batch --dedupe 10000 --metrics-addr :9090 a.txt b.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := flags.apply(cmd, opts.cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			result, err := runBatch(cmd.Context(), cfg, cmd.InOrStdin(), args)
			if result != nil {
				printSummary(cmd.OutOrStdout(), result, outputName(cfg))
			}
			if err != nil {
				return err
			}
			if len(result.Failures) > 0 || result.LoadErrorCount > 0 || result.SkippedCount > 0 {
				return ErrDocumentsFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: csv, json, yaml, or dual")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Number of parser workers")
	cmd.Flags().IntVar(&flags.dedupe, "dedupe", 0, "Drop repeated books, remembering up to N keys (0 disables)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	return cmd
}

// apply layers explicitly set flags over the loaded configuration.
func (f *batchFlags) apply(cmd *cobra.Command, base *config.Config) *config.Config {
	cfg := *base
	if cmd.Flags().Changed("output") {
		cfg.OutputFile = f.output
	}
	if cmd.Flags().Changed("format") {
		cfg.OutputFormat = strings.ToLower(f.format)
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("dedupe") {
		cfg.DedupeMaxSize = f.dedupe
	}
	if cmd.Flags().Changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	return &cfg
}

func runBatch(ctx context.Context, cfg *config.Config, stdin io.Reader, locations []string) (*models.BatchResult, error) {
	result := &models.BatchResult{
		RunID:          uuid.New().String(),
		StartTime:      time.Now(),
		DocumentCount:  len(locations),
		FailuresByKind: make(map[string]int),
	}
	log := slog.With(slog.String("run_id", result.RunID))

	registry := prometheus.NewRegistry()
	loaderMetrics := loader.NewMetrics(registry)
	pipelineMetrics := pipeline.NewMetrics(registry)

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return nil, fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if err := writer.Close(); err != nil {
			log.Error("close writer", slog.Any("error", err))
		}
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		log.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics server shutdown failed", slog.Any("error", err))
			}
		}()
	}

	log.Info("starting batch",
		slog.Int("documents", len(locations)),
		slog.Int("workers", cfg.Workers),
		slog.String("output", cfg.OutputFile),
	)

	p := pipeline.NewPipeline(ctx, writer, cfg, pipelineMetrics)
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	feed(ctx, loader.New(cfg, loaderMetrics).WithStdin(stdin), p, locations, result, log)

	closeErr := p.Close()

	snapshot := p.GetMetrics()
	if n, ok := snapshot["processed_books"].(int64); ok {
		result.BookCount = int(n)
	}
	if validation, ok := snapshot["validation_errors"].(map[string]int); ok {
		result.DuplicateCount = validation["duplicate_book"]
	}
	result.Failures = p.Failures()
	for _, f := range result.Failures {
		result.FailuresByKind[f.Kind]++
		result.FailedLocations = append(result.FailedLocations, f.Document)
	}

	if closeErr != nil {
		result.EndTime = time.Now()
		return result, fmt.Errorf("pipeline shutdown: %w", closeErr)
	}

	if result.BookCount > 0 {
		if err := writer.Validate(); err != nil {
			return nil, fmt.Errorf("output validation: %w", err)
		}
	}

	result.EndTime = time.Now()
	log.Info("batch finished",
		slog.Int("books", result.BookCount),
		slog.Int("failed", len(result.FailedLocations)),
		slog.Duration("duration", result.EndTime.Sub(result.StartTime)),
	)
	return result, nil
}

type submitter interface {
	Process(docs ...models.Document) error
}

// feed loads every location and submits it to p. Once p refuses a document,
// that location and every one after it are recorded as skipped.
func feed(ctx context.Context, l *loader.Loader, p submitter, locations []string, result *models.BatchResult, log *slog.Logger) {
	for i, location := range locations {
		doc, err := l.Load(ctx, location)
		if err != nil {
			result.LoadErrorCount++
			result.FailedLocations = append(result.FailedLocations, location)
			result.FailuresByKind[loader.ErrorKind(err)]++
			log.Error("load failed", slog.String("document", location), slog.Any("error", err))
			continue
		}
		if err := p.Process(doc); err != nil {
			skipped := locations[i:]
			result.SkippedCount += len(skipped)
			result.FailuresByKind["skipped"] += len(skipped)
			result.FailedLocations = append(result.FailedLocations, skipped...)
			log.Error("pipeline stopped accepting documents",
				slog.String("document", location),
				slog.Int("skipped", len(skipped)),
				slog.Any("error", err),
			)
			return
		}
	}
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "yaml":
		return pipeline.NewYAMLWriter(filename)
	case "dual":
		return pipeline.NewDualWriter(dualFilenames(filename))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// dualFilenames derives the CSV and JSON outputs from filename without its
// extension.
func dualFilenames(filename string) (csvFile, jsonFile string) {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	return base + ".csv", base + ".json"
}

func outputName(cfg *config.Config) string {
	if cfg.OutputFormat == "dual" {
		csvFile, jsonFile := dualFilenames(cfg.OutputFile)
		return csvFile + ", " + jsonFile
	}
	return cfg.OutputFile
}

func printSummary(w io.Writer, result *models.BatchResult, outputFile string) {
	duration := result.EndTime.Sub(result.StartTime)
	booksPerSec := 0.0
	if duration.Seconds() > 0 {
		booksPerSec = float64(result.BookCount) / duration.Seconds()
	}

	separator := "--------------------------------------------------"
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "Batch complete")
	fmt.Fprintf(w, "  Run ID:        %s\n", result.RunID)
	fmt.Fprintf(w, "  Documents:     %d\n", result.DocumentCount)
	fmt.Fprintf(w, "  Books:         %d\n", result.BookCount)
	fmt.Fprintf(w, "  Duplicates:    %d\n", result.DuplicateCount)
	fmt.Fprintf(w, "  Load errors:   %d\n", result.LoadErrorCount)
	fmt.Fprintf(w, "  Parse errors:  %d\n", len(result.Failures))
	if result.SkippedCount > 0 {
		fmt.Fprintf(w, "  Skipped:       %d\n", result.SkippedCount)
	}
	if len(result.FailuresByKind) > 0 {
		fmt.Fprintf(w, "  Error types:   %v\n", result.FailuresByKind)
	}
	for _, location := range result.FailedLocations {
		fmt.Fprintf(w, "  Failed:        %s\n", location)
	}
	fmt.Fprintf(w, "  Duration:      %v\n", duration)
	fmt.Fprintf(w, "  Books/sec:     %.2f\n", booksPerSec)
	fmt.Fprintf(w, "  Output file:   %s\n", outputFile)
	fmt.Fprintln(w, separator)
}
