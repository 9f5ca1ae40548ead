// Package cmd wires the bookparse command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-parse-books/config"
)

var errMissingCommand = errors.New("missing command, run `bookparse help` for usage")

type options struct {
	configFile string
	verbose    bool
	cfg        *config.Config
}

// Execute runs the root command. Errors are logged before they are returned.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("bookparse failed", slog.Any("error", err))
		return err
	}
	return nil
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "bookparse",
		Short: "Parse and display book description documents",
		Long: `bookparse parses book description documents: blocks of six labelled
lines (title, authors, genres, publication year, rating, price).

Commands:
  parse    - parse one document and print its books
  batch    - parse many documents concurrently into a CSV/JSON/YAML file
  check    - run a single grammar rule and print the node tree
  credits  - print credits`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return errMissingCommand
		},
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "TOML config file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")

	root.AddCommand(
		newParseCmd(opts),
		newBatchCmd(opts),
		newCheckCmd(opts),
		newCreditsCmd(),
		newVersionCmd(),
	)
	return root
}

func (o *options) setup() error {
	cfg, err := config.LoadFile(o.configFile)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if o.verbose {
		cfg.Verbose = true
	}
	o.cfg = cfg

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())
	return nil
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	// Records go to stdout, so logs stay on stderr.
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func exactlyOne(what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		switch {
		case len(args) == 0:
			return fmt.Errorf("missing %s, usage: %s", what, cmd.UseLine())
		case len(args) > 1:
			return fmt.Errorf("expected one %s, got %d", what, len(args))
		}
		return nil
	}
}
