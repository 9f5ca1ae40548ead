package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aluiziolira/go-parse-books/loader"
	"github.com/aluiziolira/go-parse-books/models"
	"github.com/aluiziolira/go-parse-books/parser"
	"github.com/aluiziolira/go-parse-books/render"
)

func newParseCmd(opts *options) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file|url|->",
		Short: "Parse one document and print its books",
		Long: `Parses a book description document and prints every book in it.

Formats:
  pretty  - styled dump followed by JSON (default)
  text    - styled dump only
  json    - indented JSON
  yaml    - YAML sequence

Examples:
  bookparse parse books.txt
  bookparse parse --format json https://example.com/books.txt
  cat books.txt | bookparse parse -`,
		Args: exactlyOne("file path"),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := loader.New(opts.cfg, nil).WithStdin(cmd.InOrStdin())
			doc, err := l.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			books, err := parser.ParseDocument(doc.Text)
			if err != nil {
				return fmt.Errorf("parse %s: %w", doc.Name, err)
			}
			return printBooks(cmd.OutOrStdout(), strings.ToLower(format), books)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "pretty", "Output format: pretty, text, json, or yaml")
	return cmd
}

func printBooks(w io.Writer, format string, books []models.Book) error {
	switch format {
	case "pretty":
		if err := render.DumpAll(w, books); err != nil {
			return err
		}
		return render.Preview(w, books)
	case "text":
		return render.DumpAll(w, books)
	case "json":
		return render.JSON(w, books)
	case "yaml":
		return render.YAML(w, books)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
