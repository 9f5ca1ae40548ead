// Package render formats extracted books for a terminal or for machines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-parse-books/models"
)

var (
	colorTitle = lipgloss.Color("#8B5CF6")
	colorLabel = lipgloss.Color("#06B6D4")
	colorMuted = lipgloss.Color("#94A3B8")
)

const labelWidth = 18

// Dump writes a styled, human-readable block for one book. Colors are
// dropped when w is not a terminal.
func Dump(w io.Writer, book models.Book) error {
	r := lipgloss.NewRenderer(w)
	titleStyle := r.NewStyle().Foreground(colorTitle).Bold(true)
	labelStyle := r.NewStyle().Foreground(colorLabel).Width(labelWidth)
	mutedStyle := r.NewStyle().Foreground(colorMuted).Italic(true)

	list := func(items []string) string {
		if len(items) == 0 {
			return mutedStyle.Render("(none)")
		}
		return strings.Join(items, ", ")
	}

	rows := []string{
		titleStyle.Render(strconv.Quote(book.Title)),
		labelStyle.Render("Authors") + list(book.Authors),
		labelStyle.Render("Genres") + list(book.Genres),
		labelStyle.Render("Publication Year") + strconv.FormatUint(uint64(book.PublicationYear), 10),
		labelStyle.Render("Rating") + strconv.FormatFloat(book.Rating, 'f', -1, 64),
		labelStyle.Render("Price") + book.Price,
	}
	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, rows...))
	return err
}

// DumpAll writes every book, separated by a blank line.
func DumpAll(w io.Writer, books []models.Book) error {
	for i, book := range books {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := Dump(w, book); err != nil {
			return err
		}
	}
	return nil
}

// JSON writes the books as an indented JSON array.
func JSON(w io.Writer, books []models.Book) error {
	if books == nil {
		books = []models.Book{}
	}
	return encodeJSON(w, books)
}

// Preview writes indented JSON for reading: a single object for one book,
// an array otherwise.
func Preview(w io.Writer, books []models.Book) error {
	if len(books) == 1 {
		return encodeJSON(w, books[0])
	}
	return JSON(w, books)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAML writes the books as a YAML sequence.
func YAML(w io.Writer, books []models.Book) error {
	if books == nil {
		books = []models.Book{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(books); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
