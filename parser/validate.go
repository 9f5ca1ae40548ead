package parser

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-parse-books/grammar"
	"github.com/aluiziolira/go-parse-books/models"
)

// ValidateBook checks the invariants a grammar-produced record always has.
// Records built by hand are checked against the same rules before output.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if b.Rating < 0 || b.Rating > 10 {
		return fmt.Errorf("book %q rating %v out of range [0, 10]", b.Title, b.Rating)
	}
	amount, currency, ok := strings.Cut(strings.TrimSpace(b.Price), " ")
	if !ok || amount == "" {
		return fmt.Errorf("book %q price %q missing currency", b.Title, b.Price)
	}
	if !matchesWhole(grammar.Number, amount) {
		return fmt.Errorf("book %q price amount %q is not a number", b.Title, amount)
	}
	if !matchesWhole(grammar.Currency, currency) {
		return fmt.Errorf("book %q price currency %q is not a three-letter code", b.Title, currency)
	}
	return nil
}

func matchesWhole(rule grammar.Rule, s string) bool {
	nodes, err := grammar.Parse(rule, s)
	return err == nil && nodes[0].Span.End == len(s)
}

// BookKey identifies a record for de-duplication across documents. All six
// fields take part and are JSON-encoded, so no separator can collide with
// field text.
func BookKey(b *models.Book) string {
	key, _ := json.Marshal([]any{
		b.Title,
		orEmpty(b.Authors),
		orEmpty(b.Genres),
		b.PublicationYear,
		strconv.FormatFloat(b.Rating, 'g', -1, 64),
		b.Price,
	})
	return string(key)
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
