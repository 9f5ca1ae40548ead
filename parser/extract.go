// Package parser turns recognized book nodes into typed records.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-parse-books/grammar"
	"github.com/aluiziolira/go-parse-books/models"
)

// DefaultPrice is used when a price node carries no amount.
const DefaultPrice = "0 UAH"

// ExtractionError reports a node that does not have the shape of a book.
type ExtractionError struct {
	Rule grammar.Rule
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract: expected %s node, got %s", grammar.Book, e.Rule)
}

// ParseDocument parses a whole document and extracts every book in order.
// A syntax error anywhere yields no books.
func ParseDocument(input string) ([]models.Book, error) {
	nodes, err := grammar.ParseBooks(input)
	if err != nil {
		return nil, err
	}
	books := make([]models.Book, 0, len(nodes))
	for _, n := range nodes {
		books = append(books, Extract(n))
	}
	return books, nil
}

// ExtractNode extracts a book from a generic parse node.
func ExtractNode(n *grammar.Node) (models.Book, error) {
	b, ok := grammar.AsBook(n)
	if !ok {
		var rule grammar.Rule
		if n != nil {
			rule = n.Rule
		}
		return models.Book{}, &ExtractionError{Rule: rule}
	}
	return Extract(b), nil
}

// Extract folds a verified book node into a record. Fields missing from the
// node keep their defaults; numeric fields that fail to convert become zero.
func Extract(b grammar.BookNode) models.Book {
	book := models.Book{
		Authors: []string{},
		Genres:  []string{},
		Price:   DefaultPrice,
	}
	if b.Node() == nil {
		return book
	}

	for _, field := range b.Node().Children {
		switch field.Rule {
		case grammar.Title:
			if q := field.Child(grammar.QuotedText); q != nil {
				book.Title = unquote(q.Text())
			}
		case grammar.Authors:
			book.Authors = items(field, grammar.Author)
		case grammar.Genres:
			book.Genres = items(field, grammar.Genre)
		case grammar.PublicationYear:
			if y := field.Child(grammar.Year); y != nil {
				if v, err := strconv.ParseUint(strings.TrimSpace(y.Text()), 10, 16); err == nil {
					book.PublicationYear = uint16(v)
				}
			}
		case grammar.Rating:
			if r := field.Child(grammar.RatingValue); r != nil {
				if v, err := strconv.ParseFloat(strings.TrimSpace(r.Text()), 64); err == nil {
					book.Rating = v
				}
			}
		case grammar.Price:
			book.Price = price(field)
		}
	}
	return book
}

// unquote strips exactly the delimiting quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.Clone(s)
}

func items(list *grammar.Node, rule grammar.Rule) []string {
	nodes := list.ChildrenOf(rule)
	res := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if name := strings.TrimSpace(n.Text()); name != "" {
			res = append(res, strings.Clone(name))
		}
	}
	return res
}

func price(field *grammar.Node) string {
	amount := field.Child(grammar.Number)
	if amount == nil {
		return DefaultPrice
	}
	currency := ""
	if c := field.Child(grammar.Currency); c != nil {
		currency = c.Text()
	}
	return ComposePrice(amount.Text(), currency)
}

// ComposePrice joins an amount and a currency code with a single space.
// An empty currency yields the amount alone.
func ComposePrice(amount, currency string) string {
	amount = strings.TrimSpace(amount)
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return strings.Clone(amount)
	}
	return amount + " " + currency
}
