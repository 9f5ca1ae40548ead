// Package grammar recognizes book description documents.
//
// A document is a sequence of six-line book records:
//
//	Book 1: "Enemy Of My Enemy"
//	Authors: [John Smith, Alice Smith]
//	Genres: [Fantasy, Science Fiction]
//	Publication Year: 2016
//	Rating: 9.5
//	Price: 199.00 UAH
//
// Records may be separated by a single blank line. Parsing produces a tree of
// Node values with exact byte spans into the source, or a *SyntaxError naming
// the rule that failed and where. There is no error recovery: a mismatch
// anywhere rejects the whole input.
package grammar

import "fmt"

// Rule identifies a grammar rule. The set is closed.
type Rule int

const (
	Whitespace Rule = iota + 1
	Space
	BookNumber
	Year
	Number
	RatingValue
	QuotedText
	Currency
	Author
	Genre
	Label
	Title
	Authors
	Genres
	PublicationYear
	Rating
	Price
	Book
	Books
)

var ruleNames = [...]string{
	Whitespace:      "WHITESPACE",
	Space:           "SPACE",
	BookNumber:      "book_num",
	Year:            "year",
	Number:          "number",
	RatingValue:     "rating_value",
	QuotedText:      "quoted_text",
	Currency:        "currency",
	Author:          "author",
	Genre:           "genre_item",
	Label:           "label",
	Title:           "book_title",
	Authors:         "list_of_authors",
	Genres:          "list_of_genres",
	PublicationYear: "publication_year",
	Rating:          "rating",
	Price:           "price",
	Book:            "book",
	Books:           "books",
}

// String returns the rule name used in error messages and metric labels.
func (r Rule) String() string {
	if r > 0 && int(r) < len(ruleNames) {
		return ruleNames[r]
	}
	return fmt.Sprintf("Rule(%d)", int(r))
}

// Rules returns every rule in declaration order.
func Rules() []Rule {
	res := make([]Rule, 0, len(ruleNames)-1)
	for r := Whitespace; r <= Books; r++ {
		res = append(res, r)
	}
	return res
}

// ParseRule looks up a rule by the name returned from Rule.String.
func ParseRule(name string) (Rule, error) {
	for r := Whitespace; r <= Books; r++ {
		if ruleNames[r] == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rule %q", name)
}
