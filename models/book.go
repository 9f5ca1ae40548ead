// Package models defines data structures shared by the parser and its outputs.
package models

import "time"

// Book is one record extracted from a book description document.
type Book struct {
	Title           string   `csv:"book_title" json:"book_title" yaml:"book_title"`
	Authors         []string `csv:"authors" json:"authors" yaml:"authors"`
	Genres          []string `csv:"genres" json:"genres" yaml:"genres"`
	PublicationYear uint16   `csv:"publication_year" json:"publication_year" yaml:"publication_year"`
	Rating          float64  `csv:"rating" json:"rating" yaml:"rating"`
	Price           string   `csv:"price" json:"price" yaml:"price"`
}

// Document is the raw text of one book description source.
type Document struct {
	Name string
	Text string
}

// DocumentFailure records why a document produced no books.
type DocumentFailure struct {
	Document string
	Kind     string
	Err      error
}

// BatchResult holds the overall result of a batch run.
type BatchResult struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	DocumentCount   int
	BookCount       int
	DuplicateCount  int
	Failures        []DocumentFailure
	FailuresByKind  map[string]int
	LoadErrorCount  int
	SkippedCount    int
	FailedLocations []string
}
