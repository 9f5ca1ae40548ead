package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-parse-books/config"
	"github.com/aluiziolira/go-parse-books/loader"
	"github.com/aluiziolira/go-parse-books/models"
	"github.com/aluiziolira/go-parse-books/pipeline"
)

const twoBooks = "Book 1: \"Enemy Of My Enemy\"\r\n" +
	"Authors: [John Smith, Alice Smith]\r\n" +
	"Genres: [Fantasy]\r\n" +
	"Publication Year: 2016\r\n" +
	"Rating: 9.5\r\n" +
	"Price: 199.00 UAH\r\n" +
	"\r\n" +
	"Book 2: \"Second Book\"\r\n" +
	"Authors: [Author3]\r\n" +
	"Genres: []\r\n" +
	"Publication Year: 2021\r\n" +
	"Rating: 9\r\n" +
	"Price: 19 UAH\r\n"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseJSON(t *testing.T) {
	path := writeFile(t, "books.txt", twoBooks)

	out, err := run(t, "", "parse", "--format", "json", path)
	require.NoError(t, err)

	var books []models.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 2)
	require.Equal(t, "Enemy Of My Enemy", books[0].Title)
	require.Equal(t, []string{"John Smith", "Alice Smith"}, books[0].Authors)
	require.Equal(t, "19 UAH", books[1].Price)
}

func TestParseJSONSingleBookIsArray(t *testing.T) {
	one := strings.SplitAfter(twoBooks, "\r\n\r\n")[0]
	path := writeFile(t, "one.txt", strings.TrimSuffix(one, "\r\n"))

	out, err := run(t, "", "parse", "--format", "json", path)
	require.NoError(t, err)

	var books []models.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 1)
	require.Equal(t, "Enemy Of My Enemy", books[0].Title)
}

func TestParsePrettyFromStdin(t *testing.T) {
	out, err := run(t, twoBooks, "parse", "-")
	require.NoError(t, err)
	require.Contains(t, out, "Publication Year")
	require.Contains(t, out, `"book_title": "Second Book"`)
}

func TestParseYAML(t *testing.T) {
	path := writeFile(t, "books.txt", twoBooks)

	out, err := run(t, "", "parse", "--format", "yaml", path)
	require.NoError(t, err)
	require.Contains(t, out, "- book_title: Enemy Of My Enemy")
}

func TestParseSyntaxError(t *testing.T) {
	path := writeFile(t, "bad.txt", "Book x: \"Broken\"\n")

	_, err := run(t, "", "parse", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected book_num at line 1 col 6")
}

func TestParseMissingArgument(t *testing.T) {
	_, err := run(t, "", "parse")
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing file path")
}

func TestMissingCommand(t *testing.T) {
	_, err := run(t, "")
	require.ErrorIs(t, err, errMissingCommand)
}

func TestUnknownCommand(t *testing.T) {
	_, err := run(t, "", "frobnicate")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown command")
}

func TestCredits(t *testing.T) {
	out, err := run(t, "", "credits")
	require.NoError(t, err)
	require.Contains(t, out, "Developed by [Melnyk Danyil]")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "bookparse v"+Version)
}

func TestCheckRule(t *testing.T) {
	path := writeFile(t, "title.txt", "Book 1: \"Enemy Of My Enemy\"\nAuthors: []\n")

	out, err := run(t, "", "check", "--rule", "book_title", path)
	require.NoError(t, err)
	require.Contains(t, out, "book_title [0, 28)")
	require.Contains(t, out, `quoted_text [8, 27) "\"Enemy Of My Enemy\""`)
	require.Contains(t, out, "matched 28 of")
}

func TestCheckUnknownRule(t *testing.T) {
	path := writeFile(t, "title.txt", "x")

	_, err := run(t, "", "check", "--rule", "nope", path)
	require.Error(t, err)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, "good.txt", twoBooks)
	bad := writeFile(t, "bad.txt", "Book 1: \"Broken\"\nAuthors: [A]\n")
	output := filepath.Join(dir, "out", "books.jsonl")

	out, err := run(t, "", "batch", "--format", "json", "--output", output, good, bad, filepath.Join(dir, "missing.txt"))
	require.ErrorIs(t, err, ErrDocumentsFailed)
	require.Contains(t, out, "Books:         2")
	require.Contains(t, out, "Load errors:   1")
	require.Contains(t, out, "Parse errors:  1")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()

	var titles []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var book models.Book
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &book))
		titles = append(titles, book.Title)
	}
	require.NoError(t, scanner.Err())
	require.Equal(t, []string{"Enemy Of My Enemy", "Second Book"}, titles)
}

func TestBatchAllGood(t *testing.T) {
	output := filepath.Join(t.TempDir(), "books.csv")
	a := writeFile(t, "a.txt", twoBooks)
	b := writeFile(t, "b.txt", twoBooks)

	out, err := run(t, "", "batch", "--format", "csv", "--dedupe", "16", "--output", output, a, b)
	require.NoError(t, err)
	require.Contains(t, out, "Duplicates:    2")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(string(data), "\n"), "header plus two books")
}

func TestBatchInvalidFormat(t *testing.T) {
	a := writeFile(t, "a.txt", twoBooks)
	_, err := run(t, "", "batch", "--format", "xml", a)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrDocumentsFailed))
}

func TestDualFilenames(t *testing.T) {
	tests := []struct {
		in, csv, json string
	}{
		{"output/books.json", "output/books.csv", "output/books.json"},
		{"output/books.csv", "output/books.csv", "output/books.json"},
		{"books", "books.csv", "books.json"},
	}
	for _, tt := range tests {
		csvFile, jsonFile := dualFilenames(tt.in)
		require.Equal(t, tt.csv, csvFile, tt.in)
		require.Equal(t, tt.json, jsonFile, tt.in)
	}
}

func TestBatchDual(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, "a.txt", twoBooks)

	out, err := run(t, "", "batch", "--format", "dual", "--output", filepath.Join(dir, "books.json"), a)
	require.NoError(t, err)
	require.Contains(t, out, "books.csv, ")

	csvData, err := os.ReadFile(filepath.Join(dir, "books.csv"))
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(string(csvData), "\n"), "header plus two books")
	_, err = os.Stat(filepath.Join(dir, "books.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "books.json.json"))
	require.True(t, os.IsNotExist(err))
}

type stoppingSubmitter struct {
	accept int
	got    []string
}

func (s *stoppingSubmitter) Process(docs ...models.Document) error {
	if len(s.got) >= s.accept {
		return pipeline.ErrPipelineClosed
	}
	for _, d := range docs {
		s.got = append(s.got, d.Name)
	}
	return nil
}

func TestFeedRecordsSkippedLocations(t *testing.T) {
	a := writeFile(t, "a.txt", twoBooks)
	b := writeFile(t, "b.txt", twoBooks)
	c := writeFile(t, "c.txt", twoBooks)
	result := &models.BatchResult{FailuresByKind: make(map[string]int)}
	sub := &stoppingSubmitter{accept: 1}

	feed(context.Background(), loader.New(config.DefaultConfig(), nil), sub, []string{a, b, c}, result, slog.Default())

	require.Len(t, sub.got, 1)
	require.Equal(t, 2, result.SkippedCount)
	require.Equal(t, 2, result.FailuresByKind["skipped"])
	require.Equal(t, []string{b, c}, result.FailedLocations)

	var out bytes.Buffer
	printSummary(&out, result, "books.json")
	require.Contains(t, out.String(), "Skipped:       2")
	require.Contains(t, out.String(), "Failed:        "+c)
}
