package render

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-parse-books/models"
)

func books() []models.Book {
	return []models.Book{
		{
			Title:           "Enemy Of My Enemy",
			Authors:         []string{"John Smith", "Alice Smith"},
			Genres:          []string{"Fantasy", "Science Fiction"},
			PublicationYear: 2016,
			Rating:          9.5,
			Price:           "199.00 UAH",
		},
		{
			Title:           "Second Book",
			Authors:         []string{"Author3"},
			Genres:          []string{},
			PublicationYear: 2021,
			Rating:          9,
			Price:           "19 UAH",
		},
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, books()[0]))

	out := buf.String()
	require.Contains(t, out, `"Enemy Of My Enemy"`)
	require.Contains(t, out, "John Smith, Alice Smith")
	require.Contains(t, out, "Fantasy, Science Fiction")
	require.Contains(t, out, "2016")
	require.Contains(t, out, "9.5")
	require.Contains(t, out, "199.00 UAH")
	require.NotContains(t, out, "\x1b[", "non-terminal output must be plain")
}

func TestDumpEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, books()[1]))
	require.Contains(t, buf.String(), "(none)")
}

func TestDumpAll(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DumpAll(&buf, books()))
	require.Contains(t, buf.String(), "Enemy Of My Enemy")
	require.Contains(t, buf.String(), "Second Book")
	require.Contains(t, buf.String(), "\n\n")
}

func TestJSONSingleBookIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, books()[:1]))

	var decoded []models.Book
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, books()[:1], decoded)
}

func TestPreviewSingleBookIsObject(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Preview(&buf, books()[:1]))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "Enemy Of My Enemy", decoded["book_title"])
	require.Equal(t, 2016.0, decoded["publication_year"])
	require.Equal(t, 9.5, decoded["rating"])
}

func TestPreviewManyBooksIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Preview(&buf, books()))

	var decoded []models.Book
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, len(books()))
}

func TestJSONManyBooksIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, books()))

	var decoded []models.Book
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, books(), decoded)
}

func TestJSONNoBooks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, nil))
	require.JSONEq(t, "[]", buf.String())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, YAML(&buf, books()))

	var decoded []models.Book
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, books(), decoded)
	require.Contains(t, buf.String(), "book_title: Enemy Of My Enemy")
}
