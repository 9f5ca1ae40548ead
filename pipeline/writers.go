package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aluiziolira/go-parse-books/models"
)

// ListSeparator joins authors and genres inside a single CSV cell.
const ListSeparator = "; "

// CSVHeader is the header row written by CSVWriter.
var CSVHeader = []string{"book_title", "authors", "genres", "publication_year", "rating", "price"}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(CSVHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends books to the CSV output.
func (cw *CSVWriter) Write(books []*models.Book) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, book := range books {
		if err := cw.writer.Write(csvRecord(book)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

func csvRecord(book *models.Book) []string {
	return []string{
		book.Title,
		strings.Join(book.Authors, ListSeparator),
		strings.Join(book.Genres, ListSeparator),
		strconv.FormatUint(uint64(book.PublicationYear), 10),
		strconv.FormatFloat(book.Rating, 'f', -1, 64),
		book.Price,
	}
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	return validateFile(cw.file, "csv")
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends books in JSONL format.
func (jw *JSONWriter) Write(books []*models.Book) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, book := range books {
		if err := jw.encoder.Encode(book); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateFile(jw.file, "json")
}

// YAMLWriter writes a stream of YAML documents, one per book.
type YAMLWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *yaml.Encoder
	mu      sync.Mutex
}

// NewYAMLWriter initialises the YAML writer.
func NewYAMLWriter(filename string) (*YAMLWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create yaml file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	encoder := yaml.NewEncoder(buffer)
	encoder.SetIndent(2)
	return &YAMLWriter{
		file:    f,
		writer:  buffer,
		encoder: encoder,
	}, nil
}

// Write appends books as YAML documents.
func (yw *YAMLWriter) Write(books []*models.Book) error {
	yw.mu.Lock()
	defer yw.mu.Unlock()

	for _, book := range books {
		if err := yw.encoder.Encode(book); err != nil {
			return fmt.Errorf("encode yaml record: %w", err)
		}
	}
	if err := yw.writer.Flush(); err != nil {
		return fmt.Errorf("flush yaml writer: %w", err)
	}
	return nil
}

// Close finishes the YAML stream and closes the underlying file.
func (yw *YAMLWriter) Close() error {
	yw.mu.Lock()
	defer yw.mu.Unlock()

	if err := yw.encoder.Close(); err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}
	if err := yw.writer.Flush(); err != nil {
		return fmt.Errorf("flush yaml writer: %w", err)
	}
	return yw.file.Close()
}

// Validate ensures the YAML file has data.
func (yw *YAMLWriter) Validate() error {
	return validateFile(yw.file, "yaml")
}

func validateFile(f *os.File, kind string) error {
	info, err := os.Stat(f.Name())
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
