// Package csvimport reads certificate rows from delimited text files.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

// CSVParser reads a header row followed by data rows
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	headers    []string
	dataRows   int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes toggles lazy quote handling (default on)
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// NewCSVParser creates a parser, stripping a UTF-8 BOM and rejecting
// empty or non-UTF-8 input.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter:  ',',
		lazyQuotes: true,
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	if err := validateUTF8(parser.bufReader); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.FieldsPerRecord = -1
	parser.reader.ReuseRecord = false

	return parser, nil
}

// validateUTF8 checks the leading block of content is valid UTF-8
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	// A multi-byte rune may straddle the peek window.
	for i := 0; i < utf8.UTFMax && len(content) == checkSize && !utf8.Valid(content); i++ {
		content = content[:len(content)-1]
	}
	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row. Header names are trimmed.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	nonEmpty := 0
	for i, h := range record {
		p.headers[i] = trimSpaces(h)
		if p.headers[i] != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// Row is one data row. Ordinal is the 1-based position among data rows;
// LineNumber is the file line the row starts on.
type Row struct {
	Ordinal    int
	LineNumber int
	Fields     map[string]string
	RawFields  []string
}

// IsEmpty returns true if the row has no non-empty values
func (r *Row) IsEmpty() bool {
	return len(r.Fields) == 0
}

// ReadRow reads the next data row. Keys and values are trimmed and any
// field whose key or value is empty is dropped; cells beyond the header
// are ignored. A malformed or non-UTF-8 row returns a *RowError and
// reading may continue.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}

	p.dataRows++
	if err != nil {
		var line int
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.StartLine
		}
		return nil, &RowError{Ordinal: p.dataRows, Line: line, Err: err}
	}
	line, _ := p.reader.FieldPos(0)
	for _, field := range record {
		if !utf8.ValidString(field) {
			return nil, &RowError{Ordinal: p.dataRows, Line: line, Err: ErrInvalidEncoding}
		}
	}

	row := &Row{
		Ordinal:    p.dataRows,
		LineNumber: line,
		Fields:     make(map[string]string, len(p.headers)),
		RawFields:  record,
	}
	for i, header := range p.headers {
		if header == "" || i >= len(record) {
			continue
		}
		if value := trimSpaces(record[i]); value != "" {
			row.Fields[header] = value
		}
	}
	return row, nil
}

// trimSpaces trims ASCII and Unicode whitespace from both ends
func trimSpaces(s string) string {
	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !isWhitespace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if !isWhitespace(r) {
			break
		}
		end -= size
	}
	return s[start:end]
}

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u2007', '\u202f', '\uFEFF':
		return true
	}
	return false
}
