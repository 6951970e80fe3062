package csv

import (
	"io"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// Scanner provides a streaming interface for reading CSV records one at a time.
// It tokenizes the input as it goes and holds one record in memory. Unlike
// Reader it gives the first line no special meaning.
//
// Example usage:
//
//	file, _ := os.Open("data.csv")
//	defer file.Close()
//
//	scanner := csv.NewScanner(file)
//	for scanner.Scan() {
//	    record := scanner.Record()
//	    fmt.Println(record[0])
//	}
//	if err := scanner.Err(); err != nil {
//	    // handle error
//	}
type Scanner struct {
	lines       *parser.Lines
	driver      *tokenizer.Driver
	reuseRecord bool
	record      []string
	err         error
}

// NewScanner creates a new Scanner that reads CSV from the given io.Reader
// with default options.
func NewScanner(reader io.Reader) *Scanner {
	return NewScannerWithOptions(reader, DefaultReaderOptions())
}

// NewScannerWithOptions creates a new Scanner with custom options.
// Comma, SkipEmptyLines and FieldsPerRecord apply; invalid options are
// reported by Err after the first Scan.
func NewScannerWithOptions(reader io.Reader, opts ReaderOptions) *Scanner {
	s := &Scanner{}
	if err := opts.Validate(); err != nil {
		s.err = err
		return s
	}
	d, err := tokenizer.NewReaderDriver(reader, opts.Comma)
	if err != nil {
		s.err = err
		return s
	}
	po := opts.parserOptions()
	s.driver = d
	s.lines = parser.NewLines(d, parser.LineOptions{
		SkipEmpty:  po.SkipEmptyLines,
		FieldCount: po.FieldCount,
	})
	return s
}

// SetReuseRecord sets whether Record may return a slice sharing its backing
// array with the previous call's. Returns the Scanner for method chaining.
//
// Example:
//
//	scanner := csv.NewScanner(reader).SetReuseRecord(true)
func (s *Scanner) SetReuseRecord(reuse bool) *Scanner {
	s.reuseRecord = reuse
	return s
}

// Scan advances the scanner to the next record.
// It returns false when there are no more records or an error occurs.
// After Scan returns false, the Err method will return any error that occurred.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if !s.lines.Scan() {
		s.err = s.lines.Err()
		s.record = s.record[:0]
		return false
	}
	buf := s.lines.Buffer()
	if !s.reuseRecord {
		s.record = nil
	}
	s.record = s.record[:0]
	for i := 0; i < buf.Len(); i++ {
		v, _ := buf.Get(i)
		s.record = append(s.record, v)
	}
	return true
}

// Record returns the current record.
// This should only be called after Scan() returns true.
//
// When ReuseRecord is enabled, the returned slice may be overwritten by the
// next Scan. Copy it if you need to retain its values.
func (s *Scanner) Record() []string {
	return s.record
}

// Line returns the line on which the current record starts.
func (s *Scanner) Line() int {
	if s.driver == nil {
		return 0
	}
	return s.driver.RecordLine()
}

// Err returns the error, if any, that was encountered during scanning.
// It returns nil if no error occurred or at EOF.
func (s *Scanner) Err() error {
	return s.err
}
