package csv

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// sniffSampleSize is how many bytes DetectDelimiter inspects.
const sniffSampleSize = 16 * 1024

// Reader reads a CSV stream row by row and serves fields by column name.
//
// The first line of the stream is the header; it is captured into a
// ColumnMapper, with duplicate names disambiguated. Every following row must
// have exactly as many fields as the header.
//
// Example:
//
//	r, err := csv.NewReader(file, csv.DefaultReaderOptions())
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//
//	name := csv.NewColumnName("name")
//	for {
//	    ok, err := r.Next()
//	    if err != nil {
//	        // handle error
//	    }
//	    if !ok {
//	        break
//	    }
//	    v, err := r.Get(name)
//	    // use v
//	}
//
// A Reader is not safe for concurrent use.
type Reader struct {
	opts    ReaderOptions
	driver  *tokenizer.Driver
	buf     *parser.ReadBuffer
	mapper  *ColumnMapper
	header  []string
	handles map[string]*ColumnName
	closer  io.Closer
	line    int
	hasRow  bool
	closed  bool
	err     error
}

// NewReader reads the header line from r and returns a Reader positioned
// before the first data row.
//
// If r implements io.Closer the Reader owns it: Close closes it, and so does
// a failing NewReader. Set KeepSourceOpen to keep ownership.
func NewReader(r io.Reader, opts ReaderOptions) (*Reader, error) {
	rd := &Reader{
		opts:    opts,
		buf:     parser.NewReadBuffer(),
		mapper:  NewColumnMapper(),
		handles: make(map[string]*ColumnName),
	}
	if c, ok := r.(io.Closer); ok && !opts.KeepSourceOpen {
		rd.closer = c
	}

	if err := rd.init(r); err != nil {
		rd.Close()
		return nil, err
	}
	return rd, nil
}

func (r *Reader) init(src io.Reader) error {
	if r.opts.DetectDelimiter {
		br := bufio.NewReaderSize(src, sniffSampleSize)
		sample, err := br.Peek(sniffSampleSize)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return err
		}
		if err == nil {
			// Drop a trailing partial line.
			if i := bytes.LastIndexByte(sample, '\n'); i >= 0 {
				sample = sample[:i+1]
			}
		}
		sniffer := NewSniffer(string(sample))
		r.opts.Comma = sniffer.DetectDelimiter()
		if len(sample) > 0 && !sniffer.HasHeader() {
			r.warn(1, "first line does not look like a header")
		}
		src = br
	}
	if err := r.opts.Validate(); err != nil {
		return err
	}

	d, err := tokenizer.NewReaderDriver(src, r.opts.Comma)
	if err != nil {
		return err
	}
	r.driver = d
	return r.readHeader()
}

func (r *Reader) readHeader() error {
	for {
		ok, err := r.buf.FillLine(r.driver)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoHeader
		}
		if r.buf.Len() > 0 {
			break
		}
		if !r.opts.SkipEmptyLines {
			return fmt.Errorf("%w: line %d is empty", ErrNoHeader, r.driver.RecordLine())
		}
	}

	line := r.driver.RecordLine()
	r.header = make([]string, r.buf.Len())
	for i := range r.header {
		hint, _ := r.buf.Get(i)
		if r.opts.HeaderConverter != nil {
			hint = r.opts.HeaderConverter(hint)
		}
		name, err := r.mapper.AddIndexed(i, hint)
		if err != nil {
			return err
		}
		switch {
		case hint == "":
			r.warn(line, fmt.Sprintf("column %d has no name, using %q", i+1, name))
		case name != hint:
			r.warn(line, fmt.Sprintf("duplicate column %q renamed to %q", hint, name))
		}
		r.header[i] = name
	}
	return nil
}

func (r *Reader) warn(line int, message string) {
	if r.opts.WarningCallback != nil {
		r.opts.WarningCallback(line, message)
	}
}

// Next advances to the next row. It returns false at the end of the stream.
// A row whose field count differs from the header's fails with
// ErrFieldCount. Errors are sticky.
func (r *Reader) Next() (bool, error) {
	if r.closed {
		return false, ErrClosed
	}
	if r.err != nil {
		return false, r.err
	}
	r.hasRow = false

	for {
		ok, err := r.buf.FillLine(r.driver)
		if err != nil {
			r.err = err
			return false, err
		}
		if !ok {
			return false, nil
		}
		if r.opts.SkipEmptyLines && r.buf.Len() == 0 {
			continue
		}
		break
	}

	r.line = r.driver.RecordLine()
	if r.buf.Len() != len(r.header) {
		r.err = FieldCountMismatch(r.line, r.buf.Len(), len(r.header))
		return false, r.err
	}
	r.hasRow = true
	return true, nil
}

// FieldCountMismatch returns the ErrFieldCount error for a record on line
// holding got fields where want were required.
func FieldCountMismatch(line, got, want int) error {
	return parser.FieldCountMismatch(line, got, want)
}

// Get returns the value of col in the current row.
//
// The first call binds col against the header. An unknown name fails with
// ErrUnknownColumn, or binds col as a ghost when AllowGhosts is set. Ghost
// columns always read as "".
func (r *Reader) Get(col *ColumnName) (string, error) {
	if err := r.ready(); err != nil {
		return "", err
	}
	if !col.IsBound() {
		if err := col.BindFromMapper(r.mapper, !r.opts.AllowGhosts, false); err != nil {
			return "", err
		}
		if col.IsGhost() {
			r.warn(r.line, fmt.Sprintf("column %q not in header, reading it as empty", col.Name()))
		}
	}
	if col.IsGhost() {
		return "", nil
	}
	return r.GetIndex(col.Index())
}

// GetIndex returns the field at index in the current row.
func (r *Reader) GetIndex(index int) (string, error) {
	if err := r.ready(); err != nil {
		return "", err
	}
	v, ok := r.buf.Get(index)
	if !ok {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrColumnRange, index, r.buf.Len())
	}
	return v, nil
}

// Lookup is Get by plain name. It keeps one handle per name, so repeated
// lookups bind only once.
func (r *Reader) Lookup(name string) (string, error) {
	col, ok := r.handles[name]
	if !ok {
		col = NewColumnName(name)
		r.handles[name] = col
	}
	return r.Get(col)
}

func (r *Reader) ready() error {
	if r.closed {
		return ErrClosed
	}
	if !r.hasRow {
		return ErrNoRow
	}
	return nil
}

// Row returns a copy of the fields of the current row, or nil before the
// first row.
func (r *Reader) Row() []string {
	if !r.hasRow {
		return nil
	}
	return r.buf.Fields()
}

// Header returns the column names in index order, after disambiguation.
func (r *Reader) Header() []string {
	header := make([]string, len(r.header))
	copy(header, r.header)
	return header
}

// Mapper returns the column mapper built from the header. Ghost columns
// bound through Get are registered in it as well.
func (r *Reader) Mapper() *ColumnMapper {
	return r.mapper
}

// Comma returns the field delimiter in use, which DetectDelimiter may have
// changed.
func (r *Reader) Comma() rune {
	return r.opts.Comma
}

// Line returns the line on which the current row starts, or 0 before the
// first row.
func (r *Reader) Line() int {
	return r.line
}

// Rows reads the remaining rows.
func (r *Reader) Rows() ([][]string, error) {
	var rows [][]string
	for {
		ok, err := r.Next()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, r.buf.Fields())
	}
}

// Close releases the source if the Reader owns it. Only the first call
// closes; later calls return nil.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.hasRow = false
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
