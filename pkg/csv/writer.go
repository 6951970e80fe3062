package csv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// NeedsQuoting reports whether value must be quoted to survive a round trip
// with the given separator: it contains the separator, a quote, CR or LF, or
// starts or ends with white space.
func NeedsQuoting(value string, sep rune) bool {
	if value == "" {
		return false
	}
	if strings.ContainsRune(value, sep) || strings.ContainsAny(value, "\"\r\n") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(value)
	last, _ := utf8.DecodeLastRuneInString(value)
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

// QuoteField encodes value as one CSV field. Values that need quoting are
// wrapped in quotes with embedded quotes doubled; others are returned as is.
func QuoteField(value string, sep rune) string {
	if !NeedsQuoting(value, sep) {
		return value
	}
	return string(appendQuoted(make([]byte, 0, len(value)+2), value))
}

func appendField(dst []byte, value string, sep rune) []byte {
	if !NeedsQuoting(value, sep) {
		return append(dst, value...)
	}
	return appendQuoted(dst, value)
}

func appendQuoted(dst []byte, value string) []byte {
	dst = append(dst, '"')
	for {
		i := strings.IndexByte(value, '"')
		if i < 0 {
			break
		}
		dst = append(dst, value[:i+1]...)
		dst = append(dst, '"')
		value = value[i+1:]
	}
	dst = append(dst, value...)
	return append(dst, '"')
}

// UnquoteField decodes text holding exactly one encoded field, the inverse
// of QuoteField. It runs the same tokenizer the readers use.
func UnquoteField(text string, sep rune) (string, error) {
	d, err := tokenizer.NewStringDriver(text, sep)
	if err != nil {
		return "", err
	}
	tok, err := d.Next()
	if err != nil {
		return "", err
	}
	if tok.Kind == tokenizer.TokenEndOfFile {
		return "", nil
	}
	if tok.Kind != tokenizer.TokenField {
		return "", fmt.Errorf("%w: %q", ErrNotSingleField, text)
	}
	end, err := d.Next()
	if err != nil {
		return "", err
	}
	if end.Kind != tokenizer.TokenEndOfFile {
		return "", fmt.Errorf("%w: %q", ErrNotSingleField, text)
	}
	return tok.Value, nil
}

// Writer writes CSV rows with the quoting rule the readers accept.
//
// Writes are buffered; call Flush when done. The first write or flush error
// is sticky and returned by every later call.
type Writer struct {
	w    *bufio.Writer
	opts WriterOptions
	line []byte
	err  error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer, opts WriterOptions) (*Writer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Writer{w: bufio.NewWriter(w), opts: opts}, nil
}

// WriteRow writes one row. A row holding a single empty field is written
// as "" so it does not read back as an empty line.
func (w *Writer) WriteRow(fields []string) error {
	if w.err != nil {
		return w.err
	}
	w.line = appendRow(w.line[:0], fields, w.opts)
	if _, err := w.w.Write(w.line); err != nil {
		w.err = err
	}
	return w.err
}

// WriteAll writes rows and flushes.
func (w *Writer) WriteAll(rows [][]string) error {
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.w.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

func appendRow(dst []byte, fields []string, opts WriterOptions) []byte {
	if len(fields) == 1 && fields[0] == "" {
		dst = append(dst, `""`...)
	} else {
		for i, field := range fields {
			if i > 0 {
				dst = utf8.AppendRune(dst, opts.Comma)
			}
			dst = appendField(dst, field, opts.Comma)
		}
	}
	return append(dst, opts.lineEnding()...)
}

// RowBuilder stages the cells of one output row by column and hands them out
// in index order. Columns not set read as "".
//
//	b := csv.NewRowBuilder(mapper)
//	b.Set(city, "Oslo")
//	w.WriteRow(b.Row())
//	b.Reset()
type RowBuilder struct {
	mapper *ColumnMapper
	cells  []string
}

// NewRowBuilder creates a builder with one cell per real column of m.
func NewRowBuilder(m *ColumnMapper) *RowBuilder {
	return &RowBuilder{mapper: m, cells: make([]string, m.Width())}
}

// Set stores value in the cell of col, binding col against the mapper on
// first use. Unknown names fail with ErrUnknownColumn; values for ghost
// columns are dropped.
func (b *RowBuilder) Set(col *ColumnName, value string) error {
	if !col.IsBound() {
		if err := col.BindFromMapper(b.mapper, true, false); err != nil {
			return err
		}
	}
	if col.IsGhost() {
		return nil
	}
	return b.SetIndex(col.Index(), value)
}

// SetIndex stores value in the cell at index.
func (b *RowBuilder) SetIndex(index int, value string) error {
	if index < 0 || index >= len(b.cells) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrColumnRange, index, len(b.cells))
	}
	b.cells[index] = value
	return nil
}

// Row returns a copy of the staged cells.
func (b *RowBuilder) Row() []string {
	row := make([]string, len(b.cells))
	copy(row, b.cells)
	return row
}

// Reset clears every cell.
func (b *RowBuilder) Reset() {
	for i := range b.cells {
		b.cells[i] = ""
	}
}

// Header returns the column names in index order. Indices without a name
// read as "".
func (b *RowBuilder) Header() []string {
	header := make([]string, len(b.cells))
	for i := range header {
		header[i], _ = b.mapper.FindByIndex(i)
	}
	return header
}
