package parser

import (
	"fmt"
)

type countMode uint8

const (
	countAny countMode = iota
	countExact
	countFirstLine
)

// FieldCountPolicy constrains the number of fields per line.
type FieldCountPolicy struct {
	mode countMode
	n    int
}

// AnyFieldCount places no constraint on field counts.
func AnyFieldCount() FieldCountPolicy {
	return FieldCountPolicy{mode: countAny}
}

// ExactFieldCount requires every line to have n fields.
func ExactFieldCount(n int) FieldCountPolicy {
	return FieldCountPolicy{mode: countExact, n: n}
}

// FirstLineFieldCount requires every line after the first non-empty one to
// match its field count.
func FirstLineFieldCount() FieldCountPolicy {
	return FieldCountPolicy{mode: countFirstLine}
}

// String describes the policy.
func (p FieldCountPolicy) String() string {
	switch p.mode {
	case countExact:
		return fmt.Sprintf("exactly %d", p.n)
	case countFirstLine:
		return "same as first line"
	default:
		return "any"
	}
}

// FieldCountMismatch builds the error reported when a line has got fields
// but want were required. line is omitted when zero.
func FieldCountMismatch(line, got, want int) error {
	if line > 0 {
		return fmt.Errorf("record on line %d: %w (got %d, expected %d)", line, ErrFieldCount, got, want)
	}
	return fmt.Errorf("%w (got %d, expected %d)", ErrFieldCount, got, want)
}

// LineOptions configures a Lines scanner.
type LineOptions struct {
	// SkipEmpty skips lines with no fields.
	SkipEmpty bool
	// FieldCount constrains the number of fields per line.
	FieldCount FieldCountPolicy
}

// Lines scans a token source line by line.
//
// Every successful Scan refills the same *ReadBuffer; callers must not keep
// it, or the result of Get, across calls.
//
//	lines := parser.NewLines(driver, parser.LineOptions{SkipEmpty: true})
//	for lines.Scan() {
//	    buf := lines.Buffer()
//	    // use buf
//	}
//	if err := lines.Err(); err != nil {
//	    // handle error
//	}
type Lines struct {
	src      TokenSource
	buf      *ReadBuffer
	opts     LineOptions
	expected int
	err      error
}

// NewLines creates a scanner over src.
func NewLines(src TokenSource, opts LineOptions) *Lines {
	expected := -1
	if opts.FieldCount.mode == countExact {
		expected = opts.FieldCount.n
	}
	return &Lines{
		src:      src,
		buf:      NewReadBuffer(),
		opts:     opts,
		expected: expected,
	}
}

// Scan advances to the next line. It returns false at the end of the stream
// or on error; Err distinguishes the two.
func (l *Lines) Scan() bool {
	if l.err != nil {
		return false
	}
	for {
		ok, err := l.buf.FillLine(l.src)
		if err != nil {
			l.err = err
			return false
		}
		if !ok {
			return false
		}
		if l.opts.SkipEmpty && l.buf.Len() == 0 {
			continue
		}
		if err := l.checkCount(); err != nil {
			l.err = err
			return false
		}
		return true
	}
}

func (l *Lines) checkCount() error {
	if l.opts.FieldCount.mode == countAny {
		return nil
	}
	if l.expected < 0 {
		// Leading empty lines do not set the count.
		if l.buf.Len() > 0 {
			l.expected = l.buf.Len()
		}
		return nil
	}
	if l.buf.Len() != l.expected {
		line := 0
		if lp, ok := l.src.(interface{ RecordLine() int }); ok {
			line = lp.RecordLine()
		}
		return FieldCountMismatch(line, l.buf.Len(), l.expected)
	}
	return nil
}

// Buffer returns the buffer holding the current line.
func (l *Lines) Buffer() *ReadBuffer {
	return l.buf
}

// Err returns the error that stopped the scan, if any.
func (l *Lines) Err() error {
	return l.err
}
