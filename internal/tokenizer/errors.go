package tokenizer

import (
	"errors"
	"fmt"
)

// Tokenizer errors. All of them are fatal: once returned, the machine is in
// StateError and refuses further input.
var (
	// ErrQuote indicates a quote inside an unquoted field.
	ErrQuote = errors.New("bare \" in non-quoted-field")

	// ErrAfterQuote indicates a character other than a separator, line
	// terminator or quote directly after a closing quote.
	ErrAfterQuote = errors.New("extraneous character after closing quote")

	// ErrUnterminatedQuote indicates end of input inside a quoted field.
	ErrUnterminatedQuote = errors.New("unexpected end of input in quoted field")

	// ErrBareCR indicates a carriage return not followed by a line feed.
	ErrBareCR = errors.New("bare \\r must be followed by \\n")

	// ErrNUL indicates a NUL character in the input. NUL is reserved as the
	// end-of-input marker.
	ErrNUL = errors.New("NUL character in input")

	// ErrInvalidUTF8 indicates a byte sequence that is not valid UTF-8.
	// Input is never repaired with U+FFFD.
	ErrInvalidUTF8 = errors.New("invalid UTF-8 in input")

	// ErrStopped indicates input was fed to a machine that is already Done
	// or in Error.
	ErrStopped = errors.New("tokenizer already stopped")

	// ErrInvalidSeparator indicates a separator that collides with the quote,
	// a line terminator or the end-of-input marker.
	ErrInvalidSeparator = errors.New("invalid separator")

	// ErrInterleaved indicates NextRaw was called while a simplified token
	// was still pending delivery through Next.
	ErrInterleaved = errors.New("raw token requested while a simplified token is pending")
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	// StartLine is the line where the current record started (1-indexed).
	StartLine int
	// Line is the line of the offending character (1-indexed).
	Line int
	// Column is the column of the offending character (1-indexed, in runes).
	Column int
	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message with position information.
func (e *ParseError) Error() string {
	if e.StartLine == e.Line || e.StartLine == 0 {
		return fmt.Sprintf("parse error on line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse error on line %d (started line %d), column %d: %v",
		e.Line, e.StartLine, e.Column, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
