package parser

import (
	"errors"
	"fmt"

	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

var (
	// ErrBufferStopped indicates a token was fed to a ReadBuffer whose line is
	// complete or whose stream is exhausted. Call Reset first.
	ErrBufferStopped = errors.New("read buffer stopped: reset before feeding")

	// ErrFieldCount indicates a line has the wrong number of fields.
	ErrFieldCount = errors.New("wrong number of fields")

	// ErrNoneToken indicates a RawNone token reached the line assembler.
	ErrNoneToken = errors.New("None token must not be surfaced")
)

// TokenSource supplies simplified tokens. *tokenizer.Driver satisfies it.
type TokenSource interface {
	Next() (tokenizer.Token, error)
}

// RawTokenSource supplies low-level tokens. *tokenizer.Driver satisfies it.
type RawTokenSource interface {
	NextRaw() (tokenizer.RawToken, error)
}

// ReadBuffer accumulates the fields of one line.
//
// Fields may only be appended while the buffer is not stopped. A line is
// stopped once it is complete (end of line seen) or the stream is exhausted.
// Reset clears the line but never the exhausted flag.
type ReadBuffer struct {
	fields    []string
	complete  bool
	exhausted bool
	observed  bool
}

// NewReadBuffer creates an empty buffer.
func NewReadBuffer() *ReadBuffer {
	return &ReadBuffer{fields: make([]string, 0, 16)}
}

// Reset clears the fields and the line-complete flag.
func (b *ReadBuffer) Reset() {
	b.fields = b.fields[:0]
	b.complete = false
	b.observed = false
}

// Complete reports whether an end of line or end of file ended the line.
func (b *ReadBuffer) Complete() bool { return b.complete }

// Exhausted reports whether the end of the stream has been folded in.
func (b *ReadBuffer) Exhausted() bool { return b.exhausted }

// Stopped reports whether the buffer refuses further fields.
func (b *ReadBuffer) Stopped() bool { return b.complete || b.exhausted }

// Len returns the number of fields on the line.
func (b *ReadBuffer) Len() int { return len(b.fields) }

// Get returns the field at index.
// Returns ("", false) if index is out of bounds.
func (b *ReadBuffer) Get(index int) (string, bool) {
	if index < 0 || index >= len(b.fields) {
		return "", false
	}
	return b.fields[index], true
}

// Fields returns a copy of the fields on the line.
func (b *ReadBuffer) Fields() []string {
	fields := make([]string, len(b.fields))
	copy(fields, b.fields)
	return fields
}

// Feed folds a simplified token into the buffer.
func (b *ReadBuffer) Feed(tok tokenizer.Token) error {
	if b.Stopped() {
		return ErrBufferStopped
	}
	switch tok.Kind {
	case tokenizer.TokenField:
		b.fields = append(b.fields, tok.Value)
		b.observed = true
	case tokenizer.TokenEndOfLine:
		b.complete = true
		b.observed = true
	case tokenizer.TokenEndOfFile:
		b.complete = true
		b.exhausted = true
	default:
		return fmt.Errorf("unknown token kind %q", tok.Kind)
	}
	return nil
}

// FeedRaw folds a low-level token into the buffer. A fused field and
// terminator appends the field before stopping the line.
func (b *ReadBuffer) FeedRaw(tok tokenizer.RawToken) error {
	if tok.Kind == tokenizer.RawNone {
		return ErrNoneToken
	}
	if b.Stopped() {
		return ErrBufferStopped
	}
	if tok.HasField() {
		b.fields = append(b.fields, tok.Value)
		b.observed = true
	}
	switch tok.Kind {
	case tokenizer.RawField:
	case tokenizer.RawEndOfLineField, tokenizer.RawEndOfLine:
		b.complete = true
		b.observed = true
	case tokenizer.RawEndOfFileField, tokenizer.RawEndOfFile:
		b.complete = true
		b.exhausted = true
	default:
		return fmt.Errorf("unknown raw token kind %q", tok.Kind)
	}
	return nil
}

// FillLine clears the previous line and pulls tokens from src until the
// line is complete or the stream is exhausted. It reports whether a field
// or an explicit end of line was seen. After exhaustion it keeps returning
// false with an empty buffer.
func (b *ReadBuffer) FillLine(src TokenSource) (bool, error) {
	b.Reset()
	for !b.Stopped() {
		tok, err := src.Next()
		if err != nil {
			return false, err
		}
		if err := b.Feed(tok); err != nil {
			return false, err
		}
	}
	return b.observed, nil
}

// FillLineRaw is FillLine over the low-level token stream.
func (b *ReadBuffer) FillLineRaw(src RawTokenSource) (bool, error) {
	b.Reset()
	for !b.Stopped() {
		tok, err := src.NextRaw()
		if err != nil {
			return false, err
		}
		if err := b.FeedRaw(tok); err != nil {
			return false, err
		}
	}
	return b.observed, nil
}
