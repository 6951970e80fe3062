package tokenizer

import (
	"bufio"
	"errors"
	"io"
	"unicode/utf8"

	shapetokenizer "github.com/shapestone/shape-core/pkg/tokenizer"
)

// CharSource supplies characters one at a time, reporting false once it is
// exhausted. Streams created by shape-core's tokenizer.NewStream and
// tokenizer.NewStreamFromReader satisfy it.
type CharSource interface {
	NextChar() (rune, bool)
}

// Driver pulls characters from a CharSource, feeds them to a Machine and
// delivers either the raw low-level token stream (NextRaw) or the simplified
// stream (Next). The two must not be interleaved.
//
// A combined low-level token such as EndOfLineField("b") is delivered through
// Next as Field("b") followed by a deferred EndOfLine. At most one token is
// ever deferred.
type Driver struct {
	src     CharSource
	srcErr  func() error
	machine *Machine

	pending    Token
	hasPending bool
	done       bool
	err        error

	fields      int
	resetFields bool

	line        int
	column      int
	offset      int
	recordLine  int
	recordStart bool
}

// NewDriver creates a driver reading from src with the given separator.
func NewDriver(src CharSource, sep rune) (*Driver, error) {
	m, err := NewMachine(sep)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		src:         src,
		machine:     m,
		line:        1,
		column:      1,
		recordLine:  1,
		recordStart: true,
	}
	if e, ok := src.(interface{ Err() error }); ok {
		d.srcErr = e.Err
	}
	return d, nil
}

// NewStringDriver creates a driver over an in-memory string. Input that is
// not valid UTF-8 is tokenized up to the first invalid byte, where the driver
// fails with ErrInvalidUTF8.
func NewStringDriver(input string, sep rune) (*Driver, error) {
	valid := validPrefix(input)
	d, err := NewDriver(shapetokenizer.NewStream(input[:valid]), sep)
	if err != nil {
		return nil, err
	}
	if valid < len(input) {
		d.srcErr = func() error { return ErrInvalidUTF8 }
	}
	return d, nil
}

// validPrefix returns the length of the longest valid UTF-8 prefix of s.
func validPrefix(s string) int {
	for i := 0; i < len(s); {
		if s[i] < utf8.RuneSelf {
			i++
			continue
		}
		c, size := utf8.DecodeRuneInString(s[i:])
		if c == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(s)
}

// NewReaderDriver creates a driver over an io.Reader. Read errors other than
// io.EOF are reported by Next and NextRaw once the stream runs dry, and
// invalid UTF-8 fails with ErrInvalidUTF8 at the offending byte.
func NewReaderDriver(r io.Reader, sep rune) (*Driver, error) {
	rr := newRuneReader(r)
	d, err := NewDriver(shapetokenizer.NewStreamFromReader(rr), sep)
	if err != nil {
		return nil, err
	}
	d.srcErr = rr.Err
	return d, nil
}

// runeReader hands shape-core's buffered stream exactly one UTF-8 sequence
// per Read. The stream decodes each chunk on its own and stops filling its
// window part way through a chunk, so a chunk must hold a single whole rune.
// It never returns (0, nil).
type runeReader struct {
	r   *bufio.Reader
	err error
}

func newRuneReader(r io.Reader) *runeReader {
	return &runeReader{r: bufio.NewReader(r)}
}

func (rr *runeReader) Read(p []byte) (int, error) {
	if rr.err != nil {
		return 0, rr.err
	}
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}
	c, size, err := rr.r.ReadRune()
	switch {
	case errors.Is(err, io.EOF):
		return 0, io.EOF
	case err != nil:
		rr.err = err
		return 0, err
	case c == utf8.RuneError && size == 1:
		rr.err = ErrInvalidUTF8
		return 0, rr.err
	}
	return utf8.EncodeRune(p, c), nil
}

// Err returns the first error other than io.EOF.
func (rr *runeReader) Err() error {
	return rr.err
}

// Separator returns the field separator.
func (d *Driver) Separator() rune {
	return d.machine.Separator()
}

// State returns the state of the underlying machine.
func (d *Driver) State() State {
	return d.machine.State()
}

// Line returns the line of the next character to be read (1-indexed).
func (d *Driver) Line() int {
	return d.line
}

// Column returns the column of the next character to be read (1-indexed,
// counted in runes).
func (d *Driver) Column() int {
	return d.column
}

// Offset returns the byte offset of the next character to be read.
func (d *Driver) Offset() int {
	return d.offset
}

// RecordLine returns the line on which the most recent record started.
func (d *Driver) RecordLine() int {
	return d.recordLine
}

// FieldCount returns the number of fields delivered on the current line.
// After an end-of-line or end-of-file token it still reports the count for
// the line just finished; the count resets on the following call.
func (d *Driver) FieldCount() int {
	return d.fields
}

// Err returns the error that stopped the driver, if any.
func (d *Driver) Err() error {
	return d.err
}

// Next returns the next simplified token. Once EndOfFile has been returned,
// further calls keep returning EndOfFile. Errors are sticky.
func (d *Driver) Next() (Token, error) {
	if d.resetFields {
		d.fields = 0
		d.resetFields = false
	}
	if d.hasPending {
		t := d.pending
		d.pending = Token{}
		d.hasPending = false
		d.resetFields = true
		return t, nil
	}
	if d.err != nil {
		return Token{}, d.err
	}
	if d.done {
		d.resetFields = true
		return endOfFile, nil
	}

	raw, err := d.pull()
	if err != nil {
		return Token{}, err
	}

	switch raw.Kind {
	case RawField:
		d.fields++
		return FieldToken(raw.Value), nil
	case RawEndOfLineField:
		d.fields++
		d.pending, d.hasPending = endOfLine, true
		return FieldToken(raw.Value), nil
	case RawEndOfFileField:
		d.fields++
		d.pending, d.hasPending = endOfFile, true
		return FieldToken(raw.Value), nil
	case RawEndOfLine:
		d.resetFields = true
		return endOfLine, nil
	default:
		d.resetFields = true
		return endOfFile, nil
	}
}

// NextRaw returns the next low-level token, never RawNone. Once the
// end-of-file token has been returned, further calls return RawEndOfFile.
func (d *Driver) NextRaw() (RawToken, error) {
	if d.hasPending {
		return RawToken{Kind: RawNone}, ErrInterleaved
	}
	if d.resetFields {
		d.fields = 0
		d.resetFields = false
	}
	if d.err != nil {
		return RawToken{Kind: RawNone}, d.err
	}
	if d.done {
		return RawToken{Kind: RawEndOfFile}, nil
	}

	raw, err := d.pull()
	if err != nil {
		return RawToken{Kind: RawNone}, err
	}
	if raw.HasField() {
		d.fields++
	}
	if raw.Kind != RawField {
		d.resetFields = true
	}
	return raw, nil
}

// pull feeds characters to the machine until it reports something.
func (d *Driver) pull() (RawToken, error) {
	for {
		c, err := d.read()
		if err != nil {
			return RawToken{Kind: RawNone}, d.fail(err)
		}

		line, column := d.line, d.column
		if d.recordStart && c != EndOfInput {
			d.recordLine = line
			d.recordStart = false
		}
		d.advance(c)

		tok, err := d.machine.Next(c)
		if err != nil {
			return RawToken{Kind: RawNone}, d.fail(&ParseError{
				StartLine: d.recordLine,
				Line:      line,
				Column:    column,
				Err:       err,
			})
		}

		switch tok.Kind {
		case RawNone:
			continue
		case RawEndOfLine, RawEndOfLineField:
			d.recordStart = true
		case RawEndOfFile, RawEndOfFileField:
			d.done = true
		}
		return tok, nil
	}
}

func (d *Driver) read() (rune, error) {
	c, ok := d.src.NextChar()
	if !ok {
		if d.srcErr != nil {
			if err := d.srcErr(); err != nil {
				if errors.Is(err, ErrInvalidUTF8) {
					return EndOfInput, d.positioned(err)
				}
				return EndOfInput, err
			}
		}
		return EndOfInput, nil
	}
	if c == EndOfInput {
		return EndOfInput, d.positioned(ErrNUL)
	}
	return c, nil
}

// positioned wraps err with the position of the next character.
func (d *Driver) positioned(err error) *ParseError {
	start := d.recordLine
	if d.recordStart {
		start = d.line
	}
	return &ParseError{
		StartLine: start,
		Line:      d.line,
		Column:    d.column,
		Err:       err,
	}
}

func (d *Driver) advance(c rune) {
	if c == EndOfInput {
		return
	}
	d.offset += utf8.RuneLen(c)
	if c == '\n' {
		d.line++
		d.column = 1
		return
	}
	d.column++
}

func (d *Driver) fail(err error) error {
	d.err = err
	return err
}
