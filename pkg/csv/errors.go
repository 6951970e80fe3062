package csv

import (
	"errors"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// ParseError represents a parsing error with position information.
// It reports the line the record started on, and the line and column of the
// offending character.
type ParseError = tokenizer.ParseError

// Tokenizer errors. Match them with errors.Is; they usually arrive wrapped in
// a *ParseError.
var (
	// ErrQuote indicates a quote inside an unquoted field.
	ErrQuote = tokenizer.ErrQuote
	// ErrAfterQuote indicates an unexpected character after a closing quote.
	ErrAfterQuote = tokenizer.ErrAfterQuote
	// ErrUnterminatedQuote indicates end of input inside a quoted field.
	ErrUnterminatedQuote = tokenizer.ErrUnterminatedQuote
	// ErrBareCR indicates a carriage return not followed by a line feed.
	ErrBareCR = tokenizer.ErrBareCR
	// ErrNUL indicates a NUL character in the input.
	ErrNUL = tokenizer.ErrNUL

	// ErrInvalidUTF8 indicates input that is not valid UTF-8.
	ErrInvalidUTF8 = tokenizer.ErrInvalidUTF8
	// ErrStopped indicates input fed to a stopped tokenizer.
	ErrStopped = tokenizer.ErrStopped
	// ErrInvalidSeparator indicates a separator that cannot be used.
	ErrInvalidSeparator = tokenizer.ErrInvalidSeparator
)

// Line assembly errors.
var (
	// ErrBufferStopped indicates a token fed to a complete or exhausted line.
	ErrBufferStopped = parser.ErrBufferStopped
	// ErrFieldCount indicates a record has the wrong number of fields.
	ErrFieldCount = parser.ErrFieldCount
)

// Column errors.
var (
	// ErrRebind indicates a ColumnName bound to one index was bound to another.
	ErrRebind = errors.New("column already bound to a different index")

	// ErrUnknownColumn indicates a column name absent from the header.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidIndex indicates a negative column index other than Ghost.
	ErrInvalidIndex = errors.New("invalid column index")

	// ErrNameConflict indicates a name already mapped to another index.
	ErrNameConflict = errors.New("column name already mapped")

	// ErrIndexConflict indicates an index already mapped to another name.
	ErrIndexConflict = errors.New("column index already mapped")

	// ErrColumnRange indicates a bound column the current row does not reach.
	ErrColumnRange = errors.New("column index out of range")
)

// Reader errors.
var (
	// ErrNoHeader indicates the stream ended before a header line was read.
	ErrNoHeader = errors.New("no header line")

	// ErrNoRow indicates a field was requested before the first successful Next.
	ErrNoRow = errors.New("no current row: call Next first")

	// ErrClosed indicates use of a closed Reader.
	ErrClosed = errors.New("reader closed")
)

// Writer errors.
var (
	// ErrNotSingleField indicates text passed to UnquoteField that does not
	// encode exactly one field.
	ErrNotSingleField = errors.New("not a single encoded field")
)

// WarningHandler is a callback function for logging warnings.
// line is the 1-indexed input line the warning refers to, or 0.
type WarningHandler func(line int, message string)
