package csv

import (
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// ReaderOptions configures CSV reading.
type ReaderOptions struct {
	// Comma is the field delimiter.
	// It must be a valid rune and not ", \r, \n, NUL or the Unicode replacement
	// character (0xFFFD).
	// Default: ','
	Comma rune

	// DetectDelimiter sniffs a sample of the input and overrides Comma with
	// the detected delimiter. Only NewReader honors it.
	// Default: false
	DetectDelimiter bool

	// AllowGhosts lets Reader.Get bind names missing from the header as ghost
	// columns that always read as "". When false such names fail with
	// ErrUnknownColumn.
	// Default: false
	AllowGhosts bool

	// SkipEmptyLines drops lines with no fields.
	// Default: true
	SkipEmptyLines bool

	// KeepSourceOpen stops Reader.Close from closing a source that implements
	// io.Closer.
	// Default: false
	KeepSourceOpen bool

	// HeaderConverter, if not nil, rewrites each header name before it is
	// registered. Only NewReader honors it.
	// Default: nil
	HeaderConverter HeaderConverter

	// FieldsPerRecord is the expected number of fields per record for the
	// Parse and Validate functions. The Reader always requires the header's
	// field count.
	// If positive, each record must have exactly this many fields.
	// If 0, the first record determines the expected field count.
	// If negative, no field count validation is performed.
	// Default: -1
	FieldsPerRecord int

	// WarningCallback is invoked for recoverable oddities: renamed duplicate
	// header names, ghost bindings, a sniffed sample without a header.
	// If nil, warnings are silently ignored.
	WarningCallback WarningHandler
}

// DefaultReaderOptions returns the default reader configuration.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		Comma:           ',',
		DetectDelimiter: false,
		AllowGhosts:     false,
		SkipEmptyLines:  true,
		KeepSourceOpen:  false,
		FieldsPerRecord: -1,
	}
}

// WriterOptions configures CSV writing behavior.
type WriterOptions struct {
	// Comma is the field delimiter.
	// Default: ','
	Comma rune

	// UseCRLF controls whether to use \r\n (true) or \n (false) as the line terminator.
	// Default: false (use \n)
	UseCRLF bool
}

// DefaultWriterOptions returns the default writer configuration.
func DefaultWriterOptions() WriterOptions {
	return WriterOptions{
		Comma:   ',',
		UseCRLF: false,
	}
}

// Validate checks if the reader options are valid.
func (o ReaderOptions) Validate() error {
	if !tokenizer.ValidSeparator(o.Comma) {
		return &OptionsError{Field: "Comma", Message: "invalid delimiter"}
	}
	return nil
}

// Validate checks if the writer options are valid.
func (o WriterOptions) Validate() error {
	if !tokenizer.ValidSeparator(o.Comma) {
		return &OptionsError{Field: "Comma", Message: "invalid delimiter"}
	}
	return nil
}

// OptionsError represents an invalid option configuration.
type OptionsError struct {
	Field   string
	Message string
}

func (e *OptionsError) Error() string {
	return "csv: invalid " + e.Field + ": " + e.Message
}

func (o WriterOptions) lineEnding() string {
	if o.UseCRLF {
		return "\r\n"
	}
	return "\n"
}

func (o ReaderOptions) parserOptions() parser.Options {
	policy := parser.AnyFieldCount()
	switch {
	case o.FieldsPerRecord > 0:
		policy = parser.ExactFieldCount(o.FieldsPerRecord)
	case o.FieldsPerRecord == 0:
		policy = parser.FirstLineFieldCount()
	}
	return parser.Options{
		Comma:          o.Comma,
		SkipEmptyLines: o.SkipEmptyLines,
		FieldCount:     policy,
	}
}

// ParseWithOptions parses CSV format into an AST from a string with custom options.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Comma = '\t'  // Tab-separated
//	node, err := csv.ParseWithOptions("name\tage\nAlice\t30", opts)
func ParseWithOptions(input string, opts ReaderOptions) (ast.SchemaNode, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p, err := parser.NewParserWithOptions(input, opts.parserOptions())
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// ParseReaderWithOptions parses CSV format into an AST from an io.Reader with custom options.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.FieldsPerRecord = 0  // all records match the first
//	node, err := csv.ParseReaderWithOptions(file, opts)
func ParseReaderWithOptions(reader io.Reader, opts ReaderOptions) (ast.SchemaNode, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p, err := parser.NewParserFromReader(reader, opts.parserOptions())
	if err != nil {
		return nil, err
	}
	return p.Parse()
}

// ValidateWithOptions checks if the input string is valid CSV with custom options.
//
// Example:
//
//	opts := csv.DefaultReaderOptions()
//	opts.Comma = ';'  // Semicolon-separated
//	err := csv.ValidateWithOptions("a;b;c", opts)
func ValidateWithOptions(input string, opts ReaderOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	d, err := tokenizer.NewStringDriver(input, opts.Comma)
	if err != nil {
		return err
	}
	return drainLines(d, opts.parserOptions())
}

// ValidateReaderWithOptions checks if the input from an io.Reader is valid
// CSV with custom options.
func ValidateReaderWithOptions(reader io.Reader, opts ReaderOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	d, err := tokenizer.NewReaderDriver(reader, opts.Comma)
	if err != nil {
		return err
	}
	return drainLines(d, opts.parserOptions())
}

// RenderWithOptions converts an AST node to CSV bytes with custom options.
//
// Example:
//
//	opts := csv.DefaultWriterOptions()
//	opts.Comma = '\t'
//	opts.UseCRLF = true
//	bytes, err := csv.RenderWithOptions(node, opts)
func RenderWithOptions(node ast.SchemaNode, opts WriterOptions) ([]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return renderWithOptions(node, opts)
}

// drainLines scans every line of src without keeping any of them.
func drainLines(src parser.TokenSource, opts parser.Options) error {
	lines := parser.NewLines(src, parser.LineOptions{
		SkipEmpty:  opts.SkipEmptyLines,
		FieldCount: opts.FieldCount,
	})
	for lines.Scan() {
	}
	return lines.Err()
}
