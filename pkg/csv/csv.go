// Package csv provides streaming CSV reading with column access by name,
// CSV writing, and CSV parsing into Shape's AST.
//
// Input is tokenized by a table-driven state machine: separators, CRLF or LF
// line breaks, quoted fields with doubled-quote escapes. A lone CR, a quote
// inside an unquoted field, or a stray character after a closing quote is a
// fatal *ParseError; there is no recovery mode.
//
// # Reading by column
//
// Reader treats the first line as the header and serves fields of the
// following rows by ColumnName. A ColumnName binds to its index on first use
// and is reused for every row:
//
//	r, err := csv.NewReader(file, csv.DefaultReaderOptions())
//	if err != nil {
//	    // handle error
//	}
//	defer r.Close()
//
//	email := csv.NewColumnName("email")
//	for {
//	    ok, err := r.Next()
//	    if err != nil || !ok {
//	        break
//	    }
//	    v, _ := r.Get(email)
//	}
//
// With AllowGhosts set, names missing from the header bind as ghost columns
// that always read as "".
//
// # Writing
//
// Writer and QuoteField apply the quoting rule the readers accept, so output
// always reads back to the same fields.
//
// # Parsing APIs
//
// Parse and ParseReader build an *ast.ArrayDataNode of records, each an
// *ast.ArrayDataNode of *ast.LiteralNode string fields, and Render turns such
// a tree back into CSV.
//
// # Thread Safety
//
// The package level functions are safe for concurrent use; each call creates
// its own tokenizer. Reader, Writer, RowBuilder, ColumnName and ColumnMapper
// values are single-owner and must not be shared between goroutines without
// synchronization.
package csv

import (
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Parse parses CSV format into an AST from a string.
//
// Returns an ast.ArrayDataNode representing the parsed CSV:
//   - *ast.ArrayDataNode for the file (array of records)
//   - Each record is an *ast.ArrayDataNode of fields
//   - Each field is an *ast.LiteralNode containing a string value
//
// Empty lines are skipped. Every node carries the position where it starts.
//
// Example:
//
//	node, err := csv.Parse("name,age\nAlice,30\nBob,25")
//	arrayNode := node.(*ast.ArrayDataNode)
//	records := arrayNode.Elements()
//	// records[0] is the header row
//	// records[1] is the first data row
func Parse(input string) (ast.SchemaNode, error) {
	return ParseWithOptions(input, DefaultReaderOptions())
}

// ParseReader parses CSV format into an AST from an io.Reader.
//
// The reader can be any io.Reader implementation:
//   - os.File for reading from files
//   - strings.Reader for reading from strings
//   - Network streams, compressed streams, etc.
//
// The input is tokenized as it is read, but the whole tree is kept in
// memory. Use Reader to process large inputs row by row.
func ParseReader(reader io.Reader) (ast.SchemaNode, error) {
	return ParseReaderWithOptions(reader, DefaultReaderOptions())
}

// Format returns the format identifier for this parser.
// Returns "CSV" to identify this as the CSV data format parser.
func Format() string {
	return "CSV"
}

// Validate checks if the input string is valid CSV.
//
// Validation tokenizes the input line by line without building an AST.
//
//	if err := csv.Validate(input); err != nil {
//	    fmt.Println("Invalid CSV:", err)
//	}
//
// Valid CSV includes:
//   - Simple fields: name,age
//   - Quoted fields: "name","age"
//   - Empty fields: a,,c
//   - Escaped quotes: "field with ""quotes"""
//   - Newlines in quoted fields: "field\nwith\nnewlines"
func Validate(input string) error {
	return ValidateWithOptions(input, DefaultReaderOptions())
}

// ValidateReader checks if the input from an io.Reader is valid CSV.
// The input is validated as it streams; it is never held in memory whole.
func ValidateReader(reader io.Reader) error {
	return ValidateReaderWithOptions(reader, DefaultReaderOptions())
}
