// Package parser assembles the token stream of internal/tokenizer into
// lines, and folds lines into Shape's AST.
package parser

import (
	"io"

	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// Options configures the parser behavior.
type Options struct {
	// Comma is the field delimiter. Default: ','
	Comma rune
	// SkipEmptyLines drops lines with no fields. Default: true
	SkipEmptyLines bool
	// FieldCount validates the number of fields per record. Default: AnyFieldCount()
	FieldCount FieldCountPolicy
}

// DefaultOptions returns default parser options.
func DefaultOptions() Options {
	return Options{
		Comma:          ',',
		SkipEmptyLines: true,
		FieldCount:     AnyFieldCount(),
	}
}

// Parser builds an AST from a CSV token stream.
type Parser struct {
	src  *positionSource
	opts Options
}

// NewParser creates a parser for the given input string with default options.
func NewParser(input string) (*Parser, error) {
	return NewParserWithOptions(input, DefaultOptions())
}

// NewParserWithOptions creates a parser for the given input string.
func NewParserWithOptions(input string, opts Options) (*Parser, error) {
	d, err := tokenizer.NewStringDriver(input, opts.Comma)
	if err != nil {
		return nil, err
	}
	return NewParserFromDriver(d, opts), nil
}

// NewParserFromReader creates a parser reading from r.
func NewParserFromReader(r io.Reader, opts Options) (*Parser, error) {
	d, err := tokenizer.NewReaderDriver(r, opts.Comma)
	if err != nil {
		return nil, err
	}
	return NewParserFromDriver(d, opts), nil
}

// NewParserFromDriver creates a parser over an existing driver. opts.Comma
// is ignored; the driver's separator applies.
func NewParserFromDriver(d *tokenizer.Driver, opts Options) *Parser {
	return &Parser{src: &positionSource{d: d}, opts: opts}
}

// Parse reads the whole stream and returns an *ast.ArrayDataNode of records,
// where each record is an *ast.ArrayDataNode of *ast.LiteralNode fields
// holding string values. Each node carries the position where it starts.
func (p *Parser) Parse() (ast.SchemaNode, error) {
	records := make([]ast.SchemaNode, 0, 16)
	lines := NewLines(p.src, LineOptions{
		SkipEmpty:  p.opts.SkipEmptyLines,
		FieldCount: p.opts.FieldCount,
	})

	for {
		p.src.resetLine()
		if !lines.Scan() {
			break
		}
		buf := lines.Buffer()
		fields := make([]ast.SchemaNode, buf.Len())
		for i := range fields {
			value, _ := buf.Get(i)
			fields[i] = ast.NewLiteralNode(value, p.src.fieldPos(i))
		}
		records = append(records, ast.NewArrayDataNode(fields, p.src.linePos()))
	}
	if err := lines.Err(); err != nil {
		return nil, err
	}

	return ast.NewArrayDataNode(records, ast.ZeroPosition()), nil
}

// positionSource records where each field of the current line starts.
// The driver's position before a pull is the start of the field that pull
// returns; a deferred terminator never moves it.
type positionSource struct {
	d       *tokenizer.Driver
	starts  []ast.Position
	first   ast.Position
	started bool
}

func (s *positionSource) Next() (tokenizer.Token, error) {
	pos := ast.NewPosition(s.d.Offset(), s.d.Line(), s.d.Column())
	tok, err := s.d.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind == tokenizer.TokenField {
		if len(s.starts) == 0 {
			s.first = pos
		}
		s.starts = append(s.starts, pos)
	} else if !s.started && len(s.starts) == 0 {
		s.first = pos
	}
	s.started = true
	return tok, nil
}

func (s *positionSource) RecordLine() int {
	return s.d.RecordLine()
}

func (s *positionSource) resetLine() {
	s.starts = s.starts[:0]
	s.started = false
}

func (s *positionSource) fieldPos(i int) ast.Position {
	if i < len(s.starts) {
		return s.starts[i]
	}
	return ast.ZeroPosition()
}

func (s *positionSource) linePos() ast.Position {
	return s.first
}
