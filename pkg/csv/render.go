package csv

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// Render converts an AST node to CSV bytes.
//
// The node should be the result of Parse() or ParseReader(): an
// *ast.ArrayDataNode of records, each an *ast.ArrayDataNode of
// *ast.LiteralNode fields. A single record or a single literal renders too.
//
// Fields are quoted with the same rule QuoteField applies, so Render output
// parses back to the same records.
//
// Example:
//
//	node, _ := csv.Parse("name,age\nAlice,30\nBob,25\n")
//	bytes, _ := csv.Render(node)
//	// bytes: name,age\nAlice,30\nBob,25\n
func Render(node ast.SchemaNode) ([]byte, error) {
	return renderWithOptions(node, DefaultWriterOptions())
}

func renderWithOptions(node ast.SchemaNode, opts WriterOptions) ([]byte, error) {
	if node == nil {
		return []byte{}, nil
	}

	switch n := node.(type) {
	case *ast.ArrayDataNode:
		return renderArrayData(n, opts)
	case *ast.LiteralNode:
		return appendRow(nil, []string{literalString(n)}, opts), nil
	default:
		return nil, fmt.Errorf("unsupported node type for CSV rendering: %T", node)
	}
}

// renderArrayData handles both the file level (array of records) and the
// record level (array of fields).
func renderArrayData(node *ast.ArrayDataNode, opts WriterOptions) ([]byte, error) {
	elements := node.Elements()
	if len(elements) == 0 {
		return []byte{}, nil
	}

	if _, ok := elements[0].(*ast.LiteralNode); ok {
		fields, err := recordFields(node)
		if err != nil {
			return nil, err
		}
		return appendRow(nil, fields, opts), nil
	}

	var out []byte
	for _, elem := range elements {
		record, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return nil, fmt.Errorf("unexpected element type in array: %T", elem)
		}
		fields, err := recordFields(record)
		if err != nil {
			return nil, err
		}
		out = appendRow(out, fields, opts)
	}
	return out, nil
}

func recordFields(record *ast.ArrayDataNode) ([]string, error) {
	elements := record.Elements()
	fields := make([]string, len(elements))
	for i, elem := range elements {
		lit, ok := elem.(*ast.LiteralNode)
		if !ok {
			return nil, fmt.Errorf("unexpected element type in record: %T", elem)
		}
		fields[i] = literalString(lit)
	}
	return fields, nil
}

// literalString returns the field text of a literal. CSV fields are strings;
// other values are formatted with %v.
func literalString(node *ast.LiteralNode) string {
	switch v := node.Value().(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
