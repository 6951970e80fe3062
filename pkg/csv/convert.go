package csv

import (
	"fmt"

	"github.com/shapestone/shape-core/pkg/ast"
)

// NodeToRecords converts an AST produced by Parse into records.
// A single record node is returned as one record; anything else that is not
// an array of records yields an empty result.
//
// Example:
//
//	node, _ := csv.Parse("name,age\nAlice,30\n")
//	records := csv.NodeToRecords(node)
//	// records is [][]string{{"name","age"}, {"Alice","30"}}
func NodeToRecords(node ast.SchemaNode) [][]string {
	arr, ok := node.(*ast.ArrayDataNode)
	if !ok {
		return [][]string{}
	}
	elements := arr.Elements()
	if len(elements) == 0 {
		return [][]string{}
	}
	if _, single := elements[0].(*ast.LiteralNode); single {
		fields, err := recordFields(arr)
		if err != nil {
			return [][]string{}
		}
		return [][]string{fields}
	}

	records := make([][]string, 0, len(elements))
	for _, elem := range elements {
		record, ok := elem.(*ast.ArrayDataNode)
		if !ok {
			return [][]string{}
		}
		fields, err := recordFields(record)
		if err != nil {
			return [][]string{}
		}
		records = append(records, fields)
	}
	return records
}

// RecordsToNode converts records into the AST shape Parse produces. The nodes
// carry zero positions.
//
// Example:
//
//	records := [][]string{
//	    {"name", "age"},
//	    {"Alice", "30"},
//	}
//	node, _ := csv.RecordsToNode(records)
func RecordsToNode(records [][]string) (ast.SchemaNode, error) {
	nodes := make([]ast.SchemaNode, len(records))
	for i, record := range records {
		if record == nil {
			return nil, fmt.Errorf("record %d is nil", i)
		}
		fields := make([]ast.SchemaNode, len(record))
		for j, v := range record {
			fields[j] = ast.NewLiteralNode(v, ast.ZeroPosition())
		}
		nodes[i] = ast.NewArrayDataNode(fields, ast.ZeroPosition())
	}
	return ast.NewArrayDataNode(nodes, ast.ZeroPosition()), nil
}
