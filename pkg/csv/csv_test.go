package csv_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/frk/compare"
	"github.com/shapestone/shape-core/pkg/ast"
	"github.com/shapestone/shape-csvstream/pkg/csv"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "header and rows",
			input: "name,age\nAlice,30\nBob,25",
			want:  [][]string{{"name", "age"}, {"Alice", "30"}, {"Bob", "25"}},
		},
		{
			name:  "escaped quote",
			input: "a,\"b\"\"c\",d\n",
			want:  [][]string{{"a", `b"c`, "d"}},
		},
		{
			name:  "empty lines skipped",
			input: "a\n\n\r\nb\n",
			want:  [][]string{{"a"}, {"b"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := csv.Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if e := compare.Compare(csv.NodeToRecords(node), tt.want); e != nil {
				t.Error(e)
			}

			node, err = csv.ParseReader(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ParseReader() error = %v", err)
			}
			if e := compare.Compare(csv.NodeToRecords(node), tt.want); e != nil {
				t.Error(e)
			}
		})
	}
}

func TestParseWithOptions(t *testing.T) {
	opts := csv.DefaultReaderOptions()
	opts.Comma = ';'
	node, err := csv.ParseWithOptions("a;b\n1;2\n", opts)
	if err != nil {
		t.Fatalf("ParseWithOptions() error = %v", err)
	}
	if e := compare.Compare(csv.NodeToRecords(node), [][]string{{"a", "b"}, {"1", "2"}}); e != nil {
		t.Error(e)
	}

	opts = csv.DefaultReaderOptions()
	opts.FieldsPerRecord = 0
	if _, err := csv.ParseWithOptions("a,b\n1\n", opts); !errors.Is(err, csv.ErrFieldCount) {
		t.Errorf("FieldsPerRecord=0 error = %v, want ErrFieldCount", err)
	}
	opts.FieldsPerRecord = 3
	if _, err := csv.ParseReaderWithOptions(strings.NewReader("a,b,c\n1,2\n"), opts); !errors.Is(err, csv.ErrFieldCount) {
		t.Errorf("FieldsPerRecord=3 error = %v, want ErrFieldCount", err)
	}

	opts.Comma = '\r'
	var oe *csv.OptionsError
	if _, err := csv.ParseWithOptions("a", opts); !errors.As(err, &oe) {
		t.Errorf("invalid Comma error = %v, want *OptionsError", err)
	}
}

func TestParse_Positions(t *testing.T) {
	node, err := csv.Parse("a,b\nc,\"d\"\n")
	if err != nil {
		t.Fatal(err)
	}
	records := node.(*ast.ArrayDataNode).Elements()
	second := records[1].(*ast.ArrayDataNode).Elements()
	if got, want := second[1].Position().String(), ast.NewPosition(6, 2, 3).String(); got != want {
		t.Errorf("position of d = %s, want %s", got, want)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		errIs error
	}{
		{name: "simple", input: "name,age\nAlice,30"},
		{name: "quoted newline", input: "\"field\nwith\nnewlines\",x\n"},
		{name: "empty fields", input: "a,,c\n"},
		{name: "bare quote", input: "a\"b\n", errIs: csv.ErrQuote},
		{name: "after quote", input: "\"a\"b\n", errIs: csv.ErrAfterQuote},
		{name: "unterminated", input: "\"abc", errIs: csv.ErrUnterminatedQuote},
		{name: "bare CR", input: "a\rb\n", errIs: csv.ErrBareCR},
		{name: "NUL", input: "a\x00\n", errIs: csv.ErrNUL},
		{name: "invalid UTF-8", input: "h\na\xffb\n", errIs: csv.ErrInvalidUTF8},
		{name: "truncated UTF-8", input: "h\nJos\xc3", errIs: csv.ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, err := range []error{
				csv.Validate(tt.input),
				csv.ValidateReader(strings.NewReader(tt.input)),
			} {
				if tt.errIs == nil {
					if err != nil {
						t.Errorf("error = %v, want nil", err)
					}
					continue
				}
				if !errors.Is(err, tt.errIs) {
					t.Errorf("error = %v, want %v", err, tt.errIs)
				}
				var pe *csv.ParseError
				if !errors.As(err, &pe) {
					t.Errorf("error %T is not a *ParseError", err)
				}
			}
		})
	}
}

func TestValidateWithOptions(t *testing.T) {
	opts := csv.DefaultReaderOptions()
	opts.Comma = ';'
	if err := csv.ValidateWithOptions("a;b;c", opts); err != nil {
		t.Errorf("ValidateWithOptions() error = %v", err)
	}
	if err := csv.ValidateWithOptions("\"a\";\"b\"", csv.DefaultReaderOptions()); !errors.Is(err, csv.ErrAfterQuote) {
		t.Errorf("ValidateWithOptions(comma) error = %v, want ErrAfterQuote", err)
	}
}

func TestRender(t *testing.T) {
	records := [][]string{
		{"name", "note"},
		{"Alice", "likes, commas"},
		{"Bob", "says \"hi\""},
		{" pad", ""},
	}
	node, err := csv.RecordsToNode(records)
	if err != nil {
		t.Fatal(err)
	}

	out, err := csv.Render(node)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := "name,note\nAlice,\"likes, commas\"\nBob,\"says \"\"hi\"\"\"\n\" pad\",\n"
	if string(out) != want {
		t.Errorf("Render() = %q, want %q", out, want)
	}

	back, err := csv.Parse(string(out))
	if err != nil {
		t.Fatal(err)
	}
	if e := compare.Compare(csv.NodeToRecords(back), records); e != nil {
		t.Error(e)
	}
}

func TestRenderWithOptions(t *testing.T) {
	node, _ := csv.RecordsToNode([][]string{{"a", "b;c"}, {""}})
	out, err := csv.RenderWithOptions(node, csv.WriterOptions{Comma: ';', UseCRLF: true})
	if err != nil {
		t.Fatalf("RenderWithOptions() error = %v", err)
	}
	if want := "a;\"b;c\"\r\n\"\"\r\n"; string(out) != want {
		t.Errorf("RenderWithOptions() = %q, want %q", out, want)
	}

	if _, err := csv.RenderWithOptions(node, csv.WriterOptions{Comma: '"'}); err == nil {
		t.Error("RenderWithOptions(invalid comma) error = nil")
	}
}

func TestRender_Nodes(t *testing.T) {
	if out, err := csv.Render(nil); err != nil || len(out) != 0 {
		t.Errorf("Render(nil) = %q, %v", out, err)
	}

	lit := ast.NewLiteralNode("x,y", ast.ZeroPosition())
	if out, _ := csv.Render(lit); string(out) != "\"x,y\"\n" {
		t.Errorf("Render(literal) = %q", out)
	}

	record := ast.NewArrayDataNode([]ast.SchemaNode{
		ast.NewLiteralNode("a", ast.ZeroPosition()),
		ast.NewLiteralNode(int64(42), ast.ZeroPosition()),
	}, ast.ZeroPosition())
	if out, _ := csv.Render(record); string(out) != "a,42\n" {
		t.Errorf("Render(record) = %q", out)
	}

	bad := ast.NewArrayDataNode([]ast.SchemaNode{lit}, ast.ZeroPosition())
	nested := ast.NewArrayDataNode([]ast.SchemaNode{record, bad, lit}, ast.ZeroPosition())
	if _, err := csv.Render(nested); err == nil {
		t.Error("Render(mixed file) error = nil")
	}
}

func TestFormat(t *testing.T) {
	if csv.Format() != "CSV" {
		t.Errorf("Format() = %q", csv.Format())
	}
}
