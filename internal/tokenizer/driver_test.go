package tokenizer

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/frk/compare"
)

// drain collects simplified tokens up to and including the first EndOfFile.
func drain(t *testing.T, d *Driver) []Token {
	t.Helper()
	var out []Token
	for i := 0; i < 10000; i++ {
		tok, err := d.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		out = append(out, tok)
		if tok.Kind == TokenEndOfFile {
			return out
		}
	}
	t.Fatal("no EndOfFile after 10000 tokens")
	return nil
}

func TestDriver_Next(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Token
	}{
		{
			name:  "CRLF between records, EOF after last field",
			input: "a,b\r\nc,d",
			want: []Token{
				FieldToken("a"), FieldToken("b"), EndOfLineToken(),
				FieldToken("c"), FieldToken("d"), EndOfFileToken(),
			},
		},
		{
			name:  "field fused with EOF has no synthetic EndOfLine",
			input: "value",
			want:  []Token{FieldToken("value"), EndOfFileToken()},
		},
		{
			name:  "terminated last line",
			input: "a\n",
			want:  []Token{FieldToken("a"), EndOfLineToken(), EndOfFileToken()},
		},
		{
			name:  "empty input",
			input: "",
			want:  []Token{EndOfFileToken()},
		},
		{
			name:  "escaped quote",
			input: "a,\"b\"\"c\",d\n",
			want: []Token{
				FieldToken("a"), FieldToken(`b"c`), FieldToken("d"),
				EndOfLineToken(), EndOfFileToken(),
			},
		},
		{
			name:  "empty lines",
			input: "\n\r\n",
			want:  []Token{EndOfLineToken(), EndOfLineToken(), EndOfFileToken()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewStringDriver(tt.input, ',')
			if err != nil {
				t.Fatalf("NewStringDriver() error = %v", err)
			}
			if e := compare.Compare(drain(t, d), tt.want); e != nil {
				t.Error(e)
			}
		})
	}
}

func TestDriver_EndOfFileIsIdempotent(t *testing.T) {
	d, _ := NewStringDriver("x", ',')
	drain(t, d)
	for i := 0; i < 3; i++ {
		tok, err := d.Next()
		if err != nil {
			t.Fatalf("Next() after EOF error = %v", err)
		}
		if tok.Kind != TokenEndOfFile {
			t.Fatalf("Next() after EOF = %s, want EndOfFile", tok)
		}
	}
}

func TestDriver_NextRaw(t *testing.T) {
	d, _ := NewStringDriver("a,b\nc", ',')
	var got []RawToken
	for {
		tok, err := d.NextRaw()
		if err != nil {
			t.Fatalf("NextRaw() error = %v", err)
		}
		got = append(got, tok)
		if tok.Kind == RawEndOfFile || tok.Kind == RawEndOfFileField {
			break
		}
	}
	want := []RawToken{
		{Kind: RawField, Value: "a"},
		{Kind: RawEndOfLineField, Value: "b"},
		{Kind: RawEndOfFileField, Value: "c"},
	}
	if e := compare.Compare(got, want); e != nil {
		t.Error(e)
	}
	if tok, err := d.NextRaw(); err != nil || tok.Kind != RawEndOfFile {
		t.Errorf("NextRaw() after EOF = %v, %v", tok, err)
	}
}

func TestDriver_NextRawWhilePending(t *testing.T) {
	d, _ := NewStringDriver("a\n", ',')
	if _, err := d.Next(); err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if _, err := d.NextRaw(); !errors.Is(err, ErrInterleaved) {
		t.Errorf("NextRaw() error = %v, want ErrInterleaved", err)
	}
}

func TestDriver_FieldCount(t *testing.T) {
	d, _ := NewStringDriver("a,b,c\nd\n", ',')
	var counts []int
	for {
		tok, err := d.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if tok.Kind == TokenEndOfLine {
			counts = append(counts, d.FieldCount())
		}
		if tok.Kind == TokenEndOfFile {
			break
		}
	}
	if e := compare.Compare(counts, []int{3, 1}); e != nil {
		t.Error(e)
	}
}

func TestDriver_ErrorPosition(t *testing.T) {
	d, _ := NewStringDriver("a,b\nc,\"x\"y\n", ',')
	var err error
	for err == nil {
		_, err = d.Next()
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %T %v, want *ParseError", err, err)
	}
	if !errors.Is(err, ErrAfterQuote) {
		t.Errorf("error = %v, want ErrAfterQuote", err)
	}
	if pe.Line != 2 || pe.Column != 6 || pe.StartLine != 2 {
		t.Errorf("position = line %d col %d start %d, want line 2 col 6 start 2",
			pe.Line, pe.Column, pe.StartLine)
	}
	if _, again := d.Next(); again != err {
		t.Errorf("error is not sticky: %v", again)
	}
	if d.State() != StateError {
		t.Errorf("State() = %s, want Error", d.State())
	}
}

func TestDriver_MultilineRecordStartLine(t *testing.T) {
	d, _ := NewStringDriver("\"a\nb\nc", ',')
	var err error
	for err == nil {
		_, err = d.Next()
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if !errors.Is(err, ErrUnterminatedQuote) {
		t.Errorf("error = %v, want ErrUnterminatedQuote", err)
	}
	if pe.StartLine != 1 || pe.Line != 3 {
		t.Errorf("StartLine = %d, Line = %d; want 1, 3", pe.StartLine, pe.Line)
	}
	if !strings.Contains(pe.Error(), "started line 1") {
		t.Errorf("Error() = %q", pe.Error())
	}
}

func TestDriver_RejectsNUL(t *testing.T) {
	d, _ := NewStringDriver("a\x00b", ',')
	var err error
	for err == nil {
		_, err = d.Next()
	}
	if !errors.Is(err, ErrNUL) {
		t.Errorf("error = %v, want ErrNUL", err)
	}
}

func TestDriver_RejectsInvalidUTF8(t *testing.T) {
	input := "h\nab,c\xffd\n"
	drivers := map[string]func() (*Driver, error){
		"string": func() (*Driver, error) { return NewStringDriver(input, ',') },
		"reader": func() (*Driver, error) { return NewReaderDriver(strings.NewReader(input), ',') },
	}
	for name, newDriver := range drivers {
		t.Run(name, func(t *testing.T) {
			d, err := newDriver()
			if err != nil {
				t.Fatalf("new driver: %v", err)
			}
			var fields []string
			for err == nil {
				var tok Token
				tok, err = d.Next()
				if tok.Kind == TokenField {
					fields = append(fields, tok.Value)
				}
				if tok.Kind == TokenEndOfFile {
					t.Fatal("invalid UTF-8 reached EndOfFile")
				}
			}
			if !errors.Is(err, ErrInvalidUTF8) {
				t.Fatalf("error = %v, want ErrInvalidUTF8", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not a *ParseError", err)
			}
			if pe.Line != 2 || pe.Column != 5 || pe.StartLine != 2 {
				t.Errorf("position = %d:%d (start %d), want 2:5 (start 2)", pe.Line, pe.Column, pe.StartLine)
			}
			if d.Offset() != len("h\nab,c") {
				t.Errorf("Offset() = %d, want %d", d.Offset(), len("h\nab,c"))
			}
			if e := compare.Compare(fields, []string{"h", "ab"}); e != nil {
				t.Error(e)
			}
		})
	}
}

func TestDriver_ReplacementCharIsData(t *testing.T) {
	d, _ := NewStringDriver("\uFFFD,x\n", ',')
	want := []Token{FieldToken("\uFFFD"), FieldToken("x"), EndOfLineToken(), EndOfFileToken()}
	if e := compare.Compare(drain(t, d), want); e != nil {
		t.Error(e)
	}
	if d.Offset() != len("\uFFFD,x\n") {
		t.Errorf("Offset() = %d, want %d", d.Offset(), len("\uFFFD,x\n"))
	}
}

func TestDriver_Positions(t *testing.T) {
	d, _ := NewStringDriver("ab,ü\ncd", ',')
	for i := 0; i < 3; i++ { // "ab", "ü", EndOfLine
		if _, err := d.Next(); err != nil {
			t.Fatalf("Next() error = %v", err)
		}
	}
	if d.Line() != 2 || d.Column() != 1 {
		t.Errorf("after first line: line %d col %d", d.Line(), d.Column())
	}
	if d.Offset() != len("ab,ü\n") {
		t.Errorf("Offset() = %d, want %d", d.Offset(), len("ab,ü\n"))
	}
	drain(t, d)
	if d.RecordLine() != 2 {
		t.Errorf("RecordLine() = %d, want 2", d.RecordLine())
	}
}

type failingReader struct{ n int }

var errBoom = errors.New("boom")

func (f *failingReader) Read(p []byte) (int, error) {
	if f.n == 0 {
		f.n++
		return copy(p, "a,b"), nil
	}
	return 0, errBoom
}

// allTokens collects simplified tokens up to and including EndOfFile.
func allTokens(t *testing.T, d *Driver) []Token {
	t.Helper()
	var out []Token
	for {
		tok, err := d.Next()
		if err != nil {
			t.Fatalf("Next() error = %v after %d tokens", err, len(out))
		}
		out = append(out, tok)
		if tok.Kind == TokenEndOfFile {
			return out
		}
	}
}

func TestReaderDriver_ShortReads(t *testing.T) {
	tests := []struct {
		name  string
		input string
		wrap  func(io.Reader) io.Reader
	}{
		{"one byte", "name\nJosé\nMüller\n", iotest.OneByteReader},
		{"rune across 8192", "h\n" + strings.Repeat("a", 8189) + "é\n", iotest.HalfReader},
		{"past the window", strings.Repeat("ü,é,€,x\n", 20000), iotest.HalfReader},
		{"data with error", "a,é\nb,ü", iotest.DataErrReader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sd, _ := NewStringDriver(tt.input, ',')
			want := allTokens(t, sd)

			rd, err := NewReaderDriver(tt.wrap(strings.NewReader(tt.input)), ',')
			if err != nil {
				t.Fatalf("NewReaderDriver() error = %v", err)
			}
			got := allTokens(t, rd)
			if len(got) != len(want) {
				t.Fatalf("got %d tokens, want %d", len(got), len(want))
			}
			if e := compare.Compare(got, want); e != nil {
				t.Error(e)
			}
			if rd.Offset() != len(tt.input) {
				t.Errorf("Offset() = %d, want %d", rd.Offset(), len(tt.input))
			}
		})
	}
}

func TestReaderDriver(t *testing.T) {
	d, err := NewReaderDriver(strings.NewReader("x,y\n1,2\n"), ',')
	if err != nil {
		t.Fatalf("NewReaderDriver() error = %v", err)
	}
	want := []Token{
		FieldToken("x"), FieldToken("y"), EndOfLineToken(),
		FieldToken("1"), FieldToken("2"), EndOfLineToken(),
		EndOfFileToken(),
	}
	if e := compare.Compare(drain(t, d), want); e != nil {
		t.Error(e)
	}

	d, _ = NewReaderDriver(&failingReader{}, ',')
	for err == nil {
		var tok Token
		tok, err = d.Next()
		if tok.Kind == TokenEndOfFile {
			t.Fatal("read error swallowed as EndOfFile")
		}
	}
	if !errors.Is(err, errBoom) || errors.Is(err, io.EOF) {
		t.Errorf("error = %v, want boom", err)
	}
}
