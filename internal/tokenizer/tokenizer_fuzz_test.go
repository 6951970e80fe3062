//go:build go1.18
// +build go1.18

package tokenizer

import (
	"testing"
)

// FuzzDriver feeds random input through the driver. It must never panic, must
// terminate, and once stopped must stay stopped.
// Run with: go test -fuzz=FuzzDriver -fuzztime=30s ./internal/tokenizer
func FuzzDriver(f *testing.F) {
	seeds := []string{
		"",
		"a",
		",",
		"\n",
		"\r\n",
		"\r",
		"\"",
		"\"\"",
		"a,b,c",
		"\"quoted\"",
		"\"with,comma\"",
		"\"with\"\"quote\"",
		"a\nb\nc",
		"a\r\r\nb",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		d, err := NewStringDriver(input, ',')
		if err != nil {
			t.Fatal(err)
		}
		// Every character yields at most one simplified token plus one
		// deferred terminator.
		limit := 2*len(input) + 2
		for i := 0; ; i++ {
			if i > limit {
				t.Fatalf("no end of file after %d tokens", i)
			}
			tok, err := d.Next()
			if err != nil {
				if _, again := d.Next(); again == nil {
					t.Fatal("error was not sticky")
				}
				return
			}
			if tok.Kind == TokenEndOfFile {
				if tok, _ := d.Next(); tok.Kind != TokenEndOfFile {
					t.Fatalf("after EOF got %s", tok)
				}
				return
			}
		}
	})
}
