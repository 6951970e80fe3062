// Command csvdump prints how the CSV tokenizer sees its input.
//
// Usage:
//
//	csvdump [-mode raw|tokens|lines] [-sep ,] [file]
//
// With no file argument csvdump reads standard input. Mode raw prints the
// state machine's low-level tokens, tokens prints the simplified token
// stream, and lines prints each assembled line with the line it starts on.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("csvdump: ")
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("%v", err)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("csvdump", flag.ContinueOnError)
	mode := fs.String("mode", "tokens", "what to print: raw, tokens or lines")
	sep := fs.String("sep", ",", `field separator; "\t" or "tab" for a tab`)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("at most one file argument, got %d", fs.NArg())
	}

	comma, err := parseSeparator(*sep)
	if err != nil {
		return err
	}

	src := stdin
	if fs.NArg() == 1 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	d, err := tokenizer.NewReaderDriver(src, comma)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(stdout)
	switch *mode {
	case "raw":
		err = dumpRaw(d, out)
	case "tokens":
		err = dumpTokens(d, out)
	case "lines":
		err = dumpLines(d, out)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	return err
}

func parseSeparator(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) {
		return 0, fmt.Errorf("separator must be a single character, got %q", s)
	}
	return r, nil
}

func dumpRaw(d *tokenizer.Driver, w io.Writer) error {
	for {
		line, col := d.Line(), d.Column()
		tok, err := d.NextRaw()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d:%d\t%s\n", line, col, tok)
		if tok.Kind == tokenizer.RawEndOfFile || tok.Kind == tokenizer.RawEndOfFileField {
			return nil
		}
	}
}

func dumpTokens(d *tokenizer.Driver, w io.Writer) error {
	for {
		line, col := d.Line(), d.Column()
		tok, err := d.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d:%d\t%s\n", line, col, tok)
		if tok.Kind == tokenizer.TokenEndOfFile {
			return nil
		}
	}
}

func dumpLines(d *tokenizer.Driver, w io.Writer) error {
	lines := parser.NewLines(d, parser.LineOptions{})
	for lines.Scan() {
		buf := lines.Buffer()
		fmt.Fprintf(w, "%d\t%d", d.RecordLine(), buf.Len())
		for i := 0; i < buf.Len(); i++ {
			v, _ := buf.Get(i)
			fmt.Fprintf(w, "\t%s", strconv.Quote(v))
		}
		fmt.Fprintln(w)
	}
	return lines.Err()
}
