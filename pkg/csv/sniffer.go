package csv

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shapestone/shape-csvstream/internal/parser"
	"github.com/shapestone/shape-csvstream/internal/tokenizer"
)

// sniffCandidates are the delimiters a Sniffer considers, in order of
// preference when scores tie.
var sniffCandidates = []rune{',', '\t', ';', '|'}

// sniffLines is the number of lines of a sample a Sniffer looks at.
const sniffLines = 20

var (
	headerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`),       // snake_case or identifier
		regexp.MustCompile(`^[a-zA-Z]+[A-Z][a-zA-Z]*$`),      // camelCase
		regexp.MustCompile(`^[A-Z][a-z]+([ ][A-Z][a-z]+)*$`), // Title Case
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`),
	}
)

// Sniffer guesses the dialect of a CSV sample: its delimiter and whether the
// first line is a header.
//
// Candidate delimiters are tried by tokenizing the sample with each of them;
// the one giving the most fields at the most consistent count wins. A sample
// that ends mid-line should be cut at its last line break first, otherwise
// the partial last line counts against every candidate equally.
type Sniffer struct {
	sample    string
	delimiter rune
	lines     [][]string
	hasHeader bool
	analyzed  bool
}

// NewSniffer creates a new Sniffer with a sample of CSV data.
// For best results, provide at least 2-3 lines of data.
func NewSniffer(sample string) *Sniffer {
	return &Sniffer{sample: sample}
}

func (s *Sniffer) analyze() {
	if s.analyzed {
		return
	}
	s.analyzed = true
	s.delimiter = ','

	bestScore := 0
	for _, delim := range sniffCandidates {
		lines := splitSample(s.sample, delim)
		if score := consistencyScore(lines); score > bestScore {
			s.delimiter = delim
			s.lines = lines
			bestScore = score
		}
	}
	if s.lines == nil {
		s.lines = splitSample(s.sample, s.delimiter)
	}
	s.hasHeader = detectHeader(s.lines)
}

// DetectDelimiter returns the detected field delimiter, or ',' when no
// candidate splits the sample.
// Common delimiters checked: comma, tab, semicolon, pipe.
func (s *Sniffer) DetectDelimiter() rune {
	s.analyze()
	return s.delimiter
}

// HasHeader returns true if the first row appears to be a header.
func (s *Sniffer) HasHeader() bool {
	s.analyze()
	return s.hasHeader
}

// splitSample tokenizes up to sniffLines non-empty lines of sample. Lines
// before a parse error are kept; the failing one is not.
func splitSample(sample string, delim rune) [][]string {
	d, err := tokenizer.NewStringDriver(sample, delim)
	if err != nil {
		return nil
	}
	lines := parser.NewLines(d, parser.LineOptions{SkipEmpty: true})
	var out [][]string
	for len(out) < sniffLines && lines.Scan() {
		out = append(out, lines.Buffer().Fields())
	}
	return out
}

// consistencyScore rates how well lines look like a table. Only lines with
// the first line's field count add to the score, and a perfectly
// rectangular table gets a bonus.
func consistencyScore(lines [][]string) int {
	if len(lines) == 0 || len(lines[0]) < 2 {
		return 0
	}
	width := len(lines[0])
	matched := 0
	for _, line := range lines {
		if len(line) == width {
			matched++
		}
	}
	score := (width - 1) * matched
	if matched == len(lines) {
		score *= 10
	}
	return score
}

// detectHeader uses heuristics to determine if the first line is a header:
// header names are identifiers or titles, data is numbers, dates, emails.
func detectHeader(lines [][]string) bool {
	if len(lines) < 2 {
		return false
	}

	headerScore := 0
	dataScore := 0
	for _, field := range lines[0] {
		field = strings.TrimSpace(field)
		if isLikelyHeader(field) {
			headerScore++
		}
		if isLikelyData(field) {
			dataScore++
		}
	}
	return headerScore > dataScore
}

func isLikelyHeader(s string) bool {
	if s == "" || isNumeric(s) {
		return false
	}
	for _, pattern := range headerPatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

func isLikelyData(s string) bool {
	if s == "" {
		return false
	}
	if isNumeric(s) || strings.Contains(s, "@") {
		return true
	}
	for _, pattern := range datePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// isNumeric reports whether s is an optionally negative decimal number.
func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}

	hasDot := false
	for _, ch := range s {
		switch {
		case ch == '.' && !hasDot:
			hasDot = true
		case !unicode.IsDigit(ch):
			return false
		}
	}
	return s != "."
}

// HeaderConverter is a function that transforms header names before they are
// registered with a Reader's column mapper.
type HeaderConverter func(string) string

// LowercaseHeader converts headers to lowercase.
func LowercaseHeader(s string) string {
	return strings.ToLower(s)
}

// UppercaseHeader converts headers to uppercase.
func UppercaseHeader(s string) string {
	return strings.ToUpper(s)
}

// SnakeCaseHeader converts headers to snake_case.
// "First Name" and "firstName" both become "first_name".
func SnakeCaseHeader(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, ch := range strings.TrimSpace(s) {
		switch {
		case ch == ' ' || ch == '-':
			pendingSep = b.Len() > 0
			continue
		case unicode.IsUpper(ch) && b.Len() > 0:
			pendingSep = true
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(unicode.ToLower(ch))
	}
	return b.String()
}
