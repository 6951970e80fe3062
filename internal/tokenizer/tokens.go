// Package tokenizer implements the character-driven CSV state machine and the
// stream driver that turns its output into a simplified token stream.
package tokenizer

import "strconv"

// RawKind identifies a low-level token produced by the state machine.
//
// A low-level token may fuse a field value with the terminator that ended it,
// so a single character can report "field b, then end of line".
type RawKind string

// Low-level token kinds.
const (
	RawNone           RawKind = "None"           // character consumed, nothing to report
	RawField          RawKind = "Field"          // field followed by a separator
	RawEndOfLineField RawKind = "EndOfLineField" // field followed by end of line
	RawEndOfFileField RawKind = "EndOfFileField" // field followed by end of file
	RawEndOfLine      RawKind = "EndOfLine"      // bare end of line
	RawEndOfFile      RawKind = "EndOfFile"      // bare end of file
)

// RawToken is the value emitted by Machine.Next.
type RawToken struct {
	Kind  RawKind
	Value string
}

// HasField reports whether the token carries a field value.
func (t RawToken) HasField() bool {
	switch t.Kind {
	case RawField, RawEndOfLineField, RawEndOfFileField:
		return true
	}
	return false
}

// String returns a readable form used by the diagnostic CLI.
func (t RawToken) String() string {
	if t.HasField() {
		return string(t.Kind) + "(" + strconv.Quote(t.Value) + ")"
	}
	return string(t.Kind)
}

// Kind identifies a simplified token. Each simplified token carries exactly
// one semantic event.
type Kind string

// Simplified token kinds.
const (
	TokenField     Kind = "Field"
	TokenEndOfLine Kind = "EndOfLine"
	TokenEndOfFile Kind = "EndOfFile"
)

// Token is the value returned by Driver.Next. Value is only meaningful for
// TokenField.
type Token struct {
	Kind  Kind
	Value string
}

// String returns a readable form used by the diagnostic CLI.
func (t Token) String() string {
	if t.Kind == TokenField {
		return "Field(" + strconv.Quote(t.Value) + ")"
	}
	return string(t.Kind)
}

// FieldToken returns a TokenField carrying value.
func FieldToken(value string) Token {
	return Token{Kind: TokenField, Value: value}
}

var (
	endOfLine = Token{Kind: TokenEndOfLine}
	endOfFile = Token{Kind: TokenEndOfFile}
)

// EndOfLineToken returns the simplified end-of-line token.
func EndOfLineToken() Token { return endOfLine }

// EndOfFileToken returns the simplified end-of-file token.
func EndOfFileToken() Token { return endOfFile }
