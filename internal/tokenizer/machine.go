package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// EndOfInput is the character fed to the machine once the source is
// exhausted. NUL is reserved for it, so NUL cannot appear in CSV text read
// through this package.
const EndOfInput rune = 0

// State is a state of the tokenizer machine.
type State uint8

const (
	StateStart                   State = iota // beginning of a line
	StateExpectLineFeedEmpty                  // saw CR, no field content on this line yet
	StateExpectLineFeedWithField              // saw CR with a pending field value
	StateNextField                            // consumed a separator, field not started
	StatePlainField                           // accumulating unquoted content
	StateQuotedField                          // accumulating quoted content
	StateQuoteQuote                           // saw " inside a quoted field
	StateDone                                 // stream exhausted
	StateError                                // unrecoverable
	numStates
)

var stateNames = [numStates]string{
	StateStart:                   "Start",
	StateExpectLineFeedEmpty:     "ExpectLineFeed-Empty",
	StateExpectLineFeedWithField: "ExpectLineFeed-WithField",
	StateNextField:               "NextField",
	StatePlainField:              "PlainField",
	StateQuotedField:             "QuotedField",
	StateQuoteQuote:              "QuoteQuote",
	StateDone:                    "Done",
	StateError:                   "Error",
}

// String returns the state name.
func (s State) String() string {
	if s < numStates {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Stopped reports whether the state accepts no further input.
func (s State) Stopped() bool {
	return s == StateDone || s == StateError
}

// charClass represents character classes for the transition table
type charClass uint8

const (
	classSep charClass = iota
	classQuote
	classCR
	classLF
	classEOF
	classOther
	numCharClasses
)

// action is performed when a transition is taken
type action uint8

const (
	actionNone            action = iota
	actionStore                         // append the character to the field buffer
	actionStoreQuote                    // append a literal quote, second half of ""
	actionField                         // emit Field(buffer)
	actionLineField                     // emit EndOfLineField(buffer)
	actionFileField                     // emit EndOfFileField(buffer)
	actionLine                          // emit EndOfLine
	actionFile                          // emit EndOfFile
	actionErrQuote                      // quote inside an unquoted field
	actionErrAfterQuote                 // garbage after a closing quote
	actionErrUnterminated               // end of input inside quotes
	actionErrBareCR                     // CR not followed by LF
)

type transition struct {
	next   State
	action action
}

// transitions is the state transition table
// [currentState][charClass] -> (nextState, action).
// StateDone and StateError have no entries; Machine.Next rejects them first.
var transitions [numStates][numCharClasses]transition

func init() {
	initTransitions()
}

func initTransitions() {
	t := map[State][numCharClasses]transition{
		StateStart: {
			classSep:   {StateNextField, actionField},
			classQuote: {StateQuotedField, actionNone},
			classCR:    {StateExpectLineFeedEmpty, actionNone},
			classLF:    {StateStart, actionLine},
			classEOF:   {StateDone, actionFile},
			classOther: {StatePlainField, actionStore},
		},
		StateNextField: {
			classSep:   {StateNextField, actionField},
			classQuote: {StateQuotedField, actionNone},
			classCR:    {StateExpectLineFeedWithField, actionNone},
			classLF:    {StateStart, actionLineField},
			classEOF:   {StateDone, actionFileField},
			classOther: {StatePlainField, actionStore},
		},
		StatePlainField: {
			classSep:   {StateNextField, actionField},
			classQuote: {StateError, actionErrQuote},
			classCR:    {StateExpectLineFeedWithField, actionNone},
			classLF:    {StateStart, actionLineField},
			classEOF:   {StateDone, actionFileField},
			classOther: {StatePlainField, actionStore},
		},
		StateQuotedField: {
			classSep:   {StateQuotedField, actionStore},
			classQuote: {StateQuoteQuote, actionNone},
			classCR:    {StateQuotedField, actionStore},
			classLF:    {StateQuotedField, actionStore},
			classEOF:   {StateError, actionErrUnterminated},
			classOther: {StateQuotedField, actionStore},
		},
		StateQuoteQuote: {
			classSep:   {StateNextField, actionField},
			classQuote: {StateQuotedField, actionStoreQuote},
			classCR:    {StateExpectLineFeedWithField, actionNone},
			classLF:    {StateStart, actionLineField},
			classEOF:   {StateDone, actionFileField},
			classOther: {StateError, actionErrAfterQuote},
		},
		// A repeated CR while waiting for LF is tolerated.
		StateExpectLineFeedEmpty: {
			classSep:   {StateError, actionErrBareCR},
			classQuote: {StateError, actionErrBareCR},
			classCR:    {StateExpectLineFeedEmpty, actionNone},
			classLF:    {StateStart, actionLine},
			classEOF:   {StateDone, actionFile},
			classOther: {StateError, actionErrBareCR},
		},
		StateExpectLineFeedWithField: {
			classSep:   {StateError, actionErrBareCR},
			classQuote: {StateError, actionErrBareCR},
			classCR:    {StateExpectLineFeedWithField, actionNone},
			classLF:    {StateStart, actionLineField},
			classEOF:   {StateDone, actionFileField},
			classOther: {StateError, actionErrBareCR},
		},
	}
	for state, row := range t {
		transitions[state] = row
	}
}

// ValidSeparator reports whether r can be used as a field separator.
func ValidSeparator(r rune) bool {
	return r != EndOfInput && r != '"' && r != '\r' && r != '\n' &&
		utf8.ValidRune(r) && r != utf8.RuneError
}

// Machine is the tokenizer state machine. It maps (state, character) to
// (new state, low-level token) and holds one piece of accumulated state: the
// in-progress field buffer.
//
// A Machine is not safe for concurrent use.
type Machine struct {
	sep   rune
	state State
	field strings.Builder
}

// NewMachine creates a machine in StateStart using sep as the separator.
func NewMachine(sep rune) (*Machine, error) {
	if !ValidSeparator(sep) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeparator, sep)
	}
	return &Machine{sep: sep, state: StateStart}, nil
}

// Separator returns the field separator.
func (m *Machine) Separator() rune {
	return m.sep
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

func (m *Machine) classify(c rune) charClass {
	switch c {
	case EndOfInput:
		return classEOF
	case m.sep:
		return classSep
	case '"':
		return classQuote
	case '\r':
		return classCR
	case '\n':
		return classLF
	}
	return classOther
}

// Next feeds one character to the machine. Pass EndOfInput once the source
// is exhausted. A RawNone token means the character was consumed without
// completing anything.
//
// Feeding a machine in StateDone or StateError returns ErrStopped.
func (m *Machine) Next(c rune) (RawToken, error) {
	if m.state.Stopped() {
		return RawToken{Kind: RawNone}, fmt.Errorf("%w (state %s)", ErrStopped, m.state)
	}

	tr := transitions[m.state][m.classify(c)]
	m.state = tr.next

	switch tr.action {
	case actionStore:
		m.field.WriteRune(c)
	case actionStoreQuote:
		m.field.WriteByte('"')
	case actionField:
		return m.emit(RawField), nil
	case actionLineField:
		return m.emit(RawEndOfLineField), nil
	case actionFileField:
		return m.emit(RawEndOfFileField), nil
	case actionLine:
		return RawToken{Kind: RawEndOfLine}, nil
	case actionFile:
		return RawToken{Kind: RawEndOfFile}, nil
	case actionErrQuote:
		return m.fail(ErrQuote)
	case actionErrAfterQuote:
		return m.fail(ErrAfterQuote)
	case actionErrUnterminated:
		return m.fail(ErrUnterminatedQuote)
	case actionErrBareCR:
		return m.fail(ErrBareCR)
	}
	return RawToken{Kind: RawNone}, nil
}

func (m *Machine) emit(kind RawKind) RawToken {
	v := m.field.String()
	m.field.Reset()
	return RawToken{Kind: kind, Value: v}
}

func (m *Machine) fail(err error) (RawToken, error) {
	m.state = StateError
	m.field.Reset()
	return RawToken{Kind: RawNone}, err
}
