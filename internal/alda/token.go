package alda

import "fmt"

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	// Note and rest letters
	TokenNoteLetter TokenType = "NOTE_LETTER" // a-g
	TokenRestLetter TokenType = "REST_LETTER" // r

	// Accidentals
	TokenFlat    TokenType = "FLAT"    // -
	TokenSharp   TokenType = "SHARP"   // +
	TokenNatural TokenType = "NATURAL" // _

	// Octave control
	TokenOctaveSet  TokenType = "OCTAVE_SET" // o followed by a number
	TokenOctaveUp   TokenType = "OCTAVE_UP"  // >
	TokenOctaveDown TokenType = "OCTAVE_DOWN"

	// Duration
	TokenNoteLength        TokenType = "NOTE_LENGTH"         // 1, 2, 4, 8, ...
	TokenNoteLengthMs      TokenType = "NOTE_LENGTH_MS"      // 500ms
	TokenNoteLengthSeconds TokenType = "NOTE_LENGTH_SECONDS" // 2s
	TokenDot               TokenType = "DOT"

	// Connectors
	TokenTie       TokenType = "TIE"     // ~
	TokenBarline   TokenType = "BARLINE" // |
	TokenSeparator TokenType = "SEPARATOR"

	// Part declaration
	TokenName  TokenType = "NAME"
	TokenAlias TokenType = "ALIAS" // quoted part alias
	TokenColon TokenType = "COLON"

	// S-expression tokens (lisp mode)
	TokenLeftParen  TokenType = "LEFT_PAREN"
	TokenRightParen TokenType = "RIGHT_PAREN"
	TokenQuote      TokenType = "QUOTE"
	TokenSymbol     TokenType = "SYMBOL"
	TokenNumber     TokenType = "NUMBER"
	TokenString     TokenType = "STRING"

	// Variables
	TokenEquals TokenType = "EQUALS"

	// Markers
	TokenMarker   TokenType = "MARKER"    // %name
	TokenAtMarker TokenType = "AT_MARKER" // @name

	// Voices
	TokenVoiceMarker TokenType = "VOICE_MARKER" // V[number]:

	// Cram expressions
	TokenCramOpen  TokenType = "CRAM_OPEN"  // {
	TokenCramClose TokenType = "CRAM_CLOSE" // }

	// Event sequences
	TokenEventSeqOpen  TokenType = "EVENT_SEQ_OPEN"  // [
	TokenEventSeqClose TokenType = "EVENT_SEQ_CLOSE" // ]

	// Repetition
	TokenRepeat      TokenType = "REPEAT"      // *[number]
	TokenRepetitions TokenType = "REPETITIONS" // '1-3,5

	// Control
	TokenEOF     TokenType = "EOF"
	TokenNewline TokenType = "NEWLINE"
)

// Position identifies a location in the source for error reporting.
type Position struct {
	Line     int
	Column   int
	Filename string
}

func (p Position) String() string {
	name := p.Filename
	if name == "" {
		name = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", name, p.Line, p.Column)
}

// Token captures lexical information for the parser. Text holds the parsed
// string payload (names, markers, repetition ranges) and Number the numeric
// payload (note lengths, octave sets, voice numbers, repeat counts).
type Token struct {
	Type   TokenType
	Lexeme string
	Text   string
	Number float64
	Pos    Position
}
