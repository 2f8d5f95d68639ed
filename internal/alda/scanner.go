package alda

import (
	"fmt"
	"strconv"
	"strings"
)

// Scanner tokenizes Alda source code. The scanner runs in two modes: normal
// mode for musical events and lisp mode inside S-expressions, entered when
// the paren depth is above zero.
type Scanner struct {
	source   string
	filename string
	tokens   []Token

	start     int
	current   int
	line      int
	lineStart int

	sexpDepth int
}

// NewScanner returns a scanner over source. The filename appears in
// error positions; use "<input>" for anonymous input.
func NewScanner(source, filename string) *Scanner {
	return &Scanner{source: source, filename: filename}
}

// Scan tokenizes the whole source and returns the token stream,
// terminated by an EOF token.
func (s *Scanner) Scan() ([]Token, error) {
	s.tokens = nil
	s.start = 0
	s.current = 0
	s.line = 1
	s.lineStart = 0
	s.sexpDepth = 0

	for !s.atEnd() {
		s.start = s.current
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}

	s.start = s.current
	s.addToken(TokenEOF)
	return s.tokens, nil
}

func (s *Scanner) scanToken() error {
	c := s.advance()

	switch c {
	case ' ', '\t', '\r':
		return nil
	case '\n':
		s.addToken(TokenNewline)
		s.line++
		s.lineStart = s.current
		return nil
	case '#':
		s.skipComment()
		return nil
	}

	if s.sexpDepth > 0 {
		return s.scanLispToken(c)
	}
	return s.scanNormalToken(c)
}

func (s *Scanner) scanNormalToken(c byte) error {
	switch c {
	case '>':
		s.addToken(TokenOctaveUp)
	case '<':
		s.addToken(TokenOctaveDown)
	case '+':
		s.addToken(TokenSharp)
	case '-':
		s.addToken(TokenFlat)
	case '_':
		s.addToken(TokenNatural)
	case '~':
		s.addToken(TokenTie)
	case '|':
		s.addToken(TokenBarline)
	case '/':
		s.addToken(TokenSeparator)
	case ':':
		s.addToken(TokenColon)
	case '.':
		s.addToken(TokenDot)
	case '=':
		s.addToken(TokenEquals)
	case '(':
		s.sexpDepth++
		s.addToken(TokenLeftParen)
	case ')':
		return s.errorf("Unexpected ')' outside of S-expression")
	case '{':
		s.addToken(TokenCramOpen)
	case '}':
		s.addToken(TokenCramClose)
	case '[':
		s.addToken(TokenEventSeqOpen)
	case ']':
		s.addToken(TokenEventSeqClose)
	case '*':
		return s.scanRepeat()
	case '%':
		return s.scanMarker(TokenMarker, "%")
	case '@':
		return s.scanMarker(TokenAtMarker, "@")
	case '\'':
		return s.scanRepetitions()
	case '"':
		return s.scanAlias()
	default:
		switch {
		case c == 'r' && !isNameContinuation(s.peek()):
			// r followed by a digit is rest + duration, not a name
			s.addToken(TokenRestLetter)
		case isNoteLetter(c) && !isNameContinuation(s.peek()):
			s.addTextToken(TokenNoteLetter, string(c))
		case isNoteLetter(c):
			// Note letter followed by more letters is a name ("cello")
			s.scanName()
		case c == 'V' && isDigit(s.peek()):
			s.scanVoiceMarker()
		case c == 'o' && isDigit(s.peek()):
			s.scanOctaveSet()
		case isDigit(c):
			s.scanDuration()
		case isIdentifierStart(c):
			s.scanName()
		default:
			return s.errorf("Unexpected character: %q", c)
		}
	}
	return nil
}

func (s *Scanner) scanLispToken(c byte) error {
	switch {
	case c == '(':
		s.sexpDepth++
		s.addToken(TokenLeftParen)
	case c == ')':
		s.sexpDepth--
		s.addToken(TokenRightParen)
	case c == '\'':
		s.addToken(TokenQuote)
	case c == '"':
		return s.scanString()
	case c == '-' && isDigit(s.peek()):
		s.scanLispNumber()
	case isDigit(c):
		s.scanLispNumber()
	case isSymbolChar(c):
		s.scanSymbol()
	default:
		return s.errorf("Unexpected character in S-expression: %q", c)
	}
	return nil
}

func (s *Scanner) scanOctaveSet() {
	for isDigit(s.peek()) {
		s.advance()
	}
	lexeme := s.source[s.start:s.current]
	n, _ := strconv.Atoi(lexeme[1:])
	s.addNumberToken(TokenOctaveSet, float64(n))
}

func (s *Scanner) scanVoiceMarker() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == ':' {
		s.advance()
		lexeme := s.source[s.start:s.current]
		n, _ := strconv.Atoi(lexeme[1 : len(lexeme)-1])
		s.addNumberToken(TokenVoiceMarker, float64(n))
		return
	}
	// No colon: backtrack and treat the V as an ordinary name.
	s.current = s.start + 1
	s.scanName()
}

func (s *Scanner) scanMarker(tt TokenType, prefix string) error {
	for isMarkerChar(s.peek()) {
		s.advance()
	}
	name := s.source[s.start+1 : s.current]
	if name == "" {
		return s.errorf("Expected marker name after %q", prefix)
	}
	s.addTextToken(tt, name)
	return nil
}

func (s *Scanner) scanRepeat() error {
	for isDigit(s.peek()) {
		s.advance()
	}
	lexeme := s.source[s.start:s.current]
	if len(lexeme) == 1 {
		return s.errorf("Expected number after '*'")
	}
	n, _ := strconv.Atoi(lexeme[1:])
	s.addNumberToken(TokenRepeat, float64(n))
	return nil
}

func (s *Scanner) scanRepetitions() error {
	for isDigit(s.peek()) || s.peek() == '-' || s.peek() == ',' {
		s.advance()
	}
	ranges := s.source[s.start+1 : s.current]
	if ranges == "" {
		return s.errorf("Expected repetition range after apostrophe")
	}
	s.addTextToken(TokenRepetitions, ranges)
	return nil
}

func (s *Scanner) scanDuration() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}

	lexeme := s.source[s.start:s.current]
	value, _ := strconv.ParseFloat(lexeme, 64)

	switch {
	case s.peek() == 'm' && s.peekNext() == 's':
		s.advance()
		s.advance()
		s.addNumberToken(TokenNoteLengthMs, value)
	case s.peek() == 's' && !isIdentifierChar(s.peekNext()):
		s.advance()
		s.addNumberToken(TokenNoteLengthSeconds, value)
	default:
		s.addNumberToken(TokenNoteLength, value)
	}
}

func (s *Scanner) scanName() {
	for isIdentifierChar(s.peek()) {
		s.advance()
	}
	s.addTextToken(TokenName, s.source[s.start:s.current])
}

func (s *Scanner) scanAlias() error {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			return s.errorf("Unterminated alias string")
		}
		if s.peek() == '\\' {
			s.advance()
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorf("Unterminated alias string")
	}
	s.advance() // closing quote
	s.addTextToken(TokenAlias, s.source[s.start+1:s.current-1])
	return nil
}

func (s *Scanner) scanString() error {
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
			s.lineStart = s.current + 1
		}
		if s.peek() == '\\' {
			s.advance()
		}
		s.advance()
	}
	if s.atEnd() {
		return s.errorf("Unterminated string")
	}
	s.advance() // closing quote
	s.addTextToken(TokenString, s.source[s.start+1:s.current-1])
	return nil
}

func (s *Scanner) scanSymbol() {
	for isSymbolChar(s.peek()) {
		s.advance()
	}
	s.addTextToken(TokenSymbol, s.source[s.start:s.current])
}

func (s *Scanner) scanLispNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	value, _ := strconv.ParseFloat(s.source[s.start:s.current], 64)
	s.addNumberToken(TokenNumber, value)
}

func (s *Scanner) skipComment() {
	for s.peek() != '\n' && !s.atEnd() {
		s.advance()
	}
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

func (s *Scanner) position() Position {
	return Position{Line: s.line, Column: s.start - s.lineStart + 1, Filename: s.filename}
}

func (s *Scanner) addToken(tt TokenType) {
	s.tokens = append(s.tokens, Token{
		Type:   tt,
		Lexeme: s.source[s.start:s.current],
		Pos:    s.position(),
	})
}

func (s *Scanner) addTextToken(tt TokenType, text string) {
	s.tokens = append(s.tokens, Token{
		Type:   tt,
		Lexeme: s.source[s.start:s.current],
		Text:   text,
		Pos:    s.position(),
	})
}

func (s *Scanner) addNumberToken(tt TokenType, value float64) {
	s.tokens = append(s.tokens, Token{
		Type:   tt,
		Lexeme: s.source[s.start:s.current],
		Number: value,
		Pos:    s.position(),
	})
}

func (s *Scanner) currentLine() string {
	end := strings.IndexByte(s.source[s.lineStart:], '\n')
	if end == -1 {
		return s.source[s.lineStart:]
	}
	return s.source[s.lineStart : s.lineStart+end]
}

func (s *Scanner) errorf(format string, args ...any) error {
	return newScanError(fmt.Sprintf(format, args...), s.position(), s.currentLine())
}

func isNoteLetter(c byte) bool {
	return c >= 'a' && c <= 'g'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isIdentifierStart(c byte) bool {
	return isAlpha(c) || c == '_'
}

func isIdentifierChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '-'
}

// isNameContinuation reports whether c makes a preceding note letter part
// of a longer name. Only letters qualify: "cello" is a name, while "c-" is
// note + flat and "c4" is note + duration.
func isNameContinuation(c byte) bool {
	return isAlpha(c)
}

func isMarkerChar(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '_' || c == '-'
}

func isSymbolChar(c byte) bool {
	if c == 0 {
		return false
	}
	switch c {
	case '(', ')', '"', '\'', ' ', '\t', '\n', '\r':
		return false
	}
	return true
}
