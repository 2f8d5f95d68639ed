package alda

import (
	"strconv"
	"strings"
)

// Parser turns a token stream into an AST by recursive descent.
type Parser struct {
	tokens  []Token
	current int
}

// NewParser returns a parser over an already scanned token stream.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse is the package entry point: scan and parse source in one step.
func Parse(source, filename string) (*Root, error) {
	tokens, err := NewScanner(source, filename).Scan()
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).Parse()
}

// Parse consumes the token stream and returns the AST root.
func (p *Parser) Parse() (*Root, error) {
	var children []Node
	p.skipNewlines()

	for !p.atEnd() {
		node, err := p.parseTopLevel()
		if err != nil {
			return nil, err
		}
		if node != nil {
			children = append(children, node)
		}
		p.skipNewlines()
	}

	return &Root{Children: children, position: Position{Line: 1, Column: 1}}, nil
}

func (p *Parser) parseTopLevel() (Node, error) {
	if p.isPartDeclaration() {
		return p.parsePart()
	}

	events, err := p.parseEventSequenceContent(nil)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &EventSequence{Events: events, position: events[0].Pos()}, nil
}

// isPartDeclaration looks ahead from the current NAME for a colon,
// skipping over tokens that can legally appear in a multi-instrument
// declaration. An equals sign first means a variable definition instead.
func (p *Parser) isPartDeclaration() bool {
	if !p.check(TokenName) {
		return false
	}
	for pos := p.current; pos < len(p.tokens); {
		switch p.tokens[pos].Type {
		case TokenColon:
			return true
		case TokenEquals:
			return false
		case TokenSeparator, TokenAlias, TokenName:
			pos++
		default:
			return false
		}
	}
	return false
}

func (p *Parser) isVariableDefinition() bool {
	if !p.check(TokenName) {
		return false
	}
	next := p.current + 1
	return next < len(p.tokens) && p.tokens[next].Type == TokenEquals
}

func (p *Parser) parsePart() (*Part, error) {
	declaration, err := p.parsePartDeclaration()
	if err != nil {
		return nil, err
	}
	p.skipNewlines()

	events, err := p.parseEventSequenceContent(nil)
	if err != nil {
		return nil, err
	}

	return &Part{
		Declaration: declaration,
		Events:      &EventSequence{Events: events, position: declaration.Pos()},
		position:    declaration.Pos(),
	}, nil
}

func (p *Parser) parsePartDeclaration() (*PartDeclaration, error) {
	position := p.peek().Pos

	nameToken, err := p.consume(TokenName, "Expected instrument name")
	if err != nil {
		return nil, err
	}
	names := []string{nameToken.Text}

	for p.match(TokenSeparator) {
		nameToken, err = p.consume(TokenName, "Expected instrument name after '/'")
		if err != nil {
			return nil, err
		}
		names = append(names, nameToken.Text)
	}

	decl := &PartDeclaration{Names: names, position: position}
	if p.match(TokenAlias) {
		decl.Alias = p.previous().Text
		decl.HasAlias = true
	}

	if _, err := p.consume(TokenColon, "Expected ':' after part declaration"); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseEventSequenceContent(stop map[TokenType]bool) ([]Node, error) {
	var events []Node

	for !p.atEnd() && !p.isPartDeclaration() {
		if stop[p.peek().Type] {
			break
		}

		p.skipNewlines()
		if p.atEnd() || p.isPartDeclaration() {
			break
		}
		if stop[p.peek().Type] {
			break
		}

		event, err := p.parseEvent()
		if err != nil {
			return nil, err
		}
		if event != nil {
			events = append(events, event)
		}
	}

	return events, nil
}

func (p *Parser) parseEvent() (Node, error) {
	if p.match(TokenNewline) {
		return nil, nil
	}

	event, err := p.parsePrimaryEvent()
	if err != nil || event == nil {
		return nil, err
	}
	return p.parsePostfix(event)
}

func (p *Parser) parsePrimaryEvent() (Node, error) {
	if p.match(TokenBarline) {
		return &Barline{position: p.previous().Pos}, nil
	}

	if p.match(TokenOctaveUp) {
		return &OctaveUp{position: p.previous().Pos}, nil
	}
	if p.match(TokenOctaveDown) {
		return &OctaveDown{position: p.previous().Pos}, nil
	}
	if p.match(TokenOctaveSet) {
		token := p.previous()
		return &OctaveSet{Octave: int(token.Number), position: token.Pos}, nil
	}

	if p.check(TokenLeftParen) {
		return p.parseSexp()
	}

	if p.match(TokenMarker) {
		token := p.previous()
		return &Marker{Name: token.Text, position: token.Pos}, nil
	}
	if p.match(TokenAtMarker) {
		token := p.previous()
		return &AtMarker{Name: token.Text, position: token.Pos}, nil
	}

	if p.check(TokenVoiceMarker) {
		return p.parseVoiceGroup()
	}

	if p.check(TokenCramOpen) {
		return p.parseCram()
	}

	if p.check(TokenEventSeqOpen) {
		return p.parseBracketedSequence()
	}

	if p.isVariableDefinition() {
		return p.parseVariableDefinition()
	}
	if p.check(TokenName) {
		token := p.advance()
		return &VariableReference{Name: token.Text, position: token.Pos}, nil
	}

	if p.check(TokenRestLetter) {
		return p.parseRest()
	}
	if p.check(TokenNoteLetter) {
		return p.parseNoteOrChord()
	}

	// Unknown token: skip it and move on.
	if !p.atEnd() {
		p.advance()
	}
	return nil, nil
}

func (p *Parser) parsePostfix(event Node) (Node, error) {
	if p.match(TokenRepeat) {
		token := p.previous()
		event = &Repeat{Event: event, Times: int(token.Number), position: event.Pos()}
	}

	if p.match(TokenRepetitions) {
		token := p.previous()
		ranges, err := parseRepetitionRanges(token.Text, token.Pos)
		if err != nil {
			return nil, err
		}
		event = &OnRepetitions{Event: event, Ranges: ranges, position: event.Pos()}
	}

	return event, nil
}

func parseRepetitionRanges(text string, pos Position) ([]RepetitionRange, error) {
	var ranges []RepetitionRange
	for _, part := range strings.Split(text, ",") {
		if first, last, ok := strings.Cut(part, "-"); ok {
			f, err := strconv.Atoi(first)
			if err != nil {
				return nil, newSyntaxError("Invalid repetition range: "+text, pos)
			}
			l, err := strconv.Atoi(last)
			if err != nil {
				return nil, newSyntaxError("Invalid repetition range: "+text, pos)
			}
			ranges = append(ranges, RepetitionRange{First: f, Last: l})
		} else {
			f, err := strconv.Atoi(part)
			if err != nil {
				return nil, newSyntaxError("Invalid repetition range: "+text, pos)
			}
			ranges = append(ranges, RepetitionRange{First: f})
		}
	}
	return ranges, nil
}

func (p *Parser) parseVariableDefinition() (Node, error) {
	position := p.peek().Pos
	nameToken, err := p.consume(TokenName, "Expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(TokenEquals, "Expected '=' after variable name"); err != nil {
		return nil, err
	}

	// The definition body runs to the end of the line.
	var events []Node
	for !p.atEnd() && !p.check(TokenNewline) {
		if p.isPartDeclaration() {
			break
		}
		event, err := p.parseEvent()
		if err != nil {
			return nil, err
		}
		if event != nil {
			events = append(events, event)
		}
	}

	return &VariableDefinition{
		Name:     nameToken.Text,
		Events:   &EventSequence{Events: events, position: position},
		position: position,
	}, nil
}

func (p *Parser) parseVoiceGroup() (Node, error) {
	position := p.peek().Pos
	var voices []*Voice

	for p.check(TokenVoiceMarker) {
		voice, err := p.parseVoice()
		if err != nil {
			return nil, err
		}
		if voice.Number == 0 {
			// V0: ends the group
			break
		}
		voices = append(voices, voice)
	}

	return &VoiceGroup{Voices: voices, position: position}, nil
}

func (p *Parser) parseVoice() (*Voice, error) {
	token, err := p.consume(TokenVoiceMarker, "Expected voice marker")
	if err != nil {
		return nil, err
	}
	number := int(token.Number)

	if number == 0 {
		return &Voice{
			Number:   0,
			Events:   &EventSequence{position: token.Pos},
			position: token.Pos,
		}, nil
	}

	events, err := p.parseEventSequenceContent(map[TokenType]bool{TokenVoiceMarker: true})
	if err != nil {
		return nil, err
	}

	return &Voice{
		Number:   number,
		Events:   &EventSequence{Events: events, position: token.Pos},
		position: token.Pos,
	}, nil
}

func (p *Parser) parseCram() (Node, error) {
	position := p.peek().Pos
	if _, err := p.consume(TokenCramOpen, "Expected '{'"); err != nil {
		return nil, err
	}

	events, err := p.parseEventSequenceContent(map[TokenType]bool{TokenCramClose: true})
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(TokenCramClose, "Expected '}'"); err != nil {
		return nil, err
	}

	duration, err := p.tryParseDuration()
	if err != nil {
		return nil, err
	}

	return &Cram{
		Events:   &EventSequence{Events: events, position: position},
		Duration: duration,
		position: position,
	}, nil
}

func (p *Parser) parseBracketedSequence() (Node, error) {
	position := p.peek().Pos
	if _, err := p.consume(TokenEventSeqOpen, "Expected '['"); err != nil {
		return nil, err
	}

	events, err := p.parseEventSequenceContent(map[TokenType]bool{TokenEventSeqClose: true})
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(TokenEventSeqClose, "Expected ']'"); err != nil {
		return nil, err
	}

	return &BracketedSequence{
		Events:   &EventSequence{Events: events, position: position},
		position: position,
	}, nil
}

func (p *Parser) parseNoteOrChord() (Node, error) {
	first, err := p.parseNote()
	if err != nil {
		return nil, err
	}

	if !p.check(TokenSeparator) {
		return first, nil
	}

	elements := []Node{first}
	for p.match(TokenSeparator) {
		// Octave changes and attribute forms may appear between chord notes.
		for p.check(TokenOctaveUp) || p.check(TokenOctaveDown) ||
			p.check(TokenOctaveSet) || p.check(TokenLeftParen) {
			switch {
			case p.match(TokenOctaveUp):
				elements = append(elements, &OctaveUp{position: p.previous().Pos})
			case p.match(TokenOctaveDown):
				elements = append(elements, &OctaveDown{position: p.previous().Pos})
			case p.match(TokenOctaveSet):
				token := p.previous()
				elements = append(elements, &OctaveSet{Octave: int(token.Number), position: token.Pos})
			case p.check(TokenLeftParen):
				sexp, err := p.parseSexp()
				if err != nil {
					return nil, err
				}
				elements = append(elements, sexp)
			}
		}

		if p.check(TokenNoteLetter) {
			note, err := p.parseNote()
			if err != nil {
				return nil, err
			}
			elements = append(elements, note)
		} else if p.check(TokenRestLetter) {
			rest, err := p.parseRest()
			if err != nil {
				return nil, err
			}
			elements = append(elements, rest)
		}
	}

	return &Chord{Elements: elements, position: first.Pos()}, nil
}

func (p *Parser) parseNote() (*Note, error) {
	position := p.peek().Pos
	letterToken, err := p.consume(TokenNoteLetter, "Expected note letter")
	if err != nil {
		return nil, err
	}

	var accidentals []string
	for {
		if p.match(TokenSharp) {
			accidentals = append(accidentals, "+")
		} else if p.match(TokenFlat) {
			accidentals = append(accidentals, "-")
		} else if p.match(TokenNatural) {
			accidentals = append(accidentals, "_")
		} else {
			break
		}
	}

	duration, err := p.tryParseDuration()
	if err != nil {
		return nil, err
	}

	slurred := p.match(TokenTie)

	return &Note{
		Letter:      letterToken.Text,
		Accidentals: accidentals,
		Duration:    duration,
		Slurred:     slurred,
		position:    position,
	}, nil
}

func (p *Parser) parseRest() (*Rest, error) {
	position := p.peek().Pos
	if _, err := p.consume(TokenRestLetter, "Expected 'r'"); err != nil {
		return nil, err
	}

	duration, err := p.tryParseDuration()
	if err != nil {
		return nil, err
	}

	return &Rest{Duration: duration, position: position}, nil
}

func (p *Parser) tryParseDuration() (*Duration, error) {
	if !p.isDurationStart() {
		return nil, nil
	}

	var components []DurationComponent
	position := p.peek().Pos

	for p.isDurationStart() {
		component, err := p.parseDurationComponent()
		if err != nil {
			return nil, err
		}
		components = append(components, component)

		// A tie chains duration components only when a duration follows;
		// otherwise the tie belongs to the note as a slur.
		if p.check(TokenTie) && p.isDurationStartAt(p.current+1) {
			p.advance()
		} else {
			break
		}
	}

	return &Duration{Components: components, position: position}, nil
}

func (p *Parser) isDurationStart() bool {
	return p.check(TokenNoteLength) || p.check(TokenNoteLengthMs) || p.check(TokenNoteLengthSeconds)
}

func (p *Parser) isDurationStartAt(pos int) bool {
	if pos >= len(p.tokens) {
		return false
	}
	switch p.tokens[pos].Type {
	case TokenNoteLength, TokenNoteLengthMs, TokenNoteLengthSeconds:
		return true
	}
	return false
}

func (p *Parser) parseDurationComponent() (DurationComponent, error) {
	if p.match(TokenNoteLengthMs) {
		token := p.previous()
		return &NoteLengthMs{Ms: token.Number, position: token.Pos}, nil
	}

	if p.match(TokenNoteLengthSeconds) {
		token := p.previous()
		return &NoteLengthSeconds{Seconds: token.Number, position: token.Pos}, nil
	}

	if p.match(TokenNoteLength) {
		token := p.previous()
		dots := 0
		for p.match(TokenDot) {
			dots++
		}
		return &NoteLength{Denominator: token.Number, Dots: dots, position: token.Pos}, nil
	}

	return nil, p.errorf("Expected duration component")
}

func (p *Parser) parseSexp() (*LispList, error) {
	position := p.peek().Pos
	if _, err := p.consume(TokenLeftParen, "Expected '('"); err != nil {
		return nil, err
	}

	var elements []Node
	for !p.check(TokenRightParen) && !p.atEnd() {
		element, err := p.parseLispElement()
		if err != nil {
			return nil, err
		}
		if element != nil {
			elements = append(elements, element)
		}
	}

	if _, err := p.consume(TokenRightParen, "Expected ')'"); err != nil {
		return nil, err
	}

	return &LispList{Elements: elements, position: position}, nil
}

func (p *Parser) parseLispElement() (Node, error) {
	if p.match(TokenSymbol) {
		token := p.previous()
		return &LispSymbol{Name: token.Text, position: token.Pos}, nil
	}

	if p.match(TokenNumber) {
		token := p.previous()
		return &LispNumber{Value: token.Number, position: token.Pos}, nil
	}

	if p.match(TokenString) {
		token := p.previous()
		return &LispString{Value: token.Text, position: token.Pos}, nil
	}

	if p.match(TokenQuote) {
		quoteToken := p.previous()
		if p.check(TokenLeftParen) {
			quoted, err := p.parseSexp()
			if err != nil {
				return nil, err
			}
			return &LispQuoted{Value: quoted, position: quoteToken.Pos}, nil
		}
		if p.check(TokenName) || p.check(TokenSymbol) {
			symbolToken := p.advance()
			symbol := &LispSymbol{Name: symbolToken.Lexeme, position: symbolToken.Pos}
			return &LispQuoted{Value: symbol, position: quoteToken.Pos}, nil
		}
		return nil, p.errorf("Expected '(' or symbol after quote")
	}

	if p.check(TokenLeftParen) {
		return p.parseSexp()
	}

	// Newlines and other stray tokens inside a form are skipped.
	if !p.atEnd() {
		p.advance()
	}
	return nil, nil
}

func (p *Parser) atEnd() bool {
	return p.peek().Type == TokenEOF
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) advance() Token {
	if !p.atEnd() {
		p.current++
	}
	return p.tokens[p.current-1]
}

func (p *Parser) check(tt TokenType) bool {
	if p.atEnd() {
		return false
	}
	return p.peek().Type == tt
}

func (p *Parser) match(tt TokenType) bool {
	if p.check(tt) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(tt TokenType, message string) (Token, error) {
	if p.check(tt) {
		return p.advance(), nil
	}
	return Token{}, p.errorf(message)
}

func (p *Parser) skipNewlines() {
	for p.match(TokenNewline) {
	}
}

func (p *Parser) errorf(message string) error {
	return newSyntaxError(message, p.peek().Pos)
}
