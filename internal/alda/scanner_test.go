package alda

import (
	"strings"
	"testing"
)

func scanTypes(t *testing.T, source string) []TokenType {
	t.Helper()
	tokens, err := NewScanner(source, "<input>").Scan()
	if err != nil {
		t.Fatalf("scan %q: %v", source, err)
	}
	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	return types
}

func expectTypes(t *testing.T, source string, want ...TokenType) {
	t.Helper()
	want = append(want, TokenEOF)
	got := scanTypes(t, source)
	if len(got) != len(want) {
		t.Fatalf("scan %q: got %v, want %v", source, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("scan %q: token %d is %v, want %v", source, i, got[i], want[i])
		}
	}
}

func TestScanNoteWithAccidentalAndDuration(t *testing.T) {
	expectTypes(t, "c+4", TokenNoteLetter, TokenSharp, TokenNoteLength)
	expectTypes(t, "b-2.", TokenNoteLetter, TokenFlat, TokenNoteLength, TokenDot)
	expectTypes(t, "f_8", TokenNoteLetter, TokenNatural, TokenNoteLength)
}

func TestScanNoteLetterVersusName(t *testing.T) {
	// A note letter followed by more letters is a name.
	expectTypes(t, "cello", TokenName)
	expectTypes(t, "c", TokenNoteLetter)

	tokens, err := NewScanner("cello", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Text != "cello" {
		t.Fatalf("name text = %q, want cello", tokens[0].Text)
	}
}

func TestScanRestVersusName(t *testing.T) {
	// r followed by a digit is a rest with duration.
	expectTypes(t, "r4", TokenRestLetter, TokenNoteLength)
	expectTypes(t, "r", TokenRestLetter)
	// r followed by letters is a name.
	expectTypes(t, "rock-organ", TokenName)
}

func TestScanOctaveTokens(t *testing.T) {
	tokens, err := NewScanner("o4 > <", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenOctaveSet || tokens[0].Number != 4 {
		t.Fatalf("octave set token = %+v", tokens[0])
	}
	if tokens[1].Type != TokenOctaveUp || tokens[2].Type != TokenOctaveDown {
		t.Fatalf("octave up/down tokens = %v %v", tokens[1].Type, tokens[2].Type)
	}
}

func TestScanVoiceMarker(t *testing.T) {
	tokens, err := NewScanner("V1: c V0:", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenVoiceMarker || tokens[0].Number != 1 {
		t.Fatalf("voice marker token = %+v", tokens[0])
	}
	if tokens[2].Type != TokenVoiceMarker || tokens[2].Number != 0 {
		t.Fatalf("V0 token = %+v", tokens[2])
	}
}

func TestScanVoiceWithoutColonIsName(t *testing.T) {
	// V followed by digits but no colon backtracks to a name.
	tokens, err := NewScanner("V1x", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenName || tokens[0].Text != "V1x" {
		t.Fatalf("token = %+v, want NAME V1x", tokens[0])
	}
}

func TestScanDurations(t *testing.T) {
	tokens, err := NewScanner("c4 c500ms c2s c1.5", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[1].Type != TokenNoteLength || tokens[1].Number != 4 {
		t.Fatalf("note length token = %+v", tokens[1])
	}
	if tokens[3].Type != TokenNoteLengthMs || tokens[3].Number != 500 {
		t.Fatalf("ms token = %+v", tokens[3])
	}
	if tokens[5].Type != TokenNoteLengthSeconds || tokens[5].Number != 2 {
		t.Fatalf("seconds token = %+v", tokens[5])
	}
	if tokens[7].Type != TokenNoteLength || tokens[7].Number != 1.5 {
		t.Fatalf("decimal length token = %+v", tokens[7])
	}
}

func TestScanDurationSecondsNotFollowedByName(t *testing.T) {
	// "2son" must not scan as seconds: the s continues an identifier.
	tokens, err := NewScanner("c2son", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[1].Type != TokenNoteLength {
		t.Fatalf("token = %+v, want NOTE_LENGTH", tokens[1])
	}
	if tokens[2].Type != TokenName || tokens[2].Text != "son" {
		t.Fatalf("token = %+v, want NAME son", tokens[2])
	}
}

func TestScanMarkers(t *testing.T) {
	tokens, err := NewScanner("%verse @verse", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenMarker || tokens[0].Text != "verse" {
		t.Fatalf("marker token = %+v", tokens[0])
	}
	if tokens[1].Type != TokenAtMarker || tokens[1].Text != "verse" {
		t.Fatalf("at-marker token = %+v", tokens[1])
	}
}

func TestScanMarkerWithoutName(t *testing.T) {
	if _, err := NewScanner("% ", "<input>").Scan(); err == nil {
		t.Fatal("expected scan error for bare %")
	}
}

func TestScanRepeatAndRepetitions(t *testing.T) {
	tokens, err := NewScanner("c*4 d'1-3,5", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[1].Type != TokenRepeat || tokens[1].Number != 4 {
		t.Fatalf("repeat token = %+v", tokens[1])
	}
	if tokens[3].Type != TokenRepetitions || tokens[3].Text != "1-3,5" {
		t.Fatalf("repetitions token = %+v", tokens[3])
	}
}

func TestScanRepeatWithoutNumber(t *testing.T) {
	if _, err := NewScanner("c* d", "<input>").Scan(); err == nil {
		t.Fatal("expected scan error for bare *")
	}
}

func TestScanLispMode(t *testing.T) {
	tokens, err := NewScanner("(tempo! 120)", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	want := []TokenType{TokenLeftParen, TokenSymbol, TokenNumber, TokenRightParen, TokenEOF}
	for i, tt := range want {
		if tokens[i].Type != tt {
			t.Fatalf("token %d = %v, want %v", i, tokens[i].Type, tt)
		}
	}
	if tokens[1].Text != "tempo!" {
		t.Fatalf("symbol text = %q", tokens[1].Text)
	}
	if tokens[2].Number != 120 {
		t.Fatalf("number = %v", tokens[2].Number)
	}
}

func TestScanQuotedListAndNegativeNumber(t *testing.T) {
	tokens, err := NewScanner("(key-sig '(g minor)) (transpose -2)", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	var sawQuote bool
	var sawNegative bool
	for _, tok := range tokens {
		if tok.Type == TokenQuote {
			sawQuote = true
		}
		if tok.Type == TokenNumber && tok.Number == -2 {
			sawNegative = true
		}
	}
	if !sawQuote || !sawNegative {
		t.Fatalf("quote=%v negative=%v in %v", sawQuote, sawNegative, tokens)
	}
}

func TestScanLispString(t *testing.T) {
	tokens, err := NewScanner(`(key-sig "f+ c+")`, "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[2].Type != TokenString || tokens[2].Text != "f+ c+" {
		t.Fatalf("string token = %+v", tokens[2])
	}
}

func TestScanAlias(t *testing.T) {
	tokens, err := NewScanner(`violin/viola "strings": c`, "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	var alias *Token
	for i := range tokens {
		if tokens[i].Type == TokenAlias {
			alias = &tokens[i]
		}
	}
	if alias == nil || alias.Text != "strings" {
		t.Fatalf("alias token = %+v", alias)
	}
}

func TestScanComment(t *testing.T) {
	expectTypes(t, "c # a note\nd", TokenNoteLetter, TokenNewline, TokenNoteLetter)
}

func TestScanUnbalancedParen(t *testing.T) {
	_, err := NewScanner("c )", "<input>").Scan()
	if err == nil {
		t.Fatal("expected scan error for ')' outside S-expression")
	}
	var scanErr *ScanError
	if !asScanError(err, &scanErr) {
		t.Fatalf("error type = %T", err)
	}
	if scanErr.Pos.Column != 3 {
		t.Fatalf("error column = %d, want 3", scanErr.Pos.Column)
	}
	if !strings.Contains(err.Error(), "^") {
		t.Fatalf("error should carry a caret:\n%s", err)
	}
}

func asScanError(err error, target **ScanError) bool {
	se, ok := err.(*ScanError)
	if ok {
		*target = se
	}
	return ok
}

func TestScanPositions(t *testing.T) {
	tokens, err := NewScanner("c d\ne", "<input>").Scan()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Pos.Line != 1 || tokens[0].Pos.Column != 1 {
		t.Fatalf("first token pos = %v", tokens[0].Pos)
	}
	if tokens[1].Pos.Line != 1 || tokens[1].Pos.Column != 3 {
		t.Fatalf("second token pos = %v", tokens[1].Pos)
	}
	// Token after the newline is on line 2, column 1.
	if tokens[3].Pos.Line != 2 || tokens[3].Pos.Column != 1 {
		t.Fatalf("line 2 token pos = %v", tokens[3].Pos)
	}
}
