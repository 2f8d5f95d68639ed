package alda

import "testing"

func parseSource(t *testing.T, source string) *Root {
	t.Helper()
	root, err := Parse(source, "<input>")
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	return root
}

func firstEvents(t *testing.T, root *Root) []Node {
	t.Helper()
	if len(root.Children) == 0 {
		t.Fatal("empty root")
	}
	seq, ok := root.Children[0].(*EventSequence)
	if !ok {
		t.Fatalf("first child is %T, want *EventSequence", root.Children[0])
	}
	return seq.Events
}

func TestParseSimpleNotes(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c d e"))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i, want := range []string{"c", "d", "e"} {
		note, ok := events[i].(*Note)
		if !ok {
			t.Fatalf("event %d is %T, want *Note", i, events[i])
		}
		if note.Letter != want {
			t.Fatalf("note %d letter = %q, want %q", i, note.Letter, want)
		}
	}
}

func TestParseNoteAccidentalsAndDuration(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c++4.."))
	note := events[0].(*Note)
	if len(note.Accidentals) != 2 || note.Accidentals[0] != "+" {
		t.Fatalf("accidentals = %v", note.Accidentals)
	}
	if note.Duration == nil || len(note.Duration.Components) != 1 {
		t.Fatalf("duration = %+v", note.Duration)
	}
	nl := note.Duration.Components[0].(*NoteLength)
	if nl.Denominator != 4 || nl.Dots != 2 {
		t.Fatalf("note length = %+v", nl)
	}
}

func TestParsePartDeclaration(t *testing.T) {
	root := parseSource(t, "piano: c d e")
	part, ok := root.Children[0].(*Part)
	if !ok {
		t.Fatalf("child is %T, want *Part", root.Children[0])
	}
	if len(part.Declaration.Names) != 1 || part.Declaration.Names[0] != "piano" {
		t.Fatalf("names = %v", part.Declaration.Names)
	}
	if len(part.Events.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(part.Events.Events))
	}
}

func TestParseMultiInstrumentPartWithAlias(t *testing.T) {
	root := parseSource(t, `violin/viola "strings": c`)
	part := root.Children[0].(*Part)
	if len(part.Declaration.Names) != 2 {
		t.Fatalf("names = %v", part.Declaration.Names)
	}
	if !part.Declaration.HasAlias || part.Declaration.Alias != "strings" {
		t.Fatalf("alias = %q", part.Declaration.Alias)
	}
}

func TestParseTwoParts(t *testing.T) {
	root := parseSource(t, "piano: c d\nviolin: e f")
	if len(root.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(root.Children))
	}
	second := root.Children[1].(*Part)
	if second.Declaration.Names[0] != "violin" {
		t.Fatalf("second part = %v", second.Declaration.Names)
	}
}

func TestParseChord(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c/e/g"))
	chord, ok := events[0].(*Chord)
	if !ok {
		t.Fatalf("event is %T, want *Chord", events[0])
	}
	if len(chord.Elements) != 3 {
		t.Fatalf("got %d chord elements, want 3", len(chord.Elements))
	}
}

func TestParseChordWithOctaveChange(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c/>e"))
	chord := events[0].(*Chord)
	if len(chord.Elements) != 3 {
		t.Fatalf("got %d chord elements, want 3", len(chord.Elements))
	}
	if _, ok := chord.Elements[1].(*OctaveUp); !ok {
		t.Fatalf("element 1 is %T, want *OctaveUp", chord.Elements[1])
	}
}

func TestParseVariableDefinitionAndReference(t *testing.T) {
	root := parseSource(t, "theme = c d e\npiano: theme")
	def, ok := root.Children[0].(*EventSequence).Events[0].(*VariableDefinition)
	if !ok {
		t.Fatalf("first event is not a variable definition")
	}
	if def.Name != "theme" || len(def.Events.Events) != 3 {
		t.Fatalf("definition = %q with %d events", def.Name, len(def.Events.Events))
	}

	part := root.Children[1].(*Part)
	ref, ok := part.Events.Events[0].(*VariableReference)
	if !ok {
		t.Fatalf("part event is %T, want *VariableReference", part.Events.Events[0])
	}
	if ref.Name != "theme" {
		t.Fatalf("reference name = %q", ref.Name)
	}
}

func TestParsePartVersusVariableLookahead(t *testing.T) {
	// A name followed by = on a later token chain must stay a definition
	// even though a colon appears further down the line elsewhere.
	root := parseSource(t, "riff = c d\npiano: riff riff")
	if _, ok := root.Children[0].(*EventSequence).Events[0].(*VariableDefinition); !ok {
		t.Fatal("expected variable definition first")
	}
	part := root.Children[1].(*Part)
	if len(part.Events.Events) != 2 {
		t.Fatalf("got %d part events, want 2", len(part.Events.Events))
	}
}

func TestParseVoiceGroup(t *testing.T) {
	events := firstEvents(t, parseSource(t, "V1: c d V2: e f V0: g"))
	group, ok := events[0].(*VoiceGroup)
	if !ok {
		t.Fatalf("event is %T, want *VoiceGroup", events[0])
	}
	if len(group.Voices) != 2 {
		t.Fatalf("got %d voices, want 2", len(group.Voices))
	}
	if group.Voices[0].Number != 1 || group.Voices[1].Number != 2 {
		t.Fatalf("voice numbers = %d %d", group.Voices[0].Number, group.Voices[1].Number)
	}
	// The g after V0: is an ordinary event following the group.
	if len(events) != 2 {
		t.Fatalf("got %d events, want group + note", len(events))
	}
}

func TestParseCram(t *testing.T) {
	events := firstEvents(t, parseSource(t, "{c d e}2"))
	cram, ok := events[0].(*Cram)
	if !ok {
		t.Fatalf("event is %T, want *Cram", events[0])
	}
	if len(cram.Events.Events) != 3 {
		t.Fatalf("got %d cram events, want 3", len(cram.Events.Events))
	}
	if cram.Duration == nil {
		t.Fatal("cram duration missing")
	}
}

func TestParseRepeatAndOnRepetitions(t *testing.T) {
	events := firstEvents(t, parseSource(t, "[c d]*3"))
	repeat, ok := events[0].(*Repeat)
	if !ok {
		t.Fatalf("event is %T, want *Repeat", events[0])
	}
	if repeat.Times != 3 {
		t.Fatalf("times = %d", repeat.Times)
	}
	if _, ok := repeat.Event.(*BracketedSequence); !ok {
		t.Fatalf("repeated event is %T", repeat.Event)
	}

	// On-repetitions wraps the repeat when both are present.
	events = firstEvents(t, parseSource(t, "[c '1,3 d]*3"))
	if _, ok := events[0].(*Repeat); !ok {
		t.Fatalf("event is %T, want *Repeat", events[0])
	}
}

func TestParseOnRepetitionRanges(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c'1-2,4"))
	on, ok := events[0].(*OnRepetitions)
	if !ok {
		t.Fatalf("event is %T, want *OnRepetitions", events[0])
	}
	if len(on.Ranges) != 2 {
		t.Fatalf("ranges = %v", on.Ranges)
	}
	if on.Ranges[0].First != 1 || on.Ranges[0].Last != 2 {
		t.Fatalf("range 0 = %+v", on.Ranges[0])
	}
	if on.Ranges[1].First != 4 || on.Ranges[1].Last != 0 {
		t.Fatalf("range 1 = %+v", on.Ranges[1])
	}
}

func TestParseTieChainsDurations(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c1~1"))
	note := events[0].(*Note)
	if len(note.Duration.Components) != 2 {
		t.Fatalf("components = %v", note.Duration.Components)
	}
	if note.Slurred {
		t.Fatal("tie between durations must not slur the note")
	}
}

func TestParseSlur(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c4~ d"))
	note := events[0].(*Note)
	if len(note.Duration.Components) != 1 {
		t.Fatalf("components = %v", note.Duration.Components)
	}
	if !note.Slurred {
		t.Fatal("trailing tie should slur the note")
	}
}

func TestParseSexp(t *testing.T) {
	events := firstEvents(t, parseSource(t, "(tempo! 160) c"))
	list, ok := events[0].(*LispList)
	if !ok {
		t.Fatalf("event is %T, want *LispList", events[0])
	}
	sym := list.Elements[0].(*LispSymbol)
	if sym.Name != "tempo!" {
		t.Fatalf("symbol = %q", sym.Name)
	}
	num := list.Elements[1].(*LispNumber)
	if num.Value != 160 {
		t.Fatalf("number = %v", num.Value)
	}
}

func TestParseQuotedList(t *testing.T) {
	events := firstEvents(t, parseSource(t, "(key-sig '(g minor))"))
	list := events[0].(*LispList)
	quoted, ok := list.Elements[1].(*LispQuoted)
	if !ok {
		t.Fatalf("element is %T, want *LispQuoted", list.Elements[1])
	}
	inner, ok := quoted.Value.(*LispList)
	if !ok {
		t.Fatalf("quoted value is %T, want *LispList", quoted.Value)
	}
	if len(inner.Elements) != 2 {
		t.Fatalf("inner elements = %v", inner.Elements)
	}
}

func TestParseMarkers(t *testing.T) {
	events := firstEvents(t, parseSource(t, "%chorus c @chorus"))
	if m, ok := events[0].(*Marker); !ok || m.Name != "chorus" {
		t.Fatalf("event 0 = %+v", events[0])
	}
	if m, ok := events[2].(*AtMarker); !ok || m.Name != "chorus" {
		t.Fatalf("event 2 = %+v", events[2])
	}
}

func TestParseSyntaxErrorPosition(t *testing.T) {
	_, err := Parse("piano c d", "<input>")
	// "piano" with no colon or equals parses as a variable reference, so
	// this is fine; a broken declaration is not.
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Parse("piano/: c", "<input>")
	if err == nil {
		t.Fatal("expected syntax error")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("error type = %T", err)
	}
}

func TestParseBarline(t *testing.T) {
	events := firstEvents(t, parseSource(t, "c | d"))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if _, ok := events[1].(*Barline); !ok {
		t.Fatalf("event 1 is %T, want *Barline", events[1])
	}
}
