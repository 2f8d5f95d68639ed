package alda

// Node is implemented by every AST node. Consumers dispatch on the
// concrete type; nodes are immutable once built.
type Node interface {
	Pos() Position
}

// Root is the top of a parsed score: a sequence of parts and
// implicit event sequences.
type Root struct {
	Children []Node
	position Position
}

func (n *Root) Pos() Position { return n.position }

// PartDeclaration names one or more instruments, optionally with an alias
// ("strings" in `violin/viola "strings":`).
type PartDeclaration struct {
	Names    []string
	Alias    string
	HasAlias bool
	position Position
}

func (n *PartDeclaration) Pos() Position { return n.position }

// Part binds a declaration to the events that follow it.
type Part struct {
	Declaration *PartDeclaration
	Events      *EventSequence
	position    Position
}

func (n *Part) Pos() Position { return n.position }

// EventSequence holds an ordered run of events.
type EventSequence struct {
	Events   []Node
	position Position
}

func (n *EventSequence) Pos() Position { return n.position }

// Note is a pitched event. Accidentals are "+", "-" and "_" in source
// order. A nil Duration means the part's default duration applies.
type Note struct {
	Letter      string
	Accidentals []string
	Duration    *Duration
	Slurred     bool
	position    Position
}

func (n *Note) Pos() Position { return n.position }

// Rest advances time without sounding.
type Rest struct {
	Duration *Duration
	position Position
}

func (n *Rest) Pos() Position { return n.position }

// Chord sounds its notes simultaneously. Besides notes and rests the
// elements may include octave changes and S-expressions, which apply
// between the chord's notes.
type Chord struct {
	Elements []Node
	position Position
}

func (n *Chord) Pos() Position { return n.position }

// Duration is one or more tie-chained duration components.
type Duration struct {
	Components []DurationComponent
	position   Position
}

func (n *Duration) Pos() Position { return n.position }

// DurationComponent is one element of a duration: a note length,
// a millisecond count, or a second count.
type DurationComponent interface {
	Node
	durationComponent()
}

// NoteLength is a standard denominator-based length (4 = quarter note)
// with optional dots.
type NoteLength struct {
	Denominator float64
	Dots        int
	position    Position
}

func (n *NoteLength) durationComponent() {}
func (n *NoteLength) Pos() Position      { return n.position }

// NoteLengthMs is an absolute length in milliseconds.
type NoteLengthMs struct {
	Ms       float64
	position Position
}

func (n *NoteLengthMs) durationComponent() {}
func (n *NoteLengthMs) Pos() Position      { return n.position }

// NoteLengthSeconds is an absolute length in seconds.
type NoteLengthSeconds struct {
	Seconds  float64
	position Position
}

func (n *NoteLengthSeconds) durationComponent() {}
func (n *NoteLengthSeconds) Pos() Position      { return n.position }

// Barline is purely visual and generates nothing.
type Barline struct {
	position Position
}

func (n *Barline) Pos() Position { return n.position }

// OctaveSet jumps to an absolute octave (o4).
type OctaveSet struct {
	Octave   int
	position Position
}

func (n *OctaveSet) Pos() Position { return n.position }

// OctaveUp raises the current octave by one (>).
type OctaveUp struct {
	position Position
}

func (n *OctaveUp) Pos() Position { return n.position }

// OctaveDown lowers the current octave by one (<).
type OctaveDown struct {
	position Position
}

func (n *OctaveDown) Pos() Position { return n.position }

// LispList is an S-expression attribute form like (tempo 120).
type LispList struct {
	Elements []Node
	position Position
}

func (n *LispList) Pos() Position { return n.position }

// LispSymbol is a bare symbol inside an S-expression.
type LispSymbol struct {
	Name     string
	position Position
}

func (n *LispSymbol) Pos() Position { return n.position }

// LispNumber is a numeric literal inside an S-expression.
type LispNumber struct {
	Value    float64
	position Position
}

func (n *LispNumber) Pos() Position { return n.position }

// LispString is a string literal inside an S-expression.
type LispString struct {
	Value    string
	position Position
}

func (n *LispString) Pos() Position { return n.position }

// LispQuoted wraps a quoted form like '(g minor) or 'up.
type LispQuoted struct {
	Value    Node
	position Position
}

func (n *LispQuoted) Pos() Position { return n.position }

// VariableDefinition stores a named event sequence (name = events).
type VariableDefinition struct {
	Name     string
	Events   *EventSequence
	position Position
}

func (n *VariableDefinition) Pos() Position { return n.position }

// VariableReference expands a previously defined variable.
type VariableReference struct {
	Name     string
	position Position
}

func (n *VariableReference) Pos() Position { return n.position }

// Marker records the current time under a name (%name).
type Marker struct {
	Name     string
	position Position
}

func (n *Marker) Pos() Position { return n.position }

// AtMarker rewinds the current time to a recorded marker (@name).
type AtMarker struct {
	Name     string
	position Position
}

func (n *AtMarker) Pos() Position { return n.position }

// Voice is one numbered voice inside a voice group.
type Voice struct {
	Number   int
	Events   *EventSequence
	position Position
}

func (n *Voice) Pos() Position { return n.position }

// VoiceGroup runs its voices in parallel from a shared start time.
type VoiceGroup struct {
	Voices   []*Voice
	position Position
}

func (n *VoiceGroup) Pos() Position { return n.position }

// Cram squeezes its events into a single duration ({c d e}2).
type Cram struct {
	Events   *EventSequence
	Duration *Duration
	position Position
}

func (n *Cram) Pos() Position { return n.position }

// Repeat plays its event a fixed number of times (*N).
type Repeat struct {
	Event    Node
	Times    int
	position Position
}

func (n *Repeat) Pos() Position { return n.position }

// RepetitionRange selects repetitions First..Last; Last of zero means
// the single repetition First.
type RepetitionRange struct {
	First int
	Last  int
}

// OnRepetitions plays its event only on the selected repetitions ('1-3,5).
type OnRepetitions struct {
	Event    Node
	Ranges   []RepetitionRange
	position Position
}

func (n *OnRepetitions) Pos() Position { return n.position }

// BracketedSequence groups events so postfix operators apply to the
// whole group ([c d]*3).
type BracketedSequence struct {
	Events   *EventSequence
	position Position
}

func (n *BracketedSequence) Pos() Position { return n.position }
