package midi

import (
	"fmt"

	"github.com/cbegin/aldakit-go/internal/alda"
)

// partState tracks per-instrument generation state.
type partState struct {
	octave          int
	tempo           float64 // BPM
	volume          int     // velocity, 0-127
	quantization    float64 // fraction of the duration that sounds
	defaultDuration float64 // beats
	currentTime     float64 // seconds
	channel         int
	program         int
	keySignature    KeySignature
	transpose       int // semitones
}

func newPartState() *partState {
	return &partState{
		octave:          DefaultOctave,
		tempo:           DefaultTempo,
		volume:          DefaultVelocity,
		quantization:    DefaultQuantization,
		defaultDuration: 1.0,
		keySignature:    KeySignature{},
	}
}

// Generator converts an Alda AST into a Sequence. A fresh Generator (or a
// fresh call to Generate) starts from default state.
type Generator struct {
	seq *Sequence

	globalTempo      float64
	variables        map[string]*alda.EventSequence
	markers          map[string]float64
	parts            map[string]*partState
	currentParts     []string
	nextChannel      int
	repetitionNumber int
}

// NewGenerator returns a generator with default state.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds a MIDI sequence from an AST. Generation state resets on
// every call.
func (g *Generator) Generate(root *alda.Root) *Sequence {
	g.seq = NewSequence()
	g.globalTempo = DefaultTempo
	g.variables = make(map[string]*alda.EventSequence)
	g.markers = make(map[string]float64)
	g.parts = make(map[string]*partState)
	g.currentParts = nil
	g.nextChannel = 0
	g.repetitionNumber = 1

	g.seq.TempoChanges = append(g.seq.TempoChanges, TempoChange{BPM: g.globalTempo, Time: 0})

	for _, child := range root.Children {
		g.processNode(child)
	}

	sortNotes(g.seq.Notes)
	sortProgramChanges(g.seq.ProgramChanges)
	sortTempoChanges(g.seq.TempoChanges)

	return g.seq
}

// Generate is the package-level convenience for one-shot generation.
func Generate(root *alda.Root) *Sequence {
	return NewGenerator().Generate(root)
}

// currentPart returns the first active part, creating an implicit default
// part when no part has been declared yet.
func (g *Generator) currentPart() *partState {
	if len(g.currentParts) == 0 {
		part := newPartState()
		part.channel = g.nextChannel
		g.nextChannel = clampInt(g.nextChannel+1, 0, 15)
		g.parts["_default"] = part
		g.currentParts = []string{"_default"}
	}
	return g.parts[g.currentParts[0]]
}

// activeParts returns all currently active part states.
func (g *Generator) activeParts() []*partState {
	if len(g.currentParts) == 0 {
		return []*partState{g.currentPart()}
	}
	parts := make([]*partState, len(g.currentParts))
	for i, name := range g.currentParts {
		parts[i] = g.parts[name]
	}
	return parts
}

func (g *Generator) processNode(node alda.Node) {
	switch n := node.(type) {
	case *alda.Part:
		g.processPart(n)
	case *alda.EventSequence:
		g.processEventSequence(n)
	case *alda.Note:
		g.processNote(n, false)
	case *alda.Rest:
		g.processRest(n)
	case *alda.Chord:
		g.processChord(n)
	case *alda.OctaveSet:
		for _, part := range g.activeParts() {
			part.octave = n.Octave
		}
	case *alda.OctaveUp:
		for _, part := range g.activeParts() {
			part.octave++
		}
	case *alda.OctaveDown:
		for _, part := range g.activeParts() {
			part.octave--
		}
	case *alda.Barline:
		// purely visual
	case *alda.LispList:
		g.processLispList(n)
	case *alda.VariableDefinition:
		g.variables[n.Name] = n.Events
	case *alda.VariableReference:
		if events, ok := g.variables[n.Name]; ok {
			g.processEventSequence(events)
		}
	case *alda.Marker:
		g.markers[n.Name] = g.currentPart().currentTime
	case *alda.AtMarker:
		if target, ok := g.markers[n.Name]; ok {
			for _, part := range g.activeParts() {
				part.currentTime = target
			}
		}
	case *alda.VoiceGroup:
		g.processVoiceGroup(n)
	case *alda.Cram:
		g.processCram(n)
	case *alda.Repeat:
		g.processRepeat(n)
	case *alda.OnRepetitions:
		g.processOnRepetitions(n)
	case *alda.BracketedSequence:
		g.processEventSequence(n.Events)
	}
}

func (g *Generator) processPart(node *alda.Part) {
	decl := node.Declaration
	active := make([]string, 0, len(decl.Names))

	for i, name := range decl.Names {
		// A group alias names the group; each instrument still gets its
		// own channel.
		partName := name
		switch {
		case decl.HasAlias && len(decl.Names) > 1:
			partName = fmt.Sprintf("%s_%d", decl.Alias, i)
		case decl.HasAlias:
			partName = decl.Alias
		}

		if _, ok := g.parts[partName]; !ok {
			program := InstrumentProgram(name)
			channel := g.nextChannel
			g.nextChannel = clampInt(g.nextChannel+1, 0, 15)

			part := newPartState()
			part.channel = channel
			part.program = program
			part.tempo = g.globalTempo
			g.parts[partName] = part

			g.seq.ProgramChanges = append(g.seq.ProgramChanges, ProgramChange{
				Program: program,
				Time:    0,
				Channel: channel,
			})
		}

		active = append(active, partName)
	}

	g.currentParts = active
	g.processEventSequence(node.Events)
}

func (g *Generator) processEventSequence(node *alda.EventSequence) {
	for _, event := range node.Events {
		g.processNode(event)
	}
}

// processNote emits a note for every active part and returns the note's
// nominal duration in seconds. When inChord is set, time does not advance.
func (g *Generator) processNote(node *alda.Note, inChord bool) float64 {
	var durationSecs float64

	for _, part := range g.activeParts() {
		accidentals := node.Accidentals
		if len(accidentals) == 0 {
			// No explicit accidentals: the key signature decides.
			if acc, ok := part.keySignature[node.Letter]; ok {
				accidentals = []string{acc}
			}
		} else if containsNatural(accidentals) {
			// An explicit natural cancels the key signature.
			accidentals = nil
		}

		pitch := NoteToMIDI(node.Letter, part.octave, accidentals)
		if part.transpose != 0 {
			pitch = clampInt(pitch+part.transpose, 0, 127)
		}

		durationBeats := g.calculateDuration(node.Duration, part)
		durationSecs = beatsToSeconds(durationBeats, part.tempo)

		// Quantization shortens the sounding length, not the spacing.
		// Slurred notes sound for their full duration.
		sounding := durationSecs
		if !node.Slurred {
			sounding = durationSecs * part.quantization
		}

		g.seq.Notes = append(g.seq.Notes, Note{
			Pitch:    pitch,
			Velocity: part.volume,
			Start:    part.currentTime,
			Duration: sounding,
			Channel:  part.channel,
		})

		if node.Duration != nil {
			part.defaultDuration = durationBeats
		}
		if !inChord {
			part.currentTime += durationSecs
		}
	}

	return durationSecs
}

func (g *Generator) processRest(node *alda.Rest) {
	for _, part := range g.activeParts() {
		durationBeats := g.calculateDuration(node.Duration, part)
		durationSecs := beatsToSeconds(durationBeats, part.tempo)

		if node.Duration != nil {
			part.defaultDuration = durationBeats
		}
		part.currentTime += durationSecs
	}
}

func (g *Generator) processChord(node *alda.Chord) {
	parts := g.activeParts()
	startTimes := make([]float64, len(parts))
	for i, part := range parts {
		startTimes[i] = part.currentTime
	}

	var maxDuration float64
	for _, item := range node.Elements {
		switch e := item.(type) {
		case *alda.Note:
			if d := g.processNote(e, true); d > maxDuration {
				maxDuration = d
			}
		case *alda.OctaveSet:
			for _, part := range parts {
				part.octave = e.Octave
			}
		case *alda.OctaveUp:
			for _, part := range parts {
				part.octave++
			}
		case *alda.OctaveDown:
			for _, part := range parts {
				part.octave--
			}
		case *alda.LispList:
			g.processLispList(e)
		}
	}

	// All parts advance together by the longest chord member.
	for i, part := range parts {
		part.currentTime = startTimes[i] + maxDuration
	}
}

func (g *Generator) processVoiceGroup(node *alda.VoiceGroup) {
	parts := g.activeParts()
	startTimes := make([]float64, len(parts))
	maxEnd := 0.0
	for i, part := range parts {
		startTimes[i] = part.currentTime
		if part.currentTime > maxEnd {
			maxEnd = part.currentTime
		}
	}

	for _, voice := range node.Voices {
		for i, part := range parts {
			part.currentTime = startTimes[i]
		}
		g.processEventSequence(voice.Events)
		for _, part := range parts {
			if part.currentTime > maxEnd {
				maxEnd = part.currentTime
			}
		}
	}

	// The part resumes at the end of the longest voice.
	for _, part := range parts {
		part.currentTime = maxEnd
	}
}

func (g *Generator) processCram(node *alda.Cram) {
	parts := g.activeParts()
	first := parts[0]

	var totalBeats float64
	if node.Duration != nil {
		totalBeats = g.calculateDuration(node.Duration, first)
	} else {
		totalBeats = first.defaultDuration
	}
	totalSecs := beatsToSeconds(totalBeats, first.tempo)

	eventCount := countSoundingEvents(node.Events)
	if eventCount == 0 {
		return
	}

	type saved struct {
		time, duration float64
	}
	savedStates := make([]saved, len(parts))
	for i, part := range parts {
		savedStates[i] = saved{part.currentTime, part.defaultDuration}
		part.defaultDuration = totalBeats / float64(eventCount)
	}

	g.processEventSequence(node.Events)

	// The cram occupies exactly its stated duration regardless of how the
	// inner events land.
	for i, part := range parts {
		part.defaultDuration = savedStates[i].duration
		part.currentTime = savedStates[i].time + totalSecs
	}
}

func (g *Generator) processRepeat(node *alda.Repeat) {
	for i := 0; i < node.Times; i++ {
		g.repetitionNumber = i + 1
		g.processNode(node.Event)
	}
	g.repetitionNumber = 1
}

func (g *Generator) processOnRepetitions(node *alda.OnRepetitions) {
	current := g.repetitionNumber
	for _, r := range node.Ranges {
		if r.Last == 0 {
			if current == r.First {
				g.processNode(node.Event)
				return
			}
		} else if r.First <= current && current <= r.Last {
			g.processNode(node.Event)
			return
		}
	}
}

// calculateDuration resolves a duration node to beats, falling back to
// the part's default duration.
func (g *Generator) calculateDuration(duration *alda.Duration, part *partState) float64 {
	if duration == nil {
		return part.defaultDuration
	}

	var totalBeats float64
	for _, component := range duration.Components {
		switch c := component.(type) {
		case *alda.NoteLength:
			// 4 = quarter note = 1 beat; each dot adds half the last value.
			beats := 4.0 / c.Denominator
			dotValue := beats
			for i := 0; i < c.Dots; i++ {
				dotValue /= 2
				beats += dotValue
			}
			totalBeats += beats
		case *alda.NoteLengthMs:
			totalBeats += (c.Ms / 1000.0) * (part.tempo / 60.0)
		case *alda.NoteLengthSeconds:
			totalBeats += c.Seconds * (part.tempo / 60.0)
		}
	}
	return totalBeats
}

func beatsToSeconds(beats, tempo float64) float64 {
	return beats * 60.0 / tempo
}

// countSoundingEvents counts the notes, rests, chords and crams a cram
// will distribute its duration over.
func countSoundingEvents(sequence *alda.EventSequence) int {
	count := 0
	for _, event := range sequence.Events {
		switch e := event.(type) {
		case *alda.Note, *alda.Rest, *alda.Chord, *alda.Cram:
			count++
		case *alda.BracketedSequence:
			count += countSoundingEvents(e.Events)
		case *alda.Repeat:
			inner := 1
			if bs, ok := e.Event.(*alda.BracketedSequence); ok {
				inner = countSoundingEvents(bs.Events)
			}
			count += inner * e.Times
		}
	}
	return count
}

func containsNatural(accidentals []string) bool {
	for _, acc := range accidentals {
		if acc == "_" {
			return true
		}
	}
	return false
}
