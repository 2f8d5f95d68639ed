// Package midi models a generated score as absolutely timed MIDI events
// and converts Alda ASTs into that model.
package midi

import "sort"

// Note is a single sounding note. Times are in seconds.
type Note struct {
	Pitch    int // MIDI note number (0-127)
	Velocity int // 0-127
	Start    float64
	Duration float64
	Channel  int // 0-15
}

// ProgramChange selects an instrument program on a channel.
type ProgramChange struct {
	Program int
	Time    float64
	Channel int
}

// ControlChange sets a controller value on a channel.
type ControlChange struct {
	Control int
	Value   int
	Time    float64
	Channel int
}

// TempoChange sets the tempo from a point in time.
type TempoChange struct {
	BPM  float64
	Time float64
}

// Sequence is a complete generated score.
type Sequence struct {
	Notes          []Note
	ProgramChanges []ProgramChange
	ControlChanges []ControlChange
	TempoChanges   []TempoChange
	TicksPerBeat   int
}

// NewSequence returns an empty sequence with the standard resolution.
func NewSequence() *Sequence {
	return &Sequence{TicksPerBeat: DefaultTicksPerBeat}
}

// Duration returns the total length in seconds: the latest note-off time.
func (s *Sequence) Duration() float64 {
	var end float64
	for _, n := range s.Notes {
		if off := n.Start + n.Duration; off > end {
			end = off
		}
	}
	return end
}

const (
	// ControlPan is the MIDI pan controller number.
	ControlPan = 10

	DefaultTicksPerBeat = 480
	DefaultTempo        = 120.0
	DefaultOctave       = 4
	DefaultVelocity     = 69  // mf
	DefaultQuantization = 0.9 // fraction of the duration that sounds
)

// noteOffsets maps a note letter to its semitone offset from C.
var noteOffsets = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// NoteToMIDI converts a note letter, octave and accidentals to a MIDI
// note number. C4 is MIDI 60 (middle C). The result is clamped to 0-127.
func NoteToMIDI(letter string, octave int, accidentals []string) int {
	var base int
	if len(letter) > 0 {
		base = noteOffsets[lowerByte(letter[0])]
	}
	note := 12*(octave+1) + base

	for _, acc := range accidentals {
		switch acc {
		case "+":
			note++
		case "-":
			note--
		}
		// "_" (natural) carries no offset
	}

	return clampInt(note, 0, 127)
}

func sortNotes(notes []Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].Start < notes[j].Start
	})
}

func sortProgramChanges(changes []ProgramChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Time < changes[j].Time
	})
}

func sortTempoChanges(changes []TempoChange) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Time < changes[j].Time
	})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
