package midi

import "strings"

// General MIDI program numbers.
const (
	ProgramAcousticGrandPiano = 0
	ProgramViolin             = 40
	ProgramViola              = 41
	ProgramCello              = 42
)

// instrumentPrograms maps instrument names to General MIDI programs.
var instrumentPrograms = map[string]int{
	// Piano
	"piano":                 0,
	"acoustic-grand-piano":  0,
	"bright-acoustic-piano": 1,
	"electric-grand-piano":  2,
	"honky-tonk-piano":      3,
	"electric-piano-1":      4,
	"electric-piano-2":      5,
	"harpsichord":           6,
	"clavinet":              7,

	// Chromatic percussion
	"celesta":       8,
	"glockenspiel":  9,
	"music-box":     10,
	"vibraphone":    11,
	"marimba":       12,
	"xylophone":     13,
	"tubular-bells": 14,
	"dulcimer":      15,

	// Organ
	"organ":            16,
	"drawbar-organ":    16,
	"percussive-organ": 17,
	"rock-organ":       18,
	"church-organ":     19,
	"reed-organ":       20,
	"accordion":        21,
	"harmonica":        22,
	"tango-accordion":  23,

	// Guitar
	"guitar":                    24,
	"acoustic-guitar":           24,
	"acoustic-guitar-nylon":     24,
	"acoustic-guitar-steel":     25,
	"electric-guitar-jazz":      26,
	"electric-guitar-clean":     27,
	"electric-guitar-muted":     28,
	"overdriven-guitar":         29,
	"distortion-guitar":         30,
	"electric-guitar-distorted": 30,
	"guitar-harmonics":          31,

	// Bass
	"bass":                 32,
	"acoustic-bass":        32,
	"electric-bass":        33,
	"electric-bass-finger": 33,
	"electric-bass-pick":   34,
	"fretless-bass":        35,
	"slap-bass-1":          36,
	"slap-bass-2":          37,
	"synth-bass-1":         38,
	"synth-bass-2":         39,

	// Strings
	"violin":             40,
	"viola":              41,
	"cello":              42,
	"contrabass":         43,
	"double-bass":        43,
	"tremolo-strings":    44,
	"pizzicato-strings":  45,
	"harp":               46,
	"orchestral-harp":    46,
	"timpani":            47,

	// Ensemble
	"string-ensemble-1": 48,
	"string-ensemble-2": 49,
	"synth-strings-1":   50,
	"synth-strings-2":   51,
	"choir":             52,
	"choir-aahs":        52,
	"voice-oohs":        53,
	"synth-choir":       54,
	"orchestra-hit":     55,

	// Brass
	"trumpet":       56,
	"trombone":      57,
	"tuba":          58,
	"muted-trumpet": 59,
	"french-horn":   60,
	"brass-section": 61,
	"synth-brass-1": 62,
	"synth-brass-2": 63,

	// Reed
	"soprano-sax":  64,
	"alto-sax":     65,
	"tenor-sax":    66,
	"baritone-sax": 67,
	"oboe":         68,
	"english-horn": 69,
	"bassoon":      70,
	"clarinet":     71,

	// Pipe
	"piccolo":      72,
	"flute":        73,
	"recorder":     74,
	"pan-flute":    75,
	"blown-bottle": 76,
	"shakuhachi":   77,
	"whistle":      78,
	"ocarina":      79,

	// Synth
	"midi-synth-pad-new-age": 88,
}

// InstrumentProgram looks up the General MIDI program for an instrument
// name. Unknown names map to the acoustic grand piano.
func InstrumentProgram(name string) int {
	normalized := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	if program, ok := instrumentPrograms[normalized]; ok {
		return program
	}
	return ProgramAcousticGrandPiano
}
