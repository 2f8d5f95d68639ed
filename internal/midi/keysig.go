package midi

import "strings"

// KeySignature maps note letters ("a".."g") to an accidental, "+" or "-".
type KeySignature map[string]string

func (k KeySignature) clone() KeySignature {
	out := make(KeySignature, len(k))
	for note, acc := range k {
		out[note] = acc
	}
	return out
}

func sharps(notes ...string) KeySignature {
	k := KeySignature{}
	for _, n := range notes {
		k[n] = "+"
	}
	return k
}

func flats(notes ...string) KeySignature {
	k := KeySignature{}
	for _, n := range notes {
		k[n] = "-"
	}
	return k
}

// keySignatures maps key names to their accidentals. Sharp keys accept
// both "#" and "+" spellings, flat keys both "b" and "-".
var keySignatures = map[string]KeySignature{
	// Major keys (sharp side)
	"c major":  {},
	"g major":  sharps("f"),
	"d major":  sharps("f", "c"),
	"a major":  sharps("f", "c", "g"),
	"e major":  sharps("f", "c", "g", "d"),
	"b major":  sharps("f", "c", "g", "d", "a"),
	"f# major": sharps("f", "c", "g", "d", "a", "e"),
	"f+ major": sharps("f", "c", "g", "d", "a", "e"),
	"c# major": sharps("f", "c", "g", "d", "a", "e", "b"),
	"c+ major": sharps("f", "c", "g", "d", "a", "e", "b"),

	// Major keys (flat side)
	"f major":  flats("b"),
	"bb major": flats("b", "e"),
	"b- major": flats("b", "e"),
	"eb major": flats("b", "e", "a"),
	"e- major": flats("b", "e", "a"),
	"ab major": flats("b", "e", "a", "d"),
	"a- major": flats("b", "e", "a", "d"),
	"db major": flats("b", "e", "a", "d", "g"),
	"d- major": flats("b", "e", "a", "d", "g"),
	"gb major": flats("b", "e", "a", "d", "g", "c"),
	"g- major": flats("b", "e", "a", "d", "g", "c"),
	"cb major": flats("b", "e", "a", "d", "g", "c", "f"),
	"c- major": flats("b", "e", "a", "d", "g", "c", "f"),

	// Minor keys (sharp side)
	"a minor":  {},
	"e minor":  sharps("f"),
	"b minor":  sharps("f", "c"),
	"f# minor": sharps("f", "c", "g"),
	"f+ minor": sharps("f", "c", "g"),
	"c# minor": sharps("f", "c", "g", "d"),
	"c+ minor": sharps("f", "c", "g", "d"),
	"g# minor": sharps("f", "c", "g", "d", "a"),
	"g+ minor": sharps("f", "c", "g", "d", "a"),
	"d# minor": sharps("f", "c", "g", "d", "a", "e"),
	"d+ minor": sharps("f", "c", "g", "d", "a", "e"),
	"a# minor": sharps("f", "c", "g", "d", "a", "e", "b"),
	"a+ minor": sharps("f", "c", "g", "d", "a", "e", "b"),

	// Minor keys (flat side)
	"d minor":  flats("b"),
	"g minor":  flats("b", "e"),
	"c minor":  flats("b", "e", "a"),
	"f minor":  flats("b", "e", "a", "d"),
	"bb minor": flats("b", "e", "a", "d", "g"),
	"b- minor": flats("b", "e", "a", "d", "g"),
	"eb minor": flats("b", "e", "a", "d", "g", "c"),
	"e- minor": flats("b", "e", "a", "d", "g", "c"),
	"ab minor": flats("b", "e", "a", "d", "g", "c", "f"),
	"a- minor": flats("b", "e", "a", "d", "g", "c", "f"),

	// Modes of C major
	"c ionian":     {},
	"d dorian":     {},
	"e phrygian":   {},
	"f lydian":     {},
	"g mixolydian": {},
	"a aeolian":    {},
	"b locrian":    {},
}

// modeIntervals gives each mode's offset in semitones from its parent
// major scale's tonic.
var modeIntervals = map[string]int{
	"ionian":     0,
	"dorian":     2,
	"phrygian":   4,
	"lydian":     5,
	"mixolydian": 7,
	"aeolian":    9,
	"locrian":    11,
}

var semitoneToMajor = map[int]string{
	0:  "c major",
	1:  "db major",
	2:  "d major",
	3:  "eb major",
	4:  "e major",
	5:  "f major",
	6:  "gb major",
	7:  "g major",
	8:  "ab major",
	9:  "a major",
	10: "bb major",
	11: "b major",
}

// parseKeySigString parses the string form of a key signature,
// e.g. "f+ c+ g+" or "bb eb".
func parseKeySigString(s string) KeySignature {
	keySig := KeySignature{}
	for _, token := range strings.Fields(strings.ToLower(s)) {
		note := token[:1]
		if note[0] < 'a' || note[0] > 'g' {
			continue
		}
		rest := token[1:]
		switch {
		case strings.ContainsAny(rest, "+#"):
			keySig[note] = "+"
		case strings.ContainsAny(rest, "-b"):
			keySig[note] = "-"
		}
	}
	return keySig
}

// parseExplicitAccidentals parses the spelled-out form: e flat b flat.
func parseExplicitAccidentals(symbols []string) KeySignature {
	keySig := KeySignature{}
	for i := 0; i < len(symbols); {
		if len(symbols[i]) == 1 && symbols[i][0] >= 'a' && symbols[i][0] <= 'g' && i+1 < len(symbols) {
			switch symbols[i+1] {
			case "flat":
				keySig[symbols[i]] = "-"
				i += 2
				continue
			case "sharp":
				keySig[symbols[i]] = "+"
				i += 2
				continue
			}
		}
		i++
	}
	return keySig
}

// modeKeySignature computes the key signature of a mode on any root by
// finding the parent major scale: d dorian shares c major's notes.
func modeKeySignature(root, mode string) KeySignature {
	offset, ok := modeIntervals[mode]
	if !ok {
		return nil
	}
	if root == "" {
		return nil
	}

	base, ok := noteOffsets[root[0]]
	if !ok {
		return nil
	}
	if len(root) > 1 {
		switch root[1] {
		case '#', '+':
			base++
		case '-', 'b':
			base--
		}
	}

	parent := ((base-offset)%12 + 12) % 12
	if name, ok := semitoneToMajor[parent]; ok {
		if sig, ok := keySignatures[name]; ok {
			return sig.clone()
		}
	}
	return nil
}
