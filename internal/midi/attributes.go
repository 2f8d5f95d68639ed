package midi

import (
	"strings"

	"github.com/cbegin/aldakit-go/internal/alda"
)

// dynamicVelocities maps dynamic markings to velocities, following the
// 0-100 volume to 0-127 velocity mapping.
var dynamicVelocities = map[string]int{
	"pppppp": 1,
	"ppppp":  10,
	"pppp":   20,
	"ppp":    30,
	"pp":     39,
	"p":      50,
	"mp":     58,
	"mf":     69,
	"f":      79,
	"ff":     88,
	"fff":    98,
	"ffff":   108,
	"fffff":  117,
	"ffffff": 127,
}

// processLispList interprets an attribute form like (tempo 120).
// Interpretation is lenient: unknown symbols and malformed argument
// shapes are silent no-ops.
func (g *Generator) processLispList(node *alda.LispList) {
	if len(node.Elements) == 0 {
		return
	}

	first, ok := node.Elements[0].(*alda.LispSymbol)
	if !ok {
		return
	}

	name := strings.ToLower(first.Name)
	args := node.Elements[1:]
	parts := g.activeParts()

	switch name {
	case "tempo", "tempo!":
		if bpm, ok := numberArg(args); ok {
			if name == "tempo!" {
				// Bang form applies to every part, declared or not.
				g.globalTempo = bpm
				for _, p := range g.parts {
					p.tempo = bpm
				}
			} else {
				for _, part := range parts {
					part.tempo = bpm
				}
			}
			g.seq.TempoChanges = append(g.seq.TempoChanges, TempoChange{
				BPM:  bpm,
				Time: parts[0].currentTime,
			})
		}

	case "vol", "volume", "vol!", "volume!":
		if vol, ok := numberArg(args); ok {
			velocity := clampInt(int(vol)*127/100, 0, 127)
			for _, part := range parts {
				part.volume = velocity
			}
		}

	case "quant", "quantize", "quantization":
		if quant, ok := numberArg(args); ok {
			quantization := quant / 100.0
			if quantization < 0 {
				quantization = 0
			}
			if quantization > 1 {
				quantization = 1
			}
			for _, part := range parts {
				part.quantization = quantization
			}
		}

	case "panning":
		if pan, ok := numberArg(args); ok {
			value := clampInt(int(pan)*127/100, 0, 127)
			for _, part := range parts {
				g.seq.ControlChanges = append(g.seq.ControlChanges, ControlChange{
					Control: ControlPan,
					Value:   value,
					Time:    part.currentTime,
					Channel: part.channel,
				})
			}
		}

	case "octave", "octave!":
		if len(args) == 0 {
			return
		}
		switch arg := args[0].(type) {
		case *alda.LispNumber:
			for _, part := range parts {
				part.octave = int(arg.Value)
			}
		case *alda.LispQuoted:
			if sym, ok := arg.Value.(*alda.LispSymbol); ok {
				g.shiftOctave(parts, sym.Name)
			}
		case *alda.LispSymbol:
			// Unquoted up/down also accepted.
			g.shiftOctave(parts, arg.Name)
		}

	case "key-sig", "key-signature", "key-sig!", "key-signature!":
		if keySig := parseKeySignatureArgs(args); keySig != nil {
			if strings.HasSuffix(name, "!") {
				for _, p := range g.parts {
					p.keySignature = keySig.clone()
				}
			} else {
				for _, part := range parts {
					part.keySignature = keySig.clone()
				}
			}
		}

	case "transpose", "transpose!":
		if semitones, ok := numberArg(args); ok {
			if strings.HasSuffix(name, "!") {
				for _, p := range g.parts {
					p.transpose = int(semitones)
				}
			} else {
				for _, part := range parts {
					part.transpose = int(semitones)
				}
			}
		}

	default:
		if velocity, ok := dynamicVelocities[name]; ok {
			for _, part := range parts {
				part.volume = velocity
			}
		}
	}
}

func (g *Generator) shiftOctave(parts []*partState, direction string) {
	switch strings.ToLower(direction) {
	case "up":
		for _, part := range parts {
			part.octave++
		}
	case "down":
		for _, part := range parts {
			part.octave--
		}
	}
}

// numberArg extracts a leading numeric argument.
func numberArg(args []alda.Node) (float64, bool) {
	if len(args) == 0 {
		return 0, false
	}
	num, ok := args[0].(*alda.LispNumber)
	if !ok {
		return 0, false
	}
	return num.Value, true
}

// parseKeySignatureArgs accepts the string form "f+ c+ g+", the quoted
// name form '(g minor) or '(c ionian), and the spelled-out form
// '(e (flat) b (flat)).
func parseKeySignatureArgs(args []alda.Node) KeySignature {
	if len(args) == 0 {
		return nil
	}

	switch arg := args[0].(type) {
	case *alda.LispString:
		return parseKeySigString(arg.Value)
	case *alda.LispQuoted:
		if list, ok := arg.Value.(*alda.LispList); ok {
			return parseQuotedKeySig(list)
		}
	}
	return nil
}

func parseQuotedKeySig(node *alda.LispList) KeySignature {
	var symbols []string
	for _, elem := range node.Elements {
		switch e := elem.(type) {
		case *alda.LispSymbol:
			symbols = append(symbols, strings.ToLower(e.Name))
		case *alda.LispList:
			// Nested (flat) or (sharp)
			if len(e.Elements) > 0 {
				if sym, ok := e.Elements[0].(*alda.LispSymbol); ok {
					symbols = append(symbols, strings.ToLower(sym.Name))
				}
			}
		}
	}

	if len(symbols) == 0 {
		return nil
	}

	if len(symbols) >= 2 && (symbols[1] == "flat" || symbols[1] == "sharp") {
		return parseExplicitAccidentals(symbols)
	}

	if len(symbols) >= 2 {
		keyName := strings.Join(symbols, " ")
		if sig, ok := keySignatures[keyName]; ok {
			return sig.clone()
		}
		if _, ok := modeIntervals[symbols[1]]; ok {
			return modeKeySignature(symbols[0], symbols[1])
		}
	}

	return nil
}
