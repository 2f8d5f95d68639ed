// Package aldakit compiles Alda-style music notation to MIDI sequences
// and plays them back through pluggable backends.
package aldakit

import (
	"os"

	"github.com/cbegin/aldakit-go/internal/alda"
	"github.com/cbegin/aldakit-go/internal/midi"
)

// Parse scans and parses notation source into an AST.
func Parse(source string) (*alda.Root, error) {
	return alda.Parse(source, "")
}

// ParseFile parses the notation file at path.
func ParseFile(path string) (*alda.Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return alda.Parse(string(data), path)
}

// Generate turns a parsed score into an absolutely-timed MIDI sequence.
func Generate(root *alda.Root) *midi.Sequence {
	return midi.Generate(root)
}

// Compile parses source and generates its MIDI sequence in one step.
func Compile(source string) (*midi.Sequence, error) {
	root, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Generate(root), nil
}

// CompileFile compiles the notation file at path.
func CompileFile(path string) (*midi.Sequence, error) {
	root, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Generate(root), nil
}
