package smf

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/cbegin/aldakit-go/internal/midi"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestEncodeVarLen(t *testing.T) {
	cases := []struct {
		value int
		want  []byte
	}{
		{0, []byte{0x00}},
		{0x40, []byte{0x40}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{0x2000, []byte{0xC0, 0x00}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x0FFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, c := range cases {
		got := encodeVarLen(c.value)
		if !bytes.Equal(got, c.want) {
			t.Fatalf("encodeVarLen(%#x) = % X, want % X", c.value, got, c.want)
		}
		value, consumed, err := decodeVarLen(got, 0)
		if err != nil {
			t.Fatalf("decodeVarLen(% X): %v", got, err)
		}
		if value != c.value || consumed != len(got) {
			t.Fatalf("decodeVarLen(% X) = %#x (%d bytes), want %#x (%d bytes)",
				got, value, consumed, c.value, len(got))
		}
	}
}

func TestRoundTrip(t *testing.T) {
	seq := midi.NewSequence()
	seq.TempoChanges = []midi.TempoChange{{BPM: 120, Time: 0}}
	seq.ProgramChanges = []midi.ProgramChange{
		{Program: 0, Time: 0, Channel: 0},
		{Program: 40, Time: 0, Channel: 1},
	}
	seq.Notes = []midi.Note{
		{Pitch: 60, Velocity: 80, Start: 0, Duration: 0.45, Channel: 0},
		{Pitch: 64, Velocity: 80, Start: 0.5, Duration: 0.45, Channel: 0},
		{Pitch: 67, Velocity: 90, Start: 0, Duration: 0.95, Channel: 1},
	}

	var buf bytes.Buffer
	if err := Write(seq, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if len(got.Notes) != 3 {
		t.Fatalf("got %d notes, want 3", len(got.Notes))
	}

	pitches := map[int]bool{}
	for _, n := range got.Notes {
		pitches[n.Pitch] = true
	}
	for _, p := range []int{60, 64, 67} {
		if !pitches[p] {
			t.Fatalf("missing pitch %d in %+v", p, got.Notes)
		}
	}

	for _, n := range got.Notes {
		var orig midi.Note
		for _, o := range seq.Notes {
			if o.Pitch == n.Pitch {
				orig = o
			}
		}
		if n.Channel != orig.Channel {
			t.Fatalf("pitch %d on channel %d, want %d", n.Pitch, n.Channel, orig.Channel)
		}
		if !almostEqual(n.Start, orig.Start) || !almostEqual(n.Duration, orig.Duration) {
			t.Fatalf("pitch %d timing %v+%v, want %v+%v",
				n.Pitch, n.Start, n.Duration, orig.Start, orig.Duration)
		}
		if n.Velocity != orig.Velocity {
			t.Fatalf("pitch %d velocity %d, want %d", n.Pitch, n.Velocity, orig.Velocity)
		}
	}

	if len(got.ProgramChanges) != 2 {
		t.Fatalf("got %d program changes, want 2", len(got.ProgramChanges))
	}
	programs := map[int]int{}
	for _, pc := range got.ProgramChanges {
		programs[pc.Channel] = pc.Program
	}
	if programs[0] != 0 || programs[1] != 40 {
		t.Fatalf("programs = %v", programs)
	}
}

func TestRoundTripFile(t *testing.T) {
	seq := midi.NewSequence()
	seq.TempoChanges = []midi.TempoChange{{BPM: 90, Time: 0}}
	seq.Notes = []midi.Note{{Pitch: 69, Velocity: 100, Start: 0, Duration: 1.0, Channel: 0}}

	path := filepath.Join(t.TempDir(), "out.mid")
	if err := WriteFile(seq, path); err != nil {
		t.Fatalf("write file: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(got.Notes) != 1 || got.Notes[0].Pitch != 69 {
		t.Fatalf("notes = %+v", got.Notes)
	}
	// 90 BPM quarter note: a 1.0s duration stays 1.0s through the tempo map.
	if !almostEqual(got.Notes[0].Duration, 1.0) {
		t.Fatalf("duration = %v, want 1.0", got.Notes[0].Duration)
	}
	if len(got.TempoChanges) != 1 || !almostEqual(got.TempoChanges[0].BPM, 90) {
		t.Fatalf("tempo changes = %+v", got.TempoChanges)
	}
}

func TestRetriggerReleasesBeforeRestrike(t *testing.T) {
	// Two back-to-back notes on the same pitch share a tick boundary. The
	// off must be written before the on or the second note is swallowed.
	seq := midi.NewSequence()
	seq.Notes = []midi.Note{
		{Pitch: 60, Velocity: 80, Start: 0, Duration: 0.5, Channel: 0},
		{Pitch: 60, Velocity: 80, Start: 0.5, Duration: 0.5, Channel: 0},
	}

	var buf bytes.Buffer
	if err := Write(seq, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Notes) != 2 {
		t.Fatalf("got %d notes, want 2", len(got.Notes))
	}
}

func TestReadErrors(t *testing.T) {
	if _, err := Read([]byte("MThd")); err == nil {
		t.Fatal("expected error for truncated file")
	}
	if _, err := Read(make([]byte, 20)); err == nil {
		t.Fatal("expected error for missing MThd magic")
	}

	// SMPTE time division sets the high bit of the division field.
	smpte := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6,
		0, 1, 0, 1, 0xE7, 0x28,
	}
	_, err := Read(smpte)
	if err == nil {
		t.Fatal("expected error for SMPTE time division")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("error type = %T, want *ParseError", err)
	}
}

func TestDefaultTempoWhenMissing(t *testing.T) {
	seq := midi.NewSequence()
	seq.Notes = []midi.Note{{Pitch: 60, Velocity: 80, Start: 0, Duration: 0.5, Channel: 0}}

	var buf bytes.Buffer
	if err := Write(seq, &buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(buf.Bytes())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	// The writer emits a 120 BPM tempo event when none is given.
	if !almostEqual(got.Notes[0].Duration, 0.5) {
		t.Fatalf("duration = %v, want 0.5", got.Notes[0].Duration)
	}
}
