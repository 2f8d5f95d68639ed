// Package smf reads and writes Standard MIDI Files (format 1).
package smf

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/cbegin/aldakit-go/internal/midi"
)

const defaultTempoUS = 500000 // 120 BPM

// trackEvent is an event at an absolute tick, before delta encoding.
type trackEvent struct {
	tick int
	data []byte
}

// Write encodes a sequence as a format-1 SMF: a tempo track followed by
// one track per channel.
func Write(seq *midi.Sequence, w io.Writer) error {
	channels := map[int]bool{}
	for _, n := range seq.Notes {
		channels[n.Channel] = true
	}
	for _, pc := range seq.ProgramChanges {
		channels[pc.Channel] = true
	}

	tempoUS := defaultTempoUS
	if len(seq.TempoChanges) > 0 {
		tempoUS = bpmToTempoUS(seq.TempoChanges[0].BPM)
	}

	tracks := [][]byte{buildTempoTrack(seq)}

	sorted := make([]int, 0, len(channels))
	for ch := range channels {
		sorted = append(sorted, ch)
	}
	sort.Ints(sorted)
	for _, ch := range sorted {
		tracks = append(tracks, buildChannelTrack(seq, ch, tempoUS))
	}

	var buf bytes.Buffer
	writeHeader(&buf, len(tracks), seq.TicksPerBeat)
	for _, track := range tracks {
		writeTrackChunk(&buf, track)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes a sequence to path as a Standard MIDI File.
func WriteFile(seq *midi.Sequence, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(seq, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHeader(buf *bytes.Buffer, numTracks, ticksPerBeat int) {
	buf.WriteString("MThd")
	binary.Write(buf, binary.BigEndian, uint32(6))
	binary.Write(buf, binary.BigEndian, uint16(1)) // format 1
	binary.Write(buf, binary.BigEndian, uint16(numTracks))
	binary.Write(buf, binary.BigEndian, uint16(ticksPerBeat))
}

func writeTrackChunk(buf *bytes.Buffer, track []byte) {
	buf.WriteString("MTrk")
	binary.Write(buf, binary.BigEndian, uint32(len(track)))
	buf.Write(track)
}

func buildTempoTrack(seq *midi.Sequence) []byte {
	var events []trackEvent
	currentTempoUS := defaultTempoUS

	if len(seq.TempoChanges) > 0 {
		changes := append([]midi.TempoChange(nil), seq.TempoChanges...)
		sort.SliceStable(changes, func(i, j int) bool { return changes[i].Time < changes[j].Time })

		for _, tc := range changes {
			tempoUS := bpmToTempoUS(tc.BPM)
			tick := secondsToTicks(tc.Time, seq.TicksPerBeat, currentTempoUS)
			events = append(events, trackEvent{tick, tempoMeta(tempoUS)})
			currentTempoUS = tempoUS
		}
	} else {
		events = append(events, trackEvent{0, tempoMeta(defaultTempoUS)})
	}

	return finishTrack(events)
}

func tempoMeta(tempoUS int) []byte {
	// FF 51 03 tt tt tt
	return []byte{0xFF, 0x51, 0x03, byte(tempoUS >> 16), byte(tempoUS >> 8), byte(tempoUS)}
}

func buildChannelTrack(seq *midi.Sequence, channel, tempoUS int) []byte {
	var events []trackEvent
	tpb := seq.TicksPerBeat

	for _, pc := range seq.ProgramChanges {
		if pc.Channel == channel {
			tick := secondsToTicks(pc.Time, tpb, tempoUS)
			events = append(events, trackEvent{tick, []byte{
				0xC0 | byte(channel&0x0F), byte(pc.Program & 0x7F),
			}})
		}
	}

	for _, cc := range seq.ControlChanges {
		if cc.Channel == channel {
			tick := secondsToTicks(cc.Time, tpb, tempoUS)
			events = append(events, trackEvent{tick, []byte{
				0xB0 | byte(channel&0x0F), byte(cc.Control & 0x7F), byte(cc.Value & 0x7F),
			}})
		}
	}

	for _, n := range seq.Notes {
		if n.Channel == channel {
			startTick := secondsToTicks(n.Start, tpb, tempoUS)
			endTick := secondsToTicks(n.Start+n.Duration, tpb, tempoUS)

			events = append(events, trackEvent{startTick, []byte{
				0x90 | byte(channel&0x0F), byte(n.Pitch & 0x7F), byte(n.Velocity & 0x7F),
			}})
			events = append(events, trackEvent{endTick, []byte{
				0x80 | byte(channel&0x0F), byte(n.Pitch & 0x7F), 0,
			}})
		}
	}

	// Note-offs sort before other events at the same tick so retriggered
	// pitches release before they restrike.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return isNoteOff(events[i].data) && !isNoteOff(events[j].data)
	})

	return finishTrack(events)
}

func isNoteOff(data []byte) bool {
	return len(data) > 0 && data[0]&0xF0 == 0x80
}

// finishTrack appends the end-of-track meta event and delta encodes.
func finishTrack(events []trackEvent) []byte {
	lastTick := 0
	for _, e := range events {
		if e.tick > lastTick {
			lastTick = e.tick
		}
	}
	events = append(events, trackEvent{lastTick, []byte{0xFF, 0x2F, 0x00}})

	var out []byte
	prev := 0
	for _, e := range events {
		delta := e.tick - prev
		if delta < 0 {
			delta = 0
		}
		out = append(out, encodeVarLen(delta)...)
		out = append(out, e.data...)
		prev = e.tick
	}
	return out
}

// encodeVarLen encodes a non-negative integer as a MIDI variable-length
// quantity.
func encodeVarLen(value int) []byte {
	if value == 0 {
		return []byte{0}
	}

	var groups []byte
	for value > 0 {
		groups = append(groups, byte(value&0x7F))
		value >>= 7
	}

	out := make([]byte, 0, len(groups))
	for i := len(groups) - 1; i >= 0; i-- {
		b := groups[i]
		if i > 0 {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func secondsToTicks(seconds float64, ticksPerBeat, tempoUS int) int {
	beats := seconds * 1e6 / float64(tempoUS)
	return int(beats * float64(ticksPerBeat))
}

func bpmToTempoUS(bpm float64) int {
	return int(60e6 / bpm)
}
