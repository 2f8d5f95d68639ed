package smf

import (
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/cbegin/aldakit-go/internal/midi"
)

// ParseError reports a malformed MIDI file.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

func parseErrorf(format string, args ...any) error {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

type pendingNote struct {
	pitch     int
	velocity  int
	startTick int
	channel   int
}

type tempoPoint struct {
	tick    int
	tempoUS int
}

// Read decodes a Standard MIDI File into a sequence. SMPTE time division
// is not supported.
func Read(data []byte) (*midi.Sequence, error) {
	if len(data) < 14 {
		return nil, parseErrorf("file too small to be a valid MIDI file")
	}
	if string(data[0:4]) != "MThd" {
		return nil, parseErrorf("invalid MIDI file: expected MThd, got %q", data[0:4])
	}

	headerLength := int(binary.BigEndian.Uint32(data[4:8]))
	if headerLength < 6 {
		return nil, parseErrorf("invalid header length: %d", headerLength)
	}

	numTracks := int(binary.BigEndian.Uint16(data[10:12]))
	timeDivision := binary.BigEndian.Uint16(data[12:14])
	if timeDivision&0x8000 != 0 {
		return nil, parseErrorf("SMPTE time division not supported")
	}
	ticksPerBeat := int(timeDivision)

	offset := 8 + headerLength
	var tracks [][]trackEvent

	for i := 0; i < numTracks; i++ {
		if offset+8 > len(data) {
			return nil, parseErrorf("unexpected end of file reading track header")
		}
		if string(data[offset:offset+4]) != "MTrk" {
			return nil, parseErrorf("invalid track chunk: expected MTrk, got %q", data[offset:offset+4])
		}
		trackLength := int(binary.BigEndian.Uint32(data[offset+4 : offset+8]))
		if offset+8+trackLength > len(data) {
			return nil, parseErrorf("track chunk extends past end of file")
		}

		events, err := parseTrackEvents(data[offset+8 : offset+8+trackLength])
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, events)

		offset += 8 + trackLength
	}

	tempoMap := buildTempoMap(tracks)

	seq := &midi.Sequence{TicksPerBeat: ticksPerBeat}
	for _, events := range tracks {
		processTrackEvents(events, tempoMap, ticksPerBeat, seq)
	}

	sort.SliceStable(seq.Notes, func(i, j int) bool {
		return seq.Notes[i].Start < seq.Notes[j].Start
	})

	return seq, nil
}

// ReadFile reads a Standard MIDI File from path.
func ReadFile(path string) (*midi.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Read(data)
}

// decodeVarLen reads a variable-length quantity starting at offset,
// returning the value and the number of bytes consumed.
func decodeVarLen(data []byte, offset int) (int, int, error) {
	value := 0
	consumed := 0

	for {
		if offset+consumed >= len(data) {
			return 0, 0, parseErrorf("unexpected end of data reading variable-length value")
		}
		b := data[offset+consumed]
		consumed++
		value = (value << 7) | int(b&0x7F)
		if b&0x80 == 0 {
			break
		}
		if consumed > 4 {
			return 0, 0, parseErrorf("variable-length value too long")
		}
	}

	return value, consumed, nil
}

// parseTrackEvents walks a track chunk into absolute-tick events,
// resolving running status.
func parseTrackEvents(track []byte) ([]trackEvent, error) {
	var events []trackEvent
	offset := 0
	absoluteTick := 0
	runningStatus := -1

	for offset < len(track) {
		delta, consumed, err := decodeVarLen(track, offset)
		if err != nil {
			return nil, err
		}
		offset += consumed
		absoluteTick += delta

		if offset >= len(track) {
			break
		}

		status := int(track[offset])
		if status < 0x80 {
			if runningStatus < 0 {
				return nil, parseErrorf("running status without previous status byte")
			}
			status = runningStatus
		} else {
			offset++
			if status < 0xF0 {
				runningStatus = status
			}
		}

		var eventData []byte

		switch {
		case status == 0xFF:
			if offset+1 >= len(track) {
				return events, nil
			}
			metaType := track[offset]
			offset++
			length, consumed, err := decodeVarLen(track, offset)
			if err != nil {
				return nil, err
			}
			offset += consumed
			if offset+length > len(track) {
				return nil, parseErrorf("meta event extends past end of track")
			}
			eventData = append([]byte{0xFF, metaType, byte(length)}, track[offset:offset+length]...)
			offset += length

		case status == 0xF0 || status == 0xF7:
			length, consumed, err := decodeVarLen(track, offset)
			if err != nil {
				return nil, err
			}
			offset += consumed
			if offset+length > len(track) {
				return nil, parseErrorf("sysex event extends past end of track")
			}
			eventData = append([]byte{byte(status), byte(length)}, track[offset:offset+length]...)
			offset += length

		case status >= 0x80 && status <= 0xEF:
			switch status & 0xF0 {
			case 0x80, 0x90, 0xA0, 0xB0, 0xE0:
				if offset+1 >= len(track) {
					return events, nil
				}
				eventData = []byte{byte(status), track[offset], track[offset+1]}
				offset += 2
			case 0xC0, 0xD0:
				if offset >= len(track) {
					return events, nil
				}
				eventData = []byte{byte(status), track[offset]}
				offset++
			}

		default:
			// System common or realtime, carries no data here.
			eventData = []byte{byte(status)}
		}

		events = append(events, trackEvent{absoluteTick, eventData})
	}

	return events, nil
}

// buildTempoMap collects set-tempo meta events from all tracks.
func buildTempoMap(tracks [][]trackEvent) []tempoPoint {
	var points []tempoPoint
	for _, events := range tracks {
		for _, e := range events {
			if len(e.data) >= 6 && e.data[0] == 0xFF && e.data[1] == 0x51 {
				tempoUS := int(e.data[3])<<16 | int(e.data[4])<<8 | int(e.data[5])
				points = append(points, tempoPoint{e.tick, tempoUS})
			}
		}
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].tick < points[j].tick })

	if len(points) == 0 {
		points = []tempoPoint{{0, defaultTempoUS}}
	}
	return points
}

// tickToSeconds converts an absolute tick to seconds, accumulating over
// the tempo map.
func tickToSeconds(tick int, tempoMap []tempoPoint, ticksPerBeat int) float64 {
	seconds := 0.0
	lastTick := 0
	lastTempoUS := defaultTempoUS

	for _, p := range tempoMap {
		if p.tick >= tick {
			break
		}
		seconds += ticksToSecondsAt(p.tick-lastTick, ticksPerBeat, lastTempoUS)
		lastTick = p.tick
		lastTempoUS = p.tempoUS
	}

	return seconds + ticksToSecondsAt(tick-lastTick, ticksPerBeat, lastTempoUS)
}

func ticksToSecondsAt(ticks, ticksPerBeat, tempoUS int) float64 {
	beats := float64(ticks) / float64(ticksPerBeat)
	return beats * float64(tempoUS) / 1e6
}

func processTrackEvents(events []trackEvent, tempoMap []tempoPoint, ticksPerBeat int, seq *midi.Sequence) {
	type noteKey struct{ channel, pitch int }
	pending := map[noteKey]pendingNote{}

	finish := func(key noteKey, endTick int) {
		p, ok := pending[key]
		if !ok {
			return
		}
		delete(pending, key)
		start := tickToSeconds(p.startTick, tempoMap, ticksPerBeat)
		end := tickToSeconds(endTick, tempoMap, ticksPerBeat)
		duration := end - start
		if duration < 0.001 {
			duration = 0.001
		}
		seq.Notes = append(seq.Notes, midi.Note{
			Pitch:    p.pitch,
			Velocity: p.velocity,
			Start:    start,
			Duration: duration,
			Channel:  p.channel,
		})
	}

	for _, e := range events {
		if len(e.data) == 0 {
			continue
		}
		status := e.data[0]

		if status == 0xFF {
			if len(e.data) >= 6 && e.data[1] == 0x51 {
				tempoUS := int(e.data[3])<<16 | int(e.data[4])<<8 | int(e.data[5])
				seq.TempoChanges = append(seq.TempoChanges, midi.TempoChange{
					BPM:  60e6 / float64(tempoUS),
					Time: tickToSeconds(e.tick, tempoMap, ticksPerBeat),
				})
			}
			continue
		}

		if status < 0x80 || status > 0xEF {
			continue
		}

		channel := int(status & 0x0F)
		switch status & 0xF0 {
		case 0x90:
			if len(e.data) < 3 {
				continue
			}
			pitch := int(e.data[1])
			velocity := int(e.data[2])
			key := noteKey{channel, pitch}
			if velocity == 0 {
				// Note-on with velocity zero releases the note.
				finish(key, e.tick)
			} else {
				pending[key] = pendingNote{pitch, velocity, e.tick, channel}
			}

		case 0x80:
			if len(e.data) < 3 {
				continue
			}
			finish(noteKey{channel, int(e.data[1])}, e.tick)

		case 0xC0:
			if len(e.data) < 2 {
				continue
			}
			seq.ProgramChanges = append(seq.ProgramChanges, midi.ProgramChange{
				Program: int(e.data[1]),
				Time:    tickToSeconds(e.tick, tempoMap, ticksPerBeat),
				Channel: channel,
			})

		case 0xB0:
			if len(e.data) < 3 {
				continue
			}
			seq.ControlChanges = append(seq.ControlChanges, midi.ControlChange{
				Control: int(e.data[1]),
				Value:   int(e.data[2]),
				Time:    tickToSeconds(e.tick, tempoMap, ticksPerBeat),
				Channel: channel,
			})
		}
	}
}
