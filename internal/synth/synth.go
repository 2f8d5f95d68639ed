// Package synth is a small polyphonic synthesizer that renders MIDI
// channel events to stereo float32 audio.
package synth

import (
	"math"
	"sync"
)

type Params struct {
	Voices      int
	MasterGain  float64
	AttackSec   float64
	ReleaseSec  float64
	VelocityAmp float64
}

func DefaultParams() Params {
	return Params{
		Voices:      24,
		MasterGain:  0.2,
		AttackSec:   0.005,
		ReleaseSec:  0.08,
		VelocityAmp: 0.85,
	}
}

type waveType int

const (
	wavePulseHalf waveType = iota
	wavePulseQuarter
	waveTriangle
	waveSaw
)

// waveForProgram maps a General MIDI program to one of the synth's
// waveforms. Pianos and plucked strings get the half-duty pulse, organs
// and bowed strings the quarter-duty pulse, pads the triangle, and
// brass, leads, and the rest the saw.
func waveForProgram(program int) waveType {
	switch {
	case program >= 88 && program < 104:
		return waveTriangle
	case program < 32:
		return wavePulseHalf
	case program < 56:
		return wavePulseQuarter
	default:
		return waveSaw
	}
}

type envState int

const (
	envAttack envState = iota
	envSustain
	envRelease
	envOff
)

type voice struct {
	active   bool
	age      int
	channel  int
	note     int
	wave     waveType
	freq     float64
	phase    float64
	velocity float64
	env      float64
	envState envState
	pan      float64
}

type channelState struct {
	program int
	pan     float64 // -1 left .. +1 right
}

// Synth is safe to drive from a scheduler goroutine while the audio
// thread pulls samples through Process.
type Synth struct {
	mu         sync.Mutex
	sampleRate float64
	params     Params
	voices     []voice
	channels   [16]channelState
	nextAge    int
}

func New(sampleRate int, params Params) *Synth {
	if params.Voices <= 0 {
		params.Voices = 24
	}
	return &Synth{
		sampleRate: float64(sampleRate),
		params:     params,
		voices:     make([]voice, params.Voices),
	}
}

func (s *Synth) NoteOn(channel, note, velocity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := &s.channels[channel&0x0F]
	v := &s.voices[s.stealVoice()]
	s.nextAge++
	v.active = true
	v.age = s.nextAge
	v.channel = channel & 0x0F
	v.note = note
	v.wave = waveForProgram(ch.program)
	v.freq = midiToFreq(note)
	v.phase = 0
	v.velocity = clamp(float64(velocity)/127.0, 0, 1)
	v.env = 0
	v.envState = envAttack
	v.pan = ch.pan
}

func (s *Synth) NoteOff(channel, note int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.voices {
		v := &s.voices[i]
		if v.active && v.channel == channel&0x0F && v.note == note && v.envState != envRelease {
			v.envState = envRelease
		}
	}
}

func (s *Synth) ProgramChange(channel, program int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels[channel&0x0F].program = clampInt(program, 0, 127)
}

func (s *Synth) ControlChange(channel, control, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if control == 10 {
		s.channels[channel&0x0F].pan = float64(clampInt(value, 0, 127)-64) / 64.0
	}
}

func (s *Synth) AllNotesOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.voices {
		if s.voices[i].active {
			s.voices[i].envState = envRelease
		}
	}
}

func (s *Synth) ActiveVoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

// Process fills dst with interleaved stereo samples.
func (s *Synth) Process(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i+1 < len(dst); i += 2 {
		l, r := s.renderFrame()
		dst[i] = l
		dst[i+1] = r
	}
}

func (s *Synth) renderFrame() (float32, float32) {
	var l, r float64
	for i := range s.voices {
		v := &s.voices[i]
		if !v.active {
			continue
		}
		env := s.advanceEnv(v)
		if !v.active {
			continue
		}
		sig := s.renderWave(v) * env * (0.15 + v.velocity*s.params.VelocityAmp)
		angle := (v.pan + 1) / 2 * (math.Pi / 2)
		l += sig * math.Cos(angle) * s.params.MasterGain
		r += sig * math.Sin(angle) * s.params.MasterGain
	}
	return float32(clamp(l, -1, 1)), float32(clamp(r, -1, 1))
}

func (s *Synth) renderWave(v *voice) float64 {
	dt := v.freq / s.sampleRate
	v.phase += dt
	if v.phase >= 1 {
		v.phase -= 1
	}
	switch v.wave {
	case wavePulseHalf:
		if v.phase < 0.5 {
			return 1
		}
		return -1
	case wavePulseQuarter:
		if v.phase < 0.25 {
			return 1
		}
		return -1
	case waveTriangle:
		return 2*math.Abs(2*v.phase-1) - 1
	case waveSaw:
		return 2*v.phase - 1
	default:
		return 0
	}
}

func (s *Synth) advanceEnv(v *voice) float64 {
	switch v.envState {
	case envAttack:
		step := 1.0 / (s.params.AttackSec * s.sampleRate)
		if step <= 0 {
			step = 1
		}
		v.env += step
		if v.env >= 1 {
			v.env = 1
			v.envState = envSustain
		}
	case envSustain:
	case envRelease:
		step := 1.0 / (s.params.ReleaseSec * s.sampleRate)
		if step <= 0 {
			step = 1
		}
		v.env -= step
		if v.env <= 0.0001 {
			v.env = 0
			v.envState = envOff
			v.active = false
		}
	case envOff:
		v.active = false
		v.env = 0
	}
	return v.env
}

func (s *Synth) stealVoice() int {
	for i := range s.voices {
		if !s.voices[i].active {
			return i
		}
	}
	// Steal the oldest releasing voice, or failing that the oldest voice.
	oldestRelease := -1
	oldestReleaseAge := math.MaxInt
	oldest := 0
	oldestAge := math.MaxInt
	for i := range s.voices {
		v := &s.voices[i]
		if v.envState == envRelease && v.age < oldestReleaseAge {
			oldestRelease = i
			oldestReleaseAge = v.age
		}
		if v.age < oldestAge {
			oldest = i
			oldestAge = v.age
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldest
}

func midiToFreq(note int) float64 {
	return 440 * math.Pow(2, float64(note-69)/12)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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
