package aldakit

import (
	"errors"

	intaudio "github.com/cbegin/aldakit-go/internal/audio"
	"github.com/cbegin/aldakit-go/internal/midi"
	intplay "github.com/cbegin/aldakit-go/internal/playback"
	intsmf "github.com/cbegin/aldakit-go/internal/smf"
	intsynth "github.com/cbegin/aldakit-go/internal/synth"
)

// Backend plays and persists MIDI sequences. Play returns the slot the
// sequence occupies, with ok false when no slot is free.
type Backend interface {
	Play(seq *midi.Sequence) (slot int, ok bool)
	Save(seq *midi.Sequence, path string) error
	Stop()
	IsPlaying() bool
	Wait()
	ListOutputPorts() []string
	SetConcurrentMode(enabled bool)
	ConcurrentMode() bool
}

// SinkBackend schedules playback onto any event sink. It is the common
// core of every backend; tests drive it with recording sinks.
type SinkBackend struct {
	scheduler *intplay.Scheduler
	ports     []string
}

func NewSinkBackend(sink intplay.Sink) *SinkBackend {
	return &SinkBackend{
		scheduler: intplay.NewScheduler(sink),
		ports:     []string{"sink"},
	}
}

func (b *SinkBackend) Play(seq *midi.Sequence) (int, bool) {
	return b.scheduler.Play(seq)
}

func (b *SinkBackend) Save(seq *midi.Sequence, path string) error {
	return intsmf.WriteFile(seq, path)
}

func (b *SinkBackend) Stop()           { b.scheduler.Stop() }
func (b *SinkBackend) IsPlaying() bool { return b.scheduler.IsPlaying() }
func (b *SinkBackend) Wait()           { b.scheduler.Wait() }

func (b *SinkBackend) ListOutputPorts() []string {
	return append([]string(nil), b.ports...)
}

func (b *SinkBackend) SetConcurrentMode(enabled bool) { b.scheduler.SetConcurrentMode(enabled) }
func (b *SinkBackend) ConcurrentMode() bool           { return b.scheduler.ConcurrentMode() }

type SynthOption func(*synthConfig)

type synthConfig struct {
	sampleRate int
	params     intsynth.Params
}

func defaultSynthConfig() synthConfig {
	return synthConfig{sampleRate: 48000, params: intsynth.DefaultParams()}
}

func WithSampleRate(sampleRate int) SynthOption {
	return func(cfg *synthConfig) {
		cfg.sampleRate = sampleRate
	}
}

func WithSynthParams(params intsynth.Params) SynthOption {
	return func(cfg *synthConfig) {
		cfg.params = params
	}
}

// SynthBackend renders playback through the built-in software synth on
// the system audio device.
type SynthBackend struct {
	SinkBackend
	synth *intsynth.Synth
	audio *intaudio.Player
}

func NewSynthBackend(opts ...SynthOption) (*SynthBackend, error) {
	cfg := defaultSynthConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	s := intsynth.New(cfg.sampleRate, cfg.params)
	player, err := intaudio.NewPlayer(cfg.sampleRate, s)
	if err != nil {
		return nil, err
	}
	player.Play()

	b := &SynthBackend{synth: s, audio: player}
	b.scheduler = intplay.NewScheduler(s)
	b.ports = []string{"software-synth"}
	return b, nil
}

// Close stops all playback and releases the audio device.
func (b *SynthBackend) Close() error {
	b.scheduler.Shutdown()
	return b.audio.Stop()
}
