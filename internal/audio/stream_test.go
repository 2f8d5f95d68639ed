package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

type constantSource struct {
	value float32
}

func (s *constantSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = s.value
	}
}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	r := NewStreamReader(&constantSource{value: 0.5})

	buf := make([]byte, 64) // 8 stereo frames
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 64 {
		t.Fatalf("read %d bytes, want 64", n)
	}

	for i := 0; i < n; i += 4 {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
		if got != 0.5 {
			t.Fatalf("sample at %d = %v, want 0.5", i, got)
		}
	}
}

func TestStreamReaderPartialFrame(t *testing.T) {
	r := NewStreamReader(&constantSource{})

	// Fewer bytes than one stereo frame: nothing to deliver yet.
	n, err := r.Read(make([]byte, 4))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if n != 0 {
		t.Fatalf("read %d bytes, want 0", n)
	}
}
