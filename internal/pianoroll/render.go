// Package pianoroll renders a MIDI sequence as a piano-roll image,
// time running left to right and pitch bottom to top.
package pianoroll

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/cbegin/aldakit-go/internal/midi"
)

type color struct {
	r, g, b float64
}

// One color per channel, cycling past sixteen.
var channelColors = []color{
	{0.36, 0.68, 0.89},
	{0.94, 0.56, 0.22},
	{0.47, 0.78, 0.47},
	{0.86, 0.39, 0.40},
	{0.66, 0.55, 0.84},
	{0.58, 0.46, 0.42},
	{0.91, 0.66, 0.82},
	{0.78, 0.78, 0.36},
	{0.40, 0.80, 0.76},
	{0.84, 0.73, 0.52},
}

type Options struct {
	Width      int
	Height     int
	NoteRadius float64 // corner radius of note rectangles
	Labels     bool    // draw C octave labels on the left
}

func DefaultOptions() Options {
	return Options{Width: 1200, Height: 400, NoteRadius: 2, Labels: true}
}

// Render draws the sequence onto a new image.
func Render(seq *midi.Sequence, opts Options) (image.Image, error) {
	dc, err := draw(seq, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// RenderPNG renders the sequence and writes it to path as a PNG.
func RenderPNG(seq *midi.Sequence, path string, opts Options) error {
	dc, err := draw(seq, opts)
	if err != nil {
		return err
	}
	return dc.SavePNG(path)
}

func draw(seq *midi.Sequence, opts Options) (*gg.Context, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetRGB(0.12, 0.12, 0.14)
	dc.DrawRectangle(0, 0, float64(opts.Width), float64(opts.Height))
	dc.Fill()

	if len(seq.Notes) == 0 {
		return dc, nil
	}

	lowest, highest := pitchRange(seq)
	total := seq.Duration()
	if total <= 0 {
		total = 1
	}

	w := float64(opts.Width)
	h := float64(opts.Height)
	rows := float64(highest-lowest+1)
	rowH := h / rows
	pxPerSec := w / total

	drawOctaveLines(dc, lowest, highest, rowH, w, h)

	for _, n := range seq.Notes {
		x := n.Start * pxPerSec
		noteW := n.Duration * pxPerSec
		if noteW < 1 {
			noteW = 1
		}
		y := h - float64(n.Pitch-lowest+1)*rowH

		c := channelColors[n.Channel%len(channelColors)]
		// Velocity scales brightness.
		level := 0.5 + 0.5*float64(n.Velocity)/127.0
		dc.SetRGB(c.r*level, c.g*level, c.b*level)
		dc.DrawRoundedRectangle(x, y, noteW, rowH, opts.NoteRadius)
		dc.Fill()
	}

	if opts.Labels {
		if err := drawLabels(dc, lowest, highest, rowH, h); err != nil {
			return nil, err
		}
	}
	return dc, nil
}

func pitchRange(seq *midi.Sequence) (lowest, highest int) {
	lowest, highest = 127, 0
	for _, n := range seq.Notes {
		if n.Pitch < lowest {
			lowest = n.Pitch
		}
		if n.Pitch > highest {
			highest = n.Pitch
		}
	}
	// Pad a couple of rows so notes never touch the edges.
	lowest -= 2
	highest += 2
	if lowest < 0 {
		lowest = 0
	}
	if highest > 127 {
		highest = 127
	}
	return lowest, highest
}

func drawOctaveLines(dc *gg.Context, lowest, highest int, rowH, w, h float64) {
	for pitch := lowest; pitch <= highest; pitch++ {
		if pitch%12 != 0 { // C
			continue
		}
		y := h - float64(pitch-lowest)*rowH
		dc.SetRGBA(1, 1, 1, 0.15)
		dc.SetLineWidth(0.5)
		dc.DrawLine(0, y, w, y)
		dc.Stroke()
	}
}

func drawLabels(dc *gg.Context, lowest, highest int, rowH, h float64) error {
	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 11}))

	for pitch := lowest; pitch <= highest; pitch++ {
		if pitch%12 != 0 {
			continue
		}
		y := h - float64(pitch-lowest)*rowH
		dc.SetRGBA(1, 1, 1, 0.5)
		dc.DrawString(fmt.Sprintf("C%d", pitch/12-1), 4, y-3)
	}
	return nil
}
