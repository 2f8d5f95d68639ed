package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/cbegin/aldakit-go"
	"github.com/cbegin/aldakit-go/internal/midi"
	"github.com/cbegin/aldakit-go/internal/pianoroll"
	"github.com/cbegin/aldakit-go/internal/smf"
)

const defaultScore = "piano: o4 c8 d e f g a b > c"

func main() {
	var (
		scorePath  = flag.String("file", "", "path to a notation file")
		scoreEval  = flag.String("eval", "", "inline notation string")
		play       = flag.Bool("play", false, "play through the software synth")
		outPath    = flag.String("out", "", "write a Standard MIDI File to this path")
		rollPath   = flag.String("roll", "", "write a piano-roll PNG to this path")
		listPorts  = flag.Bool("ports", false, "list output ports and exit")
		tempoScale = flag.Float64("tempo-scale", 1.0, "stretch playback time by this factor")
		transpose  = flag.Int("transpose", 0, "shift all notes by this many semitones")
		wait       = flag.Bool("wait", true, "when playing, block until playback ends")
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
	)
	flag.Parse()

	if *listPorts {
		backend, err := aldakit.NewSynthBackend(aldakit.WithSampleRate(*sampleRate))
		if err != nil {
			log.Fatal(err)
		}
		for _, port := range backend.ListOutputPorts() {
			fmt.Println(port)
		}
		backend.Close()
		return
	}

	source, err := resolveScoreInput(*scorePath, *scoreEval)
	if err != nil {
		log.Fatal(err)
	}

	seq, err := aldakit.Compile(source)
	if err != nil {
		log.Fatal(err)
	}
	if *transpose != 0 {
		seq = midi.Transpose(seq, *transpose)
	}
	if *tempoScale != 1.0 {
		seq = midi.Stretch(seq, *tempoScale)
	}

	if *outPath != "" {
		if err := smf.WriteFile(seq, *outPath); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *outPath)
	}

	if *rollPath != "" {
		if err := pianoroll.RenderPNG(seq, *rollPath, pianoroll.DefaultOptions()); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("wrote %s\n", *rollPath)
	}

	if *play || (*outPath == "" && *rollPath == "") {
		backend, err := aldakit.NewSynthBackend(aldakit.WithSampleRate(*sampleRate))
		if err != nil {
			log.Fatal(err)
		}
		defer backend.Close()

		if _, ok := backend.Play(seq); !ok {
			log.Fatal("no playback slot available")
		}
		if *wait {
			backend.Wait()
			fmt.Println("playback completed")
		}
	}
}

func resolveScoreInput(path string, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultScore, nil
}
