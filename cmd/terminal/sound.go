package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// chime plays short tones through the default audio device. A chime that
// failed to open its device stays silent.
type chime struct {
	enabled bool
}

func newChime(mute bool) (*chime, error) {
	if mute {
		return &chime{}, nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &chime{}, err
	}
	return &chime{enabled: true}, nil
}

// win plays a rising two-note jingle.
func (c *chime) win() {
	if !c.enabled {
		return
	}
	low, err := generators.SineTone(sampleRate, 660)
	if err != nil {
		return
	}
	high, err := generators.SineTone(sampleRate, 880)
	if err != nil {
		return
	}
	note := sampleRate.N(120 * time.Millisecond)
	speaker.Play(beep.Seq(beep.Take(note, low), beep.Take(note, high)))
}

func (c *chime) close() {
	if c.enabled {
		speaker.Close()
	}
}
