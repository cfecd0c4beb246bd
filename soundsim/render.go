package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
	"github.com/harveysanders/soundcard/sequencer"
	"github.com/harveysanders/soundcard/synth"
	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
)

// render plays the song on a virtual clock and encodes the buzzer output.
func render(song tune.Song, gen tone.Generator, logger *slog.Logger) error {
	tl, err := simulate(song, gen, *renderCycles, logger)
	if err != nil {
		return err
	}

	f, err := os.Create(*renderOut)
	if err != nil {
		return fmt.Errorf("unable to create output: %w", err)
	}
	defer f.Close()

	sr := beep.SampleRate(*renderRate)
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, tl.Streamer(sr), format); err != nil {
		return fmt.Errorf("unable to encode wav: %w", err)
	}

	fmt.Printf("%s: %d notes x %d cycles, %d LED toggles, %v\n",
		*renderOut, song.Len(), *renderCycles, tl.Toggles(), tl.Elapsed())
	return nil
}

// simulate presses the button for the requested number of cycles.
func simulate(song tune.Song, gen tone.Generator, cycles int, logger *slog.Logger) (*synth.Timeline, error) {
	tl := synth.NewTimeline(gen)
	seq, err := sequencer.New(sequencer.Config{
		Song:       song,
		Generator:  gen,
		Peripheral: tl,
		Button:     sequencer.ButtonFunc(func() bool { return true }),
		Delay:      tl.Delay,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	seq.Init()
	for i := 0; i < cycles; i++ {
		seq.Poll()
	}
	return tl, nil
}
