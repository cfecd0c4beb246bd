package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/harveysanders/soundcard/report"
	"github.com/harveysanders/soundcard/sequencer"
	"github.com/harveysanders/soundcard/synth"
	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
)

// keyButton latches a space bar press until the sequencer samples it.
// Terminals report key presses, not holds, so each press is one sample.
type keyButton struct {
	pressed atomic.Bool
}

func (b *keyButton) Pressed() bool { return b.pressed.Swap(false) }

// play runs the sequencer in real time.
func play(song tune.Song, gen tone.Generator, logger *slog.Logger) error {
	keys, err := keyboard.GetKeys(16)
	if err != nil {
		return fmt.Errorf("unable to open keyboard: %w", err)
	}
	defer func() {
		if err := keyboard.Close(); err != nil {
			logger.Error("keyboard:close", slog.Any("reason", err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	btn := &keyButton{}
	go func() {
		for key := range keys {
			switch {
			case key.Err != nil:
				logger.Error("keyboard:read", slog.Any("reason", key.Err))
			case key.Key == keyboard.KeyEsc || key.Key == keyboard.KeyCtrlC:
				cancel()
				return
			case key.Key == keyboard.KeySpace:
				btn.pressed.Store(true)
			}
		}
	}()

	sr := beep.SampleRate(*playRate)
	live := synth.NewLive(gen, sr, drawLights)
	if err := speaker.Init(sr, sr.N(time.Second/30)); err != nil {
		return fmt.Errorf("unable to open speaker: %w", err)
	}
	speaker.Play(live)

	var observer func(sequencer.Event)
	if *playMQTT != "" {
		events := make(chan sequencer.Event, 64)
		observer = sequencer.Notify(events)
		r := report.New(report.Config{
			ClientID: "soundsim",
			Topic:    *playTopic,
			Logger:   logger,
		})
		dial := func() (io.ReadWriteCloser, error) {
			return net.DialTimeout("tcp", *playMQTT, 5*time.Second)
		}
		go func() {
			if err := r.Run(ctx, dial, events); err != nil && err != context.Canceled {
				logger.Error("mqtt:stopped", slog.Any("reason", err))
			}
		}()
	}

	seq, err := sequencer.New(sequencer.Config{
		Song:           song,
		Generator:      gen,
		Peripheral:     live,
		Button:         btn,
		PollInterval:   10 * time.Millisecond,
		RequireRelease: *playRelease,
		Observer:       observer,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	seq.Init()
	fmt.Fprintf(os.Stderr, "%s: press space to play, esc to quit\r\n", song.Name)

	err = seq.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

// drawLights shows the two LEDs on the terminal.
func drawLights(led, enable bool) {
	dot := func(on bool) string {
		if on {
			return "\033[1;33m●\033[0m"
		}
		return "○"
	}
	fmt.Fprintf(os.Stderr, "\r flash %s  enable %s ", dot(led), dot(enable))
}
