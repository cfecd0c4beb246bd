package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("soundsim", "Run the sound card sequencer on a host.")

	songArg   = app.Flag("song", "Built-in song name or path to a YAML song").Default("happy-birthday").Short('s').String()
	clockHz   = app.Flag("clock", "Timer input clock in Hz").Default("4000000").Uint32()
	prescaler = app.Flag("prescaler", "Timer prescaler").Default("16").Uint32()
	dutyPct   = app.Flag("duty", "PWM duty cycle percent").Default("50").Uint32()
	regBits   = app.Flag("register-bits", "Width of the period and duty registers").Default("8").Uint()
	logLevel  = app.Flag("log-level", "debug, info, warn or error").Default("info").Enum("debug", "info", "warn", "error")

	renderCmd    = app.Command("render", "Play the song once on a virtual clock and write a WAV file.")
	renderOut    = renderCmd.Flag("out", "Output WAV file").Default("song.wav").Short('o').String()
	renderRate   = renderCmd.Flag("rate", "Sample rate").Default("44100").Int()
	renderCycles = renderCmd.Flag("cycles", "Number of playback cycles").Default("1").Int()

	playCmd     = app.Command("play", "Live mode: space is the button, Esc quits.")
	playRate    = playCmd.Flag("rate", "Sample rate").Default("44100").Int()
	playMQTT    = playCmd.Flag("mqtt", "MQTT broker host:port to publish playback events to").String()
	playTopic   = playCmd.Flag("topic", "MQTT topic").Default("soundcard/events").String()
	playRelease = playCmd.Flag("require-release", "Wait for a new press before replaying").Bool()

	tableCmd = app.Command("table", "Print the register values for every note.")

	exportCmd = app.Command("export", "Write the song as YAML to stdout.")
)

func newLogger() *slog.Logger {
	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func timerConfig() tone.Config {
	return tone.Config{
		Clock:        *clockHz,
		Prescaler:    *prescaler,
		DutyPercent:  *dutyPct,
		RegisterBits: *regBits,
	}
}

// loadSong resolves --song as a built-in name first, then as a file.
func loadSong() (tune.Song, error) {
	if s, ok := tune.Builtin(*songArg); ok {
		return s, nil
	}
	if !strings.HasSuffix(*songArg, ".yaml") && !strings.HasSuffix(*songArg, ".yml") {
		return tune.Song{}, fmt.Errorf("unknown song %q", *songArg)
	}
	f, err := os.Open(*songArg)
	if err != nil {
		return tune.Song{}, fmt.Errorf("unable to open song: %w", err)
	}
	defer f.Close()
	return tune.Decode(f)
}
