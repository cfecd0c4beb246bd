//go:build tinygo

// Command soundcard is the sound card firmware: press the button and the
// buzzer plays the song while the LED flashes with every note.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"machine"
	"time"

	"github.com/harveysanders/soundcard/board"
	"github.com/harveysanders/soundcard/display"
	"github.com/harveysanders/soundcard/netlink"
	"github.com/harveysanders/soundcard/report"
	"github.com/harveysanders/soundcard/sequencer"
	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
	"tinygo.org/x/drivers/hd44780i2c"
)

var _ display.Device = (*hd44780i2c.Device)(nil)

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	gen, err := tone.New(tone.Default)
	if err != nil {
		printErrForever(logger, "configure tone generator", slog.Any("reason", err))
	}

	hw, err := board.New(board.DefaultPins, tone.Default)
	if err != nil {
		printErrForever(logger, "configure board", slog.Any("reason", err))
	}

	song := tune.HappyBirthday
	var sinks []chan<- sequencer.Event

	// The LCD is optional; without one the card just plays.
	lcd, err := configureLCD(machine.I2C0)
	if err != nil {
		logger.Warn("lcd:unavailable", slog.Any("reason", err))
	} else {
		messages := make(chan display.Message, 4)
		events := make(chan sequencer.Event, 8)
		go display.NewHandler(&lcd, messages, logger).Run()
		go display.Follow(events, messages)
		messages <- display.Idle(song.Name)
		sinks = append(sinks, events)
	}

	if netlink.Enabled() {
		events := make(chan sequencer.Event, 32)
		sinks = append(sinks, events)
		go startReporter(logger, events)
	}

	var observer func(sequencer.Event)
	if len(sinks) > 0 {
		observer = sequencer.Notify(sinks...)
	}

	seq, err := sequencer.New(sequencer.Config{
		Song:       song,
		Generator:  gen,
		Peripheral: hw,
		Button:     hw,
		Delay:      time.Sleep,
		Observer:   observer,
		Logger:     logger,
	})
	if err != nil {
		printErrForever(logger, "configure sequencer", slog.Any("reason", err))
	}
	seq.Init()
	logger.Info("ready", slog.String("song", song.Name), slog.Int("notes", song.Len()))

	// The background context is never cancelled, so Run only returns if
	// something is badly wrong.
	err = seq.Run(context.Background())
	printErrForever(logger, "sequencer stopped", slog.Any("reason", err))
}

// startReporter joins WiFi and publishes playback events. Failures are
// logged; the card keeps playing without telemetry.
func startReporter(logger *slog.Logger, events <-chan sequencer.Event) {
	link, err := netlink.Up("soundcard", logger)
	if err != nil {
		logger.Error("netlink:up", slog.Any("reason", err))
		return
	}
	r := report.New(report.Config{
		ClientID:          "tinygo-soundcard",
		Timeout:           5 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		Logger:            logger,
	})
	dial := func() (io.ReadWriteCloser, error) {
		return link.Dial(netlink.Broker())
	}
	err = r.Run(context.Background(), dial, events)
	logger.Error("mqtt:stopped", slog.Any("reason", err))
}

// configureLCD takes a preconfigured I2C peripheral and attempts to
// initialize the HD44780 LCD display on the common addresses.
func configureLCD(i2c *machine.I2C) (hd44780i2c.Device, error) {
	err := i2c.Configure(machine.I2CConfig{
		SDA: machine.GP4,
		SCL: machine.GP5,
	})
	if err != nil {
		return hd44780i2c.Device{}, errors.New("configure I2C:" + err.Error())
	}
	for _, addr := range []uint8{0x27, 0x3F} {
		if err := i2c.Tx(uint16(addr), nil, []byte{0}); err != nil {
			continue
		}
		dev := hd44780i2c.New(i2c, addr)
		dev.Configure(hd44780i2c.Config{
			Width:  16,
			Height: 2,
		})
		return dev, nil
	}
	return hd44780i2c.Device{}, errors.New("LCD not found on addresses: 0x27, 0x3f")
}

// printErrForever prints a message to serial @ 1hz. It blocks forever.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
