// Package sequencer plays a song on a buzzer and flashes an LED with each
// note, gated by a single push button.
//
// The sequencer is a blocking two-state loop. While Idle it samples the
// button; once pressed it plays every note of the song in order and only
// then looks at the button again. A press during playback does nothing.
package sequencer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
)

// Peripheral is the hardware the sequencer drives.
type Peripheral interface {
	// SetPeriod writes the PWM period register.
	SetPeriod(v uint32)
	// SetDuty writes the PWM duty register.
	SetDuty(v uint32)
	// EnableOutput switches PWM generation on or off.
	EnableOutput(on bool)
	// SetLED drives the LED that flashes with each note.
	SetLED(on bool)
	// SetLEDEnable drives the LED enable line, high during playback.
	SetLEDEnable(on bool)
}

// Button is the start input.
type Button interface {
	// Pressed reports whether the button is currently held.
	Pressed() bool
}

// ButtonFunc adapts a function to Button.
type ButtonFunc func() bool

func (f ButtonFunc) Pressed() bool { return f() }

// Delay blocks for d.
type Delay func(d time.Duration)

// State of the sequencer.
type State uint8

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	}
	return "unknown"
}

var (
	ErrNoSong       = errors.New("sequencer: no song")
	ErrNoPeripheral = errors.New("sequencer: no peripheral")
	ErrNoButton     = errors.New("sequencer: no button")
)

// Config wires a Sequencer.
type Config struct {
	Song       tune.Song
	Generator  tone.Generator
	Peripheral Peripheral
	Button     Button
	// Delay defaults to time.Sleep.
	Delay Delay
	// PollInterval is waited between idle button samples. Zero polls
	// continuously.
	PollInterval time.Duration
	// RequireRelease makes the sequencer wait for the button to be
	// released before it can start again. By default a held button
	// restarts the song as soon as it ends.
	RequireRelease bool
	// Observer, if set, is called synchronously for every Event. It must
	// not block; see Notify.
	Observer func(Event)
	Logger   *slog.Logger
}

// Sequencer plays one song. It is not safe for concurrent use.
type Sequencer struct {
	song     tune.Song
	gen      tone.Generator
	hw       Peripheral
	button   Button
	delay    Delay
	poll     time.Duration
	release  bool
	observer func(Event)
	logger   *slog.Logger

	state   State
	led     bool
	armed   bool
	cycles  int
	settled bool
}

// New validates cfg and returns an Idle sequencer. Call Init before the
// first Poll to put the hardware in a known state.
func New(cfg Config) (*Sequencer, error) {
	if err := cfg.Song.Validate(); err != nil {
		return nil, errors.Join(ErrNoSong, err)
	}
	if cfg.Peripheral == nil {
		return nil, ErrNoPeripheral
	}
	if cfg.Button == nil {
		return nil, ErrNoButton
	}
	if cfg.Generator == (tone.Generator{}) {
		cfg.Generator = tone.MustNew(tone.Default)
	}
	if cfg.Delay == nil {
		cfg.Delay = time.Sleep
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.Level(127),
		}))
	}
	return &Sequencer{
		song:     cfg.Song,
		gen:      cfg.Generator,
		hw:       cfg.Peripheral,
		button:   cfg.Button,
		delay:    cfg.Delay,
		poll:     cfg.PollInterval,
		release:  cfg.RequireRelease,
		observer: cfg.Observer,
		logger:   logger,
		armed:    true,
	}, nil
}

// Init disables the output and the LEDs and loads a silent tone.
func (s *Sequencer) Init() {
	s.hw.EnableOutput(false)
	s.hw.SetLEDEnable(false)
	s.program(s.gen.Silence())
	s.settled = true
}

// State returns the current state.
func (s *Sequencer) State() State { return s.state }

// Cycles returns how many times the song has been played to the end.
func (s *Sequencer) Cycles() int { return s.cycles }

// Poll samples the button once and, if it is pressed, plays the whole
// song before returning true. An idle poll touches no hardware.
func (s *Sequencer) Poll() bool {
	if !s.settled {
		s.Init()
	}
	pressed := s.button.Pressed()
	if !pressed {
		s.armed = true
		return false
	}
	if !s.armed {
		return false
	}
	s.Play()
	if s.release {
		s.armed = false
	}
	return true
}

// Play runs one full playback cycle regardless of the button.
func (s *Sequencer) Play() {
	s.state = Playing
	cycle := s.cycles + 1
	s.logger.Info("playback:start",
		slog.String("song", s.song.Name),
		slog.Int("cycle", cycle),
		slog.Int("notes", s.song.Len()),
	)
	s.emit(Event{Kind: Started, Cycle: cycle, Index: -1, Total: s.song.Len()})

	s.hw.EnableOutput(true)
	s.hw.SetLEDEnable(true)

	for i := 0; i < s.song.Len(); i++ {
		n := s.song.At(i)
		s.led = !s.led
		s.hw.SetLED(s.led)

		settings := s.gen.Silence()
		if !n.IsRest() {
			settings = s.gen.Compute(n.Pitch)
		}
		if settings.Overflows() {
			s.logger.Warn("tone:period-overflow",
				slog.Int("index", i),
				slog.String("note", n.String()),
				slog.Uint64("period", uint64(settings.Period)),
			)
		}
		s.program(settings)
		s.emit(Event{Kind: NotePlayed, Cycle: cycle, Index: i, Total: s.song.Len(), Note: n, Settings: settings, LED: s.led})
		s.hold(n.Ms)
	}

	s.hw.SetLEDEnable(false)
	s.hw.EnableOutput(false)
	s.cycles = cycle
	s.state = Idle
	s.logger.Info("playback:done", slog.Int("cycle", cycle))
	s.emit(Event{Kind: Finished, Cycle: cycle, Index: s.song.Len(), Total: s.song.Len()})
}

// Run polls until ctx is done. The context is only checked while idle, so
// a song that has started always plays to the end.
func (s *Sequencer) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.Poll() && s.poll > 0 {
			s.delay(s.poll)
		}
	}
}

func (s *Sequencer) program(settings tone.Settings) {
	period, duty := settings.Registers()
	s.hw.SetPeriod(period)
	s.hw.SetDuty(duty)
}

// hold blocks for ms milliseconds, one millisecond at a time.
func (s *Sequencer) hold(ms uint32) {
	for ; ms > 0; ms-- {
		s.delay(time.Millisecond)
	}
}

func (s *Sequencer) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}
