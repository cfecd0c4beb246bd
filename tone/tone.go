// Package tone maps note frequencies onto the timer registers of a PWM
// peripheral: a period register that sets the tone and a duty register
// that sets the high time of each cycle.
//
// The arithmetic follows the timer2/CCP1 pair of a small PIC part:
//
//	period = round(clock / (prescaler * f)) - 1
//	duty   = floor(percent * period / 100)
//
// Both values are computed at full width. Registers truncates the period to
// the configured register width, exactly as an unchecked register write
// would, and derives the duty register from the truncated period.
package tone

import (
	"errors"
	"math"

	"github.com/harveysanders/soundcard/tune"
)

// Config holds the build-time timer constants.
type Config struct {
	Clock        uint32 // Timer input clock in Hz.
	Prescaler    uint32
	DutyPercent  uint32 // 0..100
	RegisterBits uint   // Width of the period and duty registers.
}

// Default matches the sound card: 4 MHz oscillator, prescaler 16, 50% duty
// and 8-bit registers.
var Default = Config{
	Clock:        4000000,
	Prescaler:    16,
	DutyPercent:  50,
	RegisterBits: 8,
}

// Generator computes register settings for a fixed Config.
type Generator struct {
	cfg Config
}

// New validates cfg and returns a Generator for it.
func New(cfg Config) (Generator, error) {
	switch {
	case cfg.Clock == 0:
		return Generator{}, errors.New("tone: zero clock")
	case cfg.Prescaler == 0:
		return Generator{}, errors.New("tone: zero prescaler")
	case cfg.DutyPercent > 100:
		return Generator{}, errors.New("tone: duty percent above 100")
	case cfg.RegisterBits == 0 || cfg.RegisterBits > 32:
		return Generator{}, errors.New("tone: register width must be 1..32 bits")
	}
	return Generator{cfg: cfg}, nil
}

// MustNew is like New but panics on an invalid Config.
func MustNew(cfg Config) Generator {
	g, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return g
}

// Config returns the generator's timer constants.
func (g Generator) Config() Config { return g.cfg }

// Compute returns the settings that make the timer produce hz.
// hz <= 0 has no period and yields Silence.
func (g Generator) Compute(hz tune.Hz) Settings {
	if hz <= 0 {
		return g.Silence()
	}
	ticks := math.Round(float64(g.cfg.Clock) / (float64(g.cfg.Prescaler) * float64(hz)))
	var period uint32
	switch {
	case ticks < 1:
		period = 0
	case ticks > math.MaxUint32:
		period = math.MaxUint32
	default:
		period = uint32(ticks) - 1
	}
	duty := uint32(uint64(g.cfg.DutyPercent) * uint64(period) / 100)
	return Settings{Period: period, Duty: duty, Percent: g.cfg.DutyPercent, Bits: g.cfg.RegisterBits}
}

// Silence keeps the output running with a zero duty cycle.
func (g Generator) Silence() Settings {
	return Settings{Bits: g.cfg.RegisterBits, Silent: true}
}

// Frequency returns the tone the timer actually produces for a period
// register value.
func (g Generator) Frequency(period uint32) tune.Hz {
	return tune.Hz(float64(g.cfg.Clock) / (float64(g.cfg.Prescaler) * (float64(period) + 1)))
}

// Settings are the register values for one tone.
type Settings struct {
	Period uint32 // Full-width period value.
	Duty    uint32 // Full-width duty value.
	Percent uint32 // Duty cycle percent the values were computed with.
	Bits    uint   // Register width the values will be written to.
	Silent  bool
}

func (s Settings) mask() uint32 {
	if s.Bits >= 32 {
		return math.MaxUint32
	}
	return 1<<s.Bits - 1
}

// Overflows reports whether the period does not fit the register and will
// be silently truncated.
func (s Settings) Overflows() bool {
	return s.Period > s.mask()
}

// Registers returns the values as they land in the period and duty
// registers. The period is truncated to the register width and the duty is
// taken as a percentage of that truncated period, so duty never exceeds
// period even when the period overflows.
func (s Settings) Registers() (period, duty uint32) {
	period = s.Period & s.mask()
	if s.Silent {
		return period, 0
	}
	return period, uint32(uint64(s.Percent) * uint64(period) / 100)
}

// CCPRL is the byte written to CCPR1L on the original part: the duty
// register value shifted down by the two low bits held in CCP1CON.
func (s Settings) CCPRL() uint8 {
	_, duty := s.Registers()
	return uint8(duty >> 2)
}
