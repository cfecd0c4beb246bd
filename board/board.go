//go:build tinygo

// Package board drives the sound card hardware on an RP2040/RP2350 with
// the TinyGo machine package.
//
// The sequencer programs 8-bit timer registers as if it were talking to
// the original PIC timer2/CCP1 pair. Board turns those register values
// back into a real PWM period and duty fraction so the same note table
// sounds the same on a Pico.
package board

import (
	"errors"
	"machine"

	"github.com/harveysanders/soundcard/tone"
)

// PWM is the subset of a TinyGo PWM slice used by Board.
type PWM interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	SetPeriod(period uint64) error
	Top() uint32
	Set(channel uint8, value uint32)
}

// Pins of the sound card.
type Pins struct {
	Buzzer    machine.Pin
	LED       machine.Pin // Flashes with each note.
	LEDEnable machine.Pin // High while a song plays.
	Button    machine.Pin // Active low, internal pull-up.
}

// DefaultPins is the Pico wiring: button on GP14, LEDs on GP15/GP16 and
// the piezo on GP18.
var DefaultPins = Pins{
	Buzzer:    machine.GP18,
	LED:       machine.GP15,
	LEDEnable: machine.GP16,
	Button:    machine.GP14,
}

// Board implements sequencer.Peripheral on real pins.
type Board struct {
	pwm   PWM
	ch    uint8
	pins  Pins
	timer tone.Config

	period  uint32
	duty    uint32
	enabled bool
}

// New configures the pins and the PWM slice that owns pins.Buzzer.
func New(pins Pins, timer tone.Config) (*Board, error) {
	if timer.Clock == 0 || timer.Prescaler == 0 {
		return nil, errors.New("board: timer clock and prescaler must be set")
	}
	pwm := pwmForPin(pins.Buzzer)
	if pwm == nil {
		return nil, errors.New("board: buzzer pin has no PWM slice")
	}
	return NewWithPWM(pwm, pins, timer)
}

// NewWithPWM is like New with an explicit PWM slice.
func NewWithPWM(pwm PWM, pins Pins, timer tone.Config) (*Board, error) {
	pins.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pins.LEDEnable.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pins.Button.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	b := &Board{pwm: pwm, pins: pins, timer: timer}
	err := pwm.Configure(machine.PWMConfig{Period: b.periodNS(0)})
	if err != nil {
		return nil, errors.New("board: configure PWM:" + err.Error())
	}
	b.ch, err = pwm.Channel(pins.Buzzer)
	if err != nil {
		return nil, errors.New("board: PWM channel:" + err.Error())
	}
	pwm.Set(b.ch, 0)
	return b, nil
}

func (b *Board) SetPeriod(v uint32) {
	b.period = v
	b.apply()
}

func (b *Board) SetDuty(v uint32) {
	b.duty = v
	b.apply()
}

func (b *Board) EnableOutput(on bool) {
	b.enabled = on
	b.apply()
}

func (b *Board) SetLED(on bool)       { b.pins.LED.Set(on) }
func (b *Board) SetLEDEnable(on bool) { b.pins.LEDEnable.Set(on) }

// Pressed reads the button. The line is pulled up, so low means pressed.
func (b *Board) Pressed() bool { return !b.pins.Button.Get() }

// periodNS is the length of one timer period for the register value p:
// (p+1) * prescaler / clock seconds.
func (b *Board) periodNS(p uint32) uint64 {
	return (uint64(p) + 1) * uint64(b.timer.Prescaler) * 1e9 / uint64(b.timer.Clock)
}

func (b *Board) apply() {
	if !b.enabled {
		b.pwm.Set(b.ch, 0)
		return
	}
	if err := b.pwm.SetPeriod(b.periodNS(b.period)); err != nil {
		// Out of range for this slice; stay silent rather than play a
		// wrong pitch.
		b.pwm.Set(b.ch, 0)
		return
	}
	top := uint64(b.pwm.Top())
	level := top * uint64(b.duty) / (uint64(b.period) + 1)
	if level > top {
		level = top
	}
	b.pwm.Set(b.ch, uint32(level))
}

func pwmForPin(pin machine.Pin) PWM {
	slice, err := machine.PWMPeripheral(pin)
	if err != nil {
		return nil
	}
	switch slice {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	case 7:
		return machine.PWM7
	}
	return nil
}
