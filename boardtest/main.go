//go:build tinygo

// Command boardtest checks the sound card wiring: it blinks both LEDs,
// sweeps the buzzer through every pitch in the table and then echoes the
// button on the flash LED.
package main

import (
	"machine"
	"time"

	"github.com/harveysanders/soundcard/board"
	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
)

func main() {
	hw, err := board.New(board.DefaultPins, tone.Default)
	if err != nil {
		for {
			println("could not configure board:", err.Error())
			time.Sleep(time.Second)
		}
	}
	gen := tone.MustNew(tone.Default)

	for i := 0; i < 3; i++ {
		hw.SetLED(true)
		hw.SetLEDEnable(true)
		println("LEDs on")
		time.Sleep(250 * time.Millisecond)
		hw.SetLED(false)
		hw.SetLEDEnable(false)
		println("LEDs off")
		time.Sleep(250 * time.Millisecond)
	}

	hw.EnableOutput(true)
	for _, n := range tune.PerfectNight.Notes() {
		if n.IsRest() {
			continue
		}
		s := gen.Compute(n.Pitch)
		period, duty := s.Registers()
		hw.SetPeriod(period)
		hw.SetDuty(duty)
		println(tune.NameOf(n.Pitch), period, duty)
		time.Sleep(time.Duration(n.Ms) * time.Millisecond)
	}
	hw.EnableOutput(false)

	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		pressed := hw.Pressed()
		hw.SetLED(pressed)
		led.Set(pressed)
		time.Sleep(10 * time.Millisecond)
	}
}
