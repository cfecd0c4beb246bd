// Package synth is a virtual sound card for running the sequencer on a
// host. It listens to the same register writes as the real board and
// turns them into a square wave through beep.
package synth

import (
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/harveysanders/soundcard/tone"
)

// Volume is the amplitude of the generated square wave.
const Volume = 0.3

// registers mirrors what the hardware latches.
type registers struct {
	period    uint32
	duty      uint32
	output    bool
	led       bool
	ledEnable bool
}

// audible reports the tone frequency and high fraction, or ok=false for
// silence.
func (r registers) audible(gen tone.Generator) (hz, high float64, ok bool) {
	if !r.output || r.duty == 0 {
		return 0, 0, false
	}
	hz = float64(gen.Frequency(r.period))
	high = float64(r.duty) / (float64(r.period) + 1)
	if high > 1 {
		high = 1
	}
	return hz, high, true
}

// oscillator is a phase-continuous square wave.
type oscillator struct {
	phase float64
}

func (o *oscillator) fill(samples [][2]float64, sr beep.SampleRate, hz, high float64, on bool) {
	for i := range samples {
		v := 0.0
		if on {
			if o.phase < high {
				v = Volume
			} else {
				v = -Volume
			}
			o.phase += hz / float64(sr)
			o.phase -= math.Floor(o.phase)
		}
		samples[i][0] = v
		samples[i][1] = v
	}
}

// Segment is a stretch of virtual time with constant register state.
type Segment struct {
	Start    time.Duration
	Length   time.Duration
	Hz       float64 // zero for silence
	High     float64
	LED      bool
	Lighting bool // LED enable line
}

// Timeline is a sequencer.Peripheral plus a virtual clock. Delays advance
// the clock instantly and record what the buzzer was doing meanwhile.
type Timeline struct {
	gen      tone.Generator
	regs     registers
	now      time.Duration
	segments []Segment
	toggles  int
}

// NewTimeline returns an empty timeline for gen's timer constants.
func NewTimeline(gen tone.Generator) *Timeline {
	return &Timeline{gen: gen}
}

func (t *Timeline) SetPeriod(v uint32)   { t.regs.period = v }
func (t *Timeline) SetDuty(v uint32)     { t.regs.duty = v }
func (t *Timeline) EnableOutput(on bool) { t.regs.output = on }
func (t *Timeline) SetLEDEnable(on bool) { t.regs.ledEnable = on }

func (t *Timeline) SetLED(on bool) {
	if on != t.regs.led {
		t.toggles++
	}
	t.regs.led = on
}

// Delay advances the virtual clock by d. Consecutive delays in the same
// state are merged into one segment.
func (t *Timeline) Delay(d time.Duration) {
	hz, high, _ := t.regs.audible(t.gen)
	seg := Segment{Start: t.now, Length: d, Hz: hz, High: high, LED: t.regs.led, Lighting: t.regs.ledEnable}
	t.now += d
	if n := len(t.segments); n > 0 {
		last := &t.segments[n-1]
		if last.Hz == seg.Hz && last.High == seg.High && last.LED == seg.LED && last.Lighting == seg.Lighting {
			last.Length += d
			return
		}
	}
	t.segments = append(t.segments, seg)
}

// Elapsed is the virtual time spent in Delay.
func (t *Timeline) Elapsed() time.Duration { return t.now }

// Toggles counts flash LED level changes.
func (t *Timeline) Toggles() int { return t.toggles }

// Segments returns the recorded segments.
func (t *Timeline) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Streamer renders the recorded segments at sr.
func (t *Timeline) Streamer(sr beep.SampleRate) beep.Streamer {
	streams := make([]beep.Streamer, 0, len(t.segments))
	osc := &oscillator{}
	for _, seg := range t.segments {
		seg := seg
		n := sr.N(seg.Length)
		streams = append(streams, beep.Take(n, beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
			osc.fill(samples, sr, seg.Hz, seg.High, seg.Hz > 0)
			return len(samples), true
		})))
	}
	return beep.Seq(streams...)
}

// Live is a sequencer.Peripheral whose state is sampled by an audio
// goroutine. It is safe for concurrent use.
type Live struct {
	gen tone.Generator
	sr  beep.SampleRate
	osc oscillator

	mu      sync.Mutex
	regs    registers
	onLight func(led, enable bool)
}

// NewLive returns a live peripheral producing audio at sr. onLight, if
// set, is called with the LED levels after every LED write.
func NewLive(gen tone.Generator, sr beep.SampleRate, onLight func(led, enable bool)) *Live {
	return &Live{gen: gen, sr: sr, onLight: onLight}
}

func (l *Live) SetPeriod(v uint32) {
	l.mu.Lock()
	l.regs.period = v
	l.mu.Unlock()
}

func (l *Live) SetDuty(v uint32) {
	l.mu.Lock()
	l.regs.duty = v
	l.mu.Unlock()
}

func (l *Live) EnableOutput(on bool) {
	l.mu.Lock()
	l.regs.output = on
	l.mu.Unlock()
}

func (l *Live) SetLED(on bool) {
	l.mu.Lock()
	l.regs.led = on
	regs := l.regs
	l.mu.Unlock()
	l.light(regs)
}

func (l *Live) SetLEDEnable(on bool) {
	l.mu.Lock()
	l.regs.ledEnable = on
	regs := l.regs
	l.mu.Unlock()
	l.light(regs)
}

func (l *Live) light(r registers) {
	if l.onLight != nil {
		l.onLight(r.led, r.ledEnable)
	}
}

// Stream implements beep.Streamer. It never ends.
func (l *Live) Stream(samples [][2]float64) (int, bool) {
	l.mu.Lock()
	hz, high, ok := l.regs.audible(l.gen)
	l.mu.Unlock()
	l.osc.fill(samples, l.sr, hz, high, ok)
	return len(samples), true
}

// Err implements beep.Streamer.
func (l *Live) Err() error { return nil }
