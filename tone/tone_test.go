package tone

import (
	"testing"

	"github.com/harveysanders/soundcard/tune"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeC5(t *testing.T) {
	g := MustNew(Default)
	s := g.Compute(tune.C5)

	assert.Equal(t, uint32(477), s.Period)
	assert.Equal(t, uint32(238), s.Duty)
	assert.False(t, s.Silent)
}

func TestCompute(t *testing.T) {
	g := MustNew(Default)
	tests := []struct {
		hz       tune.Hz
		period   uint32
		duty     uint32
		overflow bool
	}{
		{tune.C6, 238, 119, false},
		{tune.C7s, 112, 56, false},
		{tune.A6, 141, 70, false},
		{tune.G4, 637, 318, true},
		{tune.LegacyRestHz, 24999, 12499, true},
		{250000, 0, 0, false},
		{1e9, 0, 0, false},
	}
	for _, tt := range tests {
		s := g.Compute(tt.hz)
		assert.Equal(t, tt.period, s.Period, "period for %v", tt.hz)
		assert.Equal(t, tt.duty, s.Duty, "duty for %v", tt.hz)
		assert.Equal(t, tt.overflow, s.Overflows(), "overflow for %v", tt.hz)
	}
}

func TestRegistersTruncate(t *testing.T) {
	g := MustNew(Default)

	period, duty := g.Compute(tune.LegacyRestHz).Registers()
	assert.Equal(t, uint32(24999&0xff), period)
	assert.Equal(t, uint32(83), duty, "duty follows the truncated period")

	period, duty = g.Compute(tune.C6).Registers()
	assert.Equal(t, uint32(238), period)
	assert.Equal(t, uint32(119), duty)
}

func TestCCPRL(t *testing.T) {
	g := MustNew(Default)
	assert.Equal(t, uint8(119>>2), g.Compute(tune.C6).CCPRL())
}

func TestOverflowingDutyFollowsWrittenPeriod(t *testing.T) {
	g := MustNew(Default)
	tests := []struct {
		hz     tune.Hz
		period uint32
		duty   uint32
		ccprl  uint8
	}{
		{tune.C5, 221, 110, 27},
		{tune.G4, 637 & 0xff, 62, 15},
		{tune.LegacyRestHz, 167, 83, 20},
	}
	for _, tt := range tests {
		s := g.Compute(tt.hz)
		require.True(t, s.Overflows(), "%v", tt.hz)

		period, duty := s.Registers()
		assert.Equal(t, tt.period, period, "period for %v", tt.hz)
		assert.Equal(t, tt.duty, duty, "duty for %v", tt.hz)
		assert.LessOrEqual(t, duty, period)
		assert.Equal(t, tt.ccprl, s.CCPRL(), "CCPR1L for %v", tt.hz)
	}

	// Full-width values are kept for the documented example.
	s := g.Compute(tune.C5)
	assert.Equal(t, uint32(477), s.Period)
	assert.Equal(t, uint32(238), s.Duty)
}

func TestSilentRegisters(t *testing.T) {
	_, duty := MustNew(Default).Silence().Registers()
	assert.Zero(t, duty)
}

func TestSilence(t *testing.T) {
	g := MustNew(Default)
	for _, hz := range []tune.Hz{0, -5} {
		s := g.Compute(hz)
		assert.True(t, s.Silent)
		assert.Zero(t, s.Duty)
		assert.False(t, s.Overflows())
	}
}

func TestFrequency(t *testing.T) {
	g := MustNew(Default)
	s := g.Compute(tune.C6)
	assert.InDelta(t, float64(tune.C6), float64(g.Frequency(s.Period)), 3)
	assert.Equal(t, tune.Hz(250000), g.Frequency(0))
}

func TestWideRegisters(t *testing.T) {
	cfg := Default
	cfg.RegisterBits = 16
	g := MustNew(cfg)

	s := g.Compute(tune.LegacyRestHz)
	assert.False(t, s.Overflows())
	period, _ := s.Registers()
	assert.Equal(t, uint32(24999), period)

	cfg.RegisterBits = 32
	s = MustNew(cfg).Compute(0.001)
	assert.False(t, s.Overflows())
}

func TestNewRejectsBadConfig(t *testing.T) {
	bad := []Config{
		{Clock: 0, Prescaler: 16, DutyPercent: 50, RegisterBits: 8},
		{Clock: 4000000, Prescaler: 0, DutyPercent: 50, RegisterBits: 8},
		{Clock: 4000000, Prescaler: 16, DutyPercent: 101, RegisterBits: 8},
		{Clock: 4000000, Prescaler: 16, DutyPercent: 50, RegisterBits: 0},
		{Clock: 4000000, Prescaler: 16, DutyPercent: 50, RegisterBits: 33},
	}
	for _, cfg := range bad {
		_, err := New(cfg)
		assert.Error(t, err, "%+v", cfg)
	}
	_, err := New(Default)
	require.NoError(t, err)
}
