package tune

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Pitches covered by the buzzer. Sharps carry an "s" suffix.
const (
	G4  Hz = 392.00
	G4s Hz = 415.30
	A4  Hz = 440.00
	A4s Hz = 466.16
	B4  Hz = 493.88
	C5  Hz = 523.25
	C5s Hz = 554.37
	D5  Hz = 587.33
	D5s Hz = 622.25
	E5  Hz = 659.25
	F5  Hz = 698.46
	F5s Hz = 739.99
	G5  Hz = 783.99
	G5s Hz = 830.61
	A5  Hz = 880.00
	A5s Hz = 932.33
	B5  Hz = 987.77
	C6  Hz = 1046.50
	C6s Hz = 1108.73
	D6  Hz = 1174.66
	D6s Hz = 1244.51
	E6  Hz = 1318.51
	F6  Hz = 1396.91
	F6s Hz = 1479.98
	G6  Hz = 1567.98
	G6s Hz = 1661.22
	A6  Hz = 1760.00
	A6s Hz = 1864.66
	B6  Hz = 1975.53
	C7  Hz = 2093.00
	C7s Hz = 2217.46
)

var ErrUnknownPitch = errors.New("unknown pitch")

type pitchName struct {
	name string
	hz   Hz
}

// Ordered low to high.
var pitches = []pitchName{
	{"G4", G4}, {"G4s", G4s}, {"A4", A4}, {"A4s", A4s}, {"B4", B4},
	{"C5", C5}, {"C5s", C5s}, {"D5", D5}, {"D5s", D5s}, {"E5", E5},
	{"F5", F5}, {"F5s", F5s}, {"G5", G5}, {"G5s", G5s}, {"A5", A5},
	{"A5s", A5s}, {"B5", B5}, {"C6", C6}, {"C6s", C6s}, {"D6", D6},
	{"D6s", D6s}, {"E6", E6}, {"F6", F6}, {"F6s", F6s}, {"G6", G6},
	{"G6s", G6s}, {"A6", A6}, {"A6s", A6s}, {"B6", B6}, {"C7", C7},
	{"C7s", C7s},
}

// Lookup resolves a pitch name such as "C6", "C6s" or "C6#". "R", "rest"
// and "null" resolve to Rest. A plain number is taken as hertz.
func Lookup(name string) (Hz, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "r", "rest", "null":
		return Rest, nil
	}
	norm := strings.Replace(name, "#", "s", 1)
	for _, p := range pitches {
		if strings.EqualFold(p.name, norm) {
			return p.hz, nil
		}
	}
	if f, err := strconv.ParseFloat(name, 64); err == nil && f >= 0 {
		return Hz(f), nil
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownPitch)
}

// NameOf returns the table name of hz, or its numeric value when hz is
// not one of the named pitches.
func NameOf(hz Hz) string {
	for _, p := range pitches {
		if p.hz == hz {
			return p.name
		}
	}
	return strconv.FormatFloat(float64(hz), 'f', -1, 64)
}
