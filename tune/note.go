// Package tune holds the note and song types played by the sequencer,
// the pitch table and the built-in songs.
package tune

import (
	"errors"
	"strconv"
	"time"
)

// LegacyRestHz is the magic frequency the first firmware used to stand in
// for silence. Notes carrying it are treated as rests.
const LegacyRestHz = 10

// Rest is the frequency of an explicit rest.
const Rest Hz = 0

var ErrEmptySong = errors.New("song has no notes")

// Hz is a pitch in hertz.
type Hz float64

// Note is a single table entry: a pitch held for a number of milliseconds.
type Note struct {
	Pitch Hz
	Ms    uint32
}

// IsRest reports whether n should be played as silence.
func (n Note) IsRest() bool {
	return n.Pitch <= 0 || n.Pitch == LegacyRestHz
}

// Duration returns how long the note blocks the sequencer.
func (n Note) Duration() time.Duration {
	return time.Duration(n.Ms) * time.Millisecond
}

func (n Note) String() string {
	name := "R"
	if !n.IsRest() {
		name = NameOf(n.Pitch)
	}
	return name + " " + strconv.FormatUint(uint64(n.Ms), 10) + "ms"
}

// Song is an ordered, fixed sequence of notes. Songs are values and are
// never modified once built.
type Song struct {
	Name  string
	notes []Note
}

// NewSong copies notes into a new Song.
func NewSong(name string, notes ...Note) Song {
	cp := make([]Note, len(notes))
	copy(cp, notes)
	return Song{Name: name, notes: cp}
}

// Len returns the number of notes in the song.
func (s Song) Len() int { return len(s.notes) }

// At returns the i-th note.
func (s Song) At(i int) Note { return s.notes[i] }

// Notes returns a copy of the note table.
func (s Song) Notes() []Note {
	cp := make([]Note, len(s.notes))
	copy(cp, s.notes)
	return cp
}

// Duration is the sum of all note durations.
func (s Song) Duration() time.Duration {
	var d time.Duration
	for _, n := range s.notes {
		d += n.Duration()
	}
	return d
}

// Validate checks that the song can be played.
func (s Song) Validate() error {
	if len(s.notes) == 0 {
		return ErrEmptySong
	}
	return nil
}
