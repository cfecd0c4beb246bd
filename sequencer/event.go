package sequencer

import (
	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
)

// EventKind tells what happened.
type EventKind uint8

const (
	Started EventKind = iota
	NotePlayed
	Finished
)

func (k EventKind) String() string {
	switch k {
	case Started:
		return "started"
	case NotePlayed:
		return "note"
	case Finished:
		return "finished"
	}
	return "unknown"
}

// Event describes one step of a playback cycle.
type Event struct {
	Kind  EventKind
	Cycle int // 1-based playback count.
	Index int // Note index; -1 for Started, Total for Finished.
	Total int // Notes in the song.
	Note  tune.Note
	// Settings are the register values programmed for Note.
	Settings tone.Settings
	// LED is the flash LED level after the toggle.
	LED bool
}

// Notify returns an observer that forwards events to each channel without
// blocking. An event is dropped for a channel that is full.
func Notify(chs ...chan<- Event) func(Event) {
	return func(ev Event) {
		for _, ch := range chs {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
