package tune

// HappyBirthday is the reference song: 29 notes, 11.904 s.
var HappyBirthday = NewSong("happy birthday",
	Note{C6, 350}, Note{Rest, 1}, Note{C6, 200}, Note{D6, 500}, Note{C6, 500}, Note{F6, 500}, Note{E6, 750},
	Note{C6, 350}, Note{Rest, 1}, Note{C6, 200}, Note{D6, 500}, Note{C6, 500}, Note{G6, 500}, Note{F6, 750},
	Note{C6, 350}, Note{Rest, 1}, Note{C6, 200}, Note{C7s, 500}, Note{A6, 500}, Note{F6, 500}, Note{E6, 550}, Note{D6, 650},
	Note{A6s, 350}, Note{Rest, 1}, Note{A6s, 200}, Note{A6, 500}, Note{F6, 500}, Note{G6, 500}, Note{F6, 1000},
)

// PerfectNight is an alternate tune. Every note is followed by a 1 ms rest
// so repeated pitches are heard as separate notes.
var PerfectNight = NewSong("perfect night",
	Note{F6, 200}, Note{Rest, 1}, Note{F6, 300}, Note{Rest, 1}, Note{F6, 200}, Note{Rest, 1}, Note{A6, 200}, Note{Rest, 1},
	Note{F6, 200}, Note{Rest, 1}, Note{F6, 300}, Note{Rest, 1}, Note{F6, 200}, Note{Rest, 1}, Note{C6, 200}, Note{Rest, 1}, Note{C6, 300}, Note{Rest, 1},
	Note{C6, 200}, Note{Rest, 1}, Note{C6, 200}, Note{Rest, 1}, Note{G6, 150}, Note{Rest, 1}, Note{E6, 200}, Note{Rest, 1}, Note{E6, 200}, Note{Rest, 1},
	Note{E6, 200}, Note{Rest, 1}, Note{C6, 200}, Note{Rest, 1}, Note{C6, 200}, Note{Rest, 1}, Note{C6, 200}, Note{Rest, 1}, Note{C6, 200}, Note{Rest, 1},
	Note{G6, 200}, Note{Rest, 1}, Note{F6, 200}, Note{Rest, 1}, Note{E6, 200}, Note{Rest, 1}, Note{F6, 800},
)

// Builtin returns a built-in song by name.
func Builtin(name string) (Song, bool) {
	switch name {
	case "happy-birthday", HappyBirthday.Name:
		return HappyBirthday, true
	case "perfect-night", PerfectNight.Name:
		return PerfectNight, true
	}
	return Song{}, false
}
