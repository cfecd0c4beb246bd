// Command soundsim runs the sound card sequencer against a virtual board:
// it renders songs to WAV, plays them live through the speakers with the
// space bar as the button, and prints the timer register table.
package main

import (
	"log"
	"os"

	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalln(err)
	}
}

func run(args []string) error {
	app.Version("0.1.0")
	cmd := kingpin.MustParse(app.Parse(args))

	song, err := loadSong()
	if err != nil {
		return err
	}
	gen, err := tone.New(timerConfig())
	if err != nil {
		return err
	}

	switch cmd {
	case renderCmd.FullCommand():
		return render(song, gen, newLogger())
	case playCmd.FullCommand():
		return play(song, gen, newLogger())
	case tableCmd.FullCommand():
		return table(os.Stdout, song, gen)
	case exportCmd.FullCommand():
		return tune.Encode(os.Stdout, song)
	}
	return nil
}
