package tune

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v2"
)

// songFile is the YAML layout of a song:
//
//	name: happy birthday
//	notes:
//	  - C6 350
//	  - R 1
//	  - C6s 200
type songFile struct {
	Name  string   `yaml:"name"`
	Notes []string `yaml:"notes"`
}

// Decode reads a YAML song from r.
func Decode(r io.Reader) (Song, error) {
	var f songFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return Song{}, fmt.Errorf("decode song: %w", err)
	}
	notes := make([]Note, 0, len(f.Notes))
	for i, line := range f.Notes {
		n, err := ParseNote(line)
		if err != nil {
			return Song{}, fmt.Errorf("note %d: %w", i, err)
		}
		notes = append(notes, n)
	}
	s := NewSong(f.Name, notes...)
	if err := s.Validate(); err != nil {
		return Song{}, err
	}
	return s, nil
}

// ParseNote parses "<pitch> <ms>", e.g. "A6s 350" or "R 1".
func ParseNote(s string) (Note, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Note{}, fmt.Errorf("%q: want \"<pitch> <ms>\"", s)
	}
	hz, err := Lookup(fields[0])
	if err != nil {
		return Note{}, err
	}
	ms, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return Note{}, fmt.Errorf("%q: duration: %w", s, err)
	}
	return Note{Pitch: hz, Ms: uint32(ms)}, nil
}

// Encode writes s to w in the layout read by Decode.
func Encode(w io.Writer, s Song) error {
	f := songFile{Name: s.Name, Notes: make([]string, 0, s.Len())}
	for _, n := range s.notes {
		name := "R"
		if !n.IsRest() {
			name = NameOf(n.Pitch)
		}
		f.Notes = append(f.Notes, name+" "+strconv.FormatUint(uint64(n.Ms), 10))
	}
	out, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encode song: %w", err)
	}
	_, err = w.Write(out)
	return err
}
