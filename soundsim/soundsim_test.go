package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/harveysanders/soundcard/tone"
	"github.com/harveysanders/soundcard/tune"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateCycles(t *testing.T) {
	gen := tone.MustNew(tone.Default)

	tl, err := simulate(tune.HappyBirthday, gen, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 2*tune.HappyBirthday.Duration(), tl.Elapsed())
	assert.Equal(t, 58, tl.Toggles())
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	song := tune.NewSong("t", tune.Note{Pitch: tune.C5, Ms: 100}, tune.Note{Pitch: tune.Rest, Ms: 1})

	require.NoError(t, table(&buf, song, tone.MustNew(tone.Default)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	c5 := strings.Fields(lines[1])
	assert.Equal(t, []string{"0", "C5", "100", "477", "238", "221", "110", "27"}, c5[:8])
	assert.Equal(t, "yes", c5[len(c5)-1])
	assert.Contains(t, lines[2], "R")
}

func TestKeyButtonLatches(t *testing.T) {
	var b keyButton
	assert.False(t, b.Pressed())
	b.pressed.Store(true)
	assert.True(t, b.Pressed())
	assert.False(t, b.Pressed())
}

func TestLoadSong(t *testing.T) {
	defer func(v string) { *songArg = v }(*songArg)

	*songArg = "perfect-night"
	s, err := loadSong()
	require.NoError(t, err)
	assert.Equal(t, 45, s.Len())

	*songArg = "testdata/scale.yaml"
	s, err = loadSong()
	require.NoError(t, err)
	assert.Equal(t, "c major run", s.Name)
	assert.Equal(t, 1801*time.Millisecond, s.Duration())

	*songArg = "no-such-song"
	_, err = loadSong()
	assert.Error(t, err)
}
