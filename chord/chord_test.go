package chord

import (
	"fmt"
	"testing"

	"github.com/jsphweid/chordscroll/model"
	"github.com/stretchr/testify/assert"
)

func TestParsesCommonChords(t *testing.T) {
	cases := map[string]model.ChordSymbol{
		"A":     {Root: "A"},
		"Am7":   {Root: "A", Suffix: "m7"},
		"F#m":   {Root: "F", Accidental: "#", Suffix: "m"},
		"Cmaj7": {Root: "C", Suffix: "maj7"},
		"Dsus4": {Root: "D", Suffix: "sus4"},
		"Cadd9": {Root: "C", Suffix: "add9"},
		"Dm7b5": {Root: "D", Suffix: "m7b5"},
		"G/B":   {Root: "G", Bass: "B"},
		"E7#9":  {Root: "E", Suffix: "7#9"},
	}

	for input, expected := range cases {
		t.Run(fmt.Sprintf("parses %v", input), func(t *testing.T) {
			actual, ok := Parse(input)
			assert := assert.New(t)
			assert.True(ok)
			assert.Equal(expected, actual)
			assert.Equal(input, actual.String())
		})
	}
}

func TestParsesFlatChordsWithFlatSpelling(t *testing.T) {
	assert := assert.New(t)

	c, ok := Parse("Bb")
	assert.True(ok)
	assert.Equal("B", c.Root)
	assert.Equal("b", c.Accidental)
	assert.True(c.PrefersFlats())

	c, ok = Parse("D/F#")
	assert.True(ok)
	assert.False(c.PrefersFlats())

	c, ok = Parse("C/Bb")
	assert.True(ok)
	assert.True(c.PrefersFlats())
}

func TestRejectsNonChords(t *testing.T) {
	cases := []string{
		"", "Verse", "Chorus", "Bridge", "Intro", "Coda", "Break",
		"H", "Amen", "Baby", "Do", "Fine", "A minor", "x2", "4",
	}

	for _, input := range cases {
		t.Run(fmt.Sprintf("rejects %q", input), func(t *testing.T) {
			assert.False(t, IsChord(input))
		})
	}
}

func TestTransposeByName(t *testing.T) {
	cases := []struct {
		input     string
		semitones int
		expected  string
	}{
		{"Am7", 2, "Bm7"},
		{"F#m", 2, "G#m"},
		{"C", 12, "C"},
		{"C", -12, "C"},
		{"G/B", 2, "A/C#"},
		{"Bb", 1, "B"},
		{"Eb/Bb", 1, "E/B"},
		{"B", 1, "C"},
		{"C", -1, "B"},
		{"Dm7b5", 5, "Gm7b5"},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%v by %v", c.input, c.semitones), func(t *testing.T) {
			assert.Equal(t, c.expected, TransposeName(c.input, c.semitones))
		})
	}
}

func TestTransposeRoundTrips(t *testing.T) {
	chords := []string{"C", "Am7", "F#m", "Bb", "Eb/Bb", "Dm7b5", "G/B", "A#", "Dbmaj7"}

	assert := assert.New(t)
	for _, name := range chords {
		orig, ok := Parse(name)
		assert.True(ok)
		for n := -12; n <= 12; n++ {
			back := Transpose(Transpose(orig, n), -n)
			assert.Equal(orig, back, "%v by %v", name, n)
		}
	}
}

func TestTransposeLeavesNonChordsAlone(t *testing.T) {
	assert.Equal(t, "Verse", TransposeName("Verse", 3))
}

func TestIntervals(t *testing.T) {
	cases := []struct {
		chord    string
		expected []int
	}{
		{"C", []int{0, 4, 7}},
		{"Am", []int{0, 3, 7}},
		{"G7", []int{0, 4, 7, 10}},
		{"Cmaj7", []int{0, 4, 7, 11}},
		{"Dm7b5", []int{0, 3, 6, 10}},
		{"Esus4", []int{0, 5, 7}},
		{"Caug", []int{0, 4, 8}},
	}

	for _, c := range cases {
		t.Run(c.chord, func(t *testing.T) {
			sym, ok := Parse(c.chord)
			assert := assert.New(t)
			assert.True(ok)
			assert.Equal(c.expected, Intervals(sym))
		})
	}
}

func TestMIDINotes(t *testing.T) {
	assert := assert.New(t)

	c, _ := Parse("C")
	assert.Equal([]uint8{60, 64, 67}, MIDINotes(c, 4))

	// slash bass sits below the chord voicing
	gb, _ := Parse("G/B")
	notes := MIDINotes(gb, 4)
	assert.Equal(uint8(59), notes[0])
	assert.Equal(uint8(67), notes[1])
}
