package chord

import (
	"regexp"
	"strings"

	"github.com/jsphweid/chordscroll/model"
)

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

var naturalPitch = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// chordRe anchors root + accidental + quality + optional slash bass. The
// quality class is deliberately loose; it only has to keep section names
// like "Bridge" or "Coda" from reading as chords.
var chordRe = regexp.MustCompile(`^([A-G])(#|b)?((?:maj|min|dim|aug|sus|add|no|m|M|[0-9]|[#b+\-()°øΔ])*)(?:/([A-G])(#|b)?)?$`)

// Parse reads a chord symbol like "F#m7/B". The bool reports whether s is
// a chord at all.
func Parse(s string) (model.ChordSymbol, bool) {
	m := chordRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return model.ChordSymbol{}, false
	}
	c := model.ChordSymbol{
		Root:       m[1],
		Accidental: m[2],
		Suffix:     m[3],
		Bass:       m[4] + m[5],
	}
	flat := m[2] == "b" || m[5] == "b"
	return c.WithFlatSpelling(flat), true
}

// IsChord reports whether s parses as a chord symbol.
func IsChord(s string) bool {
	_, ok := Parse(s)
	return ok
}

func pitchOf(root, accidental string) int {
	p := naturalPitch[root]
	switch accidental {
	case "#":
		p++
	case "b":
		p--
	}
	return ((p % 12) + 12) % 12
}

func spell(pitch int, flat bool) (root, accidental string) {
	name := sharpNames[pitch]
	if flat {
		name = flatNames[pitch]
	}
	if len(name) == 2 {
		return name[:1], name[1:]
	}
	return name, ""
}

// Transpose moves c by n semitones. Spelling follows the source symbol:
// flat symbols stay flat through the round trip, everything else spells
// sharp.
func Transpose(c model.ChordSymbol, n int) model.ChordSymbol {
	if n%12 == 0 && n != 0 {
		n = 0
	}
	if n == 0 {
		return c
	}
	flat := c.PrefersFlats()
	root, acc := spell((pitchOf(c.Root, c.Accidental)+n%12+12)%12, flat)
	out := model.ChordSymbol{Root: root, Accidental: acc, Suffix: c.Suffix}
	if c.Bass != "" {
		bassRoot := c.Bass[:1]
		bassAcc := c.Bass[1:]
		br, ba := spell((pitchOf(bassRoot, bassAcc)+n%12+12)%12, flat)
		out.Bass = br + ba
	}
	return out.WithFlatSpelling(flat)
}

// TransposeName transposes a chord name in place. Strings that are not
// chords come back unchanged.
func TransposeName(s string, n int) string {
	c, ok := Parse(s)
	if !ok {
		return s
	}
	return Transpose(c, n).String()
}

// suffixIntervals maps a quality suffix to semitone offsets above the root.
var suffixIntervals = map[string][]int{
	"":       {0, 4, 7},
	"M":      {0, 4, 7},
	"maj":    {0, 4, 7},
	"m":      {0, 3, 7},
	"min":    {0, 3, 7},
	"5":      {0, 7},
	"6":      {0, 4, 7, 9},
	"m6":     {0, 3, 7, 9},
	"7":      {0, 4, 7, 10},
	"maj7":   {0, 4, 7, 11},
	"M7":     {0, 4, 7, 11},
	"m7":     {0, 3, 7, 10},
	"mmaj7":  {0, 3, 7, 11},
	"9":      {0, 4, 7, 10, 14},
	"maj9":   {0, 4, 7, 11, 14},
	"m9":     {0, 3, 7, 10, 14},
	"add9":   {0, 4, 7, 14},
	"11":     {0, 4, 7, 10, 14, 17},
	"13":     {0, 4, 7, 10, 14, 21},
	"dim":    {0, 3, 6},
	"°":      {0, 3, 6},
	"dim7":   {0, 3, 6, 9},
	"m7b5":   {0, 3, 6, 10},
	"ø":      {0, 3, 6, 10},
	"aug":    {0, 4, 8},
	"+":      {0, 4, 8},
	"sus":    {0, 5, 7},
	"sus4":   {0, 5, 7},
	"sus2":   {0, 2, 7},
	"7sus4":  {0, 5, 7, 10},
	"6add9":  {0, 4, 7, 9, 14},
	"7b9":    {0, 4, 7, 10, 13},
	"7#9":    {0, 4, 7, 10, 15},
	"m7(b5)": {0, 3, 6, 10},
}

// Intervals returns the semitone offsets of the chord's tones above the
// root. Suffixes not in the table fall back to a triad guess so export
// always has something to play.
func Intervals(c model.ChordSymbol) []int {
	if iv, ok := suffixIntervals[c.Suffix]; ok {
		out := make([]int, len(iv))
		copy(out, iv)
		return out
	}
	iv := []int{0, 4, 7}
	if strings.HasPrefix(c.Suffix, "m") && !strings.HasPrefix(c.Suffix, "maj") {
		iv = []int{0, 3, 7}
	}
	if strings.Contains(c.Suffix, "7") {
		iv = append(iv, 10)
	}
	return iv
}

// MIDINotes voices the chord in the given octave, with any slash bass
// prepended an octave below the voicing. Octave 4 puts the root at
// middle C.
func MIDINotes(c model.ChordSymbol, octave int) []uint8 {
	rootPitch := pitchOf(c.Root, c.Accidental)
	base := (octave+1)*12 + rootPitch

	var notes []uint8
	if c.Bass != "" {
		bass := base - 12 - rootPitch + pitchOf(c.Bass[:1], c.Bass[1:])
		if bass < 0 {
			bass += 12
		}
		notes = append(notes, uint8(bass))
	}
	for _, iv := range Intervals(c) {
		n := base + iv
		if n >= 0 && n <= 127 {
			notes = append(notes, uint8(n))
		}
	}
	return notes
}
