package model

// ChordSymbol is a parsed chord name: root letter, optional accidental,
// quality suffix and an optional slash bass note.
type ChordSymbol struct {
	Root       string
	Accidental string
	Suffix     string
	Bass       string

	// preferFlats carries the spelling of the symbol this one was derived
	// from, so Bb moved up and back down lands on Bb and not A#.
	preferFlats bool
}

func (c ChordSymbol) String() string {
	s := c.Root + c.Accidental + c.Suffix
	if c.Bass != "" {
		s += "/" + c.Bass
	}
	return s
}

// PrefersFlats reports whether the symbol should be respelled with flats
// when it is transposed.
func (c ChordSymbol) PrefersFlats() bool {
	return c.preferFlats
}

func (c ChordSymbol) WithFlatSpelling(flat bool) ChordSymbol {
	c.preferFlats = flat
	return c
}

// ChordBar is one cell of a chord grid. Beats of zero means the bar fills
// the prevailing beats-per-bar; an explicit value makes a partial bar.
type ChordBar struct {
	Chord ChordSymbol
	Beats float64
	Label string
}

// BeatsOr returns the bar's beat count, falling back to def when the bar
// has no explicit count.
func (b ChordBar) BeatsOr(def float64) float64 {
	if b.Beats > 0 {
		return b.Beats
	}
	return def
}

// LyricChord anchors a chord into a lyric line. Raw is the bracket body as
// written; Chord is nil when the body is not a valid chord symbol. Pos is a
// byte offset into the stripped lyric text.
type LyricChord struct {
	Raw   string
	Pos   int
	Chord *ChordSymbol
}
