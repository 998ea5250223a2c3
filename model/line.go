package model

type SectionKind string

const (
	SectionVerse        SectionKind = "verse"
	SectionPreChorus    SectionKind = "pre-chorus"
	SectionPostChorus   SectionKind = "post-chorus"
	SectionChorus       SectionKind = "chorus"
	SectionBridge       SectionKind = "bridge"
	SectionIntro        SectionKind = "intro"
	SectionOutro        SectionKind = "outro"
	SectionSolo         SectionKind = "solo"
	SectionInstrumental SectionKind = "instrumental"
	SectionInterlude    SectionKind = "interlude"
	SectionBreak        SectionKind = "break"
	SectionOther        SectionKind = "other"
)

// Line is one parsed line of song text. The set of implementations is
// closed; consumers switch over the concrete types.
type Line interface {
	// Source returns the text the line was parsed from. An instrumental
	// section spans several physical lines, so its source may contain
	// newlines.
	Source() string
	isLine()
}

type EmptyLine struct {
	Raw string
}

// DirectiveLine is ChordPro-style metadata, {key: value} or {key}. The key
// is lowercased and alias-normalized.
type DirectiveLine struct {
	Raw   string
	Key   string
	Value string
}

type SectionLine struct {
	Raw  string
	Name string
	Kind SectionKind
}

// InstrumentalLine is a section header with an explicit bar count, plus any
// chord-bar rows absorbed from the lines that followed it.
type InstrumentalLine struct {
	Raw          string
	Name         string
	Kind         SectionKind
	DeclaredBars int
	Bars         []ChordBar
}

// ChordRowLine is a bare chord-bar row. Repeat is the trailing xN
// multiplier, zero when the row has none.
type ChordRowLine struct {
	Raw    string
	Bars   []ChordBar
	Repeat int
}

// LyricLine is free text with zero or more chords anchored into it. Text is
// the display text with the bracket markers stripped out.
type LyricLine struct {
	Raw    string
	Text   string
	Chords []LyricChord
}

func (l EmptyLine) Source() string        { return l.Raw }
func (l DirectiveLine) Source() string    { return l.Raw }
func (l SectionLine) Source() string      { return l.Raw }
func (l InstrumentalLine) Source() string { return l.Raw }
func (l ChordRowLine) Source() string     { return l.Raw }
func (l LyricLine) Source() string        { return l.Raw }

func (EmptyLine) isLine()        {}
func (DirectiveLine) isLine()    {}
func (SectionLine) isLine()      {}
func (InstrumentalLine) isLine() {}
func (ChordRowLine) isLine()     {}
func (LyricLine) isLine()        {}

// Document is the parsed form of one song text. Line order matches the
// input; Directives collects every directive line, last value winning.
type Document struct {
	Directives map[string]string
	Lines      []Line
}

func (d *Document) Directive(key string) (string, bool) {
	v, ok := d.Directives[key]
	return v, ok
}

func (d *Document) Title() string {
	v, _ := d.Directive("title")
	return v
}
