package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type ElementKind string

const (
	KindSection      ElementKind = "section"
	KindInstrumental ElementKind = "instrumental"
	KindChords       ElementKind = "chords"
	KindLyric        ElementKind = "lyric"
	KindChordLyric   ElementKind = "chords+lyric"
	KindEmpty        ElementKind = "empty"
)

// TimelineElement is one playable span of the song. Elements are contiguous:
// EndBeat == StartBeat + DurationBeats and the next element starts where
// this one ends.
type TimelineElement struct {
	ID            string
	Kind          ElementKind
	StartBeat     float64
	EndBeat       float64
	DurationBeats float64
	Bars          float64
	Line          Line

	// Lyric is set when a chord row annotates the lyric line that followed
	// it and the two were merged into one element.
	Lyric *LyricLine
}

func (e *TimelineElement) Contains(beat float64) bool {
	return beat >= e.StartBeat && beat < e.EndBeat
}

// GridBars returns the element's chord bars with any row repeat expanded,
// or nil when the element has no bar grid.
func (e *TimelineElement) GridBars() []ChordBar {
	switch l := e.Line.(type) {
	case InstrumentalLine:
		return l.Bars
	case ChordRowLine:
		if l.Repeat > 1 {
			out := make([]ChordBar, 0, len(l.Bars)*l.Repeat)
			for i := 0; i < l.Repeat; i++ {
				out = append(out, l.Bars...)
			}
			return out
		}
		return l.Bars
	}
	return nil
}

// ChordCount returns the number of discrete chord cells in the element.
func (e *TimelineElement) ChordCount() int {
	if bars := e.GridBars(); bars != nil {
		return len(bars)
	}
	if l, ok := e.Line.(LyricLine); ok {
		return len(l.Chords)
	}
	return 0
}

// SongTimeline is the beat-indexed form of a song at a fixed tempo and time
// signature. It is replaced wholesale on recomputation, never mutated.
type SongTimeline struct {
	Elements     []TimelineElement
	TotalBeats   float64
	TotalBars    float64
	TotalSeconds float64
	BeatsPerBar  int
	BPM          float64
}

// ElementAt returns the element whose [StartBeat, EndBeat) span contains
// beat, or nil. Zero-duration elements contain no beats.
func (t *SongTimeline) ElementAt(beat float64) *TimelineElement {
	i := sort.Search(len(t.Elements), func(i int) bool {
		return t.Elements[i].EndBeat > beat
	})
	if i < len(t.Elements) && t.Elements[i].Contains(beat) {
		return &t.Elements[i]
	}
	return nil
}

func (t *SongTimeline) ElementByID(id string) *TimelineElement {
	for i := range t.Elements {
		if t.Elements[i].ID == id {
			return &t.Elements[i]
		}
	}
	return nil
}

// PositionMap holds measured pixel offsets keyed by element id. Ids are
// regenerated on every recompute, so stale writes are naturally ignored.
type PositionMap = map[string]float64

// DurationOverrides holds user-supplied per-element durations in beats.
type DurationOverrides = map[string]float64

type TimeSignature struct {
	BeatsPerBar int
	BeatUnit    int
}

func (ts TimeSignature) String() string {
	return fmt.Sprintf("%v/%v", ts.BeatsPerBar, ts.BeatUnit)
}

// ParseTimeSignature reads "N/M". Anything malformed comes back as 4/4.
func ParseTimeSignature(s string) TimeSignature {
	def := TimeSignature{BeatsPerBar: 4, BeatUnit: 4}
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil || n <= 0 {
		return def
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil || d <= 0 {
		return def
	}
	return TimeSignature{BeatsPerBar: n, BeatUnit: d}
}

// CalcOptions tunes the duration policy for lyric lines. The heuristic
// thresholds are configuration, not domain truth.
type CalcOptions struct {
	DefaultBarsPerLine    int     `json:"default_bars_per_line"`
	DefaultBeatsPerChord  int     `json:"default_beats_per_chord"`
	IntelligentEstimation bool    `json:"intelligent_estimation"`
	LongLineChars         int     `json:"long_line_chars"`
	ChordsPerBar          float64 `json:"chords_per_bar"`
}

// Tempo returns the song's tempo directive as a number.
func (d *Document) Tempo() (float64, bool) {
	v, ok := d.Directive("tempo")
	if !ok {
		return 0, false
	}
	bpm, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || bpm <= 0 {
		return 0, false
	}
	return bpm, true
}

// Time returns the song's time signature directive.
func (d *Document) Time() (TimeSignature, bool) {
	v, ok := d.Directive("time")
	if !ok {
		return TimeSignature{}, false
	}
	return ParseTimeSignature(v), true
}
