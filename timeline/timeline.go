package timeline

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/util"
)

// BuildError is the typed failure the autoscroll synchronizer watches for.
// Parsing itself never fails; only unusable tempo or meter inputs do.
type BuildError struct {
	Reason string
}

func (e *BuildError) Error() string {
	return "timeline: " + e.Reason
}

// DefaultOptions returns the duration policy used when a caller passes a
// zero CalcOptions.
func DefaultOptions() model.CalcOptions {
	return model.CalcOptions{
		DefaultBarsPerLine:   2,
		DefaultBeatsPerChord: 4,
		LongLineChars:        40,
		ChordsPerBar:         1.5,
	}
}

func normalize(opts model.CalcOptions) model.CalcOptions {
	def := DefaultOptions()
	if opts.DefaultBarsPerLine <= 0 {
		opts.DefaultBarsPerLine = def.DefaultBarsPerLine
	}
	if opts.DefaultBeatsPerChord <= 0 {
		opts.DefaultBeatsPerChord = def.DefaultBeatsPerChord
	}
	if opts.LongLineChars <= 0 {
		opts.LongLineChars = def.LongLineChars
	}
	if opts.ChordsPerBar <= 0 {
		opts.ChordsPerBar = def.ChordsPerBar
	}
	return opts
}

// Build parses text and lays it out on the beat grid.
func Build(text string, bpm float64, ts model.TimeSignature, opts model.CalcOptions) (*model.SongTimeline, error) {
	return BuildFromDocument(sheet.Parse(text, 0), bpm, ts, opts)
}

// BuildFromDocument assigns every non-directive line a beat span and
// accumulates positions left to right. A chord row immediately followed by
// a lyric line merges into a single element whose duration is the larger
// of the two.
func BuildFromDocument(doc *model.Document, bpm float64, ts model.TimeSignature, opts model.CalcOptions) (*model.SongTimeline, error) {
	if ts.BeatsPerBar == 0 && ts.BeatUnit == 0 {
		ts = model.TimeSignature{BeatsPerBar: 4, BeatUnit: 4}
	}
	if ts.BeatsPerBar <= 0 {
		return nil, &BuildError{Reason: fmt.Sprintf("beats per bar must be positive, got %v", ts.BeatsPerBar)}
	}
	if bpm <= 0 {
		return nil, &BuildError{Reason: fmt.Sprintf("bpm must be positive, got %v", bpm)}
	}

	opts = normalize(opts)
	bpb := float64(ts.BeatsPerBar)

	t := &model.SongTimeline{BeatsPerBar: ts.BeatsPerBar, BPM: bpm}
	cursor := 0.0
	for i := 0; i < len(doc.Lines); i++ {
		var (
			kind  model.ElementKind
			dur   float64
			lyric *model.LyricLine
		)
		line := doc.Lines[i]

		switch l := line.(type) {
		case model.DirectiveLine:
			continue
		case model.EmptyLine:
			kind = model.KindEmpty
		case model.SectionLine:
			kind = model.KindSection
		case model.InstrumentalLine:
			kind = model.KindInstrumental
			if len(l.Bars) > 0 {
				dur = barsBeats(l.Bars, bpb)
			} else {
				dur = float64(l.DeclaredBars) * bpb
			}
		case model.ChordRowLine:
			kind = model.KindChords
			dur = rowBeats(l, bpb)
			if next, ok := nextLyric(doc.Lines, i); ok {
				kind = model.KindChordLyric
				lyric = &next
				if ld := lyricBeats(next, opts, bpb); ld > dur {
					dur = ld
				}
				i++
			}
		case model.LyricLine:
			kind = model.KindLyric
			dur = lyricBeats(l, opts, bpb)
		}

		t.Elements = append(t.Elements, model.TimelineElement{
			ID:            uuid.NewString(),
			Kind:          kind,
			StartBeat:     cursor,
			EndBeat:       cursor + dur,
			DurationBeats: dur,
			Bars:          dur / bpb,
			Line:          line,
			Lyric:         lyric,
		})
		cursor += dur
	}

	t.TotalBeats = cursor
	t.TotalBars = cursor / bpb
	t.TotalSeconds = cursor * 60 / bpm
	return t, nil
}

func nextLyric(lines []model.Line, i int) (model.LyricLine, bool) {
	if i+1 >= len(lines) {
		return model.LyricLine{}, false
	}
	l, ok := lines[i+1].(model.LyricLine)
	return l, ok
}

func barsBeats(bars []model.ChordBar, bpb float64) float64 {
	total := 0.0
	for _, b := range bars {
		total += b.BeatsOr(bpb)
	}
	return total
}

func rowBeats(l model.ChordRowLine, bpb float64) float64 {
	total := barsBeats(l.Bars, bpb)
	if l.Repeat > 1 {
		total *= float64(l.Repeat)
	}
	return total
}

// lyricBeats implements the duration policy for lyric lines. In simple
// mode every lyric line gets DefaultBarsPerLine bars. The heuristic mode
// estimates bars from chord density and text length; its thresholds are
// configuration, not domain truth.
func lyricBeats(l model.LyricLine, opts model.CalcOptions, bpb float64) float64 {
	bars := opts.DefaultBarsPerLine
	if opts.IntelligentEstimation {
		bars = estimateBars(len(l.Chords), len(l.Text), opts)
	}
	return float64(bars) * bpb
}

func estimateBars(chords, textLen int, opts model.CalcOptions) int {
	switch {
	case chords == 0:
		return 2
	case chords >= 4:
		return int(math.Ceil(float64(chords) / opts.ChordsPerBar))
	case chords <= 2 && textLen > opts.LongLineChars:
		return 2
	}
	return util.Max(chords, 2)
}

// ApplyOverrides re-runs the left-to-right accumulation with any element
// present in the override map taking its overridden duration. Element ids
// survive, contiguity is restored, untouched elements keep their computed
// duration. The input timeline is not modified.
func ApplyOverrides(t *model.SongTimeline, overrides model.DurationOverrides) *model.SongTimeline {
	out := &model.SongTimeline{
		Elements:    make([]model.TimelineElement, len(t.Elements)),
		BeatsPerBar: t.BeatsPerBar,
		BPM:         t.BPM,
	}
	bpb := float64(t.BeatsPerBar)

	cursor := 0.0
	for i, e := range t.Elements {
		dur := e.DurationBeats
		if v, ok := overrides[e.ID]; ok && v > 0 {
			dur = v
		}
		e.StartBeat = cursor
		e.DurationBeats = dur
		e.EndBeat = cursor + dur
		e.Bars = dur / bpb
		out.Elements[i] = e
		cursor += dur
	}

	out.TotalBeats = cursor
	out.TotalBars = cursor / bpb
	out.TotalSeconds = cursor * 60 / t.BPM
	return out
}
