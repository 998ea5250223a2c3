package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jsphweid/chordscroll/model"
)

// Serialize reconstructs song text from a parsed document. Unedited lines
// reproduce their source bytes exactly; a consumer that edits a line should
// clear its Raw so the line is rendered canonically instead.
func Serialize(doc *model.Document) string {
	parts := make([]string, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		if src := l.Source(); src != "" {
			parts = append(parts, src)
			continue
		}
		parts = append(parts, Render(l))
	}
	return strings.Join(parts, "\n")
}

// Render produces the canonical text form of a line.
func Render(l model.Line) string {
	switch v := l.(type) {
	case model.EmptyLine:
		return ""
	case model.DirectiveLine:
		if v.Value == "" {
			return "{" + v.Key + "}"
		}
		return "{" + v.Key + ": " + v.Value + "}"
	case model.SectionLine:
		return "[" + v.Name + "]"
	case model.InstrumentalLine:
		bars := v.DeclaredBars
		if bars == 0 {
			bars = len(v.Bars)
		}
		head := fmt.Sprintf("[%v | %v bars]", v.Name, bars)
		if len(v.Bars) == 0 {
			return head
		}
		return head + "\n" + RenderBars(v.Bars, 0)
	case model.ChordRowLine:
		return RenderBars(v.Bars, v.Repeat)
	case model.LyricLine:
		return RenderLyric(v)
	}
	return ""
}

// RenderBars renders a chord-bar row, with a trailing repeat marker when
// repeat is above one.
func RenderBars(bars []model.ChordBar, repeat int) string {
	segs := make([]string, 0, len(bars)+1)
	for _, b := range bars {
		s := b.Chord.String()
		if b.Beats > 0 {
			s += " " + strconv.FormatFloat(b.Beats, 'f', -1, 64)
		}
		if b.Label != "" {
			s += " (" + b.Label + ")"
		}
		segs = append(segs, s)
	}
	if repeat > 1 {
		segs = append(segs, fmt.Sprintf("x%v", repeat))
	}
	return strings.Join(segs, " | ")
}

// RenderLyric re-inserts chord markers into the stripped text.
func RenderLyric(l model.LyricLine) string {
	out := l.Text
	for i := len(l.Chords) - 1; i >= 0; i-- {
		c := l.Chords[i]
		pos := c.Pos
		if pos > len(out) {
			pos = len(out)
		}
		if pos < 0 {
			pos = 0
		}
		body := c.Raw
		if c.Chord != nil {
			body = c.Chord.String()
		}
		out = out[:pos] + "[" + body + "]" + out[pos:]
	}
	return out
}
