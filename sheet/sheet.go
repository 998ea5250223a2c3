package sheet

import (
	"regexp"
	"strings"

	"github.com/jsphweid/chordscroll/chord"
	"github.com/jsphweid/chordscroll/model"
)

var lyricChordRe = regexp.MustCompile(`\[([^\[\]]*)\]`)

var directiveAliases = map[string]string{
	"t":              "title",
	"st":             "subtitle",
	"bpm":            "tempo",
	"ts":             "time",
	"time_signature": "time",
	"c":              "comment",
}

// Parse splits song text into classified lines. It never fails: anything
// unrecognized falls through to a lyric line with its raw text kept, so a
// malformed song still plays.
//
// Lines are classified in priority order: empty, directive, bar-count
// section header (which absorbs following blank and chord-row lines into an
// instrumental section), plain section header, chord row, lyric.
func Parse(text string, transposeSemitones int) *model.Document {
	if transposeSemitones != 0 {
		text = TransposeText(text, transposeSemitones)
	}

	doc := &model.Document{Directives: make(map[string]string)}
	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		raw := lines[i]
		body := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(body)

		switch {
		case trimmed == "":
			doc.Lines = append(doc.Lines, model.EmptyLine{Raw: raw})
		case isDirective(trimmed):
			key, value := parseDirective(trimmed)
			doc.Directives[key] = value
			doc.Lines = append(doc.Lines, model.DirectiveLine{Raw: raw, Key: key, Value: value})
		default:
			if inst, consumed, ok := ParseInstrumental(raw, lines[i+1:]); ok {
				doc.Lines = append(doc.Lines, inst)
				i += consumed
				continue
			}
			if name, ok := parseSectionName(body); ok {
				doc.Lines = append(doc.Lines, model.SectionLine{Raw: raw, Name: name, Kind: SectionKindOf(name)})
				continue
			}
			if bars, repeat, ok := ParseChordBars(body); ok {
				doc.Lines = append(doc.Lines, model.ChordRowLine{Raw: raw, Bars: bars, Repeat: repeat})
				continue
			}
			doc.Lines = append(doc.Lines, parseLyric(raw, body))
		}
	}
	return doc
}

func isDirective(trimmed string) bool {
	return len(trimmed) > 2 &&
		strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") &&
		strings.Count(trimmed, "{") == 1 && strings.Count(trimmed, "}") == 1
}

func parseDirective(trimmed string) (string, string) {
	inner := trimmed[1 : len(trimmed)-1]
	key, value, _ := strings.Cut(inner, ":")
	key = strings.ToLower(strings.TrimSpace(key))
	if alias, ok := directiveAliases[key]; ok {
		key = alias
	}
	return key, strings.TrimSpace(value)
}

// parseLyric extracts [Chord] markers from a lyric line. Markers whose body
// is not a valid chord are kept with a nil symbol so callers can re-check
// them.
func parseLyric(raw, body string) model.LyricLine {
	line := model.LyricLine{Raw: raw}
	var text strings.Builder
	last := 0
	for _, m := range lyricChordRe.FindAllStringSubmatchIndex(body, -1) {
		text.WriteString(body[last:m[0]])
		inner := body[m[2]:m[3]]
		lc := model.LyricChord{Raw: inner, Pos: text.Len()}
		if sym, ok := chord.Parse(inner); ok {
			lc.Chord = &sym
		}
		line.Chords = append(line.Chords, lc)
		last = m[1]
	}
	text.WriteString(body[last:])
	line.Text = text.String()
	return line
}

// TransposeText moves every chord symbol in the text by n semitones,
// leaving every other byte as written. Directives, section names and
// unparseable brackets pass through untouched.
func TransposeText(text string, n int) string {
	if n == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		lines[i] = transposeLine(raw, n)
	}
	return strings.Join(lines, "\n")
}

func transposeLine(raw string, n int) string {
	body := strings.TrimSuffix(raw, "\r")
	cr := raw[len(body):]
	trimmed := strings.TrimSpace(body)

	if trimmed == "" || isDirective(trimmed) {
		return raw
	}
	if _, _, ok := ParseSectionHeader(body); ok {
		return raw
	}
	if _, ok := parseSectionName(body); ok {
		return raw
	}
	if segs, _, ok := parseRow(body); ok {
		// splice back to front so earlier spans stay valid
		out := body
		for i := len(segs) - 1; i >= 0; i-- {
			s := segs[i]
			out = out[:s.chordStart] + chord.Transpose(s.bar.Chord, n).String() + out[s.chordEnd:]
		}
		return out + cr
	}
	out := lyricChordRe.ReplaceAllStringFunc(body, func(m string) string {
		inner := m[1 : len(m)-1]
		if sym, ok := chord.Parse(inner); ok {
			return "[" + chord.Transpose(sym, n).String() + "]"
		}
		return m
	})
	return out + cr
}
