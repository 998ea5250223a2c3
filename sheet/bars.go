package sheet

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jsphweid/chordscroll/chord"
	"github.com/jsphweid/chordscroll/model"
)

var repeatRe = regexp.MustCompile(`(?i)\s*x(\d+)\s*$`)
var barCountRe = regexp.MustCompile(`(?i)^(\d+)\s*(?:bars?)?$`)
var labelRe = regexp.MustCompile(`\(([^()]*)\)`)

// sectionKinds is matched in order so "pre-chorus" wins over "chorus".
var sectionKinds = []model.SectionKind{
	model.SectionPreChorus,
	model.SectionPostChorus,
	model.SectionChorus,
	model.SectionVerse,
	model.SectionBridge,
	model.SectionIntro,
	model.SectionOutro,
	model.SectionSolo,
	model.SectionInstrumental,
	model.SectionInterlude,
	model.SectionBreak,
}

// SectionKindOf classifies a section name by case-insensitive keyword
// match, defaulting to other.
func SectionKindOf(name string) model.SectionKind {
	lower := strings.ToLower(name)
	for _, k := range sectionKinds {
		if strings.Contains(lower, string(k)) {
			return k
		}
	}
	return model.SectionOther
}

// bracketInner returns the content of a line that is a single [...] pair.
func bracketInner(s string) (string, bool) {
	t := strings.TrimSpace(s)
	if len(t) < 2 || t[0] != '[' || t[len(t)-1] != ']' {
		return "", false
	}
	if strings.Count(t, "[") != 1 || strings.Count(t, "]") != 1 {
		return "", false
	}
	return strings.TrimSpace(t[1 : len(t)-1]), true
}

// ParseSectionHeader reads a "[Name | N bars]" header. ok is false when the
// line is not a header with an explicit bar count.
func ParseSectionHeader(line string) (string, int, bool) {
	inner, ok := bracketInner(line)
	if !ok {
		return "", 0, false
	}
	left, right, found := strings.Cut(inner, "|")
	if !found {
		return "", 0, false
	}
	name := strings.TrimSpace(left)
	m := barCountRe.FindStringSubmatch(strings.TrimSpace(right))
	if name == "" || m == nil {
		return "", 0, false
	}
	bars, err := strconv.Atoi(m[1])
	if err != nil || bars <= 0 {
		return "", 0, false
	}
	return name, bars, true
}

// parseSectionName reads a plain "[Name]" header. Bracket content that
// parses as a chord is not a section, which is how [Verse] is told apart
// from [Am].
func parseSectionName(line string) (string, bool) {
	inner, ok := bracketInner(line)
	if !ok || inner == "" {
		return "", false
	}
	if chord.IsChord(inner) {
		return "", false
	}
	return inner, true
}

// barSegment is one parsed grid cell plus the byte range of its chord
// token within the row, so transposition can splice names in place.
type barSegment struct {
	bar        model.ChordBar
	chordStart int
	chordEnd   int
}

func parseSegment(part string, base int) (barSegment, bool) {
	labelStart, labelEnd := -1, -1
	label := ""
	if m := labelRe.FindStringSubmatchIndex(part); m != nil {
		label = part[m[2]:m[3]]
		labelStart, labelEnd = m[0], m[1]
	}

	type span struct{ start, end int }
	var tokens []span
	i := 0
	for i < len(part) {
		if i == labelStart {
			i = labelEnd
			continue
		}
		if part[i] == ' ' || part[i] == '\t' {
			i++
			continue
		}
		start := i
		for i < len(part) && part[i] != ' ' && part[i] != '\t' && i != labelStart {
			i++
		}
		tokens = append(tokens, span{start, i})
	}

	if len(tokens) == 0 || len(tokens) > 2 {
		return barSegment{}, false
	}
	sym, ok := chord.Parse(part[tokens[0].start:tokens[0].end])
	if !ok {
		return barSegment{}, false
	}
	beats := 0.0
	if len(tokens) == 2 {
		v, err := strconv.ParseFloat(part[tokens[1].start:tokens[1].end], 64)
		if err != nil || v <= 0 {
			return barSegment{}, false
		}
		beats = v
	}
	return barSegment{
		bar:        model.ChordBar{Chord: sym, Beats: beats, Label: label},
		chordStart: base + tokens[0].start,
		chordEnd:   base + tokens[0].end,
	}, true
}

// parseRow splits a row on bar separators. Every non-empty segment must be
// `chord [beats] [(label)]` or the whole row is rejected; there are no
// partial matches. A trailing xN marker is stripped first and returned as
// the repeat count, zero when absent.
func parseRow(line string) ([]barSegment, int, bool) {
	body := line
	repeat := 0
	if m := repeatRe.FindStringSubmatchIndex(body); m != nil {
		n, err := strconv.Atoi(body[m[2]:m[3]])
		if err == nil && n > 0 {
			repeat = n
			body = body[:m[0]]
		}
	}

	var segs []barSegment
	base := 0
	for _, part := range strings.Split(body, "|") {
		if strings.TrimSpace(part) != "" {
			seg, ok := parseSegment(part, base)
			if !ok {
				return nil, 0, false
			}
			segs = append(segs, seg)
		}
		base += len(part) + 1
	}
	if len(segs) == 0 {
		return nil, 0, false
	}
	return segs, repeat, true
}

// ParseChordBars parses a standalone chord-bar row like
// "F 3 (It's the) | C | x2". ok is false when the line is not a chord row.
func ParseChordBars(line string) ([]model.ChordBar, int, bool) {
	segs, repeat, ok := parseRow(line)
	if !ok {
		return nil, 0, false
	}
	bars := make([]model.ChordBar, 0, len(segs))
	for _, s := range segs {
		bars = append(bars, s.bar)
	}
	return bars, repeat, true
}

// ParseInstrumental assembles an instrumental section from a bar-count
// header and the lines after it, consuming lines while they are blank or
// chord rows. Repeat markers on consumed rows multiply their bars into the
// section. It reports how many following lines it consumed.
func ParseInstrumental(header string, following []string) (model.InstrumentalLine, int, bool) {
	name, declared, ok := ParseSectionHeader(header)
	if !ok {
		return model.InstrumentalLine{}, 0, false
	}
	inst := model.InstrumentalLine{
		Name:         name,
		Kind:         SectionKindOf(name),
		DeclaredBars: declared,
	}

	raws := []string{header}
	consumed := 0
	for _, raw := range following {
		body := strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(body) == "" {
			raws = append(raws, raw)
			consumed++
			continue
		}
		bars, repeat, ok := ParseChordBars(body)
		if !ok {
			break
		}
		times := repeat
		if times < 1 {
			times = 1
		}
		for i := 0; i < times; i++ {
			inst.Bars = append(inst.Bars, bars...)
		}
		raws = append(raws, raw)
		consumed++
	}

	inst.Raw = strings.Join(raws, "\n")
	return inst, consumed, true
}
