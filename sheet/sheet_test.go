package sheet

import (
	"fmt"
	"testing"

	"github.com/jsphweid/chordscroll/model"
	"github.com/stretchr/testify/assert"
)

const sampleSong = `{title: Fast Car}
{artist: Tracy Chapman}
{tempo: 104}

[Intro | 4 bars]
Am | G | C | F |

[Verse 1]
[Am]You got a fast [G]car
I want a ticket to anywhere`

func TestParseClassifiesLines(t *testing.T) {
	doc := Parse(sampleSong, 0)

	assert := assert.New(t)
	assert.Equal("Fast Car", doc.Title())
	assert.Equal("Tracy Chapman", doc.Directives["artist"])
	assert.Len(doc.Lines, 8)

	assert.IsType(model.DirectiveLine{}, doc.Lines[0])
	assert.IsType(model.DirectiveLine{}, doc.Lines[1])
	assert.IsType(model.DirectiveLine{}, doc.Lines[2])
	assert.IsType(model.EmptyLine{}, doc.Lines[3])
	assert.IsType(model.InstrumentalLine{}, doc.Lines[4])
	assert.IsType(model.SectionLine{}, doc.Lines[5])
	assert.IsType(model.LyricLine{}, doc.Lines[6])
	assert.IsType(model.LyricLine{}, doc.Lines[7])

	inst := doc.Lines[4].(model.InstrumentalLine)
	assert.Equal("Intro", inst.Name)
	assert.Equal(model.SectionIntro, inst.Kind)
	assert.Equal(4, inst.DeclaredBars)
	assert.Len(inst.Bars, 4)
	assert.Equal("Am", inst.Bars[0].Chord.String())
	assert.Equal("F", inst.Bars[3].Chord.String())

	section := doc.Lines[5].(model.SectionLine)
	assert.Equal("Verse 1", section.Name)
	assert.Equal(model.SectionVerse, section.Kind)
}

func TestParseDirectiveAliases(t *testing.T) {
	doc := Parse("{t: Song}\n{bpm: 120}\n{ts: 3/4}", 0)

	assert := assert.New(t)
	assert.Equal("Song", doc.Directives["title"])
	assert.Equal("120", doc.Directives["tempo"])
	assert.Equal("3/4", doc.Directives["time"])

	bpm, ok := doc.Tempo()
	assert.True(ok)
	assert.Equal(120.0, bpm)

	ts, ok := doc.Time()
	assert.True(ok)
	assert.Equal(3, ts.BeatsPerBar)
}

func TestLyricChordPositions(t *testing.T) {
	doc := Parse("[G]Hello [C]world", 0)

	assert := assert.New(t)
	assert.Len(doc.Lines, 1)
	lyric := doc.Lines[0].(model.LyricLine)
	assert.Equal("Hello world", lyric.Text)
	assert.Len(lyric.Chords, 2)
	assert.Equal("G", lyric.Chords[0].Chord.String())
	assert.Equal(0, lyric.Chords[0].Pos)
	assert.Equal("C", lyric.Chords[1].Chord.String())
	assert.Equal(6, lyric.Chords[1].Pos)
}

func TestBracketChordAloneIsLyricNotSection(t *testing.T) {
	doc := Parse("[Am]", 0)

	assert := assert.New(t)
	lyric, ok := doc.Lines[0].(model.LyricLine)
	assert.True(ok)
	assert.Equal("", lyric.Text)
	assert.Len(lyric.Chords, 1)
	assert.Equal("Am", lyric.Chords[0].Chord.String())
}

func TestInvalidBracketKeptAsRawChord(t *testing.T) {
	doc := Parse("Sing [??]along", 0)

	assert := assert.New(t)
	lyric := doc.Lines[0].(model.LyricLine)
	assert.Equal("Sing along", lyric.Text)
	assert.Len(lyric.Chords, 1)
	assert.Equal("??", lyric.Chords[0].Raw)
	assert.Nil(lyric.Chords[0].Chord)
}

func TestParseSectionHeader(t *testing.T) {
	cases := []struct {
		line string
		name string
		bars int
		ok   bool
	}{
		{"[Intro | 4 bars]", "Intro", 4, true},
		{"[Solo | 8]", "Solo", 8, true},
		{"[Outro | 1 bar]", "Outro", 1, true},
		{"[Verse]", "", 0, false},
		{"[Intro | no bars]", "", 0, false},
		{"[Intro | 0 bars]", "", 0, false},
		{"plain text", "", 0, false},
	}

	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			name, bars, ok := ParseSectionHeader(c.line)
			assert := assert.New(t)
			assert.Equal(c.ok, ok)
			if c.ok {
				assert.Equal(c.name, name)
				assert.Equal(c.bars, bars)
			}
		})
	}
}

func TestParseChordBars(t *testing.T) {
	assert := assert.New(t)

	bars, repeat, ok := ParseChordBars("Am | G | C | F |")
	assert.True(ok)
	assert.Equal(0, repeat)
	assert.Len(bars, 4)
	assert.Equal(0.0, bars[0].Beats)

	bars, _, ok = ParseChordBars("F 3 (It's the)")
	assert.True(ok)
	assert.Len(bars, 1)
	assert.Equal("F", bars[0].Chord.String())
	assert.Equal(3.0, bars[0].Beats)
	assert.Equal("It's the", bars[0].Label)

	bars, repeat, ok = ParseChordBars("Am | G | x2")
	assert.True(ok)
	assert.Equal(2, repeat)
	assert.Len(bars, 2)

	bars, _, ok = ParseChordBars("F 3.5 | C")
	assert.True(ok)
	assert.Equal(3.5, bars[0].Beats)
}

func TestParseChordBarsRejectsPartialRows(t *testing.T) {
	cases := []string{
		"Am | notachord",
		"hello world",
		"F 0 | C",
		"F -1 | C",
		"F 3 4 | C",
		"",
		"x2",
	}

	for _, line := range cases {
		t.Run(fmt.Sprintf("rejects %q", line), func(t *testing.T) {
			_, _, ok := ParseChordBars(line)
			assert.False(t, ok)
		})
	}
}

func TestInstrumentalAbsorbsFollowingRows(t *testing.T) {
	text := "[Intro | 8 bars]\nAm | G\n\nC | F | x2\nwords now"
	doc := Parse(text, 0)

	assert := assert.New(t)
	assert.Len(doc.Lines, 2)

	inst := doc.Lines[0].(model.InstrumentalLine)
	assert.Equal(8, inst.DeclaredBars)
	// Am G, then C F doubled by its repeat marker
	assert.Len(inst.Bars, 6)
	assert.Equal("C", inst.Bars[2].Chord.String())
	assert.Equal("C", inst.Bars[4].Chord.String())

	assert.IsType(model.LyricLine{}, doc.Lines[1])
}

func TestBareBarCountHeaderIsInstrumental(t *testing.T) {
	doc := Parse("[Intro | 4 bars]", 0)

	assert := assert.New(t)
	inst, ok := doc.Lines[0].(model.InstrumentalLine)
	assert.True(ok)
	assert.Equal(4, inst.DeclaredBars)
	assert.Empty(inst.Bars)
}

func TestPlainSectionDoesNotAbsorbRows(t *testing.T) {
	doc := Parse("[Verse]\nAm | G", 0)

	assert := assert.New(t)
	assert.Len(doc.Lines, 2)
	assert.IsType(model.SectionLine{}, doc.Lines[0])
	assert.IsType(model.ChordRowLine{}, doc.Lines[1])
}

func TestSectionKindOf(t *testing.T) {
	cases := map[string]model.SectionKind{
		"Verse 1":    model.SectionVerse,
		"CHORUS":     model.SectionChorus,
		"Pre-Chorus": model.SectionPreChorus,
		"Guitar Solo": model.SectionSolo,
		"Weird Bit":  model.SectionOther,
	}

	for name, expected := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, expected, SectionKindOf(name))
		})
	}
}

func TestSerializeRoundTrips(t *testing.T) {
	cases := []string{
		sampleSong,
		"",
		"just some words",
		"[Intro | 4 bars]\nAm | G | C | F |",
		"{title: X}\n\n[Verse]\nAm | G\n[G]Hi [C]there\n",
		"{title: X}\r\nAm | G\r\n",
	}

	for i, text := range cases {
		t.Run(fmt.Sprintf("case %v", i), func(t *testing.T) {
			assert.Equal(t, text, Serialize(Parse(text, 0)))
		})
	}
}

func TestParseWithTransposeRewritesRaws(t *testing.T) {
	doc := Parse("[G]Hello [C]world\nAm | G | x2", 2)

	assert := assert.New(t)
	lyric := doc.Lines[0].(model.LyricLine)
	assert.Equal("[A]Hello [D]world", lyric.Raw)
	assert.Equal("A", lyric.Chords[0].Chord.String())

	row := doc.Lines[1].(model.ChordRowLine)
	assert.Equal("Bm | A | x2", row.Raw)
	assert.Equal(2, row.Repeat)
}

func TestTransposeTextPreservesLayout(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("Bm  |  A x2", TransposeText("Am  |  G x2", 2))
	assert.Equal("F 3 (It's the) | C", TransposeText("E 3 (It's the) | B", 1))
	assert.Equal("{key: C}\n[Verse]\n[D]Go", TransposeText("{key: C}\n[Verse]\n[C]Go", 2))
}

func TestRenderCanonicalForms(t *testing.T) {
	assert := assert.New(t)

	doc := Parse("F 3 (It's the) | C | x2", 0)
	row := doc.Lines[0].(model.ChordRowLine)
	row.Raw = ""
	assert.Equal("F 3 (It's the) | C | x2", Render(row))

	lyric := Parse("[G]Hello [C]world", 0).Lines[0].(model.LyricLine)
	lyric.Raw = ""
	assert.Equal("[G]Hello [C]world", Render(lyric))

	assert.Equal("{title: X}", Render(model.DirectiveLine{Key: "title", Value: "X"}))
	assert.Equal("[Bridge]", Render(model.SectionLine{Name: "Bridge"}))
}
