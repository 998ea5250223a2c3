package timeline

import (
	"testing"

	"github.com/jsphweid/chordscroll/model"
	"github.com/stretchr/testify/assert"
)

var fourFour = model.TimeSignature{BeatsPerBar: 4, BeatUnit: 4}

func assertContiguous(t *testing.T, tl *model.SongTimeline) {
	t.Helper()
	assert := assert.New(t)
	sum := 0.0
	for i, e := range tl.Elements {
		assert.Equal(e.StartBeat+e.DurationBeats, e.EndBeat)
		assert.GreaterOrEqual(e.DurationBeats, 0.0)
		if i == 0 {
			assert.Equal(0.0, e.StartBeat)
		} else {
			assert.Equal(tl.Elements[i-1].EndBeat, e.StartBeat)
		}
		sum += e.DurationBeats
	}
	assert.Equal(sum, tl.TotalBeats)
	assert.Equal(tl.TotalBeats*60/tl.BPM, tl.TotalSeconds)
}

func TestBareBarCountHeader(t *testing.T) {
	tl, err := Build("[Intro | 4 bars]", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 1)
	assert.Equal(model.KindInstrumental, tl.Elements[0].Kind)
	assert.Equal(16.0, tl.Elements[0].DurationBeats)
	assert.Equal(16.0, tl.TotalBeats)
	assert.Equal(4.0, tl.TotalBars)
	assert.Equal(8.0, tl.TotalSeconds)
}

func TestStandaloneChordRow(t *testing.T) {
	tl, err := Build("Am | G | C | F |", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 1)
	assert.Equal(model.KindChords, tl.Elements[0].Kind)
	assert.Equal(16.0, tl.Elements[0].DurationBeats)
	assert.Equal(4.0, tl.Elements[0].Bars)
}

func TestPartialBars(t *testing.T) {
	tl, err := Build("F 3 | C", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(7.0, tl.TotalBeats)
}

func TestRepeatMultipliesRowDuration(t *testing.T) {
	tl, err := Build("Am | G | x2", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(16.0, tl.TotalBeats)
	assert.Equal(4, tl.Elements[0].ChordCount())
}

func TestChordRowMergesWithFollowingLyric(t *testing.T) {
	tl, err := Build("Am | G | C | F |\n[Am]You got a fast [G]car", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 1)

	el := tl.Elements[0]
	assert.Equal(model.KindChordLyric, el.Kind)
	// chord row wins: 16 beats vs the lyric default of 8
	assert.Equal(16.0, el.DurationBeats)
	assert.NotNil(el.Lyric)
	assert.Equal("You got a fast car", el.Lyric.Text)
	assert.Equal(4, el.ChordCount())
}

func TestMergeTakesLyricDurationWhenLarger(t *testing.T) {
	tl, err := Build("F 3\nwords to sing", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 1)
	assert.Equal(8.0, tl.Elements[0].DurationBeats)
}

func TestBlankLineBreaksMerge(t *testing.T) {
	tl, err := Build("Am | G\n\nwords to sing", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 3)
	assert.Equal(model.KindChords, tl.Elements[0].Kind)
	assert.Equal(model.KindEmpty, tl.Elements[1].Kind)
	assert.Equal(model.KindLyric, tl.Elements[2].Kind)
}

func TestDirectivesNeverReachTimeline(t *testing.T) {
	tl, err := Build("{title: X}\n{tempo: 104}\nhello", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 1)
	assert.Equal(model.KindLyric, tl.Elements[0].Kind)
	assertContiguous(t, tl)
}

func TestSectionsAndEmptiesAreZeroBeats(t *testing.T) {
	tl, err := Build("[Verse]\n\nhello", 120, fourFour, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 3)
	assert.Equal(0.0, tl.Elements[0].DurationBeats)
	assert.Equal(0.0, tl.Elements[1].DurationBeats)
	assert.Equal(8.0, tl.Elements[2].DurationBeats)
	assertContiguous(t, tl)
}

func TestThreeFourTime(t *testing.T) {
	tl, err := Build("Am | G", 120, model.TimeSignature{BeatsPerBar: 3, BeatUnit: 4}, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(6.0, tl.TotalBeats)
	assert.Equal(2.0, tl.Elements[0].Bars)
	assert.Equal(3.0, tl.TotalSeconds)
}

func TestIntelligentEstimation(t *testing.T) {
	opts := model.CalcOptions{IntelligentEstimation: true}

	cases := []struct {
		name  string
		text  string
		beats float64
	}{
		{"no chords", "hello there", 8},
		{"five chords", "[C]a [G]b [Am]c [F]d [C]e", 16},
		{"two chords long line", "[C]This line has quite a lot of words in it, yes [G]indeed", 8},
		{"three chords short line", "[C]a [G]b [Am]c", 12},
		{"one chord short line", "[C]hey", 8},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tl, err := Build(c.text, 120, fourFour, opts)
			assert := assert.New(t)
			assert.NoError(err)
			assert.Equal(c.beats, tl.TotalBeats)
		})
	}
}

func TestSimpleModeUsesDefaultBars(t *testing.T) {
	opts := model.CalcOptions{DefaultBarsPerLine: 3}
	tl, err := Build("[C]a [G]b [Am]c [F]d [C]e", 120, fourFour, opts)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(12.0, tl.TotalBeats)
}

func TestBuildErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := Build("hello", 0, fourFour, model.CalcOptions{})
	assert.Error(err)
	var be *BuildError
	assert.ErrorAs(err, &be)

	_, err = Build("hello", -10, fourFour, model.CalcOptions{})
	assert.Error(err)

	_, err = Build("hello", 120, model.TimeSignature{BeatsPerBar: -1, BeatUnit: 4}, model.CalcOptions{})
	assert.Error(err)
}

func TestZeroTimeSignatureDefaultsToFourFour(t *testing.T) {
	tl, err := Build("Am | G | C | F |", 120, model.TimeSignature{}, model.CalcOptions{})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(4, tl.BeatsPerBar)
	assert.Equal(16.0, tl.TotalBeats)
}

func TestApplyOverrides(t *testing.T) {
	tl, err := Build("Am | G | C | F |\n\nwords to sing", 120, fourFour, model.CalcOptions{})
	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(tl.Elements, 3)
	assert.Equal(24.0, tl.TotalBeats)

	overrides := model.DurationOverrides{
		tl.Elements[0].ID: 4,
		"stale-id":        99,
	}
	out := ApplyOverrides(tl, overrides)

	assert.Equal(4.0, out.Elements[0].DurationBeats)
	assert.Equal(4.0, out.Elements[1].StartBeat)
	assert.Equal(8.0, out.Elements[2].DurationBeats)
	assert.Equal(12.0, out.TotalBeats)
	assert.Equal(6.0, out.TotalSeconds)
	assertContiguous(t, out)

	// ids survive the override pass
	for i := range tl.Elements {
		assert.Equal(tl.Elements[i].ID, out.Elements[i].ID)
	}

	// the input timeline is untouched
	assert.Equal(16.0, tl.Elements[0].DurationBeats)
	assert.Equal(24.0, tl.TotalBeats)
}

func TestApplyOverridesIgnoresNonPositive(t *testing.T) {
	tl, _ := Build("Am | G", 120, fourFour, model.CalcOptions{})
	out := ApplyOverrides(tl, model.DurationOverrides{tl.Elements[0].ID: 0})

	assert.Equal(t, 8.0, out.Elements[0].DurationBeats)
}

func TestElementAt(t *testing.T) {
	tl, err := Build("[Verse]\nAm | G\n\nwords to sing", 120, fourFour, model.CalcOptions{})
	assert := assert.New(t)
	assert.NoError(err)

	// section at zero beats is skipped in favor of the chord row
	el := tl.ElementAt(0)
	assert.NotNil(el)
	assert.Equal(model.KindChords, el.Kind)

	el = tl.ElementAt(7.5)
	assert.NotNil(el)
	assert.Equal(model.KindChords, el.Kind)

	el = tl.ElementAt(8)
	assert.NotNil(el)
	assert.Equal(model.KindLyric, el.Kind)

	assert.Nil(tl.ElementAt(16))
	assert.Nil(tl.ElementAt(-1))
}
