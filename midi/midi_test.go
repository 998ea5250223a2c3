package midi

import (
	"testing"

	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/timeline"
	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2/smf"
)

var fourFour = model.TimeSignature{BeatsPerBar: 4, BeatUnit: 4}

type noteOn struct {
	tick    uint32
	channel uint8
	key     uint8
}

func noteOns(track smf.Track) []noteOn {
	var ons []noteOn
	var tick uint32
	for _, ev := range track {
		tick += ev.Delta
		var ch, key, vel uint8
		if ev.Message.GetNoteOn(&ch, &key, &vel) && vel > 0 {
			ons = append(ons, noteOn{tick: tick, channel: ch, key: key})
		}
	}
	return ons
}

func export(t *testing.T, text string) *smf.SMF {
	t.Helper()
	assert := assert.New(t)

	doc := sheet.Parse(text, 0)
	tl, err := timeline.BuildFromDocument(doc, 120, fourFour, model.CalcOptions{})
	assert.NoError(err)

	data, err := Export(doc, tl)
	assert.NoError(err)
	assert.NotEmpty(data)

	s, err := Read(data)
	assert.NoError(err)
	return s
}

func TestExportLaysOutThreeTracks(t *testing.T) {
	s := export(t, "{title: Fast Car}\n[Intro | 2 bars]\nAm | G")

	assert := assert.New(t)
	assert.Len(s.Tracks, 3)

	var sawTempo, sawTimeSig bool
	for _, ev := range s.Tracks[0] {
		switch ev.Message.Type() {
		case smf.MetaTempoMsg:
			sawTempo = true
		case smf.MetaTimeSigMsg:
			sawTimeSig = true
		}
	}
	assert.True(sawTempo)
	assert.True(sawTimeSig)
}

func TestBeatTrackClicksEveryBeat(t *testing.T) {
	s := export(t, "[Intro | 2 bars]\nAm | G")

	ons := noteOns(s.Tracks[1])

	assert := assert.New(t)
	assert.Len(ons, 8)
	for i, on := range ons {
		assert.Equal(uint8(9), on.channel)
		assert.Equal(uint32(i)*960, on.tick)
	}

	// downbeats land on their own key
	assert.Equal(uint8(12), ons[0].key)
	assert.Equal(uint8(13), ons[1].key)
	assert.Equal(uint8(12), ons[4].key)
}

func TestChordTrackFollowsGridBars(t *testing.T) {
	s := export(t, "[Intro | 2 bars]\nAm | G")

	ons := noteOns(s.Tracks[2])

	assert := assert.New(t)
	// two triads, three notes each
	assert.Len(ons, 6)
	assert.Equal(uint32(0), ons[0].tick)
	assert.Equal(uint8(57), ons[0].key)

	assert.Equal(uint32(4*960), ons[3].tick)
	assert.Equal(uint8(55), ons[3].key)
}

func TestChordTrackSplitsLyricChordsEvenly(t *testing.T) {
	s := export(t, "[Am]Hello [G]world")

	ons := noteOns(s.Tracks[2])

	assert := assert.New(t)
	assert.Len(ons, 6)
	assert.Equal(uint32(0), ons[0].tick)
	assert.Equal(uint32(4*960), ons[3].tick)
}

func TestChordTrackSkipsUnparseableLyricChords(t *testing.T) {
	s := export(t, "[??]la [G]la")

	ons := noteOns(s.Tracks[2])

	assert := assert.New(t)
	assert.Len(ons, 3)
	// the broken first cell still owns its span, G starts at its own slot
	assert.Equal(uint32(4*960), ons[0].tick)
}

func TestPartialBarsKeepExactTicks(t *testing.T) {
	s := export(t, "F 3 | C")

	ons := noteOns(s.Tracks[2])

	assert := assert.New(t)
	assert.Len(ons, 6)
	assert.Equal(uint32(0), ons[0].tick)
	assert.Equal(uint32(3*960), ons[3].tick)
}

func TestExportRejectsNilTimeline(t *testing.T) {
	_, err := Export(nil, nil)

	assert.Error(t, err)
}
