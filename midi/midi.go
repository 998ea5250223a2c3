package midi

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/jsphweid/chordscroll/chord"
	"github.com/jsphweid/chordscroll/model"
)

// ticksPerBeat is the SMF resolution; one beat is a quarter note.
const ticksPerBeat = 960

const (
	// C-1 marks downbeats and C#-1 the other beats, the common convention
	// for click tracks named BEAT.
	downbeatKey = 12
	otherKey    = 13

	beatChannel  = 9
	chordChannel = 0
	chordOctave  = 3
	velocity     = 100
)

// Export renders the timeline as a type 1 MIDI file: a meta track with
// title, tempo, and time signature, a BEAT click track, and a CHORDS track
// sounding each element's chords over their beat spans.
func Export(doc *model.Document, t *model.SongTimeline) (out []byte, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	if t == nil {
		return nil, errors.New("Error exporting midi... no timeline to export")
	}

	s := smf.NewSMF1()
	s.TimeFormat = smf.MetricTicks(ticksPerBeat)

	s.Add(metaTrack(doc, t))
	s.Add(beatTrack(t))
	s.Add(chordTrack(t))

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("Error writing midi file... %s", err.Error())
	}
	return buf.Bytes(), nil
}

// Read parses rendered MIDI bytes back into an smf document.
func Read(data []byte) (s *smf.SMF, e error) {
	defer func() {
		if r, ok := recover().(string); ok {
			e = errors.New(r)
		}
	}()

	res, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("Error parsing midi file... %s", err.Error())
	}
	return res, nil
}

func metaTrack(doc *model.Document, t *model.SongTimeline) smf.Track {
	title := ""
	denominator := uint8(4)
	if doc != nil {
		title = doc.Title()
		if ts, ok := doc.Time(); ok && ts.BeatUnit > 0 {
			denominator = uint8(ts.BeatUnit)
		}
	}
	if title == "" {
		title = "Untitled"
	}

	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName(title))})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTimeSig(uint8(t.BeatsPerBar), denominator, 24, 8))})
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTempo(t.BPM))})
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}

// beatTrack clicks once per beat for the whole song, downbeats on their
// own key so players can orient.
func beatTrack(t *model.SongTimeline) smf.Track {
	var events []absEvent
	total := int(math.Ceil(t.TotalBeats))
	for b := 0; b < total; b++ {
		key := uint8(otherKey)
		if t.BeatsPerBar > 0 && b%t.BeatsPerBar == 0 {
			key = downbeatKey
		}
		on := uint32(b) * ticksPerBeat
		events = append(events,
			absEvent{tick: on, msg: smf.Message(gomidi.NoteOn(beatChannel, key, velocity))},
			absEvent{tick: on + ticksPerBeat/2, off: true, msg: smf.Message(gomidi.NoteOff(beatChannel, key))},
		)
	}
	return toTrack("BEAT", events)
}

// chordTrack sounds each chord for its span. Grid elements use their
// per-bar beat counts; lyric chords split the element duration evenly, the
// same timing the autoscroll highlight uses.
func chordTrack(t *model.SongTimeline) smf.Track {
	var events []absEvent
	bpb := float64(t.BeatsPerBar)
	for i := range t.Elements {
		el := &t.Elements[i]
		if bars := el.GridBars(); len(bars) > 0 {
			cursor := el.StartBeat
			for _, b := range bars {
				events = appendChord(events, b.Chord, cursor, b.BeatsOr(bpb))
				cursor += b.BeatsOr(bpb)
			}
			continue
		}

		lyric := lyricOf(el)
		if lyric == nil || len(lyric.Chords) == 0 {
			continue
		}
		per := el.DurationBeats / float64(len(lyric.Chords))
		for j, lc := range lyric.Chords {
			if lc.Chord == nil {
				continue
			}
			events = appendChord(events, *lc.Chord, el.StartBeat+per*float64(j), per)
		}
	}
	return toTrack("CHORDS", events)
}

func lyricOf(el *model.TimelineElement) *model.LyricLine {
	if el.Lyric != nil {
		return el.Lyric
	}
	if l, ok := el.Line.(model.LyricLine); ok {
		return &l
	}
	return nil
}

func appendChord(events []absEvent, cs model.ChordSymbol, startBeat, beats float64) []absEvent {
	if beats <= 0 {
		return events
	}
	on := toTicks(startBeat)
	off := toTicks(startBeat + beats)
	if off <= on {
		return events
	}
	for _, key := range chord.MIDINotes(cs, chordOctave) {
		events = append(events,
			absEvent{tick: on, msg: smf.Message(gomidi.NoteOn(chordChannel, key, velocity))},
			absEvent{tick: off, off: true, msg: smf.Message(gomidi.NoteOff(chordChannel, key))},
		)
	}
	return events
}

func toTicks(beat float64) uint32 {
	return uint32(math.Round(beat * ticksPerBeat))
}

type absEvent struct {
	tick uint32
	off  bool
	msg  smf.Message
}

// toTrack sorts events by absolute tick, note-offs ahead of note-ons that
// share a tick so repeated notes re-trigger cleanly, then converts to the
// relative deltas smf expects.
func toTrack(name string, events []absEvent) smf.Track {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].tick != events[j].tick {
			return events[i].tick < events[j].tick
		}
		return events[i].off && !events[j].off
	})

	track := smf.Track{}
	track = append(track, smf.Event{Delta: 0, Message: smf.Message(smf.MetaTrackSequenceName(name))})
	var last uint32
	for _, ev := range events {
		track = append(track, smf.Event{Delta: ev.tick - last, Message: ev.msg})
		last = ev.tick
	}
	track = append(track, smf.Event{Delta: 0, Message: smf.EOT})
	return track
}
