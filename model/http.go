package model

type ErrorResponse struct {
	Error string `json:"detail"`
}

type ParseRequest struct {
	Text      string `json:"text"`
	Transpose int    `json:"transpose"`
}

// TimelineRequest styles one stateless build. Duration overrides are not
// accepted here: element ids are minted per build, so only the session
// socket, which hands the client its ids, can target them.
type TimelineRequest struct {
	Text      string       `json:"text"`
	Transpose int          `json:"transpose"`
	BPM       float64      `json:"bpm"`
	Time      string       `json:"time"`
	Options   *CalcOptions `json:"options,omitempty"`
}

type TransposeRequest struct {
	Text      string `json:"text"`
	Semitones int    `json:"semitones"`
}

type TransposeResponse struct {
	Text string `json:"text"`
}

type BarPayload struct {
	Chord string  `json:"chord"`
	Beats float64 `json:"beats,omitempty"`
	Label string  `json:"label,omitempty"`
}

type LyricChordPayload struct {
	Raw  string `json:"raw"`
	Name string `json:"name,omitempty"`
	Pos  int    `json:"pos"`
}

// LinePayload is the wire form of a Line. Kind selects which of the other
// fields are meaningful.
type LinePayload struct {
	Kind         string              `json:"kind"`
	Raw          string              `json:"raw"`
	Key          string              `json:"key,omitempty"`
	Value        string              `json:"value,omitempty"`
	Name         string              `json:"name,omitempty"`
	Section      string              `json:"section,omitempty"`
	DeclaredBars int                 `json:"declared_bars,omitempty"`
	Bars         []BarPayload        `json:"bars,omitempty"`
	Repeat       int                 `json:"repeat,omitempty"`
	Text         string              `json:"text,omitempty"`
	Chords       []LyricChordPayload `json:"chords,omitempty"`
}

type DocumentPayload struct {
	Directives map[string]string `json:"directives"`
	Lines      []LinePayload     `json:"lines"`
}

type ElementPayload struct {
	ID            string       `json:"id"`
	Kind          string       `json:"kind"`
	StartBeat     float64      `json:"start_beat"`
	EndBeat       float64      `json:"end_beat"`
	DurationBeats float64      `json:"duration_beats"`
	Bars          float64      `json:"bars"`
	Line          LinePayload  `json:"line"`
	Lyric         *LinePayload `json:"lyric,omitempty"`
}

type TimelinePayload struct {
	Elements     []ElementPayload `json:"elements"`
	TotalBeats   float64          `json:"total_beats"`
	TotalBars    float64          `json:"total_bars"`
	TotalSeconds float64          `json:"total_seconds"`
	BeatsPerBar  int              `json:"beats_per_bar"`
	BPM          float64          `json:"bpm"`
}

func barPayloads(bars []ChordBar) []BarPayload {
	if len(bars) == 0 {
		return nil
	}
	out := make([]BarPayload, 0, len(bars))
	for _, b := range bars {
		out = append(out, BarPayload{Chord: b.Chord.String(), Beats: b.Beats, Label: b.Label})
	}
	return out
}

func NewLinePayload(l Line) LinePayload {
	switch v := l.(type) {
	case EmptyLine:
		return LinePayload{Kind: "empty", Raw: v.Raw}
	case DirectiveLine:
		return LinePayload{Kind: "directive", Raw: v.Raw, Key: v.Key, Value: v.Value}
	case SectionLine:
		return LinePayload{Kind: "section", Raw: v.Raw, Name: v.Name, Section: string(v.Kind)}
	case InstrumentalLine:
		return LinePayload{
			Kind:         "instrumental",
			Raw:          v.Raw,
			Name:         v.Name,
			Section:      string(v.Kind),
			DeclaredBars: v.DeclaredBars,
			Bars:         barPayloads(v.Bars),
		}
	case ChordRowLine:
		return LinePayload{Kind: "chords", Raw: v.Raw, Bars: barPayloads(v.Bars), Repeat: v.Repeat}
	case LyricLine:
		chords := make([]LyricChordPayload, 0, len(v.Chords))
		for _, c := range v.Chords {
			p := LyricChordPayload{Raw: c.Raw, Pos: c.Pos}
			if c.Chord != nil {
				p.Name = c.Chord.String()
			}
			chords = append(chords, p)
		}
		return LinePayload{Kind: "lyric", Raw: v.Raw, Text: v.Text, Chords: chords}
	}
	return LinePayload{Kind: "empty"}
}

func NewDocumentPayload(doc *Document) DocumentPayload {
	lines := make([]LinePayload, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		lines = append(lines, NewLinePayload(l))
	}
	return DocumentPayload{Directives: doc.Directives, Lines: lines}
}

func NewTimelinePayload(t *SongTimeline) TimelinePayload {
	els := make([]ElementPayload, 0, len(t.Elements))
	for _, e := range t.Elements {
		p := ElementPayload{
			ID:            e.ID,
			Kind:          string(e.Kind),
			StartBeat:     e.StartBeat,
			EndBeat:       e.EndBeat,
			DurationBeats: e.DurationBeats,
			Bars:          e.Bars,
			Line:          NewLinePayload(e.Line),
		}
		if e.Lyric != nil {
			lp := NewLinePayload(*e.Lyric)
			p.Lyric = &lp
		}
		els = append(els, p)
	}
	return TimelinePayload{
		Elements:     els,
		TotalBeats:   t.TotalBeats,
		TotalBars:    t.TotalBars,
		TotalSeconds: t.TotalSeconds,
		BeatsPerBar:  t.BeatsPerBar,
		BPM:          t.BPM,
	}
}

// SessionCommand is one client message on the practice-session socket.
type SessionCommand struct {
	Op string `json:"op"`

	Text       string       `json:"text,omitempty"`
	BPM        float64      `json:"bpm,omitempty"`
	Time       string       `json:"time,omitempty"`
	Options    *CalcOptions `json:"options,omitempty"`
	Beat       float64      `json:"beat,omitempty"`
	ElementID  string       `json:"element_id,omitempty"`
	ChordIndex int          `json:"chord_index,omitempty"`
	Beats      float64      `json:"beats,omitempty"`
	Positions  PositionMap  `json:"positions,omitempty"`
	Offset     float64      `json:"offset,omitempty"`
	Height     float64      `json:"height,omitempty"`
	Enabled    bool         `json:"enabled,omitempty"`
}

// SessionStatePayload is the per-beat state push on the session socket.
type SessionStatePayload struct {
	Beat             int     `json:"beat"`
	Bar              int     `json:"bar"`
	BeatInBar        int     `json:"beat_in_bar"`
	Running          bool    `json:"running"`
	Seconds          float64 `json:"seconds"`
	ActiveElement    string  `json:"active_element,omitempty"`
	ActiveChordIndex int     `json:"active_chord_index"`
	Fallback         bool    `json:"fallback"`
	Error            string  `json:"error,omitempty"`
	TotalBeats       float64 `json:"total_beats"`
	TotalSeconds     float64 `json:"total_seconds"`
}

// SessionEvent is one server message on the practice-session socket.
type SessionEvent struct {
	Type     string               `json:"type"`
	State    *SessionStatePayload `json:"state,omitempty"`
	Timeline *TimelinePayload     `json:"timeline,omitempty"`
	Document *DocumentPayload     `json:"document,omitempty"`
	Offset   float64              `json:"offset,omitempty"`
	Error    string               `json:"error,omitempty"`
}
