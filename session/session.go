package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/chordscroll/autoscroll"
	"github.com/jsphweid/chordscroll/clock"
	"github.com/jsphweid/chordscroll/constants"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/sheet"
	"github.com/jsphweid/chordscroll/timeline"
)

// Config wires a Session to its host. Zero values fall back to sensible
// defaults; BPM and Time left at zero mean "use the song's directives".
type Config struct {
	BPM           float64
	Time          model.TimeSignature
	Options       model.CalcOptions
	Viewport      autoscroll.Viewport
	Frames        autoscroll.Frames
	Measurer      autoscroll.Measurer
	Unlock        clock.UnlockFunc
	ContextRatio  float64
	ScrollSeconds float64
	Debounce      time.Duration
}

// State is the composite snapshot consumers render from.
type State struct {
	Beat          int
	Bar           int
	BeatInBar     int
	Running       bool
	Seconds       float64
	ActiveElement string
	ActiveChord   int
	Fallback      bool
	Err           error
	TotalBeats    float64
	TotalSeconds  float64
}

// Session owns one song's playback pipeline: text in, document and
// timeline out, transport and autoscroll driven in between. Text, tempo,
// signature, and option edits are debounced into a single recompute;
// duration overrides reapply immediately.
type Session struct {
	clock  *clock.Clock
	runner *clock.Runner
	sync   *autoscroll.Synchronizer
	view   autoscroll.Viewport

	mu        sync.Mutex
	text      string
	bpm       float64
	ts        model.TimeSignature
	opts      model.CalcOptions
	overrides model.DurationOverrides
	doc       *model.Document
	base      *model.SongTimeline
	derived   *model.SongTimeline
	buildErr  error
	listeners []func(State)

	debounce func(func())
}

func New(cfg Config) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = constants.DefaultDebounce
	}
	if cfg.ScrollSeconds == 0 {
		cfg.ScrollSeconds = constants.DefaultScrollSeconds
	}
	view := cfg.Viewport
	if view == nil {
		view = autoscroll.NewOffsetViewport(0)
	}

	c := clock.New(cfg.BPM, cfg.Time)
	s := &Session{
		clock:  c,
		runner: clock.NewRunner(c, cfg.Unlock),
		view:   view,
		bpm:    cfg.BPM,
		ts:     cfg.Time,
		opts:   cfg.Options,
	}
	s.sync = autoscroll.New(c, view, cfg.Frames, autoscroll.Config{
		ContextRatio:  cfg.ContextRatio,
		ScrollSeconds: cfg.ScrollSeconds,
	})
	if cfg.Measurer != nil {
		s.sync.SetMeasurer(cfg.Measurer)
	}
	s.sync.OnRetry(s.Recompute)
	c.OnBeat(func(int) { s.notify() })
	s.debounce = debounce.New(cfg.Debounce)
	return s
}

// SetText replaces the song text. Recomputation is debounced so rapid
// keystrokes collapse into one rebuild.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.text = text
	s.mu.Unlock()
	s.debounce(s.Recompute)
}

// SetBPM changes the tempo. The clock follows immediately; the timeline
// catches up on the debounced recompute. Zero restores the song's own
// tempo directive.
func (s *Session) SetBPM(bpm float64) {
	s.mu.Lock()
	s.bpm = bpm
	s.mu.Unlock()
	s.clock.SetBPM(bpm)
	s.debounce(s.Recompute)
}

// SetTimeSignature changes the bar mapping. Zero restores the song's own
// time directive.
func (s *Session) SetTimeSignature(ts model.TimeSignature) {
	s.mu.Lock()
	s.ts = ts
	s.mu.Unlock()
	s.clock.SetTimeSignature(ts)
	s.debounce(s.Recompute)
}

func (s *Session) SetOptions(opts model.CalcOptions) {
	s.mu.Lock()
	s.opts = opts
	s.mu.Unlock()
	s.debounce(s.Recompute)
}

// Recompute parses the text and rebuilds the timeline right away, skipping
// any debounce still pending.
func (s *Session) Recompute() {
	s.mu.Lock()
	text := s.text
	bpm := s.bpm
	ts := s.ts
	opts := s.opts
	s.mu.Unlock()

	doc := sheet.Parse(text, 0)
	if ts.BeatsPerBar == 0 && ts.BeatUnit == 0 {
		if v, ok := doc.Time(); ok {
			ts = v
		} else {
			ts = model.ParseTimeSignature(constants.DefaultTime)
		}
	}
	if bpm == 0 {
		if v, ok := doc.Tempo(); ok {
			bpm = v
		} else {
			bpm = constants.DefaultBPM
		}
	}

	base, err := timeline.BuildFromDocument(doc, bpm, ts, opts)
	if err != nil {
		slog.Warn("timeline rebuild failed", "err", err)
	} else {
		slog.Debug("timeline rebuilt", "elements", len(base.Elements), "beats", base.TotalBeats, "bpm", bpm)
	}

	s.mu.Lock()
	s.doc = doc
	s.base = base
	s.buildErr = err
	derived := s.reapplyLocked()
	s.mu.Unlock()

	s.clock.SetBPM(bpm)
	s.clock.SetTimeSignature(ts)
	s.sync.SetReady(true)
	s.sync.SetTimeline(derived, err)
	s.notify()
}

// reapplyLocked derives the served timeline from the base plus any
// overrides. Caller holds s.mu.
func (s *Session) reapplyLocked() *model.SongTimeline {
	derived := s.base
	if derived != nil && len(s.overrides) > 0 {
		derived = timeline.ApplyOverrides(derived, s.overrides)
	}
	s.derived = derived
	return derived
}

// SetOverride pins an element's duration. It reapplies immediately, no
// debounce, since overrides come from deliberate edits, not typing.
func (s *Session) SetOverride(id string, beats float64) {
	if beats <= 0 {
		return
	}
	s.mu.Lock()
	if s.overrides == nil {
		s.overrides = model.DurationOverrides{}
	}
	s.overrides[id] = beats
	derived := s.reapplyLocked()
	s.mu.Unlock()

	if derived != nil {
		s.sync.SetTimeline(derived, nil)
	}
	s.notify()
}

func (s *Session) ClearOverride(id string) {
	s.mu.Lock()
	delete(s.overrides, id)
	derived := s.reapplyLocked()
	s.mu.Unlock()

	if derived != nil {
		s.sync.SetTimeline(derived, nil)
	}
	s.notify()
}

// Play starts the transport once the audio host is unlocked.
func (s *Session) Play(ctx context.Context) error {
	err := s.runner.Play(ctx)
	s.notify()
	return err
}

func (s *Session) Pause() {
	s.runner.Pause()
	s.notify()
}

func (s *Session) Reset() {
	s.runner.Reset()
	s.notify()
}

func (s *Session) SeekToBeat(beat float64) {
	s.clock.SeekToBeat(beat)
	s.notify()
}

func (s *Session) SeekToBar(bar int) {
	s.clock.SeekToBar(bar)
	s.notify()
}

// SeekToElement jumps to a chord cell within an element, honoring partial
// bars on grid elements.
func (s *Session) SeekToElement(id string, chordIndex int) bool {
	ok := s.sync.SeekToElement(id, chordIndex)
	if ok {
		s.notify()
	}
	return ok
}

// Retry forces a recomputation after a fallback.
func (s *Session) Retry() {
	s.sync.Retry()
}

func (s *Session) SetAutoscroll(enabled bool) {
	s.sync.SetEnabled(enabled)
	s.notify()
}

func (s *Session) SetPositions(p model.PositionMap) {
	s.sync.SetPositions(p)
}

func (s *Session) SetPosition(id string, offset float64) {
	s.sync.SetPosition(id, offset)
}

// Document returns the parse of the current text, nil before the first
// recompute.
func (s *Session) Document() *model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Timeline returns the served timeline, with overrides applied, and the
// build error when the last computation failed.
func (s *Session) Timeline() (*model.SongTimeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.derived, s.buildErr
}

// Offset is the viewport scroll position autoscroll has driven to.
func (s *Session) Offset() float64 {
	return s.view.Offset()
}

// OnState subscribes to snapshots. Listeners fire on every beat change,
// transport operation, and recompute, on the goroutine that caused it.
func (s *Session) OnState(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) Snapshot() State {
	cs := s.clock.State()
	s.mu.Lock()
	derived := s.derived
	err := s.buildErr
	s.mu.Unlock()

	st := State{
		Beat:          cs.Beat,
		Bar:           cs.Bar,
		BeatInBar:     cs.BeatInBar,
		Running:       cs.Running,
		Seconds:       cs.Seconds,
		ActiveElement: s.sync.ActiveElement(),
		ActiveChord:   s.sync.ActiveChordIndex(),
		Fallback:      s.sync.HasFallback(),
		Err:           err,
	}
	if st.Err == nil {
		st.Err = s.sync.Err()
	}
	if derived != nil {
		st.TotalBeats = derived.TotalBeats
		st.TotalSeconds = derived.TotalSeconds
	}
	return st
}

func (s *Session) notify() {
	st := s.Snapshot()
	s.mu.Lock()
	ls := make([]func(State), len(s.listeners))
	copy(ls, s.listeners)
	s.mu.Unlock()
	for _, fn := range ls {
		fn(st)
	}
}

// Close stops the transport. The session holds no other resources.
func (s *Session) Close() {
	s.runner.Reset()
}
