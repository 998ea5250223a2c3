package autoscroll

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jsphweid/chordscroll/clock"
	"github.com/jsphweid/chordscroll/model"
	"github.com/jsphweid/chordscroll/util"
)

// Mode is the synchronizer's operating state. Smart follows the timeline
// beat by beat; Fallback is the degraded non-beat-accurate behavior used
// while no timeline is available.
type Mode int

const (
	ModeSmart Mode = iota
	ModeFallback
)

func (m Mode) String() string {
	if m == ModeFallback {
		return "fallback"
	}
	return "smart"
}

// ErrNoTimeline reports that the synchronizer was marked ready but has no
// timeline to scroll by.
var ErrNoTimeline = errors.New("autoscroll: no timeline")

// Viewport is the scrollable surface being driven. Offset is the scroll
// position in pixels from the top of the content.
type Viewport interface {
	Offset() float64
	SetOffset(offset float64)
	Height() float64
}

// Measurer resolves an element id to its rendered pixel offset. It is
// consulted one frame after a timeline change so layout has settled.
type Measurer interface {
	Measure(id string) (offset float64, ok bool)
}

// Config tunes scroll placement and animation.
type Config struct {
	// ContextRatio is the fraction of viewport height kept above the
	// active line, so upcoming lines stay readable. Zero means the
	// default of 0.33.
	ContextRatio float64
	// ScrollSeconds is the animation length. Zero scrolls instantly.
	ScrollSeconds float64
}

// Synchronizer maps the clock's beat to a scroll target and eases the
// viewport toward it. It owns the smart/fallback state machine.
type Synchronizer struct {
	clock  *clock.Clock
	view   Viewport
	frames Frames
	cfg    Config

	mu        sync.Mutex
	timeline  *model.SongTimeline
	positions model.PositionMap
	measurer  Measurer
	onRetry   func()
	enabled   bool
	ready     bool
	mode      Mode
	err       error

	activeID      string
	activeStart   float64
	activeChords  int
	beatsPerChord float64

	current *anim
}

func New(c *clock.Clock, view Viewport, frames Frames, cfg Config) *Synchronizer {
	if cfg.ContextRatio <= 0 {
		cfg.ContextRatio = 0.33
	}
	s := &Synchronizer{
		clock:     c,
		view:      view,
		frames:    frames,
		cfg:       cfg,
		positions: model.PositionMap{},
		enabled:   true,
	}
	c.OnBeat(s.onBeat)
	return s
}

// SetMeasurer installs the position source and, when a timeline is already
// loaded, measures it on the next frame.
func (s *Synchronizer) SetMeasurer(m Measurer) {
	s.mu.Lock()
	s.measurer = m
	t := s.timeline
	s.mu.Unlock()
	if m != nil && t != nil {
		deferFrame(s.frames, s.measureAll)
	}
}

// OnRetry registers the recomputation hook Retry forwards to.
func (s *Synchronizer) OnRetry(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRetry = fn
}

// SetReady marks that a timeline is expected from now on. Until ready, a
// missing timeline is not an error; after it, it drops the synchronizer
// into fallback until one arrives.
func (s *Synchronizer) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
	if ready && s.timeline == nil && s.err == nil {
		s.err = ErrNoTimeline
		s.mode = ModeFallback
	}
}

// SetTimeline installs the result of the latest timeline computation. An
// error, or a nil timeline while ready, switches to fallback; a valid
// timeline recovers to smart mode on its own. Positions are cleared and
// remeasured whenever the element count or total beats changed.
func (s *Synchronizer) SetTimeline(t *model.SongTimeline, err error) {
	s.mu.Lock()
	prev := s.timeline
	switch {
	case err != nil:
		s.timeline = nil
		s.err = err
		s.mode = ModeFallback
	case t == nil:
		s.timeline = nil
		if s.ready {
			s.err = ErrNoTimeline
			s.mode = ModeFallback
		}
	default:
		s.timeline = t
		s.err = nil
		s.mode = ModeSmart
	}
	remeasure := s.timeline != nil && structureChanged(prev, s.timeline)
	if remeasure {
		s.positions = model.PositionMap{}
		s.activeID = ""
		s.activeChords = 0
	}
	m := s.measurer
	s.mu.Unlock()

	if remeasure && m != nil {
		deferFrame(s.frames, s.measureAll)
	}
}

func structureChanged(prev, next *model.SongTimeline) bool {
	if prev == nil {
		return true
	}
	return len(prev.Elements) != len(next.Elements) || prev.TotalBeats != next.TotalBeats
}

// SetPositions replaces the whole position map, for hosts that measure in
// bulk themselves instead of going through a Measurer.
func (s *Synchronizer) SetPositions(p model.PositionMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions = model.PositionMap{}
	for id, off := range p {
		s.positions[id] = off
	}
}

// SetPosition records one element's measured offset. Writes for ids not in
// the current timeline are harmless; they can never be looked up.
func (s *Synchronizer) SetPosition(id string, offset float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[id] = offset
}

func (s *Synchronizer) measureAll() {
	s.mu.Lock()
	t := s.timeline
	m := s.measurer
	s.mu.Unlock()
	if t == nil || m == nil {
		return
	}
	pos := model.PositionMap{}
	for i := range t.Elements {
		if off, ok := m.Measure(t.Elements[i].ID); ok {
			pos[t.Elements[i].ID] = off
		}
	}
	s.mu.Lock()
	if s.timeline == t {
		s.positions = pos
	}
	s.mu.Unlock()
}

// SetEnabled turns autoscroll on or off. Disabling resets the clock,
// clears the active element, and cancels any scroll in flight.
func (s *Synchronizer) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	var cur *anim
	if !enabled {
		s.activeID = ""
		s.activeChords = 0
		s.beatsPerChord = 0
		cur = s.current
		s.current = nil
	}
	s.mu.Unlock()

	if !enabled {
		s.clock.Reset()
		if cur != nil {
			cur.cancel()
		}
	}
}

func (s *Synchronizer) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *Synchronizer) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// HasFallback reports whether the synchronizer is in the degraded mode.
func (s *Synchronizer) HasFallback() bool {
	return s.Mode() == ModeFallback
}

func (s *Synchronizer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Retry asks the owner to recompute the timeline. Recovery itself happens
// when the recomputation lands via SetTimeline.
func (s *Synchronizer) Retry() {
	s.mu.Lock()
	fn := s.onRetry
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ActiveElement is the id of the element the transport is inside, or ""
// when nothing is active.
func (s *Synchronizer) ActiveElement() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// BeatsPerActiveChord is the beat span of one chord cell in the active
// element. Elements with no discrete chords report the bar length.
func (s *Synchronizer) BeatsPerActiveChord() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beatsPerChord
}

// ActiveChordIndex is the chord cell the transport is currently inside,
// or -1 when no element with chords is active.
func (s *Synchronizer) ActiveChordIndex() int {
	s.mu.Lock()
	id := s.activeID
	start := s.activeStart
	per := s.beatsPerChord
	n := s.activeChords
	s.mu.Unlock()
	if id == "" || n == 0 || per <= 0 {
		return -1
	}
	beat := float64(s.clock.State().Beat)
	idx := int(math.Floor((beat - start) / per))
	return util.Clamp(idx, 0, n-1)
}

// SeekToElement repositions the transport at the start of the element, or
// at the chord cell chordIndex within it. Bar grids honor their per-bar
// beat counts, so partial bars land exactly; plain lyric chords split the
// element duration evenly. Unknown ids are a no-op.
func (s *Synchronizer) SeekToElement(id string, chordIndex int) bool {
	s.mu.Lock()
	t := s.timeline
	s.mu.Unlock()
	if t == nil {
		return false
	}
	el := t.ElementByID(id)
	if el == nil {
		return false
	}

	beat := el.StartBeat
	if chordIndex > 0 {
		if bars := el.GridBars(); len(bars) > 0 {
			bpb := float64(t.BeatsPerBar)
			for _, b := range bars[:util.Min(chordIndex, len(bars)-1)] {
				beat += b.BeatsOr(bpb)
			}
		} else if n := el.ChordCount(); n > 0 {
			per := el.DurationBeats / float64(n)
			beat += per * float64(util.Min(chordIndex, n-1))
		}
	}
	s.clock.SeekToBeat(beat)
	return true
}

// onBeat is the clock callback. It resolves the active element, records
// the chord timing a consumer needs for highlighting, and animates toward
// the element's measured position.
func (s *Synchronizer) onBeat(beat int) {
	s.mu.Lock()
	if !s.enabled || s.mode != ModeSmart || s.timeline == nil {
		s.mu.Unlock()
		return
	}
	el := s.timeline.ElementAt(float64(beat))
	if el == nil {
		s.mu.Unlock()
		return
	}
	s.activeID = el.ID
	s.activeStart = el.StartBeat
	s.activeChords = el.ChordCount()
	if s.activeChords > 0 {
		s.beatsPerChord = el.DurationBeats / float64(s.activeChords)
	} else {
		s.beatsPerChord = float64(s.timeline.BeatsPerBar)
	}
	off, ok := s.positions[el.ID]
	if !ok {
		// not measured yet, leave the viewport where it is this tick
		s.mu.Unlock()
		return
	}
	target := math.Max(0, off-s.view.Height()*s.cfg.ContextRatio)
	s.mu.Unlock()

	s.animateTo(target)
}

func (s *Synchronizer) animateTo(target float64) {
	s.mu.Lock()
	prev := s.current
	s.mu.Unlock()
	if prev != nil {
		prev.cancel()
	}

	dur := time.Duration(s.cfg.ScrollSeconds * float64(time.Second))
	a := newAnim(s.view, s.frames, target, dur)

	s.mu.Lock()
	s.current = a
	s.mu.Unlock()
}

// deferFrame runs fn once after the next rendering frame, so measurement
// reads settled layout.
func deferFrame(frames Frames, fn func()) {
	if frames == nil {
		fn()
		return
	}
	var once sync.Once
	var stop func()
	stop = frames.Schedule(func(time.Time) {
		once.Do(func() {
			fn()
			stop()
		})
	})
}

// OffsetViewport is an in-memory Viewport for hosts that track the scroll
// position themselves, like terminal and socket consumers.
type OffsetViewport struct {
	mu     sync.Mutex
	offset float64
	height float64
}

func NewOffsetViewport(height float64) *OffsetViewport {
	return &OffsetViewport{height: height}
}

func (v *OffsetViewport) Offset() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.offset
}

func (v *OffsetViewport) SetOffset(offset float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.offset = offset
}

func (v *OffsetViewport) Height() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.height
}

func (v *OffsetViewport) SetHeight(height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.height = height
}

func (v *OffsetViewport) SetHeight(height float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.height = height
}
