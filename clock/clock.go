package clock

import (
	"math"
	"sync"
	"time"

	"github.com/jsphweid/chordscroll/model"
)

// TicksPerBeat is the subdivision resolution of the transport. Beat and bar
// callbacks are evaluated on every tick and fire only when the derived
// value changes.
const TicksPerBeat = 4

// State is a snapshot of the transport position.
type State struct {
	Beat      int
	Bar       int
	BeatInBar int
	Running   bool
	Seconds   float64
}

// Clock advances musical time in 16th-note ticks. It does no scheduling of
// its own: a Runner, or a test, calls Tick at the right moments, so tests
// can step it deterministically.
type Clock struct {
	mu          sync.Mutex
	bpm         float64
	beatsPerBar int
	ticks       int
	seconds     float64
	running     bool
	lastBeat    int
	lastBar     int
	onBeat      []func(beat int)
	onBar       []func(bar int)
}

func New(bpm float64, ts model.TimeSignature) *Clock {
	if bpm <= 0 {
		bpm = 120
	}
	bpb := ts.BeatsPerBar
	if bpb <= 0 {
		bpb = 4
	}
	return &Clock{bpm: bpm, beatsPerBar: bpb, lastBeat: -1, lastBar: -1}
}

// OnBeat registers fn to run whenever the absolute beat changes. Callbacks
// are invoked outside the clock's lock, on the goroutine that ticked.
func (c *Clock) OnBeat(fn func(beat int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBeat = append(c.onBeat, fn)
}

// OnBar registers fn to run whenever the bar number changes.
func (c *Clock) OnBar(fn func(bar int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onBar = append(c.onBar, fn)
}

// SetBPM changes the tempo. Seconds already accumulated are kept; only the
// pace of future ticks changes. Non-positive values are ignored.
func (c *Clock) SetBPM(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bpm <= 0 {
		return
	}
	c.bpm = bpm
}

func (c *Clock) BPM() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

// SetTimeSignature re-derives the bar mapping from the same tick position.
// The transport does not move.
func (c *Clock) SetTimeSignature(ts model.TimeSignature) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ts.BeatsPerBar <= 0 {
		return
	}
	c.beatsPerBar = ts.BeatsPerBar
	c.lastBar = -1
}

func (c *Clock) BeatsPerBar() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beatsPerBar
}

// Start marks the clock running. Ticks while stopped are ignored.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
}

// Pause stops the transport in place.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Reset stops the transport and rewinds everything to zero. The next beat
// announced after a restart is beat 0.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.ticks = 0
	c.seconds = 0
	c.lastBeat = -1
	c.lastBar = -1
}

// SeekToBeat repositions the transport, running or not. Beat and bar
// callbacks fire immediately with the new position; negative targets clamp
// to zero.
func (c *Clock) SeekToBeat(beat float64) {
	c.mu.Lock()
	if beat < 0 {
		beat = 0
	}
	c.ticks = int(math.Round(beat * TicksPerBeat))
	c.seconds = float64(c.ticks) / TicksPerBeat * 60 / c.bpm
	c.lastBeat = -1
	c.lastBar = -1
	fire := c.collectLocked()
	c.mu.Unlock()
	fire()
}

// SeekToBar jumps to the downbeat of bar.
func (c *Clock) SeekToBar(bar int) {
	c.mu.Lock()
	bpb := c.beatsPerBar
	c.mu.Unlock()
	if bar < 0 {
		bar = 0
	}
	c.SeekToBeat(float64(bar * bpb))
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	beat := c.ticks / TicksPerBeat
	return State{
		Beat:      beat,
		Bar:       beat / c.beatsPerBar,
		BeatInBar: beat % c.beatsPerBar,
		Running:   c.running,
		Seconds:   c.seconds,
	}
}

// TickInterval is the wall-clock duration of one subdivision at the
// current tempo.
func (c *Clock) TickInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(float64(time.Minute) / (c.bpm * TicksPerBeat))
}

// Tick advances the transport by one subdivision. It is a no-op while the
// clock is paused.
func (c *Clock) Tick() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.ticks++
	c.seconds += 60 / (c.bpm * TicksPerBeat)
	fire := c.collectLocked()
	c.mu.Unlock()
	fire()
}

// collectLocked compares the derived beat and bar against the last
// announced values and returns a closure that fires the matching
// callbacks. The caller must hold c.mu and invoke the closure after
// releasing it.
func (c *Clock) collectLocked() func() {
	beat := c.ticks / TicksPerBeat
	bar := beat / c.beatsPerBar
	var calls []func()
	if beat != c.lastBeat {
		c.lastBeat = beat
		for _, fn := range c.onBeat {
			fn := fn
			calls = append(calls, func() { fn(beat) })
		}
	}
	if bar != c.lastBar {
		c.lastBar = bar
		for _, fn := range c.onBar {
			fn := fn
			calls = append(calls, func() { fn(bar) })
		}
	}
	return func() {
		for _, call := range calls {
			call()
		}
	}
}
