package clock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrUnlock wraps a failed audio unlock so callers can tell it apart from
// other playback failures and offer a retry.
var ErrUnlock = errors.New("audio unlock failed")

// UnlockFunc readies the host audio output. Some audio stacks refuse to
// start a transport until a user gesture has unlocked output, so Play
// waits for it before the first tick.
type UnlockFunc func(ctx context.Context) error

// Runner drives a Clock in real time, one Tick per subdivision interval.
type Runner struct {
	clock *Clock

	mu       sync.Mutex
	cancel   context.CancelFunc
	gen      int
	unlock   UnlockFunc
	unlocked bool
}

func NewRunner(c *Clock, unlock UnlockFunc) *Runner {
	return &Runner{clock: c, unlock: unlock}
}

// Play unlocks the audio host on first use, then starts the clock and
// ticks it until the context is canceled or Pause/Reset is called. A
// failed unlock leaves the runner stopped; calling Play again retries.
func (r *Runner) Play(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return nil
	}
	unlock := r.unlock
	unlocked := r.unlocked
	r.mu.Unlock()

	if !unlocked && unlock != nil {
		if err := unlock(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrUnlock, err)
		}
	}

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return nil
	}
	r.unlocked = true
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	r.clock.Start()
	go r.loop(ctx, gen)
	return nil
}

// loop ticks until its context dies. The generation check keeps a loop
// whose context was canceled externally from pausing a newer Play.
func (r *Runner) loop(ctx context.Context, gen int) {
	timer := time.NewTimer(r.clock.TickInterval())
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			current := r.gen == gen
			if current {
				r.cancel = nil
			}
			r.mu.Unlock()
			if current {
				r.clock.Pause()
			}
			return
		case <-timer.C:
			r.clock.Tick()
			timer.Reset(r.clock.TickInterval())
		}
	}
}

// Pause stops ticking and pauses the clock in place. The clock is paused
// first so a tick racing the shutdown cannot advance it.
func (r *Runner) Pause() {
	r.clock.Pause()
	r.stop()
}

// Reset stops ticking and rewinds the clock to zero.
func (r *Runner) Reset() {
	r.clock.Reset()
	r.stop()
}

func (r *Runner) stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Playing reports whether the tick loop is live.
func (r *Runner) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}
