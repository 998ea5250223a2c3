package autoscroll

import (
	"sync"
	"time"
)

// Frames schedules fn once per rendering frame until the returned stop
// function is called. Schedule must not invoke fn before it returns.
type Frames interface {
	Schedule(fn func(now time.Time)) (stop func())
}

// NewTickerFrames is a real-time Frames backed by a time.Ticker. Hosts
// with a display loop of their own supply their own implementation.
func NewTickerFrames(interval time.Duration) Frames {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return tickerFrames{interval: interval}
}

type tickerFrames struct {
	interval time.Duration
}

func (f tickerFrames) Schedule(fn func(time.Time)) func() {
	ticker := time.NewTicker(f.interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				fn(now)
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// easeOutCubic maps linear progress to an eased value that decelerates
// into the target.
func easeOutCubic(p float64) float64 {
	d := 1 - p
	return 1 - d*d*d
}

// anim is one in-flight scroll animation. The synchronizer owns at most
// one and always cancels it before starting the next.
type anim struct {
	mu   sync.Mutex
	stop func()
	done bool
}

// newAnim starts easing the viewport offset toward target. A nil frame
// source or non-positive duration jumps there immediately. The eased curve
// starts from the offset at the first frame, so a canceled predecessor
// hands over mid-flight without a visual jump.
func newAnim(view Viewport, frames Frames, target float64, dur time.Duration) *anim {
	a := &anim{}
	if frames == nil || dur <= 0 {
		a.done = true
		view.SetOffset(target)
		return a
	}
	from := view.Offset()
	var t0 time.Time
	a.stop = frames.Schedule(func(now time.Time) {
		a.mu.Lock()
		if a.done {
			a.mu.Unlock()
			return
		}
		if t0.IsZero() {
			t0 = now
		}
		p := now.Sub(t0).Seconds() / dur.Seconds()
		finished := p >= 1
		if finished {
			p = 1
			a.done = true
		}
		a.mu.Unlock()

		view.SetOffset(from + (target-from)*easeOutCubic(p))
		if finished {
			a.release()
		}
	})
	return a
}

// cancel stops the animation wherever it is. Safe to call repeatedly and
// after completion.
func (a *anim) cancel() {
	a.mu.Lock()
	a.done = true
	a.mu.Unlock()
	a.release()
}

func (a *anim) release() {
	a.mu.Lock()
	stop := a.stop
	a.stop = nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}
