package geocode

import (
	"sync"
	"time"
)

// Debouncer collapses a burst of calls into the most recent one, fired after
// a quiescence window. The callback runs outside the lock: a generation check
// keeps superseded timers from firing, and Cancel waits out any callback that
// already passed the check, so Cancel returning still guarantees no callback
// fires afterwards.
type Debouncer struct {
	delay time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	gen       uint64
	cancelled bool
	running   sync.WaitGroup
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call schedules fn to run after the quiescence window, replacing any
// earlier pending call without side effects. Call never blocks behind a
// running callback.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancelled {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.cancelled || gen != d.gen {
			d.mu.Unlock()
			return
		}
		d.running.Add(1)
		d.mu.Unlock()
		defer d.running.Done()
		fn()
	})
}

// Cancel stops any pending call and waits for a callback already underway.
// Once Cancel returns, no callback will fire.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.cancelled = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.running.Wait()
}
