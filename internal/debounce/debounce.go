// Package debounce coalesces bursts of calls into a single delayed task.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs only the most recently scheduled task, once its delay
// has passed without another Schedule call.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	idle    *sync.Cond
	timer   *time.Timer
	gen     uint64
	pending func()
	running int
}

func New(delay time.Duration) *Debouncer {
	d := &Debouncer{delay: delay}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Schedule cancels any pending task and schedules fn.
func (d *Debouncer) Schedule(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = fn
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

// fire runs the pending task if no newer Schedule superseded generation gen.
// Stop cannot recall a timer that already fired, so the generation check
// keeps a stale timer from running a newer task early.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.running++
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running--
		if d.running == 0 {
			d.idle.Broadcast()
		}
		d.mu.Unlock()
	}()
	fn()
}

// Flush waits for a timer-fired task that is still running, then runs the
// pending task now on the caller's goroutine. It reports whether it ran or
// waited for anything.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.takeLocked()
	busy := d.running > 0
	for d.running > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()

	if fn != nil {
		fn()
	}
	return fn != nil || busy
}

// Cancel drops the pending task without running it. A task already
// running is not interrupted.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.takeLocked() != nil
}

// Pending reports whether a task is waiting to run or still running.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil || d.running > 0
}

func (d *Debouncer) takeLocked() func() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	fn := d.pending
	d.pending = nil
	return fn
}
