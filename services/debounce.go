package services

import (
	"context"
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of scheduled tasks, once delay has
// passed without another Schedule. Scheduling also cancels the context of a
// task that already fired and is still running.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	cancel  context.CancelFunc
	gen     uint64
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending or running task with fn.
func (d *Debouncer) Schedule(fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.supersedeLocked()

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen && !d.stopped
		d.mu.Unlock()
		if !current {
			return
		}
		fn(ctx)
	})
}

// Cancel drops the pending task and cancels a running one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supersedeLocked()
}

// Stop cancels everything; later calls to Schedule are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.supersedeLocked()
	d.stopped = true
}

func (d *Debouncer) supersedeLocked() {
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
