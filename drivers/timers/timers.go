// Package timers provides one-shot and continuous callback timers, together
// with conversion between durations and COP0 COUNT ticks.
package timers

import (
	"sync"
	"time"

	"github.com/nkraut/n64/rcp/cpu"
)

type Flags uint8

const (
	OneShot Flags = iota
	Continuous
)

// Ticks converts a duration to COP0 COUNT ticks.  COUNT increments at half
// the CPU clock.
func Ticks(d time.Duration) uint32 {
	return uint32(int64(d) * cpu.CountSpeed / int64(time.Second))
}

// Duration converts COP0 COUNT ticks to a duration.
func Duration(ticks uint32) time.Duration {
	return time.Duration(int64(ticks) * int64(time.Second) / cpu.CountSpeed)
}

// A Timer calls a function after or every d.  Callbacks run on their own
// goroutine, never in interrupt context.
type Timer struct {
	d     time.Duration
	flags Flags
	fn    func()

	mtx    sync.Mutex
	cancel chan struct{}
	closed bool
}

// New returns a stopped timer.  Call [Timer.Start] to arm it.
func New(d time.Duration, flags Flags, fn func()) *Timer {
	return &Timer{d: d, flags: flags, fn: fn}
}

// Start arms the timer.  An already running timer is restarted with its full
// duration.
func (t *Timer) Start() {
	t.mtx.Lock()
	defer t.mtx.Unlock()

	if t.closed {
		panic("start of closed timer")
	}

	t.stop()
	cancel := make(chan struct{})
	t.cancel = cancel
	go t.run(cancel)
}

// Stop disarms the timer.  It does not wait for a callback that is already
// running.
func (t *Timer) Stop() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.stop()
}

func (t *Timer) stop() {
	if t.cancel != nil {
		close(t.cancel)
		t.cancel = nil
	}
}

// Close stops the timer and makes it unusable.
func (t *Timer) Close() {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.stop()
	t.closed = true
}

func (t *Timer) run(cancel chan struct{}) {
	ticker := time.NewTicker(t.d)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			t.fn()
			if t.flags == OneShot {
				t.mtx.Lock()
				if t.cancel == cancel {
					t.cancel = nil
				}
				t.mtx.Unlock()
				return
			}
		}
	}
}
