package timers

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTickConversion(t *testing.T) {
	tests := map[string]struct {
		d     time.Duration
		ticks uint32
	}{
		"zero":        {0, 0},
		"microsecond": {time.Microsecond, 46875 / 1000},
		"millisecond": {time.Millisecond, 46875},
		"second":      {time.Second, 46_875_000},
		"frame":       {time.Second / 60, 781_250},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Ticks(tc.d); got != tc.ticks {
				t.Errorf("Ticks(%v): expected %d, got %d", tc.d, tc.ticks, got)
			}
		})
	}

	// roundtrip at tick granularity
	for _, ticks := range []uint32{46875, 46_875_000} {
		if got := Ticks(Duration(ticks)); got != ticks {
			t.Errorf("roundtrip %d ticks: got %d", ticks, got)
		}
	}
}

func TestOneShot(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})
	tm := New(time.Millisecond, OneShot, func() {
		if fired.Add(1) == 1 {
			close(done)
		}
	})
	defer tm.Close()

	tm.Start()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	time.Sleep(10 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Errorf("one-shot fired %d times", n)
	}
}

func TestContinuous(t *testing.T) {
	var fired atomic.Int32
	tm := New(time.Millisecond, Continuous, func() { fired.Add(1) })
	defer tm.Close()

	tm.Start()
	time.Sleep(50 * time.Millisecond)
	tm.Stop()

	if fired.Load() < 2 {
		t.Errorf("continuous timer fired only %d times", fired.Load())
	}

	// A tick may still be in flight right after Stop, let it drain.
	time.Sleep(10 * time.Millisecond)
	n := fired.Load()
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != n {
		t.Error("timer fired after stop")
	}
}
