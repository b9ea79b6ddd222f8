package rcp_test

import (
	"embedded/rtos"
	"sync/atomic"
	"testing"
	"time"

	_ "unsafe" // for linkname

	"github.com/nkraut/n64/drivers/carts/summercart64"
	"github.com/nkraut/n64/rcp"
)

var blocker atomic.Bool
var sc64 *summercart64.SummerCart64

//go:linkname cartHandler IRQ4_Handler
//go:interrupthandler
func cartHandler() {
	blocker.Store(false)
	sc64.ClearInterrupt()
}

var videoHandler func()

func blockingHandler() {
	videoHandler()
	rcp.DisableInterrupts(rcp.IntrVideo)
	start := time.Now()
	for time.Since(start) < 5*time.Second && blocker.Load() == true {
		// block
	}
}

// TestInterruptPrio verifies that a higher priority interrupt preempts a
// running handler, while one at the same priority has to wait for it.  The
// SummerCart64's button interrupt is used as the trigger since it's the only
// interrupt available that isn't routed through the RCP.
func TestInterruptPrio(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	sc64 = summercart64.Probe()
	if sc64 == nil {
		t.Skip("needs SummerCart64")
	}

	tests := map[string]struct {
		prio    int
		preempt bool
	}{
		"high":   {rtos.IntPrioHighest, true},
		"normal": {rtos.IntPrioMid, false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rcp.IrqCart.Enable(tc.prio, 0)
			t.Cleanup(func() { rcp.IrqCart.Disable(0) })

			_, prio, err := rcp.IrqCart.Status(0)
			if err != nil {
				t.Error(err)
			}
			if prio != tc.prio {
				t.Fatal("prio not set")
			}

			_, err = sc64.SetConfig(summercart64.CfgButtonMode, summercart64.ButtonModeInterrupt)
			if err != nil {
				t.Fatal(err)
			}
			blocker.Store(true)

			t.Log("Press SummerCart64 button in the next 5 seconds")

			// generate a single 5 second blocking low prio interrupt
			start := time.Now()
			videoHandler = rcp.Handler(rcp.IntrVideo)
			rcp.SetHandler(rcp.IntrVideo, blockingHandler)
			t.Cleanup(func() {
				rcp.SetHandler(rcp.IntrVideo, videoHandler)
				rcp.EnableInterrupts(rcp.IntrVideo)
			})

			if blocker.Load() == true {
				t.Fatal("no button press detected")
			}
			if time.Since(start) > 5*time.Second == tc.preempt {
				t.Fatal("priorities not applied")
			}
		})
	}
}
