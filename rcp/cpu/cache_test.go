package cpu_test

import (
	"sync"
	"testing"
	"unsafe"

	"github.com/nkraut/n64/rcp/cpu"
	n64testing "github.com/nkraut/n64/testing"
)

func TestMain(m *testing.M) { n64testing.TestMain(m) }

func assertPadded[T cpu.Paddable](t *testing.T, slice []T, length int, align uintptr) {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(slice)))
	if len(slice) != length {
		t.Fatalf("wrong length: expected %v, got %v", length, len(slice))
	}
	if !cpu.IsPadded(slice) {
		t.Fatalf("got unpadded slice for len=%v: addr=0x%x, cap=%v", length, addr, cap(slice))
	}
	if addr%align != 0 {
		t.Fatalf("got unaligned slice for len=%v, %v", length, cap(slice))
	}
}

func testMakePaddedSlice[T cpu.Paddable](t *testing.T) {
	for i := range 64 {
		slice := cpu.MakePaddedSlice[T](i)
		assertPadded(t, slice, i, 1)
	}
}

func TestMakePaddedSlice(t *testing.T) {
	t.Run("byte", testMakePaddedSlice[uint8])
	t.Run("uint16", testMakePaddedSlice[uint16])
	t.Run("uint32", testMakePaddedSlice[uint32])
	t.Run("uint64", testMakePaddedSlice[uint64])
}

func testMakePaddedSliceAligned[T cpu.Paddable](t *testing.T) {
	for i := range 64 {
		for _, align := range []uintptr{2, 4, 8, 16, 32, 64, 128, 256} {
			slice := cpu.MakePaddedSliceAligned[T](i, align)
			assertPadded(t, slice, i, 1)
		}
	}
}

func TestMakePaddedSliceAligned(t *testing.T) {
	t.Run("byte", testMakePaddedSliceAligned[uint8])
	t.Run("uint16", testMakePaddedSliceAligned[uint16])
	t.Run("uint32", testMakePaddedSliceAligned[uint32])
	t.Run("uint64", testMakePaddedSliceAligned[uint64])
}

// TestFPUPreemption checks that the FPU registers are saved and restored
// across goroutine preemption.  VBlank interrupts provide the preemption
// points, the video output was already set up by TestMain.
func TestFPUPreemption(t *testing.T) {
	const numGoroutines = 10
	results := [numGoroutines]float64{}
	wg := sync.WaitGroup{}

	wg.Add(numGoroutines)
	for i := range numGoroutines {
		go func(f float64) {
			for range 1000000 {
				f += 0.125
			}
			results[i] = f
			wg.Done()
		}(float64(i))
	}

	wg.Wait()

	for i, v := range results {
		expected := float64(i) + 125000.0
		if v != expected {
			t.Errorf("unexpected result: %v != %v", v, expected)
		}
	}
}

func BenchmarkSchedule(b *testing.B) {
	start := make(chan bool)
	stop := make(chan bool)

	go func() {
		for <-start {
			stop <- true
		}
		stop <- false
	}()

	for i := 0; i < b.N; i++ {
		start <- true
		<-stop
	}
	start <- false
	<-stop
}
