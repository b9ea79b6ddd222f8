package rcp

import (
	"embedded/rtos"
	"sync/atomic"
)

// IntrInput passes a value of any type safely into an interrupt context.
// There must be at most one writer goroutine and one reader, and the reader
// must not be preemptible by the writer, i.e. an interrupt.
type IntrInput[T any] struct {
	next    int32 // owned by writer
	current int32 // owned by reader

	bufs [2]T
	ptr  atomic.Int32
}

// Get can be used by the writer goroutine to read back the currently stored
// value.
func (p *IntrInput[T]) Get() (v T) {
	return p.bufs[(p.next+1)&0x1]
}

// Read is like Get, but additionally reports whether the reader has already
// consumed the last stored value.
func (p *IntrInput[T]) Read() (v T, consumed bool) {
	return p.Get(), p.ptr.Load() == -1
}

// Store publishes v to the reader, replacing a previously stored value that
// wasn't consumed yet.
func (p *IntrInput[T]) Store(v T) {
	// Alternate between bufs[0] and bufs[1] and point ptr at the latest
	// write.  Never writes to the buffer ptr points at.
	p.bufs[p.next] = v
	p.ptr.Store(p.next)
	p.next = (p.next + 1) & 0x1

	// Zero the unused buffer so it doesn't hold hidden references that keep
	// memory alive.
	var zero T
	p.bufs[p.next] = zero
}

// Load returns the last stored value and whether it was stored since the last
// call to Load.
//
//go:nosplit
func (p *IntrInput[T]) Load() (v T, updated bool) {
	ptr := p.ptr.Swap(-1)
	// Not preemptible by the writer, reading *ptr is safe here.
	if ptr == -1 {
		return p.bufs[p.current], false
	}
	p.current = ptr
	return p.bufs[p.current], true
}

const qsize = 32

// IntrQueue queues values of any type safely into an interrupt context.
// Multiple writer goroutines and a single reader are allowed.  The reader
// must not be preemptible by the writers, i.e. an interrupt.
type IntrQueue[T any] struct {
	ring              [qsize]T
	popped            [qsize]rtos.Note // FIXME use a sync.Pool for notes
	start, end, write atomic.Int32
}

// Push returns a cleared note that gets woken up when the item is popped by the
// interrupt handler.  Spins while the queue is full.
func (p *IntrQueue[T]) Push(v T) (popped *rtos.Note) {
	for {
		start := p.start.Load()
		end := p.end.Load()
		next := (end + 1) % int32(len(p.ring))
		if next == start {
			continue
		}

		// Claim the slot against concurrent writers before filling it.
		if !p.write.CompareAndSwap(end, next) {
			continue
		}

		p.ring[end] = v
		popped = &p.popped[end]
		popped.Clear()

		if !p.end.CompareAndSwap(end, next) {
			panic("intr queue corrupted")
		}
		return
	}
}

//go:nosplit
func (p *IntrQueue[T]) Peek() (v *T, ok bool) {
	start := p.start.Load()
	end := p.end.Load()
	if end == start {
		return v, false
	}

	return &p.ring[start], true
}

//go:nosplit
func (p *IntrQueue[T]) Pop() (v *T, ok bool) {
	start := p.start.Load()
	end := p.end.Load()
	if end == start {
		return v, false
	}

	v = &p.ring[start]
	ok = true

	// Zeroing the popped slot would avoid holding hidden references that
	// keep memory alive, but writing a pointer type here isn't allowed.
	// TODO not possible due to go:nowritebarrierrec
	// var zero T
	// p.ring[start] = zero

	if !p.start.CompareAndSwap(start, (start+1)%int32(len(p.ring))) {
		panic("multiple readers")
	}

	p.popped[start].Wakeup()

	return
}
