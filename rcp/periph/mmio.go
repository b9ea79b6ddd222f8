// MMIO on the PI external bus has additional sync and aligment requirements.
// Further reading: https://n64brew.dev/wiki/Memory_map#Physical_Memory_Map_accesses
package periph

import "embedded/mmio"

// U32 is a register on the PI external bus.  Stores block until the bus is
// idle again.  Use for MMIO in the ranges:
//   - 0x0500_0000 to 0x1fbf_ffff
//   - 0x1fd0_0000 to 0x7fff_ffff
type U32 struct {
	r mmio.U32
}

func (r *U32) Store(v uint32) {
	r.r.Store(v)

	for regs.status.LoadBits(ioBusy) != 0 {
		// wait
	}
}

func (r *U32) Load() uint32 {
	return r.r.Load()
}

func (r *U32) Addr() uintptr {
	return r.r.Addr()
}

// R32 is the typed variant of [U32].
type R32[T mmio.T32] struct {
	r mmio.R32[T]
}

func (r *R32[T]) Store(v T) {
	r.r.Store(v)

	for regs.status.LoadBits(ioBusy) != 0 {
		// wait
	}
}

func (r *R32[T]) Load() T {
	return r.r.Load()
}

func (r *R32[T]) Addr() uintptr {
	return r.r.Addr()
}

// U32Safe is like U32, but safe for use in early boot and panic paths, i.e.
// from nosplit context and before the runtime is fully up.
type U32Safe struct {
	r mmio.U32
}

//go:nosplit
//go:nowritebarrierrec
func (r *U32Safe) Store(v uint32) {
	r.r.Store(v)

	for regs.status.LoadBits(ioBusy) != 0 {
		// wait
	}
}

//go:nosplit
//go:nowritebarrierrec
func (r *U32Safe) Load() uint32 {
	return r.r.Load()
}
