package cpu

import "unsafe"

// MMIO returns a pointer to a hardware register block of type T at the given
// physical address, accessed through the uncached segment.  T must contain
// only embedded/mmio types.
func MMIO[T any](addr Addr) *T {
	return (*T)(unsafe.Pointer(KSEG1 | uintptr(addr)))
}
