// The CPU accesses RAM through a cache and in general assumes there are no
// other readers or writers.  The cached value can divert from the value in
// RAM for a limited amount of time, so both must be synced before another
// component accesses the memory.
//
// All operations in this package refer to the data cache.  Instruction cache
// won't be affected.
package cpu

import (
	"unsafe"

	"github.com/nkraut/n64/debug"
)

const CacheLineSize = 16
const cacheLineMask = ^(CacheLineSize - 1)

// Cache operations always affect a whole cache line.  To avoid invalidating
// unrelated data in a cache line, pad structs with CacheLinePad at the
// beginning and end.
type CacheLinePad struct{ _ [CacheLineSize]byte }

// Writeback causes the cache to be written back to RAM.  Call this before
// requesting another component to read from this address range.  If the
// specified address is currently not cached, this is a no-op.
func Writeback(addr uintptr, length int)

// Invalidate causes the cache to be read from RAM before the next access.
// Call this before the address range is to be written by another component.
// If the specified address is currently not cached, this is a no-op.
func Invalidate(addr uintptr, length int)

// MakePaddedSlice returns a slice that is safe for cache ops.  Its start is
// aligned to CacheLineSize and the end is padded to fill the cache line.
// Note that using append() might corrupt the padding.
//
// Aligning the slice start to CacheLineSize has the advantage that runtime
// validation is possible, see IsPadded().
func MakePaddedSlice[T any](size int) []T {
	var t T
	cls := CacheLineSize / int(unsafe.Sizeof(t))
	buf := make([]T, 0, cls+size+cls)
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := (CacheLineSize - int(addr)%CacheLineSize) / int(unsafe.Sizeof(t))
	return buf[shift : shift+size]
}

// PaddedSlice ensures a slice is padded, copying it if necessary.
func PaddedSlice[T any](slice []T) []T {
	if IsPadded(slice) == false {
		buf := MakePaddedSlice[T](len(slice))
		copy(buf, slice)
		return buf
	}
	return slice
}

// MakePaddedSliceAligned is MakePaddedSlice with extra alignment requirements.
func MakePaddedSliceAligned[T any](size int, align uintptr) []T {
	var t T
	if align <= CacheLineSize || align <= unsafe.Alignof(t) {
		return MakePaddedSlice[T](size)
	}

	buf := MakePaddedSlice[T](size + int(align/unsafe.Sizeof(t)))
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	shift := (align - addr%align) / unsafe.Sizeof(t)
	return buf[shift : shift+uintptr(size)]
}

// IsPadded reports whether p is safe for cache ops, i.e. padded and aligned
// to cache lines.
func IsPadded[T any](p []T) bool {
	var t T
	cls := CacheLineSize / int(unsafe.Sizeof(t))

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	return addr%CacheLineSize == 0 && cap(p)-len(p) >= cls-len(p)%cls
}

func WritebackSlice[T any](buf []T) {
	debug.Assert(IsPadded(buf), "unpadded cache writeback")

	var t T
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	Writeback(addr, len(buf)*int(unsafe.Sizeof(t)))
}

func InvalidateSlice[T any](buf []T) {
	debug.Assert(IsPadded(buf), "unpadded cache invalidate")

	var t T
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
	Invalidate(addr, len(buf)*int(unsafe.Sizeof(t)))
}

// Paddable covers the element types that are safe to use in padded slices
// passed to DMA capable hardware.
type Paddable interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// CopyPaddedSlice returns a padded copy of slice.  Use this to make data safe
// for cache ops without modifying the original backing array.
func CopyPaddedSlice[T any](slice []T) []T {
	buf := MakePaddedSlice[T](len(slice))
	copy(buf, slice)
	return buf
}

// Pads returns the bounds of the largest subslice of p that is safe for cache
// ops, i.e. p[head:tail] starts at a cache line and covers only whole cache
// lines.  The remaining head and tail bytes must be handled separately, e.g.
// via uncached access.
func Pads(p []byte) (head, tail int) {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	head = min(len(p), int(-addr&(CacheLineSize-1)))
	tail = head + (len(p)-head)&^(CacheLineSize-1)
	return
}
