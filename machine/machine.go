// Package machine is imported by the runtime and allows the target to implement
// some hooks, most importantly rt0.
package machine

import (
	"unsafe"

	"github.com/nkraut/n64/rcp/cpu"
)

type VideoType uint32

const (
	VideoPAL  VideoType = 0
	VideoNTSC VideoType = 1
	VideoMPAL VideoType = 2
)

type ResetType uint32

const (
	ResetCold ResetType = 0
	ResetWarm ResetType = 1
)

// Variables set by IPL3
var (
	Reset ResetType = *(*ResetType)(unsafe.Pointer(cpu.KSEG1 | 0x8000_030C))
	Video VideoType = *(*VideoType)(unsafe.Pointer(cpu.KSEG1 | 0x8000_0300))

	// MemSize is the amount of installed RDRAM detected during boot.
	MemSize uint32 = *(*uint32)(unsafe.Pointer(cpu.KSEG1 | 0x8000_0318))
)

// MemExpanded reports whether an Expansion Pak is installed.
func MemExpanded() bool {
	return MemSize > 4*1024*1024
}
