// Package serial provides access to the PIF microchip, which handles console
// startup, reset and most importantly the joybus.  The joybus connects the
// controllers and their accessories, e.g. the rumble pak.
//
// The serial interface is very slow.  Avoid blocking reads and writes.
package serial

import (
	"embedded/mmio"
	"unsafe"

	"github.com/nkraut/n64/rcp/cpu"
)

var regs *registers = (*registers)(unsafe.Pointer(baseAddr))

const baseAddr uintptr = cpu.KSEG1 | 0x0480_0000

const (
	pifRamAddr uint32 = 0x1fc0_07c0
	pifRamSize        = 64
)

type statusFlags uint32

const (
	dmaBusy statusFlags = 1 << iota
	ioBusy
)

type registers struct {
	dramAddr       mmio.U32
	pifReadAddr    mmio.U32 // writing triggers the joybus exchange
	pifWriteAddr4B mmio.U32
	_              mmio.U32
	pifWriteAddr   mmio.U32
	pifReadAddr4B  mmio.U32
	status         mmio.R32[statusFlags]
}
