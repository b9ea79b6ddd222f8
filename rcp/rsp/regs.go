// The signal processor provides fast vector instructions.  It's usually used
// for vertex transformations and audio mixing.  It can directly control the RDP
// via XBUS or shared memory in RDRAM.  There are several precompiled microcodes
// which can be loaded to provide different functionalities.
package rsp

import (
	"embedded/mmio"

	"github.com/nkraut/n64/rcp/cpu"
)

var regs = cpu.MMIO[registers](0x0404_0000)

// pc is the RSP's program counter.  It can only be accessed while the RSP is
// halted.
var pc = cpu.MMIO[mmio.U32](0x0408_0000)

type statusFlags uint32

// Read access to status register
const (
	halted statusFlags = 1 << iota
	broke
	dmaBusy
	dmaFull
	ioBusy
	singleStep
	intrOnBreak
	sig0
	sig1
	sig2
	sig3
	sig4
	sig5
	sig6
	sig7
)

// Write access to status register
const (
	clrHalt statusFlags = 1 << iota
	setHalt
	clrBroke
	clrIntr
	setIntr
	clrSingleStep
	setSingleStep
	clrIntbreak
	setIntbreak
)

type registers struct {
	rspAddr   mmio.R32[cpu.Addr] // bit 12 selects IMEM, bits 0-11 offset
	rdramAddr mmio.R32[cpu.Addr]
	readLen   mmio.U32 // RDRAM -> RSP memory
	writeLen  mmio.U32 // RSP memory -> RDRAM
	status    mmio.R32[statusFlags]
	dmaFull   mmio.U32
	dmaBusy   mmio.U32
	semaphore mmio.U32
}
