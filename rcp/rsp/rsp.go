package rsp

import (
	"embedded/rtos"

	"github.com/nkraut/n64/rcp"
	"github.com/nkraut/n64/rcp/cpu"
	"github.com/nkraut/n64/rcp/rsp/ucode"
)

func init() {
	rcp.SetHandler(rcp.IntrRSP, handler)
}

func Init() {
	regs.status.Store(setHalt | clrSingleStep | clrIntbreak | clrBroke | clrIntr)
	pc.Store(0x1000)
}

// SetInterrupt controls whether the RSP raises an interrupt when it hits a
// break instruction.
func SetInterrupt(enable bool) {
	if enable {
		regs.status.Store(setIntbreak)
		rcp.EnableInterrupts(rcp.IntrRSP)
	} else {
		regs.status.Store(clrIntbreak)
		rcp.DisableInterrupts(rcp.IntrRSP)
	}
}

// Load halts the RSP and loads the microcode's text and data into IMEM and
// DMEM respectively.  Start execution with [Resume].
func Load(uc *ucode.UCode) {
	Pause(true)

	_, err := IMEM.WriteAt(uc.Text, 0)
	if err != nil {
		panic("load ucode text: " + err.Error())
	}
	_, err = DMEM.WriteAt(uc.Data, 0)
	if err != nil {
		panic("load ucode data: " + err.Error())
	}

	pc.Store(uint32(uc.Entry) & 0xfff)
}

// Pause halts or resumes the RSP.  Prefer [Resume] to start a freshly loaded
// microcode, which also resets pending break state.
func Pause(pause bool) {
	if pause {
		regs.status.Store(setHalt)
		for regs.status.Load()&dmaBusy != 0 {
			// wait for a running dma to finish
		}
	} else {
		regs.status.Store(clrHalt)
	}
}

// Resume starts execution of the currently loaded microcode at the entry point
// set by [Load].
func Resume() {
	IntBreak.Clear()
	regs.status.Store(clrBroke | clrIntr | clrHalt)
}

// Halted reports whether the RSP is currently halted, either by [Pause] or by
// executing a break instruction.
func Halted() bool {
	return regs.status.Load()&(halted|broke) != 0
}

// IntBreak wakes up when the RSP executed a break instruction with interrupts
// enabled, see [SetInterrupt].
var IntBreak rtos.Note

//go:nosplit
//go:nowritebarrierrec
func handler() {
	regs.status.Store(clrIntr)
	IntBreak.Wakeup()
}

// Memory banks of the RSP, accessible via DMA, see [Memory].
const (
	DMEM Memory = Memory(cpu.Addr(0x0400_0000))
	IMEM Memory = Memory(cpu.Addr(0x0400_1000))
)
