package periph

import (
	"sync"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/rcp"
	"github.com/nkraut/n64/rcp/cpu"
)

func init() {
	rcp.SetHandler(rcp.IntrPeriph, handler)
	rcp.EnableInterrupts(rcp.IntrPeriph)
}

//go:nosplit
//go:nowritebarrierrec
func handler() {
	regs.status.Store(clearInterrupt)
}

var dmaMtx sync.Mutex

// bounce is a padded buffer for transfers whose slices don't meet the DMA
// alignment requirements.  Guarded by dmaMtx.
var bounce = cpu.MakePaddedSliceAligned[byte](4096, 8)

// Loads bytes from PI bus into RDRAM.  Uses DMA directly if p meets the
// alignment requirements, otherwise falls back to a bounce buffer.
func dmaLoad(piAddr cpu.Addr, p []byte) {
	dmaMtx.Lock()
	defer dmaMtx.Unlock()

	if piAddr%2 == 0 && len(p)%2 == 0 &&
		cpu.IsPadded(p) && cpu.PhysicalAddressSlice(p)%8 == 0 {
		dmaLoadPadded(piAddr, p)
		return
	}

	for len(p) > 0 {
		shift := int(piAddr & 1)
		n := min(len(p), len(bounce)-shift)
		buf := bounce[:(shift+n+1)&^1]
		dmaLoadPadded(piAddr-cpu.Addr(shift), buf)
		copy(p[:n], buf[shift:])
		p = p[n:]
		piAddr += cpu.Addr(n)
	}
}

// Stores bytes from RDRAM to PI bus.  Alignment is handled like in dmaLoad,
// with a read-modify-write of the surrounding bytes if necessary.
func dmaStore(piAddr cpu.Addr, p []byte) {
	dmaMtx.Lock()
	defer dmaMtx.Unlock()

	if piAddr%2 == 0 && len(p)%2 == 0 &&
		cpu.IsPadded(p) && cpu.PhysicalAddressSlice(p)%8 == 0 {
		dmaStorePadded(piAddr, p)
		waitDMA()
		return
	}

	for len(p) > 0 {
		shift := int(piAddr & 1)
		n := min(len(p), len(bounce)-shift)
		buf := bounce[:(shift+n+1)&^1]
		if shift != 0 || n%2 != 0 {
			// preserve the bytes surrounding p in their halfwords
			dmaLoadPadded(piAddr-cpu.Addr(shift), buf)
		}
		copy(buf[shift:], p[:n])
		dmaStorePadded(piAddr-cpu.Addr(shift), buf)
		waitDMA()
		p = p[n:]
		piAddr += cpu.Addr(n)
	}
}

// DMAStore copies p to the given address on the PI bus.  It blocks until the
// transfer has finished.
func DMAStore(busAddr uintptr, p []byte) {
	dmaStore(cpu.PhysicalAddress(busAddr), p)
}

// DMALoad copies from the given address on the PI bus into p.  It blocks until
// the transfer has finished.
func DMALoad(busAddr uintptr, p []byte) {
	dmaLoad(cpu.PhysicalAddress(busAddr), p)
}

// dmaLoadPadded starts a PI DMA into p and waits for completion.  p must be
// padded, 8-byte aligned and of even length.
func dmaLoadPadded(piAddr cpu.Addr, p []byte) {
	if len(p) == 0 {
		return
	}

	addr := cpu.PhysicalAddressSlice(p)
	debug.Assert(cpu.IsPadded(p), "unpadded destination slice")
	debug.Assert(addr%8 == 0, "RDRAM address unaligned")

	waitDMA()

	regs.dramAddr.Store(addr)
	regs.cartAddr.Store(piAddr)

	cpu.InvalidateSlice(p)

	regs.writeLen.Store(uint32(len(p) - 1))

	waitDMA()
}

// dmaStorePadded starts a PI DMA from p.  The caller must waitDMA before
// reusing p.
func dmaStorePadded(piAddr cpu.Addr, p []byte) {
	if len(p) == 0 {
		return
	}

	addr := cpu.PhysicalAddressSlice(p)
	debug.Assert(cpu.IsPadded(p), "unpadded source slice")
	debug.Assert(addr%8 == 0, "RDRAM address unaligned")

	waitDMA()

	regs.dramAddr.Store(addr)
	regs.cartAddr.Store(piAddr)

	cpu.WritebackSlice(p)

	regs.readLen.Store(uint32(len(p) - 1))
}

// Blocks until DMA has finished.
func waitDMA() {
	for {
		if regs.status.Load()&(dmaBusy|ioBusy) == 0 {
			break
		}
	}
}
