package periph

import (
	"errors"
	"io"
	"sync"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/rcp/cpu"
)

const (
	piBus0Start = 0x0500_0000
	piBus0End   = 0x1fbf_ffff
	piBus1Start = 0x1fd0_0000
	piBus1End   = 0x7fff_ffff
)

// Device implements io.ReaderAt and io.WriterAt for accessing devices on the PI
// bus.  It will automatically choose DMA transfers where alignment and
// cacheline padding allow it, otherwise fall back to copying via a bounce
// buffer.
//
// Device is safe for concurrent use.
type Device struct {
	addr   cpu.Addr
	size   uint32
	offset uint32

	mtx sync.Mutex
}

func NewDevice(piAddr cpu.Addr, size uint32) *Device {
	addr := uint32(piAddr)
	debug.Assert((addr >= piBus0Start && addr+size <= piBus0End) ||
		(addr >= piBus1Start && addr+size <= piBus1End),
		"invalid pi bus address")
	return &Device{addr: piAddr, size: size}
}

var ErrSeekOutOfRange = errors.New("seek out of range")

func (v *Device) Addr() cpu.Addr {
	return v.addr
}

func (v *Device) Size() int {
	return int(v.size)
}

func (v *Device) ReadAt(p []byte, off int64) (n int, err error) {
	left := int(v.size) - int(off)
	if left <= 0 {
		return 0, io.EOF
	}
	if len(p) >= left {
		p = p[:left]
		err = io.EOF
	}

	dmaLoad(v.addr+cpu.Addr(off), p)

	return len(p), err
}

func (v *Device) WriteAt(p []byte, off int64) (n int, err error) {
	left := int(v.size) - int(off)
	if left <= 0 {
		return 0, io.ErrShortWrite
	}
	if len(p) > left {
		p = p[:left]
		err = io.ErrShortWrite
	}

	dmaStore(v.addr+cpu.Addr(off), p)

	return len(p), err
}

func (v *Device) Read(p []byte) (n int, err error) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	n, err = v.ReadAt(p, int64(v.offset))
	v.offset += uint32(n)
	return
}

func (v *Device) Write(p []byte) (n int, err error) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	n, err = v.WriteAt(p, int64(v.offset))
	v.offset += uint32(n)
	return
}

func (v *Device) Seek(offset int64, whence int) (newoffset int64, err error) {
	v.mtx.Lock()
	defer v.mtx.Unlock()

	switch whence {
	case io.SeekStart:
		// newoffset = 0
	case io.SeekCurrent:
		newoffset += int64(v.offset)
	case io.SeekEnd:
		newoffset = int64(v.size)
	}
	newoffset += offset
	if newoffset < 0 || newoffset > int64(v.size) {
		return int64(v.offset), ErrSeekOutOfRange
	}

	v.offset = uint32(newoffset)

	return
}

// Flush blocks until all previous writes to the device have finished.
func (v *Device) Flush() {
	dmaMtx.Lock()
	defer dmaMtx.Unlock()

	waitDMA()
}
