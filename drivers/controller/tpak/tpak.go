// Package tpak drives a transfer pak, which gives access to a Game Boy
// cartridge through the controller's pak port.
package tpak

import (
	"errors"
	"io"
)

var (
	ErrNotPowered   = errors.New("tpak not powered")
	ErrNoAccess     = errors.New("tpak access disabled")
	ErrCartRemoved  = errors.New("gb cartridge removed")
	ErrAddressRange = errors.New("address outside gb cart space")
)

// Memory is the pak's 16-bit address space, usually a [controller.Pak].
type Memory interface {
	io.ReaderAt
	io.WriterAt
}

const blockSize = 32

// Pak registers in the controller pak address space.
const (
	regPower  = 0x8000 // probe value powers the pak on
	regBank   = 0xa000 // selects the 16 KiB GB bank mapped at the window
	regStatus = 0xb000
	regAccess = 0xb010 // gates access to the data window
	window    = 0xc000 // GB cart window, one bank of 16 KiB
	bankSize  = 0x4000
)

const (
	powerOn  = 0x84 // same value used to probe for a transfer pak
	powerOff = 0xfe

	accessOn  = 0x01
	accessOff = 0x00
)

type Status byte

const (
	StatusReady       Status = 0x01
	StatusWasReset    Status = 0x04
	StatusIsResetting Status = 0x08
	StatusCartRemoved Status = 0x40
	StatusPowered     Status = 0x80
)

type TPak struct {
	mem Memory
}

func New(mem Memory) *TPak {
	return &TPak{mem}
}

// fill writes a register block.  Transfer pak registers expect the value
// repeated over a whole 32-byte block.
func (t *TPak) fill(addr int64, val byte) error {
	var block [blockSize]byte
	for i := range block {
		block[i] = val
	}
	_, err := t.mem.WriteAt(block[:], addr)
	return err
}

// SetPower switches the pak's power to the GB cartridge bus.  The pak needs
// power and access enabled before the cartridge can be read.
func (t *TPak) SetPower(on bool) error {
	val := byte(powerOff)
	if on {
		val = powerOn
	}
	return t.fill(regPower, val)
}

// SetAccess enables or disables the GB cartridge data window.
func (t *TPak) SetAccess(enable bool) error {
	val := byte(accessOff)
	if enable {
		val = accessOn
	}
	return t.fill(regAccess, val)
}

// Status reads the pak's status register.  Reading clears the WasReset and
// CartRemoved latches.
func (t *TPak) Status() (Status, error) {
	var block [blockSize]byte
	_, err := t.mem.ReadAt(block[:], regStatus)
	return Status(block[0]), err
}

func (t *TPak) setBank(bank byte) error {
	return t.fill(regBank, bank)
}

// ReadAt reads from the GB cartridge address space, switching the mapped
// 16 KiB bank as needed.
func (t *TPak) ReadAt(p []byte, off int64) (n int, err error) {
	for n < len(p) {
		if off < 0 || off >= 4*bankSize {
			return n, ErrAddressRange
		}
		bank := byte(off / bankSize)
		if err = t.setBank(bank); err != nil {
			return
		}

		chunk := min(int64(len(p)-n), bankSize-off%bankSize)
		var copied int
		copied, err = t.mem.ReadAt(p[n:n+int(chunk)], window+off%bankSize)
		n += copied
		off += int64(copied)
		if err != nil {
			return
		}
	}
	return
}

// WriteAt writes to the GB cartridge address space, e.g. to cartridge RAM or
// MBC registers.
func (t *TPak) WriteAt(p []byte, off int64) (n int, err error) {
	for n < len(p) {
		if off < 0 || off >= 4*bankSize {
			return n, ErrAddressRange
		}
		bank := byte(off / bankSize)
		if err = t.setBank(bank); err != nil {
			return
		}

		chunk := min(int64(len(p)-n), bankSize-off%bankSize)
		var copied int
		copied, err = t.mem.WriteAt(p[n:n+int(chunk)], window+off%bankSize)
		n += copied
		off += int64(copied)
		if err != nil {
			return
		}
	}
	return
}

// Probe powers the pak on and checks that a GB cartridge responds with a
// valid header.
func (t *TPak) Probe() (*CartHeader, error) {
	if err := t.SetPower(true); err != nil {
		return nil, err
	}
	if err := t.SetAccess(true); err != nil {
		return nil, err
	}

	status, err := t.Status()
	if err != nil {
		return nil, err
	}
	if status&StatusPowered == 0 {
		return nil, ErrNotPowered
	}
	if status&StatusCartRemoved != 0 {
		return nil, ErrCartRemoved
	}

	return t.ReadHeader()
}

// ReadHeader reads and parses the cartridge header at 0x0100.
func (t *TPak) ReadHeader() (*CartHeader, error) {
	var raw [headerSize]byte
	if _, err := t.ReadAt(raw[:], headerAddr); err != nil {
		return nil, err
	}
	return parseHeader(raw)
}
