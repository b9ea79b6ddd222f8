package controller

import (
	"errors"
	"fmt"
	"io"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/drivers/controller/pakfs"
	"github.com/nkraut/n64/drivers/controller/tpak"
	"github.com/nkraut/n64/rcp/serial"
	"github.com/nkraut/n64/rcp/serial/joybus"
)

const pakSize = 1 << 16 // whole addressable space

const (
	blockSize = 32 // bytes per single read/write joybus command
	blockMask = blockSize - 1
)

// Well-known pak addresses. The lower 5 bits hold the address checksum, see
// joybus.PakCommand.SetAddress.
const (
	pakLabel  = 0x0000
	pakProbe  = 0x8000 + 0x1f
	pakRumble = 0xC000 + 0x1f
)

// Values written to pakProbe to identify the pak type. If the pak supports
// power on/off, writing the probe value also powers the pak on.
const (
	probeMem         = 0x01
	probeRumble      = 0x80
	probeBioSensor   = 0x81
	probeTransfer    = 0x84
	probeSnapStation = 0x85

	probePowerOff = 0xfe // powers off the pak, if supported by the pak
)

var ErrSeekOutOfRange = errors.New("pak seek out of range")

// Pak provides block IO on the accessory slot of a controller. Reads and
// writes go out as joybus pak commands in a prebuilt PIF frame, one 32-byte
// block per command.
type Pak struct {
	port   uint8
	offset uint16

	readCmdBlock  serial.CommandBlock
	writeCmdBlock serial.CommandBlock
	readCmd       joybus.ReadPakCommand
	writeCmd      joybus.WritePakCommand
}

func NewPak(port uint8) (pak *Pak) {
	pak = &Pak{
		port:          port,
		readCmdBlock:  *serial.NewCommandBlock(serial.CmdConfigureJoybus),
		writeCmdBlock: *serial.NewCommandBlock(serial.CmdConfigureJoybus),
	}

	// Skip the ports below the pak's port with reset control bytes.
	var err error
	for range pak.port {
		err = joybus.ControlByte(&pak.readCmdBlock, joybus.CtrlReset)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	pak.readCmd, err = joybus.NewReadPakCommand(&pak.readCmdBlock)
	err = joybus.ControlByte(&pak.readCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	for range pak.port {
		err = joybus.ControlByte(&pak.writeCmdBlock, joybus.CtrlReset)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	pak.writeCmd, err = joybus.NewWritePakCommand(&pak.writeCmdBlock)
	err = joybus.ControlByte(&pak.writeCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	return
}

func (pak *Pak) ReadAt(p []byte, off int64) (n int, err error) {
	startOffset := off & blockMask

	for n < len(p) {
		pak.readCmd.Reset() // TODO necessary?
		pak.readCmd.SetAddress(uint16(off))
		serial.Run(&pak.readCmdBlock)

		var rx []byte
		rx, err = pak.readCmd.Data()
		copied := copy(p[n:], rx[startOffset:])
		n += copied
		startOffset = 0 // only needed in the first iteration
		if err != nil {
			return
		}

		off += int64(copied)
		if off >= pakSize {
			return n, io.EOF
		}
	}

	return
}

func (pak *Pak) Read(p []byte) (n int, err error) {
	n, err = pak.ReadAt(p, int64(pak.offset))
	pak.offset += uint16(n)
	return
}

func (pak *Pak) WriteAt(p []byte, off int64) (n int, err error) {
	var tmp [blockSize]byte

	startOffset := off & blockMask

	for n < len(p) {
		// Partly written blocks need a read-modify-write, which can only
		// happen in the first and last iteration.
		if startOffset != 0 || len(p[n:]) < blockSize {
			_, err = pak.ReadAt(tmp[:], off&^blockMask)
			if err != nil {
				return
			}
		}

		copied := copy(tmp[startOffset:], p[n:])
		startOffset = 0 // only needed in the first iteration

		pak.writeCmd.Reset() // TODO necessary?
		if err = pak.writeCmd.SetData(tmp[:]); err != nil {
			return
		}
		pak.writeCmd.SetAddress(uint16(off))

		serial.Run(&pak.writeCmdBlock)

		if err = pak.writeCmd.Result(); err != nil {
			return
		}

		n += copied
		off += int64(copied)
		if off >= pakSize {
			return n, io.EOF
		}
	}

	return
}

func (pak *Pak) Write(p []byte) (n int, err error) {
	n, err = pak.WriteAt(p, int64(pak.offset))
	pak.offset += uint16(n)
	return
}

func (pak *Pak) Seek(offset int64, whence int) (newoffset int64, err error) {
	switch whence {
	case io.SeekStart:
		// newoffset = 0
	case io.SeekCurrent:
		newoffset = int64(pak.offset)
	case io.SeekEnd:
		newoffset = pakSize
	}
	newoffset += offset
	if newoffset < 0 || newoffset > pakSize {
		return int64(pak.offset), fmt.Errorf("%w: %d", ErrSeekOutOfRange, newoffset)
	}

	pak.offset = uint16(newoffset)

	return
}

// ProbePak detects the type of the pak inserted in the controller at port and
// returns a matching implementation, or a generic Pak if the type could not
// be detected.
func ProbePak(port uint8) (io.ReadWriteSeeker, error) {
	pak := NewPak(port)

	// The Controller Pak can't be probed via pakProbe, it uses that
	// address for SRAM bank selection. Look for a filesystem instead.
	if _, err := pakfs.Read(pak); err == nil {
		return &MemPak{*pak}, nil
	}

	data := [1]byte{}
	types := [...]struct {
		probeVal byte
		ctor     func(*Pak) (io.ReadWriteSeeker, error)
	}{
		{probeMem, nil}, // controller pak with damaged filesystem
		{probeRumble, newRumblePak},
		{probeTransfer, newTransferPak},
	}

	for _, t := range types {
		pak.Seek(pakProbe, io.SeekStart)
		data[0] = t.probeVal
		if _, err := pak.Write(data[:]); err != nil {
			return nil, err
		}

		pak.Seek(pakProbe, io.SeekStart)
		if _, err := pak.Read(data[:]); err != nil {
			return nil, err
		}

		if data[0] == t.probeVal {
			if t.ctor == nil {
				break
			}
			return t.ctor(pak)
		}
	}

	return pak, nil
}

type MemPak struct {
	Pak
}

func newMemPak(pak *Pak) (io.ReadWriteSeeker, error) {
	return &MemPak{*pak}, nil
}

type RumblePak struct {
	Pak
	on bool
}

func newRumblePak(pak *Pak) (io.ReadWriteSeeker, error) {
	return &RumblePak{*pak, false}, nil
}

func (pak *RumblePak) Set(on bool) error {
	var data byte
	if on {
		data = 1
	}

	pak.Seek(pakRumble, io.SeekStart)
	_, err := pak.Write([]byte{data})
	if err != nil {
		return err
	}
	pak.on = on

	return nil
}

func (pak *RumblePak) Toggle() error {
	return pak.Set(!pak.on)
}

// TransferPak exposes the GB cartridge bus via the GB field. The pak is
// already powered on by the probe write.
type TransferPak struct {
	Pak
	GB *tpak.TPak
}

func newTransferPak(pak *Pak) (io.ReadWriteSeeker, error) {
	t := &TransferPak{Pak: *pak}
	t.GB = tpak.New(&t.Pak)
	return t, nil
}
