// Package eeprom provides access to the cartridge's EEPROM save memory.
package eeprom

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/rcp/serial"
	"github.com/nkraut/n64/rcp/serial/joybus"
)

var ErrNoEEPROM = errors.New("no eeprom")

const (
	blockSize = joybus.EEPROMBlockSize
	blockMask = blockSize - 1

	// The cartridge sits on the joybus channel after the four controller
	// ports.
	channel = 4
)

// EEPROM stores 512 or 2048 bytes in 8-byte blocks, accessed via joybus
// commands on the cartridge channel.  It implements io.ReaderAt and
// io.WriterAt over the whole address space.
type EEPROM struct {
	size int64

	readCmdBlock  serial.CommandBlock
	writeCmdBlock serial.CommandBlock
	readCmd       joybus.ReadEEPROMCommand
	writeCmd      joybus.WriteEEPROMCommand
}

// Probe detects the EEPROM type via a joybus info command.  Returns
// [ErrNoEEPROM] if the cartridge has none.
func Probe() (*EEPROM, error) {
	block := serial.NewCommandBlock(serial.CmdConfigureJoybus)
	var err error
	for range channel {
		err = joybus.ControlByte(block, joybus.CtrlSkip)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	infoCmd, err := joybus.NewInfoCommand(block)
	if err != nil {
		return nil, err
	}
	err = joybus.ControlByte(block, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	serial.Run(block)

	dev, _, err := infoCmd.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEEPROM, err)
	}

	var size int64
	switch dev {
	case joybus.EEPROM4k:
		size = 512
	case joybus.EEPROM16k:
		size = 2048
	default:
		return nil, ErrNoEEPROM
	}

	return newEEPROM(size), nil
}

func newEEPROM(size int64) (e *EEPROM) {
	e = &EEPROM{
		size:          size,
		readCmdBlock:  *serial.NewCommandBlock(serial.CmdConfigureJoybus),
		writeCmdBlock: *serial.NewCommandBlock(serial.CmdConfigureJoybus),
	}

	var err error
	for range channel {
		err = joybus.ControlByte(&e.readCmdBlock, joybus.CtrlSkip)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	e.readCmd, err = joybus.NewReadEEPROMCommand(&e.readCmdBlock)
	debug.Assert(err == nil, fmt.Sprint(err))
	err = joybus.ControlByte(&e.readCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	for range channel {
		err = joybus.ControlByte(&e.writeCmdBlock, joybus.CtrlSkip)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	e.writeCmd, err = joybus.NewWriteEEPROMCommand(&e.writeCmdBlock)
	debug.Assert(err == nil, fmt.Sprint(err))
	err = joybus.ControlByte(&e.writeCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	return
}

// Size returns the total capacity in bytes.
func (e *EEPROM) Size() int64 { return e.size }

func (e *EEPROM) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= e.size {
		return 0, io.EOF
	}

	startOffset := off & blockMask

	for n < len(p) {
		e.readCmd.Reset()
		e.readCmd.SetBlock(uint8(off / blockSize))
		serial.Run(&e.readCmdBlock)

		var rx []byte
		rx, err = e.readCmd.Data()
		if err != nil {
			return
		}
		copied := copy(p[n:], rx[startOffset:])
		n += copied
		startOffset = 0

		off += int64(copied)
		if off >= e.size {
			if n < len(p) {
				err = io.EOF
			}
			return
		}
	}

	return
}

func (e *EEPROM) WriteAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= e.size {
		return 0, io.EOF
	}

	var tmp [blockSize]byte

	startOffset := off & blockMask

	for n < len(p) {
		// read first and last blocks if only partly written
		if startOffset != 0 || len(p[n:]) < blockSize {
			_, err = e.ReadAt(tmp[:], off&^blockMask)
			if err != nil {
				return
			}
		}

		copied := copy(tmp[startOffset:], p[n:])
		startOffset = 0

		e.writeCmd.Reset()
		err = e.writeCmd.SetData(tmp[:])
		if err != nil {
			return
		}
		e.writeCmd.SetBlock(uint8(off / blockSize))

		// The EEPROM ignores commands while it commits the previous
		// write, retry until it acknowledges.
		for {
			serial.Run(&e.writeCmdBlock)
			var busy bool
			busy, err = e.writeCmd.Busy()
			if err != nil {
				return
			}
			if !busy {
				break
			}
			runtime.Gosched()
		}

		n += copied

		off += int64(copied)
		if off >= e.size {
			if n < len(p) {
				err = io.EOF
			}
			return
		}
	}

	return
}
