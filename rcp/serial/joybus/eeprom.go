package joybus

// EEPROMBlockSize is the number of bytes transferred by a single EEPROM
// read or write command.
const EEPROMBlockSize = 8

type ReadEEPROMCommand struct{ Command }

func NewReadEEPROMCommand(alloc Allocator) (ReadEEPROMCommand, error) {
	cmd, err := newCommand(alloc, cmdReadEEPROM)
	return ReadEEPROMCommand{cmd}, err
}

// SetBlock selects the 8-byte block to be read.
func (c ReadEEPROMCommand) SetBlock(block uint8) {
	c.txData()[1] = block
}

func (c ReadEEPROMCommand) Data() (data []byte, err error) {
	err = validate(c.Command, cmdReadEEPROM)
	if err != nil {
		return
	}
	return c.rxData(), nil
}

type WriteEEPROMCommand struct{ Command }

func NewWriteEEPROMCommand(alloc Allocator) (WriteEEPROMCommand, error) {
	cmd, err := newCommand(alloc, cmdWriteEEPROM)
	return WriteEEPROMCommand{cmd}, err
}

// SetBlock selects the 8-byte block to be written.
func (c WriteEEPROMCommand) SetBlock(block uint8) {
	c.txData()[1] = block
}

// len(src) must match EEPROMBlockSize.
func (c WriteEEPROMCommand) SetData(src []byte) error {
	data := c.txData()[2:]
	if len(src) != len(data) {
		return ErrDataLength
	}
	copy(data, src)
	return nil
}

// Busy reports whether the EEPROM is still committing a previous write.  The
// command must be retried in this case.
func (c WriteEEPROMCommand) Busy() (bool, error) {
	err := validate(c.Command, cmdWriteEEPROM)
	if err != nil {
		return false, err
	}
	return c.rxData()[0]&0x80 != 0, nil
}
