package joybus

import (
	"time"

	"github.com/nkraut/n64/debug"
)

// Blocks addressable by the RTC read/write commands.
const (
	RTCBlockControl = 0
	RTCBlockSRAM    = 1
	RTCBlockTime    = 2
)

// Status flags reported in the extra byte of an RTC info response and in the
// trailing byte of an RTC read response.
const (
	RTCStopped byte = 0x80
	RTCCrystal byte = 0x01 // crystal failure
	RTCBattery byte = 0x02 // battery failure
)

// The RTC identifies itself with the same command layout as a controller
// info request.
func NewRTCInfoCommand(alloc Allocator) (InfoCommand, error) {
	cmd, err := newCommand(alloc, cmdRTCInfo)
	return InfoCommand{cmd}, err
}

type ReadRTCCommand struct{ Command }

func NewReadRTCCommand(alloc Allocator) (ReadRTCCommand, error) {
	cmd, err := newCommand(alloc, cmdReadRTC)
	return ReadRTCCommand{cmd}, err
}

func (c ReadRTCCommand) SetBlock(block uint8) {
	c.txData()[1] = block
}

// Data returns the block's 8 data bytes and the RTC status byte.
func (c ReadRTCCommand) Data() (data []byte, status byte, err error) {
	err = validate(c.Command, cmdReadRTC)
	if err != nil {
		return
	}
	rx := c.rxData()
	return rx[:len(rx)-1], rx[len(rx)-1], nil
}

type WriteRTCCommand struct{ Command }

func NewWriteRTCCommand(alloc Allocator) (WriteRTCCommand, error) {
	cmd, err := newCommand(alloc, cmdWriteRTC)
	return WriteRTCCommand{cmd}, err
}

func (c WriteRTCCommand) SetBlock(block uint8) {
	c.txData()[1] = block
}

func (c WriteRTCCommand) SetData(src []byte) error {
	data := c.txData()[2:]
	if len(src) != len(data) {
		return ErrDataLength
	}
	copy(data, src)
	return nil
}

func (c WriteRTCCommand) Status() (byte, error) {
	err := validate(c.Command, cmdWriteRTC)
	if err != nil {
		return 0, err
	}
	return c.rxData()[0], nil
}

// DecodeRTCTime converts a time block read from the clock.  The block stores
// two-digit BCD fields: seconds, minutes, hours in 24h mode, day of month,
// day of week, month, year and year hundreds since 1900.
func DecodeRTCTime(block [8]byte) time.Time {
	sec := fromBCD(block[0])
	min := fromBCD(block[1])
	hour := fromBCD(block[2] &^ 0x80) // high bit flags 24h mode
	day := fromBCD(block[3])
	month := fromBCD(block[5])
	year := 1900 + fromBCD(block[6]) + 100*fromBCD(block[7])
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

// EncodeRTCTime converts t to the wire format written to the clock's time
// block.
func EncodeRTCTime(t time.Time) (block [8]byte) {
	t = t.UTC()
	block[0] = toBCD(t.Second())
	block[1] = toBCD(t.Minute())
	block[2] = toBCD(t.Hour()) | 0x80
	block[3] = toBCD(t.Day())
	block[4] = byte(t.Weekday())
	block[5] = toBCD(int(t.Month()))
	year := t.Year() - 1900
	block[6] = toBCD(year % 100)
	block[7] = toBCD(year / 100)
	return
}

func fromBCD(b byte) int {
	debug.Assert(b&0xf < 10 && b>>4 < 10, "invalid bcd")
	return int(b>>4)*10 + int(b&0xf)
}

func toBCD(v int) byte {
	debug.Assert(v >= 0 && v < 100, "bcd out of range")
	return byte(v/10)<<4 | byte(v%10)
}
