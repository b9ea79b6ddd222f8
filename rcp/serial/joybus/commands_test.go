package joybus

import (
	"bytes"
	"errors"
	"testing"
)

// fixedAlloc hands out slices of a single fixed backing array, like a PIF
// command block does.
type fixedAlloc struct {
	buf []byte
}

func newFixedAlloc() *fixedAlloc {
	return &fixedAlloc{make([]byte, 0, 64)}
}

func (a *fixedAlloc) Alloc(n int) ([]byte, error) {
	if len(a.buf)+n > cap(a.buf) {
		return nil, errors.New("alloc: out of space")
	}
	start := len(a.buf)
	a.buf = a.buf[:start+n]
	return a.buf[start : start+n], nil
}

func TestPakAddressChecksum(t *testing.T) {
	tests := map[string]struct {
		addr     uint16
		expected uint16
	}{
		"zero":      {0x0000, 0x0000},
		"lowbit":    {0x0020, 0x0035},
		"highbit":   {0x8000, 0x8001},
		"probe":     {0x8000 + 0x1f, 0x8001}, // low 5 bits are ignored
		"laststops": {0xffe0, 0xffe0 ^ 0x01 ^ 0x1a ^ 0x0d ^ 0x1c ^ 0x0e ^ 0x07 ^ 0x19 ^ 0x16 ^ 0x0b ^ 0x1f ^ 0x15},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cmd, err := NewReadPakCommand(newFixedAlloc())
			if err != nil {
				t.Fatal(err)
			}
			cmd.SetAddress(tc.addr)
			tx := cmd.txData()
			got := uint16(tx[1])<<8 | uint16(tx[2])
			if got != tc.expected {
				t.Errorf("address %#04x: expected %#04x, got %#04x", tc.addr, tc.expected, got)
			}
		})
	}
}

func TestReadPakChecksum(t *testing.T) {
	cmd, err := NewReadPakCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}

	// The pak CRC has zero init and xorout, so 32 zero bytes checksum to
	// 0x00 and an all-zero response block is self-consistent.
	rx := cmd.rxData()
	for i := range rx {
		rx[i] = 0x00
	}

	data, err := cmd.Data()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 32 {
		t.Errorf("expected 32 byte payload, got %d", len(data))
	}

	rx[0] = 0x01 // corrupt
	_, err = cmd.Data()
	if !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestWritePakChecksum(t *testing.T) {
	cmd, err := NewWritePakCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}

	src := bytes.Repeat([]byte{0x00}, 32)
	if err := cmd.SetData(src); err != nil {
		t.Fatal(err)
	}
	if err := cmd.SetData(src[:16]); !errors.Is(err, ErrDataLength) {
		t.Errorf("expected ErrDataLength, got %v", err)
	}

	cmd.rxData()[0] = 0x00 // crc of the zero payload
	if err := cmd.Result(); err != nil {
		t.Errorf("expected matching checksum, got %v", err)
	}
	cmd.rxData()[0] = 0xf4
	if err := cmd.Result(); !errors.Is(err, ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", err)
	}
}

func TestInfoCommand(t *testing.T) {
	alloc := newFixedAlloc()
	cmd, err := NewInfoCommand(alloc)
	if err != nil {
		t.Fatal(err)
	}

	rx := cmd.rxData()
	rx[0], rx[1], rx[2] = 0x05, 0x00, InfoPakInstalled
	dev, extra, err := cmd.Info()
	if err != nil {
		t.Fatal(err)
	}
	if dev != Controller {
		t.Errorf("expected controller device, got %#04x", uint16(dev))
	}
	if extra&InfoPakInstalled == 0 {
		t.Error("expected pak installed flag")
	}

	// PIF sets error flags in the rx size byte.
	cmd.Command[1] |= 0x80
	_, _, err = cmd.Info()
	if !errors.Is(err, ErrPIFNoResponse) {
		t.Errorf("expected ErrPIFNoResponse, got %v", err)
	}
}

func TestControllerStateCommand(t *testing.T) {
	cmd, err := NewControllerStateCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}

	rx := cmd.rxData()
	rx[0], rx[1], rx[2], rx[3] = 0x10, 0x01, 0x7f, 0x81
	down, x, y, err := cmd.State()
	if err != nil {
		t.Fatal(err)
	}
	if down != ButtonStart|ButtonCRight {
		t.Errorf("expected start+c-right, got %v", down)
	}
	if x != 127 || y != -127 {
		t.Errorf("expected stick (127, -127), got (%d, %d)", x, y)
	}
}

func TestEEPROMCommands(t *testing.T) {
	read, err := NewReadEEPROMCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}
	read.SetBlock(0x3f)
	if got := read.txData()[1]; got != 0x3f {
		t.Errorf("expected block 0x3f, got %#02x", got)
	}
	data, err := read.Data()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != EEPROMBlockSize {
		t.Errorf("expected %d byte block, got %d", EEPROMBlockSize, len(data))
	}

	write, err := NewWriteEEPROMCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}
	if err := write.SetData(make([]byte, 4)); !errors.Is(err, ErrDataLength) {
		t.Errorf("expected ErrDataLength, got %v", err)
	}
	if err := write.SetData(make([]byte, EEPROMBlockSize)); err != nil {
		t.Fatal(err)
	}
	write.rxData()[0] = 0x80
	busy, err := write.Busy()
	if err != nil {
		t.Fatal(err)
	}
	if !busy {
		t.Error("expected busy flag")
	}
}

func TestRTCCommands(t *testing.T) {
	read, err := NewReadRTCCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}
	read.SetBlock(RTCBlockTime)
	rx := read.rxData()
	if len(rx) != 9 {
		t.Fatalf("expected 9 rx bytes, got %d", len(rx))
	}
	rx[8] = RTCStopped
	data, status, err := read.Data()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 8 {
		t.Errorf("expected 8 byte block, got %d", len(data))
	}
	if status&RTCStopped == 0 {
		t.Error("expected stopped flag")
	}

	write, err := NewWriteRTCCommand(newFixedAlloc())
	if err != nil {
		t.Fatal(err)
	}
	write.SetBlock(RTCBlockControl)
	if err := write.SetData(make([]byte, 8)); err != nil {
		t.Fatal(err)
	}
}

func TestButtonMaskString(t *testing.T) {
	got := (ButtonA | ButtonZ | ButtonCDown).String()
	if got != "A + Z + C↓" {
		t.Errorf("unexpected string: %q", got)
	}
}
