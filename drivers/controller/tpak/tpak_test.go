package tpak

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// fakePak simulates the transfer pak register map over a GB cartridge held
// in memory.
type fakePak struct {
	bank    byte
	power   bool
	access  bool
	removed bool
	cart    []byte // GB address space
}

func newFakePak(cart []byte) *fakePak {
	return &fakePak{cart: cart}
}

func (f *fakePak) status() Status {
	var s Status
	if f.power {
		s |= StatusPowered | StatusReady
	}
	if f.removed {
		s |= StatusCartRemoved
	}
	return s
}

func (f *fakePak) WriteAt(p []byte, off int64) (int, error) {
	switch {
	case off >= regPower && off < regBank:
		f.power = p[0] == powerOn
	case off >= regBank && off < regStatus:
		f.bank = p[0]
	case off >= regAccess && off < window:
		f.access = p[0] == accessOn
	case off >= window:
		if !f.power || !f.access {
			return 0, ErrNoAccess
		}
		gb := int(f.bank)*bankSize + int(off-window)
		if gb >= len(f.cart) {
			return 0, io.EOF
		}
		return copy(f.cart[gb:], p), nil
	}
	return len(p), nil
}

func (f *fakePak) ReadAt(p []byte, off int64) (int, error) {
	switch {
	case off >= regStatus && off < regAccess:
		p[0] = byte(f.status())
		return len(p), nil
	case off >= window:
		if !f.power || !f.access {
			return 0, ErrNoAccess
		}
		gb := int(f.bank)*bankSize + int(off-window)
		if gb >= len(f.cart) {
			return 0, io.EOF
		}
		return copy(p, f.cart[gb:]), nil
	}
	return len(p), nil
}

// makeCart builds a 32 KiB GB image with a valid header.
func makeCart(title string) []byte {
	cart := make([]byte, 2*bankSize)
	copy(cart[headerAddr+offLogo:], gbLogo)
	copy(cart[headerAddr+offTitle:], title)
	cart[headerAddr+offMBC] = byte(MBC1RAMBatt)
	cart[headerAddr+offROMSize] = 0x00 // 32 KiB
	cart[headerAddr+offRAMSize] = 0x03 // 32 KiB
	cart[headerAddr+offVersion] = 0x01

	var csum byte
	for _, v := range cart[headerAddr+offTitle : headerAddr+offHeaderChecksum] {
		csum = csum - v - 1
	}
	cart[headerAddr+offHeaderChecksum] = csum

	return cart
}

func TestProbe(t *testing.T) {
	pak := newFakePak(makeCart("TETRIS"))
	tp := New(pak)

	h, err := tp.Probe()
	if err != nil {
		t.Fatal(err)
	}

	if h.Title != "TETRIS" {
		t.Errorf("expected title TETRIS, got %q", h.Title)
	}
	if h.MBC != MBC1RAMBatt {
		t.Errorf("expected MBC1+RAM+BATT, got %#02x", uint8(h.MBC))
	}
	if h.ROMSize != 32*1024 {
		t.Errorf("expected 32 KiB ROM, got %d", h.ROMSize)
	}
	if h.RAMSize != 32*1024 {
		t.Errorf("expected 32 KiB RAM, got %d", h.RAMSize)
	}
	if h.CGB != CGBUnset || h.SGB {
		t.Error("expected plain GB cart")
	}
}

func TestProbeErrors(t *testing.T) {
	cart := makeCart("TETRIS")

	t.Run("badlogo", func(t *testing.T) {
		bad := bytes.Clone(cart)
		bad[headerAddr+offLogo] ^= 0xff
		_, err := New(newFakePak(bad)).Probe()
		if !errors.Is(err, ErrLogo) {
			t.Errorf("expected ErrLogo, got %v", err)
		}
	})

	t.Run("badchecksum", func(t *testing.T) {
		bad := bytes.Clone(cart)
		bad[headerAddr+offVersion]++
		_, err := New(newFakePak(bad)).Probe()
		if !errors.Is(err, ErrHeaderChecksum) {
			t.Errorf("expected ErrHeaderChecksum, got %v", err)
		}
	})

	t.Run("removed", func(t *testing.T) {
		pak := newFakePak(cart)
		pak.removed = true
		_, err := New(pak).Probe()
		if !errors.Is(err, ErrCartRemoved) {
			t.Errorf("expected ErrCartRemoved, got %v", err)
		}
	})
}

func TestBankSwitching(t *testing.T) {
	cart := makeCart("BANKS")
	for i := range cart {
		cart[i] = byte(i / bankSize) // bank number in every byte
	}
	pak := newFakePak(cart)
	tp := New(pak)
	if err := tp.SetPower(true); err != nil {
		t.Fatal(err)
	}
	if err := tp.SetAccess(true); err != nil {
		t.Fatal(err)
	}

	// read across the bank boundary
	buf := make([]byte, 64)
	if _, err := tp.ReadAt(buf, bankSize-32); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf[:32], bytes.Repeat([]byte{0}, 32)) {
		t.Error("expected bank 0 data in first half")
	}
	if !bytes.Equal(buf[32:], bytes.Repeat([]byte{1}, 32)) {
		t.Error("expected bank 1 data in second half")
	}

	if _, err := tp.ReadAt(buf, 4*bankSize); !errors.Is(err, ErrAddressRange) {
		t.Errorf("expected ErrAddressRange, got %v", err)
	}
}

func TestCGBTitle(t *testing.T) {
	cart := makeCart("POKEMON SILVER")
	cart[headerAddr+offCGB] = 0x80
	// fix checksum after the flag change
	var csum byte
	for _, v := range cart[headerAddr+offTitle : headerAddr+offHeaderChecksum] {
		csum = csum - v - 1
	}
	cart[headerAddr+offHeaderChecksum] = csum

	h, err := New(newFakePak(cart)).Probe()
	if err != nil {
		t.Fatal(err)
	}
	if h.CGB != CGBEnhanced {
		t.Error("expected CGB enhanced flag")
	}
	if h.Title != "POKEMON SILVER" {
		t.Errorf("unexpected title %q", h.Title)
	}
}
