package tpak

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLogo           = errors.New("gb logo mismatch")
	ErrHeaderChecksum = errors.New("gb header checksum mismatch")
)

const (
	headerAddr = 0x0100
	headerSize = 0x50
)

// Offsets into the raw header, relative to headerAddr.
const (
	offLogo           = 0x04 // 0x0104..0x0133
	offTitle          = 0x34 // 0x0134..0x0143
	offCGB            = 0x43
	offNewLicensee    = 0x44
	offSGB            = 0x46
	offMBC            = 0x47
	offROMSize        = 0x48
	offRAMSize        = 0x49
	offDestination    = 0x4a
	offOldLicensee    = 0x4b
	offVersion        = 0x4c
	offHeaderChecksum = 0x4d
	offGlobalChecksum = 0x4e
)

// Every cartridge carries the same logo bitmap, checked by the GB boot rom.
// A mismatch here means a bad connection rather than a bad cartridge.
var gbLogo = []byte{
	0xce, 0xed, 0x66, 0x66, 0xcc, 0x0d, 0x00, 0x0b, 0x03, 0x73, 0x00, 0x83,
	0x00, 0x0c, 0x00, 0x0d, 0x00, 0x08, 0x11, 0x1f, 0x88, 0x89, 0x00, 0x0e,
	0xdc, 0xcc, 0x6e, 0xe6, 0xdd, 0xdd, 0xd9, 0x99, 0xbb, 0xbb, 0x67, 0x63,
	0x6e, 0x0e, 0xec, 0xcc, 0xdd, 0xdc, 0x99, 0x9f, 0xbb, 0xb9, 0x33, 0x3e,
}

type CGBFlag uint8

const (
	CGBUnset    CGBFlag = iota // regular Game Boy game
	CGBEnhanced                // CGB enhancements, backwards compatible
	CGBOnly
)

type MBCType uint8

const (
	ROM              MBCType = 0x00
	MBC1             MBCType = 0x01
	MBC1RAM          MBCType = 0x02
	MBC1RAMBatt      MBCType = 0x03
	MBC2             MBCType = 0x05
	MBC2Batt         MBCType = 0x06
	ROMRAM           MBCType = 0x08
	ROMRAMBatt       MBCType = 0x09
	MBC3TimerBatt    MBCType = 0x0f
	MBC3TimerRAMBatt MBCType = 0x10
	MBC3             MBCType = 0x11
	MBC3RAM          MBCType = 0x12
	MBC3RAMBatt      MBCType = 0x13
	MBC5             MBCType = 0x19
	MBC5RAM          MBCType = 0x1a
	MBC5RAMBatt      MBCType = 0x1b
	MBC5Rumble       MBCType = 0x1c
	MBC5RumbleRAM    MBCType = 0x1d
	MBC5RumbleBatt   MBCType = 0x1e
)

// CartHeader describes the Game Boy cartridge in the transfer pak, parsed
// from the header block at 0x0100.
type CartHeader struct {
	Title          string
	CGB            CGBFlag
	SGB            bool
	MBC            MBCType
	ROMSize        int // bytes
	RAMSize        int // bytes
	Version        uint8
	GlobalChecksum uint16
}

var ramSizes = map[byte]int{
	0x00: 0,
	0x01: 0,
	0x02: 8 * 1024,
	0x03: 32 * 1024,
	0x04: 128 * 1024,
	0x05: 64 * 1024,
}

func parseHeader(raw [headerSize]byte) (*CartHeader, error) {
	if !bytes.Equal(raw[offLogo:offLogo+len(gbLogo)], gbLogo) {
		return nil, ErrLogo
	}

	// checksum over title through version
	var csum byte
	for _, v := range raw[offTitle:offHeaderChecksum] {
		csum = csum - v - 1
	}
	if csum != raw[offHeaderChecksum] {
		return nil, fmt.Errorf("%w: expected %#02x, got %#02x",
			ErrHeaderChecksum, raw[offHeaderChecksum], csum)
	}

	h := &CartHeader{}

	switch raw[offCGB] {
	case 0x80:
		h.CGB = CGBEnhanced
	case 0xc0:
		h.CGB = CGBOnly
	default:
		h.CGB = CGBUnset
	}

	// CGB games shortened the title to make room for the flag byte
	title := raw[offTitle : offTitle+0x10]
	if h.CGB != CGBUnset {
		title = title[:0xf]
	}
	h.Title = strings.TrimRight(string(title), "\x00")

	h.SGB = raw[offSGB] == 0x03
	h.MBC = MBCType(raw[offMBC])
	h.ROMSize = (32 * 1024) << raw[offROMSize]
	h.RAMSize = ramSizes[raw[offRAMSize]]
	h.Version = raw[offVersion]
	h.GlobalChecksum = binary.BigEndian.Uint16(raw[offGlobalChecksum:])

	return h, nil
}

// VerifyGlobalChecksum sums the whole ROM and compares against the header.
// Real hardware never checks this, a mismatch usually still works.
func (t *TPak) VerifyGlobalChecksum(h *CartHeader) error {
	var sum uint16
	buf := make([]byte, bankSize)

	// Only the lower two banks are reachable without MBC bank switching,
	// but the checksum covers them fully for 32 KiB carts and the header
	// either way.
	for off := int64(0); off < int64(min(h.ROMSize, 2*bankSize)); off += bankSize {
		if _, err := t.ReadAt(buf, off); err != nil {
			return err
		}
		for i, v := range buf {
			if off+int64(i) == headerAddr+offGlobalChecksum ||
				off+int64(i) == headerAddr+offGlobalChecksum+1 {
				continue
			}
			sum += uint16(v)
		}
	}

	if h.ROMSize <= 2*bankSize && sum != h.GlobalChecksum {
		return fmt.Errorf("global checksum mismatch: expected %#04x, got %#04x",
			h.GlobalChecksum, sum)
	}
	return nil
}
