package joybus

import (
	"testing"
	"time"
)

func TestBCD(t *testing.T) {
	tests := map[string]struct {
		dec int
		bcd byte
	}{
		"zero":  {0, 0x00},
		"nine":  {9, 0x09},
		"ten":   {10, 0x10},
		"fifty": {59, 0x59},
		"max":   {99, 0x99},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := toBCD(tc.dec); got != tc.bcd {
				t.Errorf("toBCD(%d): expected %#02x, got %#02x", tc.dec, tc.bcd, got)
			}
			if got := fromBCD(tc.bcd); got != tc.dec {
				t.Errorf("fromBCD(%#02x): expected %d, got %d", tc.bcd, tc.dec, got)
			}
		})
	}
}

func TestRTCTimeRoundtrip(t *testing.T) {
	tests := map[string]time.Time{
		"launch":    time.Date(1996, time.June, 23, 12, 30, 45, 0, time.UTC),
		"y2k":       time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
		"today":     time.Date(2026, time.August, 29, 23, 59, 59, 0, time.UTC),
		"nonUTC":    time.Date(2003, time.December, 24, 18, 0, 0, 0, time.FixedZone("CET", 3600)),
		"centenary": time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC),
	}

	for name, expected := range tests {
		t.Run(name, func(t *testing.T) {
			got := DecodeRTCTime(EncodeRTCTime(expected))
			if !got.Equal(expected) {
				t.Errorf("expected %v, got %v", expected, got)
			}
		})
	}
}

func TestRTCTimeEncoding(t *testing.T) {
	block := EncodeRTCTime(time.Date(2026, time.August, 29, 13, 5, 42, 0, time.UTC))
	expected := [8]byte{0x42, 0x05, 0x13 | 0x80, 0x29, 0x06, 0x08, 0x26, 0x01}
	if block != expected {
		t.Errorf("expected % 02x, got % 02x", expected, block)
	}
}
