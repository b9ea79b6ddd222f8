// Package console implements a scrollable on-screen text console, mainly
// useful for viewing logs without a debug cart at hand.
package console

import (
	"bytes"
	"image"

	"github.com/nkraut/n64/drivers/controller"
	"github.com/nkraut/n64/drivers/draw"
	"github.com/nkraut/n64/fonts/basicfont12"
	"github.com/nkraut/n64/rcp/rdp"
	"github.com/nkraut/n64/rcp/serial/joybus"
	"github.com/nkraut/n64/rcp/video"
)

type Console struct {
	buf    bytes.Buffer
	scroll image.Point
}

var font = basicfont12.NewFace()

func NewConsole() *Console { return &Console{} }

// Write appends p to the console buffer and redraws immediately.
func (v *Console) Write(p []byte) (n int, err error) {
	n, err = v.buf.Write(p)
	v.Draw()
	rdp.RDP.Flush()
	return
}

// Update scrolls the console view based on C button presses.
func (v *Console) Update(input controller.Controller) {
	pressed := input.Pressed()
	switch {
	case pressed&joybus.ButtonCUp != 0:
		v.scroll.Y += 1
	case pressed&joybus.ButtonCDown != 0:
		v.scroll.Y -= 1
	case pressed&joybus.ButtonCLeft != 0:
		v.scroll.X += int(font.Advance(0))
	case pressed&joybus.ButtonCRight != 0:
		v.scroll.X -= int(font.Advance(0))
	}
}

// Draw renders the visible part of the buffer into the framebuffer.
//
// FIXME sync via mutex with Write?
func (v *Console) Draw() {
	fb := video.Framebuffer()
	if fb == nil {
		return
	}
	bounds := fb.Bounds()

	// Walk the buffer backwards line by line until the visible lines,
	// offset by the vertical scroll position, fill the screen.
	height := 0
	b := v.buf.Bytes()
	bb := b
	lines := b[:0]
	maxLines := bounds.Dy() / int(font.Height)
	lineCnt := 0
	skipped := 0
	for height < bounds.Dy() {
		lineCnt++

		idx := bytes.LastIndexByte(bb, '\n')
		if idx == -1 {
			lines = b
			break
		}
		bb, lines = b[:idx], b[idx:]

		if skipped < v.scroll.Y {
			skipped++
		} else {
			height += int(font.Height)
		}
	}

	v.scroll.Y = min(max(0, skipped), lineCnt-maxLines)

	bounds.Min = bounds.Min.Add(v.scroll)
	draw.SrcSW.Draw(fb, fb.Bounds(), image.Black, image.Point{})
	draw.DrawText(fb, bounds, font, image.Point{X: v.scroll.X}, image.White, image.Black, lines)
	fb.Writeback()
}
