// Video DAC which reads an image from RDRAM and outputs it to screen as
// either NTSC, PAL or M-PAL.
package video

import (
	"embedded/mmio"
	"image"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/machine"
	"github.com/nkraut/n64/rcp/cpu"
	"github.com/nkraut/n64/rcp/texture"
)

var regs = cpu.MMIO[registers](0x0440_0000)

type controlFlags uint32

const (
	controlGammaDither controlFlags = 1 << 2
	controlGamma       controlFlags = 1 << 3
	controlDivot       controlFlags = 1 << 4
	controlSerrate     controlFlags = 1 << 6

	// antialias mode, bits 8 and 9
	controlAANone     controlFlags = 3 << 8 // resample only
	controlAAResample controlFlags = 2 << 8
	controlAAFetch    controlFlags = 1 << 8 // fetch extra lines as needed
	controlAAAlways   controlFlags = 0 << 8
)

type registers struct {
	control   mmio.R32[controlFlags]
	origin    mmio.R32[cpu.Addr]
	width     mmio.U32
	vIntr     mmio.U32
	vCurrent  mmio.U32
	burst     mmio.U32
	vSync     mmio.U32
	hSync     mmio.U32
	hSyncLeap mmio.U32
	hVideo    mmio.U32
	vVideo    mmio.U32
	vBurst    mmio.U32
	xScale    mmio.U32
	yScale    mmio.U32
}

type ColorDepth uint32

const (
	BPP16 ColorDepth = 2
	BPP32 ColorDepth = 3
)

// VSync causes Display.Swap to block until the next vertical blank.
var VSync bool = true

var (
	interlace bool
	control   controlFlags
)

// Setup configures the video interface for the video standard detected at
// boot.  Output stays disabled until a framebuffer is set.
func Setup(interlaced bool) {
	// Avoid crash by disabling output while changing registers
	regs.control.Store(0)

	lines := uint32(0x20d)
	switch machine.Video {
	case machine.VideoPAL:
		regs.burst.Store(0x0404_233a)
		regs.hSync.Store(0x0015_0c69)
		regs.hSyncLeap.Store(0x0c6f_0c6e)
		regs.hVideo.Store(0x0080_0300)
		regs.vVideo.Store(0x005f_0239)
		regs.vBurst.Store(0x0009_026b)
		lines = 0x271
	case machine.VideoMPAL:
		regs.burst.Store(0x0404_1e3a)
		regs.hSync.Store(0x0004_0c11)
		regs.hSyncLeap.Store(0x0c19_0c1a)
		regs.hVideo.Store(0x006c_02ec)
		regs.vVideo.Store(0x0025_01ff)
		regs.vBurst.Store(0x000e_0204)
		lines = 0x20d
	default: // NTSC
		regs.burst.Store(0x03e5_2239)
		regs.hSync.Store(0x0000_0c15)
		regs.hSyncLeap.Store(0x0c15_0c15)
		regs.hVideo.Store(0x006c_02ec)
		regs.vVideo.Store(0x0025_01ff)
		regs.vBurst.Store(0x000e_0204)
	}

	interlace = interlaced
	control = controlAANone | controlDivot
	if interlaced {
		// Interlaced timing needs an even number of halflines.
		lines -= 1
		control |= controlSerrate
	}
	regs.vSync.Store(lines)
	regs.vIntr.Store(2)

	SetScale(nativeRect())
}

// NativeResolution returns the framebuffer resolution that maps 1:1 to the
// video output configured by Setup.
func NativeResolution() image.Point {
	res := image.Point{X: 320, Y: 240}
	if machine.Video == machine.VideoPAL {
		res = image.Point{X: 320, Y: 288}
	}
	if interlace {
		res = res.Mul(2)
	}
	return res
}

// nativeRect returns the video output area in screen coordinates.
func nativeRect() image.Rectangle {
	hVideo, vVideo := regs.hVideo.Load(), regs.vVideo.Load()
	return image.Rect(
		int(hVideo>>16), int(vVideo>>16),
		int(hVideo&0xffff), int(vVideo&0xffff),
	)
}

// SetFramebuffer sets the image displayed on screen, beginning with the next
// vertical blank.
func SetFramebuffer(fb *texture.Texture) {
	bpp := fb.BPP()
	debug.Assert(bpp == texture.BPP16 || bpp == texture.BPP32,
		"video: unsupported framebuffer format")

	enable := framebuffer.Get() == nil
	framebuffer.Store(fb)

	regs.width.Store(uint32(fb.Stride()))
	if enable {
		// Handler takes over origin updates once output is enabled.
		regs.origin.Store(fb.Addr())
		regs.control.Store(control | controlFlags(colorDepth(bpp)))
	}
}

// Framebuffer returns the currently displayed framebuffer.
func Framebuffer() *texture.Texture {
	return framebuffer.Get()
}

// SetScale sets the area in screen coordinates the framebuffer is scaled to.
func SetScale(r image.Rectangle) {
	scale.Store(r)
}

func colorDepth(bpp texture.BitDepth) ColorDepth {
	if bpp == texture.BPP32 {
		return BPP32
	}
	return BPP16
}
