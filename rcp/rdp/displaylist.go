// This file gives access to the low-level RDP commands, which can be used for
// simple 2D graphics.  For 3D graphics the GBI interface of the RSP should be
// used.  Further documentation can be found in the official docs.
package rdp

import (
	"image"
	"image/color"
	"runtime"
	"unsafe"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/rcp/cpu"
	"github.com/nkraut/n64/rcp/texture"
)

// Each RDP command is a 64-bit dword, but needs to be stored as two words to
// get endianess right.
type command struct{ uw, lw uint32 }

// A DisplayList batches RDP commands and submits them to the hardware.  It
// tracks parts of the RDP's state to insert required syncs and drop redundant
// state changes.
//
// A DisplayList must not be used concurrently from multiple goroutines.
type DisplayList struct {
	buf []command

	fbBPP texture.BitDepth

	modes      uint64
	modesValid bool
	combine    CombineMode
	combValid  bool
	fill       color.Color
}

// RDP is the display list rendering is submitted to.
var RDP = DisplayList{buf: make([]command, 0, 1024)}

func (dl *DisplayList) push(cmds ...command) {
	if len(dl.buf)+len(cmds)+1 > cap(dl.buf) {
		dl.Flush()
	}
	dl.buf = append(dl.buf, cmds...)
}

// Flush submits all batched commands to the RDP and blocks until they have
// finished.
func (dl *DisplayList) Flush() {
	if len(dl.buf) == 0 {
		return
	}
	// push() always leaves room for the trailing sync.
	dl.buf = append(dl.buf, command{uint32(syncFull), 0})

	cmds := dl.buf
	start := uintptr(unsafe.Pointer(&cmds[0]))
	length := int(unsafe.Sizeof(cmds[0])) * len(cmds)
	cpu.Writeback(start, length)

	for regs.status.LoadBits(startPending|endPending) != 0 {
		runtime.Gosched()
	}

	regs.status.Store(clrFlush | clrFreeze | clrXbus)

	FullSync.Clear()
	regs.start.Store(cpu.PhysicalAddress(start))
	regs.end.Store(cpu.PhysicalAddress(start + uintptr(length)))
	FullSync.Sleep(-1)

	dl.buf = dl.buf[:0]
}

// format and size bits as used by SetColorImage, SetTextureImage and SetTile
func formatBits(f texture.Format, b texture.BitDepth) uint64 {
	var ff uint64
	switch f {
	case texture.RGBA32, texture.RGBA16:
		ff = 0
	case texture.CI8:
		ff = 2
	case texture.I8, texture.I4:
		ff = 4
	}
	return ff<<53 | uint64(b)<<51
}

// SetColorImage sets the framebuffer to render the final image into.
func (dl *DisplayList) SetColorImage(tex *texture.Texture) {
	width := uint32(tex.Stride())
	debug.Assert(width <= 1<<10, "rdp color image too wide")
	dl.push(command{
		uw: uint32((uint64(0xff)<<56|formatBits(tex.Format(), tex.BPP()))>>32) | (width - 1),
		lw: uint32(tex.Addr()),
	})
	dl.fbBPP = tex.BPP()
}

// SetTextureImage sets the image where LoadTile will copy its data from.
func (dl *DisplayList) SetTextureImage(tex *texture.Texture) {
	width := uint32(tex.Stride())
	debug.Assert(width <= 1<<10, "rdp texture image too wide")
	dl.push(command{
		uw: uint32((uint64(0xfd)<<56|formatBits(tex.Format(), tex.BPP()))>>32) | (width - 1),
		lw: uint32(tex.Addr()),
	})
}

type TileDescFlags uint32

const (
	MirrorS TileDescFlags = 1 << 8
	ClampS  TileDescFlags = 1 << 9
	MirrorT TileDescFlags = 1 << 18
	ClampT  TileDescFlags = 1 << 19
)

type TileDescriptor struct {
	Format         texture.Format
	Size           texture.BitDepth
	Line           uint16 // 9 bit, in 8 byte units
	Addr           uint16 // 9 bit, TMEM address in 8 byte units
	Idx            uint8  // 3 bit
	Palette        uint8  // 4 bit
	MaskT, MaskS   uint8  // 4 bit
	ShiftT, ShiftS uint8  // 4 bit
	Flags          TileDescFlags
}

// SetTile sets a tile's properties.  There are a total of eight tiles,
// identified by the Idx field, which can later be referenced in other
// commands, e.g. LoadTile().
func (dl *DisplayList) SetTile(ts TileDescriptor) {
	dl.sync(syncTile)

	uw := uint32(0xf5)<<24 | uint32(formatBits(ts.Format, ts.Size)>>32)
	uw |= uint32(ts.Line&0x1ff)<<9 | uint32(ts.Addr&0x1ff)

	lw := uint32(ts.Idx)<<24 | uint32(ts.Palette)<<20
	lw |= uint32(ts.MaskT)<<14 | uint32(ts.ShiftT)<<10
	lw |= uint32(ts.MaskS)<<4 | uint32(ts.ShiftS)
	lw |= uint32(ts.Flags)

	dl.push(command{uw, lw})
}

// LoadTile copies a tile into TMEM.  The tile is copied from the texture
// image, which must be set prior via SetTextureImage().
func (dl *DisplayList) LoadTile(idx uint8, r image.Rectangle) {
	dl.sync(syncLoad)
	dl.push(command{
		uw: uint32(0xf4)<<24 | uint32(r.Min.X)<<14 | uint32(r.Min.Y)<<2,
		lw: uint32(idx)<<24 | uint32(r.Max.X)<<14 | uint32(r.Max.Y)<<2,
	})
}

// Mode flags for the SetOtherModes() command.
type ModeFlags uint64

const (
	AlphaCompare ModeFlags = 1 << iota
	DitherAlpha
	ZSource
	AntiAlias
	ZCompare
	ZUpdate
	ImageRead
	ColorOnCoverage
	CvgTimesAlpha ModeFlags = 1 << (iota + 4)
	AlphaCvgSelect
	ForceBlend
	ChromaKeying ModeFlags = 1 << (iota + 29)
	ConvertOne
	BiLerp1
	BiLerp0
	MidTexel
	SampleType
	TLUTType
	TLUT
	TextureLOD
	TextureSharpen
	TextureDetail
	TexturePerspective
	AtomicPrimitive = 1 << 55
)

type CycleType uint64

const (
	CycleTypeOne CycleType = iota << 52
	CycleTypeTwo
	CycleTypeCopy
	CycleTypeFill
)

type RGBDither uint64

const (
	RGBDitherMagicSquare RGBDither = iota << 38
	RGBDitherBayer
	RGBDitherNoise
	RGBDitherNone
)

type AlphaDither uint64

const (
	AlphaDitherPattern AlphaDither = iota << 36
	AlphaDitherInvPattern
	AlphaDitherNoise
	AlphaDitherNone
)

type Zmode uint64

const (
	ZmodeOpaque Zmode = iota << 10
	ZmodeInterpenetrating
	ZmodeTransparent
	ZmodeDecal
)

type CvgDest uint64

const (
	CvgDestClamp CvgDest = iota << 8
	CvgDestWrap
	CvgDestZap
	CvgDestSave
)

// Blender inputs.  P and M choose the colors to blend, A and B their
// weighting.
type BlenderPM uint64
type BlenderA uint64
type BlenderB uint64

const (
	BlenderPMColorCombiner BlenderPM = iota
	BlenderPMFramebuffer
	BlenderPMBlendColor
	BlenderPMFogColor
)

const (
	BlenderAColorCombinerAlpha BlenderA = iota
	BlenderAFogAlpha
	BlenderAShadeAlpha
	BlenderAZero
)

const (
	BlenderBOneMinusA BlenderB = iota
	BlenderBFramebufferCvg
	BlenderBOne
	BlenderBZero
)

// BlendMode computes `(P*A + M*B)` for each pixel written to the framebuffer.
// The second cycle is only used if CycleTypeTwo is active.
type BlendMode struct {
	P1, M1 BlenderPM
	A1     BlenderA
	B1     BlenderB

	P2, M2 BlenderPM
	A2     BlenderA
	B2     BlenderB
}

func (b BlendMode) modeWord() uint64 {
	return uint64(b.P1)<<30 | uint64(b.P2)<<28 |
		uint64(b.A1)<<26 | uint64(b.A2)<<24 |
		uint64(b.M1)<<22 | uint64(b.M2)<<20 |
		uint64(b.B1)<<18 | uint64(b.B2)<<16
}

func (dl *DisplayList) SetOtherModes(
	flags ModeFlags, cyc CycleType, rgb RGBDither, alpha AlphaDither,
	z Zmode, cvg CvgDest, blend BlendMode,
) {
	m := uint64(flags) | uint64(cyc) | uint64(rgb) | uint64(alpha)
	m |= uint64(z) | uint64(cvg) | blend.modeWord()

	if dl.modesValid && m == dl.modes {
		return // avoid costly pipeline sync
	}
	dl.modes, dl.modesValid = m, true

	dl.sync(syncPipe)

	cmd := 0xef00_000f_0000_0000 | m
	dl.push(command{uint32(cmd >> 32), uint32(cmd)})
}

// SetCombineMode configures the color combiner for the next primitives.
func (dl *DisplayList) SetCombineMode(cm CombineMode) {
	if dl.combValid && cm == dl.combine {
		return // avoid costly pipeline sync
	}
	dl.combine, dl.combValid = cm, true

	dl.sync(syncPipe)

	one, two := cm.One, cm.Two
	cmd := uint64(0xfc) << 56
	cmd |= uint64(one.RGB.A&15)<<52 | uint64(one.RGB.C&31)<<47
	cmd |= uint64(one.Alpha.A&7)<<44 | uint64(one.Alpha.C&7)<<41
	cmd |= uint64(two.RGB.A&15)<<37 | uint64(two.RGB.C&31)<<32
	cmd |= uint64(one.RGB.B&15)<<28 | uint64(two.RGB.B&15)<<24
	cmd |= uint64(two.Alpha.A&7)<<21 | uint64(two.Alpha.C&7)<<18
	cmd |= uint64(one.RGB.D&7)<<15 | uint64(one.Alpha.B&7)<<12 | uint64(one.Alpha.D&7)<<9
	cmd |= uint64(two.RGB.D&7)<<6 | uint64(two.Alpha.B&7)<<3 | uint64(two.Alpha.D&7)
	dl.push(command{uint32(cmd >> 32), uint32(cmd)})
}

type InterlaceFrame uint8

const (
	InterlaceNone InterlaceFrame = 0 // draw all lines
	InterlaceOdd  InterlaceFrame = 2 // skip odd lines
	InterlaceEven InterlaceFrame = 3 // skip even lines
)

// SetScissor skips rendering of everything outside r.  Additionally odd or
// even lines can be skipped to render interlaced frames.
func (dl *DisplayList) SetScissor(r image.Rectangle, i InterlaceFrame) {
	cmd := uint64(0xed) << 56
	cmd |= uint64(r.Min.X)<<46 | uint64(r.Min.Y)<<34
	cmd |= uint64(r.Max.X)<<14 | uint64(r.Max.Y)<<2
	cmd |= uint64(i) << 24
	dl.push(command{uint32(cmd >> 32), uint32(cmd)})
}

// SetFillColor sets the color for the next FillRectangle() call.
func (dl *DisplayList) SetFillColor(c color.Color) {
	if c == dl.fill {
		return // avoid costly pipeline sync
	}
	dl.fill = c

	dl.sync(syncPipe)

	r, g, b, a := c.RGBA()
	var ci uint32
	if dl.fbBPP == texture.BPP32 {
		ci = (r>>8)<<24 | (g>>8)<<16 | (b>>8)<<8 | a>>8
	} else {
		ci = (r>>11)<<11 | (g>>11)<<6 | (b>>11)<<1 | a>>15
		ci |= ci << 16
	}
	dl.push(command{0xf700_0000, ci})
}

func rgba8888(c color.Color) uint32 {
	r, g, b, a := c.RGBA()
	return (r>>8)<<24 | (g>>8)<<16 | (b>>8)<<8 | a>>8
}

// SetPrimitiveColor sets the color combiner's primitive color input.
func (dl *DisplayList) SetPrimitiveColor(c color.Color) {
	dl.push(command{0xfa00_0000, rgba8888(c)})
}

// SetEnvironmentColor sets the color combiner's environment color input.
func (dl *DisplayList) SetEnvironmentColor(c color.Color) {
	dl.sync(syncPipe)
	dl.push(command{0xfb00_0000, rgba8888(c)})
}

// FillRectangle draws a rectangle filled with the color set by
// SetFillColor().
func (dl *DisplayList) FillRectangle(r image.Rectangle) {
	cmd := uint64(0xf6) << 56
	cmd |= uint64(r.Max.X)<<46 | uint64(r.Max.Y)<<34
	cmd |= uint64(r.Min.X)<<14 | uint64(r.Min.Y)<<2
	dl.push(command{uint32(cmd >> 32), uint32(cmd)})
}

// TextureRectangle draws a textured rectangle, mapping the tile's texels
// starting at src into r.  A scale greater than one magnifies the texture.
func (dl *DisplayList) TextureRectangle(r image.Rectangle, src image.Point, scale image.Point, idx uint8) {
	dsdx := (1 << 10) / scale.X // 5.10 fixed point
	dtdy := (1 << 10) / scale.Y
	dl.push(
		command{
			uw: uint32(0xe4)<<24 | uint32(r.Max.X)<<14 | uint32(r.Max.Y)<<2,
			lw: uint32(idx)<<24 | uint32(r.Min.X)<<14 | uint32(r.Min.Y)<<2,
		},
		command{
			uw: uint32(src.X)<<21 | uint32(src.Y)<<5, // 10.5 fixed point
			lw: uint32(dsdx)<<16 | uint32(dtdy),
		},
	)
}

// MaxTileSize returns the largest tile that fits TMEM at a given bit depth.
func MaxTileSize(bpp texture.BitDepth) image.Rectangle {
	if bpp == texture.BPP32 {
		// RGBA32 is split across both TMEM banks.
		return image.Rect(0, 0, 32, 16)
	}
	return image.Rect(0, 0, 32, 32)
}

type syncCommand uint32

const (
	// Waits until all previous commands have finished reading and writing
	// to RDRAM.  Additionally raises the RDP interrupt.  Use to sync
	// memory access between RDP and other components, e.g. switching
	// framebuffers or render to texture.
	syncFull syncCommand = 0xe900_0000
	syncLoad syncCommand = 0xf100_0000
	syncPipe syncCommand = 0xe700_0000

	// Writing to a tile waits until an immediately previous command
	// finished reading from the tile.
	syncTile syncCommand = 0xe800_0000
)

func (dl *DisplayList) sync(s syncCommand) {
	dl.push(command{uint32(s), 0})
}
