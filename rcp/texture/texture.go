// Package texture provides a common datastructure for images used by the rcp,
// e.g. textures and framebuffers.
package texture

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/nkraut/n64/rcp/cpu"
)

const (
	AlignFramebuffer = 64
	AlignTexture     = 8
)

// Texture is an image stored in a format understood by the RDP.  It embeds a
// draw.Image which gives pixel level access to the underlying buffer, e.g. for
// rendering with the image/draw fallback.
type Texture struct {
	draw.Image

	pix     []byte
	stride  int // in pixels
	format  Format
	premult bool
	palette *Texture
}

// Addr returns the physical address of the pixel data.
func (p *Texture) Addr() cpu.Addr { return cpu.PhysicalAddressSlice(p.pix) }

// Stride returns the distance between vertically adjacent pixels in pixels.
func (p *Texture) Stride() int { return p.stride }

func (p *Texture) Format() Format    { return p.format }
func (p *Texture) BPP() BitDepth     { return p.format.BPP() }
func (p *Texture) Premult() bool     { return p.premult }
func (p *Texture) Palette() *Texture { return p.palette }

// Writeback must be called after the pixel data was modified by the CPU and
// before it is used by the RCP.
func (p *Texture) Writeback()  { cpu.WritebackSlice(p.pix) }
func (p *Texture) Invalidate() { cpu.InvalidateSlice(p.pix) }

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

type pixOffseter interface {
	PixOffset(x, y int) int
}

// SubImage returns a texture representing the portion of p visible through r.
// The returned texture shares pixels with the original.
func (p *Texture) SubImage(r image.Rectangle) *Texture {
	r = r.Intersect(p.Bounds())
	sub := *p
	sub.Image = p.Image.(subImager).SubImage(r).(draw.Image)
	if r.Empty() {
		sub.pix = nil
		return &sub
	}
	offset := p.Image.(pixOffseter).PixOffset(r.Min.X, r.Min.Y)
	sub.pix = p.pix[offset:]
	return &sub
}

// colorPalette reads back a palette texture into a color.Palette.
func (p *Texture) colorPalette() color.Palette {
	n := p.Bounds().Dx() * p.Bounds().Dy()
	colors := make(color.Palette, n)
	for i := range colors {
		colors[i] = p.Image.At(i, 0)
	}
	return colors
}
