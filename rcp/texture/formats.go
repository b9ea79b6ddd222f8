package texture

// TODO ensure alignment in New*FromImage() and SubImage()

import (
	"errors"
	"image"
	"image/color"

	"github.com/nkraut/n64/rcp/cpu"
)

// Format describes the pixel encoding of a texture, i.e. color components and
// bit depth.
type Format uint8

const (
	RGBA32 Format = iota
	RGBA16
	I8
	I4
	CI8
)

func (f Format) BPP() BitDepth {
	switch f {
	case RGBA32:
		return BPP32
	case RGBA16:
		return BPP16
	case I8, CI8:
		return BPP8
	case I4:
		return BPP4
	}
	return BPP8
}

type BitDepth uint8

const (
	BPP4 BitDepth = iota
	BPP8
	BPP16
	BPP32
)

// For a number of pixels returns their size in bytes.
func PixelsToBytes(pixels int, bpp BitDepth) int {
	shift := int(bpp) - 1
	if shift < 0 {
		return pixels >> 1
	}
	return pixels << shift
}

// Bytes returns the size of a number of pixels in bytes.
func (b BitDepth) Bytes(pixels int) int { return PixelsToBytes(pixels, b) }

// NewRGBA32 returns a texture storing pixels in 32bit RGBA (8:8:8:8) with
// premultiplied alpha.
func NewRGBA32(r image.Rectangle) *Texture {
	pix := cpu.MakePaddedSliceAligned[byte](r.Dx()*r.Dy()*4, AlignFramebuffer)
	return &Texture{
		Image:   &image.RGBA{Pix: pix, Stride: 4 * r.Dx(), Rect: r},
		pix:     pix,
		stride:  r.Dx(),
		format:  RGBA32,
		premult: true,
	}
}

func NewRGBA32FromImage(img *image.RGBA) *Texture {
	tex := &Texture{
		Image:   img,
		pix:     img.Pix,
		stride:  img.Stride >> 2,
		format:  RGBA32,
		premult: true,
	}
	tex.Writeback()
	return tex
}

// NewNRGBA32 is the same as NewRGBA32, but without premultiplied alpha.
func NewNRGBA32(r image.Rectangle) *Texture {
	pix := cpu.MakePaddedSliceAligned[byte](r.Dx()*r.Dy()*4, AlignFramebuffer)
	return &Texture{
		Image:  &image.NRGBA{Pix: pix, Stride: 4 * r.Dx(), Rect: r},
		pix:    pix,
		stride: r.Dx(),
		format: RGBA32,
	}
}

func NewNRGBA32FromImage(img *image.NRGBA) *Texture {
	tex := &Texture{
		Image:  img,
		pix:    img.Pix,
		stride: img.Stride >> 2,
		format: RGBA32,
	}
	tex.Writeback()
	return tex
}

// NewRGBA16 returns a texture storing pixels in 16bit RGBA (5:5:5:1).
func NewRGBA16(r image.Rectangle) *Texture {
	pix := cpu.MakePaddedSliceAligned[byte](r.Dx()*r.Dy()*2, AlignFramebuffer)
	return &Texture{
		Image:   &imageRGBA16{Pix: pix, Stride: 2 * r.Dx(), Rect: r},
		pix:     pix,
		stride:  r.Dx(),
		format:  RGBA16,
		premult: true,
	}
}

// NewFramebuffer returns a texture suitable as a color image for the VI and
// the RDP.
func NewFramebuffer(r image.Rectangle) *Texture {
	return NewRGBA16(r)
}

// NewI8 returns a texture storing intensity with 8bit.
func NewI8(r image.Rectangle) *Texture {
	pix := cpu.MakePaddedSliceAligned[byte](r.Dx()*r.Dy(), AlignTexture)
	return &Texture{
		Image:  &image.Alpha{Pix: pix, Stride: r.Dx(), Rect: r},
		pix:    pix,
		stride: r.Dx(),
		format: I8,
	}
}

func NewI8FromImage(img *image.Alpha) *Texture {
	tex := &Texture{
		Image:  img,
		pix:    img.Pix,
		stride: img.Stride,
		format: I8,
	}
	tex.Writeback()
	return tex
}

// NewI4 returns a texture storing intensity with 4bit.  The width of r must be
// even.
func NewI4(r image.Rectangle) *Texture {
	pix := cpu.MakePaddedSliceAligned[byte](r.Dx()*r.Dy()/2, AlignTexture)
	return &Texture{
		Image:  &imageI4{Pix: pix, Stride: r.Dx() / 2, Rect: r},
		pix:    pix,
		stride: r.Dx(),
		format: I4,
	}
}

// NewCI8 returns a texture storing 8bit indices into a color palette.
func NewCI8(r image.Rectangle, palette *Texture) *Texture {
	pix := cpu.MakePaddedSliceAligned[byte](r.Dx()*r.Dy(), AlignTexture)
	return &Texture{
		Image: &image.Paletted{
			Pix: pix, Stride: r.Dx(), Rect: r,
			Palette: palette.colorPalette(),
		},
		pix:     pix,
		stride:  r.Dx(),
		format:  CI8,
		palette: palette,
	}
}

// NewColorPalette returns an empty color palette with n entries, stored as a
// 16bit RGBA texture.
func NewColorPalette(n int) *Texture {
	r := image.Rect(0, 0, n, 1)
	pix := cpu.MakePaddedSliceAligned[byte](2*n, AlignTexture)
	return &Texture{
		Image:   &imageRGBA16{Pix: pix, Stride: 2 * n, Rect: r},
		pix:     pix,
		stride:  n,
		format:  RGBA16,
		premult: true,
	}
}

// CopyColorPalette returns a color palette with the colors from p.
func CopyColorPalette(p color.Palette) (*Texture, error) {
	if len(p) > 256 {
		return nil, errors.New("palette too large")
	}
	cp := NewColorPalette(len(p))
	for i, c := range p {
		cp.Image.Set(i, 0, c)
	}
	cp.Writeback()
	return cp, nil
}
