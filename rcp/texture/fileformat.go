package texture

import (
	"compress/zlib"
	"encoding/binary"
	"errors"
	"image"
	"io"
)

// Textures are stored zlib compressed, a fixed size header followed by the
// raw pixel data and, for color indexed formats, the palette.
type header struct {
	Format        Format
	Premult       bool
	Width, Height uint16
	PaletteSize   uint8
}

var errUnsupportedFormat = errors.New("unsupported format")

// Load reads a texture in the format written by [Texture.Store].
func Load(r io.Reader) (tex *Texture, err error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var hdr header
	if err := binary.Read(zr, binary.BigEndian, &hdr); err != nil {
		return nil, err
	}

	tex, err = hdr.newTexture()
	if err != nil {
		return nil, err
	}

	_, err = io.ReadFull(zr, tex.pix)
	if err != nil && err != io.EOF {
		return nil, err
	}
	tex.Writeback()

	if tex.palette != nil {
		_, err = io.ReadFull(zr, tex.palette.pix)
		if err != nil && err != io.EOF {
			return nil, err
		}
		tex.palette.Writeback()

		// The indexed image was created before the palette was read.
		if img, ok := tex.Image.(*image.Paletted); ok {
			img.Palette = tex.palette.colorPalette()
		}
	}

	return tex, nil
}

func (hdr *header) newTexture() (*Texture, error) {
	rect := image.Rect(0, 0, int(hdr.Width), int(hdr.Height))
	switch hdr.Format {
	case RGBA32:
		if hdr.Premult {
			return NewRGBA32(rect), nil
		}
		return NewNRGBA32(rect), nil
	case RGBA16:
		return NewRGBA16(rect), nil
	// case fmtYUV16:
	// case fmtIA16:
	// case fmtIA8:
	// case fmtIA4:
	case I8:
		return NewI8(rect), nil
	case I4:
		return NewI4(rect), nil
	case CI8:
		n := int(hdr.PaletteSize)
		if n == 0 {
			n = 256
		}
		return NewCI8(rect, NewColorPalette(n)), nil
		// case fmtCI4:
	}
	return nil, errUnsupportedFormat
}

// Store writes the texture in the format read by [Load].
func (p *Texture) Store(w io.Writer) error {
	if p.stride != p.Bounds().Dx() {
		return errors.New("is subimage")
	}

	var hdr = header{
		Format:  p.Format(),
		Premult: p.Premult(),
		Width:   uint16(p.Bounds().Dx()),
		Height:  uint16(p.Bounds().Dy()),
	}

	if p.palette != nil {
		// 256 wraps to zero, which never clashes with an actual size
		// because empty palettes aren't stored.
		hdr.PaletteSize = uint8(p.palette.Bounds().Dx() * p.palette.Bounds().Dy())
	}

	zw := zlib.NewWriter(w)
	defer zw.Close()
	if err := binary.Write(zw, binary.BigEndian, hdr); err != nil {
		return err
	}

	if _, err := zw.Write(p.pix); err != nil {
		return err
	}

	if p.palette != nil {
		if _, err := zw.Write(p.palette.pix); err != nil {
			return err
		}
	}

	return nil
}
