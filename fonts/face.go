package fonts

import (
	"image"

	"github.com/embeddedgo/display/font/subfont"
)

// Data is an optimization over the subfont.Data interface.  GlyphMap returns
// an image containing all glyphs of a Subfont and a rect describing the
// subimage that represents the glyph.  All images returned by GlyphMap are
// guaranteed to have the same format/type, which avoids frequent changes to
// the RDP's texture image.
type Data interface {
	GlyphMap(i int) (img image.Image, rect image.Rectangle, origin image.Point, advance int)
}

type Face struct {
	subfont.Face
}

// GlyphMap returns the glyph for r, located inside its subfont's glyphmap.
func (f *Face) GlyphMap(r rune) (img image.Image, rect image.Rectangle, origin image.Point, advance int) {
	sf := getSubfont(f, r)
	if sf == nil {
		sf = getSubfont(f, 0) // try to use rune(0) to render unsupported codepoints
		if sf == nil {
			return
		}
	}
	if data, ok := sf.Data.(Data); ok {
		return data.GlyphMap(int(r - sf.First))
	}
	img, origin, advance = sf.Data.Glyph(int(r - sf.First))
	rect = img.Bounds()
	return
}

// Advance returns the horizontal pen advance of r's glyph.
func (f *Face) Advance(r rune) int {
	_, _, _, advance := f.GlyphMap(r)
	return advance
}

func getSubfont(f *Face, r rune) (sf *subfont.Subfont) {
	// TODO: binary search
	for _, sf = range f.Subfonts {
		if sf != nil && sf.First <= r && r <= sf.Last {
			return sf
		}
	}
	if f.Loader == nil {
		return nil
	}
	sf, f.Subfonts = f.Loader.Load(r, f.Subfonts)
	return sf
}
