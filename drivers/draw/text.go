package draw

import (
	"image"
	"image/draw"

	"github.com/nkraut/n64/fonts"
	"github.com/nkraut/n64/rcp/texture"
)

// DrawText renders text into dst with the CPU, drawing glyphs with fg over
// bg.  Text wraps at r's right edge and is clipped to r.  Returns the final
// pen position.
func DrawText(dst draw.Image, r image.Rectangle, face *fonts.Face, p image.Point, fg, bg image.Image, text []byte) image.Point {
	pos := p
	clip := r.Intersect(dst.Bounds())

	for _, c := range string(text) {
		if c == '\n' {
			pos.X = r.Min.X
			pos.Y += int(face.Height)
			continue
		}

		img, glyphRect, _, adv := face.GlyphMap(c)
		if img == nil {
			continue
		}
		glyphRectSS := image.Rectangle{Max: glyphRect.Size()}.Add(pos)

		if glyphRectSS.Overlaps(clip) {
			if tex, ok := img.(*texture.Texture); ok {
				img = tex.Image
			}
			cell := glyphRectSS.Intersect(clip)
			mp := glyphRect.Min.Add(cell.Min.Sub(glyphRectSS.Min))
			if bg != nil {
				draw.Draw(dst, cell, bg, image.Point{}, draw.Src)
			}
			draw.DrawMask(dst, cell, fg, image.Point{}, img, mp, draw.Over)
		}

		pos.X += adv
		if pos.X > r.Max.X {
			pos.X = r.Min.X
			pos.Y += int(face.Height)
			if pos.Y > clip.Max.Y {
				break
			}
		}
	}

	return pos
}
