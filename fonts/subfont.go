package fonts

import (
	"bytes"
	"image"
	"path"
	"strconv"
	"strings"

	"github.com/nkraut/n64/drivers/cartfs"
	"github.com/nkraut/n64/rcp/texture"
	"github.com/embeddedgo/display/font/subfont"
)

// SubfontData implements [subfont.Data], backed by a glyphmap texture and
// position table as generated by the font tool.
type SubfontData struct {
	fontMap        *texture.Texture
	positions      []byte // 3 bytes per glyph: x, y, advance
	height, ascent int
}

func NewSubfontData(pos, tex []byte, height, ascent int) *SubfontData {
	fontMap, err := texture.Load(bytes.NewReader(tex))
	if err != nil {
		panic(err)
	}
	return &SubfontData{fontMap, pos, height, ascent}
}

func (p *SubfontData) Advance(i int) int {
	return int(p.positions[3*i+2])
}

func (p *SubfontData) glyph(i int) (rect image.Rectangle, origin image.Point, advance int) {
	base := 3 * i
	advance = int(p.positions[base+2])
	origin = image.Point{
		int(p.positions[base]), int(p.positions[base+1]),
	}
	rect = image.Rect(
		origin.X, origin.Y-p.ascent,
		origin.X+advance, origin.Y+p.height-p.ascent,
	)
	return
}

// Glyph implements [subfont.Data].
func (p *SubfontData) Glyph(i int) (img image.Image, origin image.Point, advance int) {
	var rect image.Rectangle
	rect, origin, advance = p.glyph(i)
	img = p.fontMap.SubImage(rect)
	return
}

// GlyphMap implements [Data].
func (p *SubfontData) GlyphMap(i int) (img image.Image, rect image.Rectangle, origin image.Point, advance int) {
	rect, origin, advance = p.glyph(i)
	img = p.fontMap
	return
}

// Loader loads subfonts on demand from a filesystem holding the .pos and .tex
// file pairs generated by the font tool.
type Loader struct {
	FS             *cartfs.FS
	Height, Ascent int
}

func NewLoader(fs *cartfs.FS, height, ascent int) *Loader {
	return &Loader{fs, height, ascent}
}

// Load implements [subfont.Loader].
func (l *Loader) Load(r rune, current []*subfont.Subfont) (containing *subfont.Subfont, updated []*subfont.Subfont) {
	entries, err := l.FS.ReadDir(".")
	if err != nil {
		return nil, current
	}
	for _, entry := range entries {
		ext := path.Ext(entry.Name())
		if ext != ".pos" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		first, last, ok := parseRuneRange(name)
		if !ok || r < first || r > last {
			continue
		}
		containing = l.loadSubfont(name, first, last)
		updated = append(current, containing)
		return
	}
	return nil, current
}

// parseRuneRange parses subfont filenames of the form "0000_00ff".
func parseRuneRange(name string) (first, last rune, ok bool) {
	if len(name) != 9 || name[4] != '_' {
		return
	}
	start, err := strconv.ParseUint(name[:4], 16, 32)
	if err != nil {
		return
	}
	end, err := strconv.ParseUint(name[5:], 16, 32)
	if err != nil {
		return
	}
	return rune(start), rune(end), true
}

func (l *Loader) loadSubfont(name string, first, last rune) *subfont.Subfont {
	sfPos, err := l.FS.ReadFile(name + ".pos")
	if err != nil {
		panic(err)
	}
	sfTex, err := l.FS.ReadFile(name + ".tex")
	if err != nil {
		panic(err)
	}
	return &subfont.Subfont{
		First:  first,
		Last:   last,
		Offset: 0,
		Data:   NewSubfontData(sfPos, sfTex, l.Height, l.Ascent),
	}
}
