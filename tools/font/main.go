// Copyright 2010 The Freetype-Go Authors. All rights reserved.
// Use of this source code is governed by your choice of either the
// FreeType License or the GNU General Public License version 2 (or
// any later version), both of which can be found in the LICENSE file.

package font

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/nkraut/n64/rcp/texture"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	flags = flag.NewFlagSet("font", flag.ExitOnError)

	dpi      = flags.Float64("dpi", 72, "screen resolution in Dots Per Inch")
	hinting  = flags.String("hinting", "none", "none | full")
	size     = flags.Float64("size", 12, "font size in points")
	spacing  = flags.Float64("spacing", 1.25, "line spacing")
	start    = flags.Uint("start", 0, "Unicode value of first character")
	end      = flags.Uint("end", 0xff, "Unicode value of last character")
	fontfile string
)

const usageString = `TrueType Font to n64 glyphmap converter.

Usage: %s [flags] <ttffile>

`

func usage() {
	fmt.Fprintf(flags.Output(), usageString, "font")
	flags.PrintDefaults()
}

// Glyphmaps are textures of fixed width. Rendering stops when a glyph won't
// fit below dim rows.
const dim = 256

// Pixels inserted between adjacent glyphs, horizontally and vertically.
const padding = 1

func Main(args []string) {
	flags.Usage = usage
	flags.Parse(args[1:])

	switch flags.NArg() {
	case 0:
		break
	case 1:
		fontfile = flags.Arg(0)
	default:
		flags.Usage()
		os.Exit(1)
	}

	// TODO check for overlapping with previously generated subfonts

	face, name := loadFace()
	defer face.Close()

	glyphmap, positions, lineHeight := drawGlyphs(face)

	pkgname := strings.ReplaceAll(name, " ", "")
	pkgname = fmt.Sprintf("%s%.0f", strings.ToLower(pkgname), *size)

	directory := filepath.Join("fonts", pkgname)
	os.MkdirAll(directory, 0775)
	basename := fmt.Sprintf("%04x_%04x", *start, *end)

	mapFile, err := os.Create(filepath.Join(directory, basename+".tex"))
	if err != nil {
		log.Fatalln(err)
	}
	defer mapFile.Close()
	if err := glyphmap.Store(mapFile); err != nil {
		log.Fatalln(err)
	}

	posFile, err := os.Create(filepath.Join(directory, basename+".pos"))
	if err != nil {
		log.Fatalln(err)
	}
	defer posFile.Close()
	if _, err := posFile.Write(positions); err != nil {
		log.Fatalln(err)
	}

	writeSubfontsGo(directory, struct {
		Name, Package  string
		Height, Ascent int
	}{
		Name:    fmt.Sprintf("%s %g", name, *size),
		Package: pkgname,
		Height:  lineHeight,
		Ascent:  face.Metrics().Ascent.Round(),
	})
}

// loadFace opens the font file given on the command line, falling back to
// basicfont if none was given.
func loadFace() (font.Face, string) {
	if fontfile == "" {
		return basicfont.Face7x13, "basicfont"
	}

	fontBytes, err := os.ReadFile(fontfile)
	if err != nil {
		log.Fatalln(err)
	}
	f, err := freetype.ParseFont(fontBytes)
	if err != nil {
		log.Fatalln(err)
	}

	options := &truetype.Options{
		Size: *size,
		DPI:  *dpi,
	}
	switch *hinting {
	default:
		options.Hinting = font.HintingNone
	case "vertical":
		options.Hinting = font.HintingVertical
	case "full":
		options.Hinting = font.HintingFull
	}
	return truetype.NewFace(f, options), f.Name(truetype.NameIDFontFullName)
}

// drawGlyphs renders the characters from *start to *end into a single I4
// texture. Alongside the texture it returns a table with three bytes per
// glyph, i.e. the x and y position in the texture and the glyph's advance.
func drawGlyphs(face font.Face) (*texture.Texture, []byte, int) {
	fontMap := texture.NewI4(image.Rect(0, 0, dim, dim))
	drawer := font.Drawer{Dst: fontMap, Src: image.White, Face: face}

	spacingFixed := fixed.Int26_6(*spacing * (1 << 6))
	lineHeight := face.Metrics().Height.Mul(spacingFixed).Ceil()
	drawer.Dot = fixed.Point26_6{0, fixed.I(lineHeight)}

	var positions []byte
	var missing []byte
	for s := rune(*start); s <= rune(*end); s++ {
		// Characters absent from the font all share a single glyph.
		adv, ok := face.GlyphAdvance(s)
		if !ok && missing != nil {
			positions = append(positions, missing...)
			continue
		}

		// Always start drawing at full pixels.
		drawer.Dot = fixed.P(drawer.Dot.X.Ceil(), drawer.Dot.Y.Ceil())

		nextDot := drawer.Dot.Add(fixed.P(adv.Ceil()+padding, 0))
		if nextDot.X.Ceil() >= dim {
			drawer.Dot.Y += fixed.I(lineHeight + padding)
			drawer.Dot.X = fixed.I(0)
		}
		if nextDot.Y.Ceil() >= dim {
			log.Fatalln("Too many glyphs to fit into font image map")
		}

		positions = append(positions,
			byte(drawer.Dot.X.Round()),
			byte(drawer.Dot.Y.Round()),
			byte(adv.Ceil()),
		)
		if !ok {
			missing = positions[len(positions)-3:]
		}

		drawer.DrawString(string(s))
		drawer.Dot = drawer.Dot.Add(fixed.P(padding, 0))
	}

	lastLine := drawer.Dot.Y.Ceil() + lineHeight
	return fontMap.SubImage(image.Rect(0, 0, dim, lastLine)), positions, lineHeight
}

func writeSubfontsGo(directory string, data any) {
	tmpl, err := template.New("subfontsGoTemplate").Parse(subfontsGoTemplate)
	if err != nil {
		log.Fatalln(err)
	}
	subfontsFile, err := os.Create(filepath.Join(directory, "subfonts.go"))
	if err != nil {
		log.Fatalln(err)
	}
	defer subfontsFile.Close()

	if err := tmpl.Execute(subfontsFile, data); err != nil {
		log.Fatalln(err)
	}
}

const subfontsGoTemplate = `// {{ .Name }}
package {{ .Package }}

import (
	"embed"

	"github.com/embeddedgo/display/font/subfont"
	"github.com/nkraut/n64/drivers/cartfs"
	"github.com/nkraut/n64/fonts"
)

const (
	Height = {{ .Height }}
	Ascent = {{ .Ascent }}
)

//go:embed *.tex *.pos
var _fontData embed.FS
var fontData = cartfs.Embed(_fontData)

func NewFace() *fonts.Face {
	return &fonts.Face{
		subfont.Face{Height: Height,
			Ascent: Ascent,
			Loader: fonts.NewLoader(&fontData, Height, Ascent),
		},
	}
}
`
