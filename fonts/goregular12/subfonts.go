// Go Regular 12
package goregular12

import (
	"embed"

	"github.com/embeddedgo/display/font/subfont"
	"github.com/nkraut/n64/drivers/cartfs"
	"github.com/nkraut/n64/fonts"
)

const (
	Height = 18
	Ascent = 11
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
