package draw_test

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	n64draw "github.com/nkraut/n64/drivers/draw"
	"github.com/nkraut/n64/fonts/gomono12"
	"github.com/nkraut/n64/rcp/texture"
)

var lorem = []byte(`Lorem ipsum dolor sit amet, consectetur adipisici elit, sed
eiusmod tempor incidunt ut labore et dolore magna aliqua. Ut enim ad
minim veniam, quis nostrud exercitation ullamco laboris nisi ut aliquid
ex ea commodi consequat. Quis aute iure reprehenderit in voluptate velit
esse cillum dolore eu fugiat nulla pariatur. Excepteur sint obcaecat
cupiditat non proident, sunt in culpa qui officia deserunt mollit anim
id est laborum.`)

func BenchmarkFillScreen(b *testing.B) {
	fb := texture.NewRGBA32(image.Rect(0, 0, 320, 240))
	rasterizer := n64draw.NewRdp()
	rasterizer.SetFramebuffer(fb)

	for b.Loop() {
		rasterizer.Draw(fb.Bounds(), image.Black, image.Point{}, nil, image.Point{}, draw.Src)
		rasterizer.Flush()
	}
}

func BenchmarkTextureRectangle(b *testing.B) {
	fb := texture.NewRGBA32(image.Rect(0, 0, 320, 240))
	rasterizer := n64draw.NewRdp()
	rasterizer.SetFramebuffer(fb)

	imgPlasma, _ := png.Decode(bytes.NewReader(pngPlasma))
	imgLarge := texture.NewNRGBA32(imgPlasma.Bounds())
	draw.Src.Draw(imgLarge.Image, imgLarge.Bounds(), imgPlasma, image.Point{})
	imgLarge.Writeback()

	for b.Loop() {
		rasterizer.Draw(fb.Bounds(), imgLarge, image.Point{}, nil, image.Point{}, draw.Over)
		rasterizer.Flush()
	}
}

func BenchmarkDrawText(b *testing.B) {
	gomono := gomono12.NewFace()

	fb := texture.NewRGBA32(image.Rect(0, 0, 320, 240))
	rasterizer := n64draw.NewRdp()
	rasterizer.SetFramebuffer(fb)
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}

	for b.Loop() {
		rasterizer.DrawText(fb.Bounds(), gomono, image.Point{}, white, string(lorem))
		rasterizer.Flush()
	}
}
