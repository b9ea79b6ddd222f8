package draw_test

import (
	"bytes"
	_ "embed"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	n64draw "github.com/nkraut/n64/drivers/draw"
	"github.com/nkraut/n64/rcp/texture"
	n64testing "github.com/nkraut/n64/testing"
)

func TestMain(m *testing.M) { n64testing.TestMain(m) }

//go:embed testdata/gradient.png
var pngGradient []byte

//go:embed testdata/n64.png
var pngPlasma []byte

// Fills an image with a checkerboard test pattern
func checkerboard(img *texture.Texture) {
	const size = 16
	b := img.Bounds()
	colors := []color.RGBA{
		{0x7f, 0x7f, 0x0, 0x0},
		{0x0, 0x0, 0x7f, 0x7f},
	}
	squareStart := image.Rect(0, 0, size, size).Add(b.Min)
	for x := b.Min.X; x < b.Max.X; x += size {
		square := squareStart
		for y := b.Min.Y; y < b.Max.Y; y += size {
			i := (x/size + y/size) % 2
			draw.Src.Draw(img.Image, square, &image.Uniform{colors[i]}, image.Point{})
			square = square.Add(image.Point{0, size})
		}
		squareStart = squareStart.Add(image.Point{size, 0})
	}
	img.Writeback()
}

func absDiffInt(a int, b int) int {
	diff := a - b
	return max(diff, -diff)
}

// Returns the absolute difference in RGB. Alpha channel is ignored.
func absDiffColor(a color.Color, b color.Color) int {
	ac := color.RGBAModel.Convert(a).(color.RGBA)
	bc := color.RGBAModel.Convert(b).(color.RGBA)

	return absDiffInt(int(ac.R), int(bc.R)) +
		absDiffInt(int(ac.G), int(bc.G)) +
		absDiffInt(int(ac.B), int(bc.B))
}

// TestDraw renders the same operations with the software drawer and the RDP
// and compares the results pixel by pixel.
func TestDraw(t *testing.T) {
	bounds := image.Rect(0, 0, 128, 96)
	expected := texture.NewRGBA32(bounds)
	result := texture.NewRGBA32(bounds)

	// Load some test images
	imgGradient, _ := png.Decode(bytes.NewReader(pngGradient))
	imgPlasma, _ := png.Decode(bytes.NewReader(pngPlasma))

	imgGreen := &image.Uniform{color.RGBA{G: 0xff, A: 0xff}}
	imgTransparentGreen := &image.Uniform{color.RGBA{G: 0xff, A: 0xaf}}
	imgTransparentGray := &image.Uniform{color.RGBA{0x7f, 0x7f, 0x7f, 0xaf}}

	imgNRGBA := texture.NewNRGBA32(imgGradient.Bounds())
	draw.Src.Draw(imgNRGBA.Image, imgNRGBA.Bounds(), imgGradient, image.Point{})
	imgNRGBA.Writeback()
	imgRGBA := texture.NewRGBA32(imgGradient.Bounds())
	draw.Src.Draw(imgRGBA.Image, imgRGBA.Bounds(), imgGradient, image.Point{})
	imgRGBA.Writeback()

	imgLarge := texture.NewNRGBA32(imgPlasma.Bounds())
	draw.Src.Draw(imgLarge.Image, imgLarge.Bounds(), imgPlasma, image.Point{})
	imgLarge.Writeback()

	imgAlpha := texture.NewI8(imgGradient.Bounds())
	draw.Src.Draw(imgAlpha.Image, imgAlpha.Bounds(), imgGradient, image.Point{})
	imgAlpha.Writeback()

	// Define testcases
	tests := map[string]struct {
		r    image.Rectangle
		src  image.Image
		sp   image.Point
		mask image.Image
		mp   image.Point
		op   draw.Op
	}{
		"fillSrc":              {bounds.Inset(24), imgTransparentGreen, image.Point{}, nil, image.Point{}, draw.Src},
		"fillOver":             {bounds.Inset(24), imgTransparentGreen, image.Point{}, nil, image.Point{}, draw.Over},
		"fillMaskSrc":          {bounds.Inset(24), imgTransparentGreen, image.Point{}, imgTransparentGray, image.Point{}, draw.Src},
		"fillMaskOver":         {bounds.Inset(24), imgTransparentGreen, image.Point{}, imgTransparentGray, image.Point{}, draw.Over},
		"fillAlphaMaskSrc":     {bounds.Inset(24), imgGreen, image.Point{}, imgAlpha, image.Point{}, draw.Src},
		"fillAlphaMaskOver":    {bounds.Inset(24), imgGreen, image.Point{}, imgAlpha, image.Point{}, draw.Over},
		"drawSrc":              {bounds.Inset(24), imgNRGBA, image.Point{}, nil, image.Point{}, draw.Src},
		"drawOver":             {bounds.Inset(24), imgNRGBA, image.Point{}, nil, image.Point{}, draw.Over},
		"drawSrcPremult":       {bounds.Inset(24), imgRGBA, image.Point{}, nil, image.Point{}, draw.Src},
		"drawOverPremult":      {bounds.Inset(24), imgRGBA, image.Point{}, nil, image.Point{}, draw.Over},
		"drawSrcSubimage":      {bounds.Inset(24), imgNRGBA.SubImage(imgNRGBA.Bounds().Inset(4)), image.Point{}, nil, image.Point{}, draw.Src},
		"drawSrcSubimageShift": {bounds.Inset(24), imgNRGBA.SubImage(imgNRGBA.Bounds().Inset(4)), image.Point{11, 5}, nil, image.Point{}, draw.Src},
		"drawScissored":        {imgNRGBA.Bounds().Add(image.Pt(24, 24)).Inset(2), imgNRGBA, image.Point{}, nil, image.Point{}, draw.Src},
		"drawLarge":            {bounds.Inset(24), imgLarge, image.Point{}, nil, image.Point{}, draw.Src},
		"drawShift":            {bounds.Inset(24), imgNRGBA, image.Point{11, 5}, nil, image.Point{}, draw.Src},
		"drawOutOfBounds":      {bounds.Inset(-4), imgNRGBA, image.Point{11, 5}, nil, image.Point{}, draw.Src},
	}

	// Run all testcases
	rasterizer := n64draw.NewRdp()
	rasterizer.SetFramebuffer(result)
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// prepare
			checkerboard(expected)
			checkerboard(result)
			result.Invalidate()

			// draw
			n64draw.SW(tc.op).DrawMask(expected, tc.r, tc.src, tc.sp, tc.mask, tc.mp) // expected
			rasterizer.Draw(tc.r, tc.src, tc.sp, tc.mask, tc.mp, tc.op)               // result
			rasterizer.Flush()

			// compare
			const showThreshold = 18 // allow some errors due to precision
			cumErr := 0
			for x := range bounds.Max.X {
				for y := range bounds.Max.Y {
					e := expected.At(x, y)
					r := result.At(x, y)
					absErr := absDiffColor(e, r)
					if absErr > showThreshold {
						cumErr += absErr
						t.Logf("(%d,%d): expected %v, got %v", x, y, e, r)
					}
				}
			}
			if cumErr > 0 {
				t.Fatalf("images do not match, cumulative error: %v", cumErr)
			}
		})
	}
}
