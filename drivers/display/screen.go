package display

import (
	"image"
	"image/color"
	"image/draw"

	n64draw "github.com/nkraut/n64/drivers/draw"
	"github.com/nkraut/n64/machine"
	"github.com/nkraut/n64/rcp/video"
)

// VideoPreset selects a predefined video configuration.
type VideoPreset int

const (
	// LowRes is the most common setup: 320x240 without interlacing
	LowRes VideoPreset = iota
	// HighRes is 640x480 with interlacing
	HighRes
)

var presets = map[VideoPreset]struct {
	resolution image.Point
	colorDepth video.ColorDepth
	mode       machine.VideoType
	interlaced bool
}{
	LowRes:  {image.Point{X: 320, Y: 240}, video.ColorDepth(video.BPP16), machine.VideoNTSC, false},
	HighRes: {image.Point{X: 640, Y: 480}, video.ColorDepth(video.BPP32), machine.VideoNTSC, true},
}

// Screen is the drawing surface presented on the display.
type Screen struct {
	renderer *n64draw.Rdp
}

// BeginDrawing starts a new frame by swapping the framebuffer.
func (s *Screen) BeginDrawing() {
	fb := currentScreen.Display.Swap()
	s.renderer.SetFramebuffer(fb)
}

// EndDrawing finishes the frame by flushing the renderer.
func (s *Screen) EndDrawing() {
	s.renderer.Flush()
}

// ClearBackground fills the whole screen with a single color.
func (s *Screen) ClearBackground(c color.Color) {
	s.renderer.Draw(s.renderer.Bounds(), &image.Uniform{c}, image.Point{}, nil, image.Point{}, draw.Src)
}

// screen holds the display-related objects and state.
type screen struct {
	Display  *Display
	Renderer *n64draw.Rdp
}

var currentScreen *screen

// Init brings up the display with the given video preset and prepares a
// framebuffer and renderer for drawing.
func Init(preset VideoPreset) *Screen {
	cfg, ok := presets[preset]
	if !ok {
		cfg = presets[LowRes]
	}

	machine.Video = cfg.mode
	video.Setup(cfg.interlaced)

	disp := NewDisplay(cfg.resolution, cfg.colorDepth)
	renderer := n64draw.NewRdp()
	renderer.SetFramebuffer(disp.Swap())

	currentScreen = &screen{
		Display:  disp,
		Renderer: renderer,
	}

	return &Screen{
		renderer: renderer,
	}
}
