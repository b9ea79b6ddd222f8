// Package testing provides utilities for writing n64 specific tests.
package testing

import (
	"embedded/rtos"
	"fmt"
	"image"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/nkraut/n64/drivers/carts"
	"github.com/nkraut/n64/drivers/carts/isviewer"
	"github.com/nkraut/n64/drivers/console"
	"github.com/nkraut/n64/drivers/controller"
	_ "github.com/nkraut/n64/machine"
	"github.com/nkraut/n64/rcp/serial/joybus"
	"github.com/nkraut/n64/rcp/texture"
	"github.com/nkraut/n64/rcp/video"

	"github.com/embeddedgo/fs/termfs"
)

// TestMain should be used as TestMain for n64 specific tests.  It redirects
// test output to the flashcart's logging peripheral and an on-screen console,
// and lets the user opt into interactive tests by holding START at boot.
func TestMain(m *testing.M) {
	var err error
	var cart carts.Cart

	if cart = carts.ProbeAll(); cart == nil {
		panic("no logging peripheral found")
	}

	guiconsole := console.NewConsole()

	fs := termfs.NewLight("termfs", nil, io.MultiWriter(cart, guiconsole))
	rtos.Mount(fs, "/dev/console")
	os.Stdout, err = os.OpenFile("/dev/console", syscall.O_WRONLY, 0)
	if err != nil {
		panic(err)
	}
	os.Stderr = os.Stdout

	// The default syswriter is a failsafe ISViewer implementation, which
	// will print panics.
	if isviewer.Probe() == nil {
		fmt.Print("\nWARN: no isviewer found, print() and panic() won't printed\n\n")
	}

	// TODO find a way to pass these from the 'go test' command
	os.Args = append(os.Args, "-test.v")
	os.Args = append(os.Args, "-test.bench=.")
	os.Args = append(os.Args, "-test.benchmem")

	print("Hold START to enable interactive test.. ")
	inputs := [4]controller.Controller{}
	controller.Poll(&inputs)
	if inputs[0].Down()&joybus.ButtonStart == 0 {
		os.Args = append(os.Args, "-test.short")
		println("skipping")
	} else {
		println("ok")
	}

	video.Setup(false)
	res := video.NativeResolution()
	res.X /= 2
	fb := texture.NewFramebuffer(image.Rectangle{Max: res})
	video.SetFramebuffer(fb)

	os.Exit(m.Run())
}
