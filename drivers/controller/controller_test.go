package controller_test

import (
	"testing"
	"time"

	"github.com/nkraut/n64/drivers/controller"
	"github.com/nkraut/n64/rcp/serial/joybus"
	n64testing "github.com/nkraut/n64/testing"
)

func TestMain(m *testing.M) { n64testing.TestMain(m) }

func TestControllerState(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}

	t.Log("Press L+R+Start to end the test.")

	var gamepads [4]controller.Controller
	for {
		controller.Poll(&gamepads)
		controller.PollInfo(&gamepads)
		for i := range gamepads {
			gamepad := &gamepads[i]
			if gamepad.Plugged() {
				t.Log(i, "plugged")
			}
			if gamepad.Unplugged() {
				t.Log(i, "unplugged")
			}
			if gamepad.PakInserted() {
				t.Log(i, "pak inserted")
				pak, err := controller.ProbePak(byte(i))
				if err != nil {
					t.Error(err)
				}
				switch pak := pak.(type) {
				case *controller.RumblePak:
					t.Log(i, "rumble pak detected")
					for range 6 {
						err = pak.Toggle()
						if err != nil {
							t.Error(err)
						}
						time.Sleep(500 * time.Millisecond)
					}
				}
			}
			if gamepad.PakRemoved() {
				t.Log(i, "pak removed")
			}
			if gamepad.Pressed() != 0 {
				t.Log(i, "pressed:", gamepad.Pressed())
				if gamepad.Pressed()&joybus.ButtonReset != 0 {
					return
				}
			}
			if gamepad.Released() != 0 {
				t.Log(i, "released:", gamepad.Released())
			}
			if gamepad.DX() != 0 || gamepad.DY() != 0 {
				t.Log(i, "X:", gamepad.X(), "Y:", gamepad.Y())
			}
		}
	}
}
