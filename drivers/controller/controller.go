package controller

import (
	"github.com/nkraut/n64/rcp/serial/joybus"
)

type state struct {
	down  joybus.ButtonMask
	xAxis int8
	yAxis int8
}

type info struct {
	device joybus.Device
	flags  byte
}

func (i *info) plugged() bool { return i.device == joybus.Controller }
func (i *info) pak() bool     { return i.plugged() && i.flags&joybus.InfoPakInstalled != 0 }

// Port stores the result of the last info poll on a controller port.
type Port struct {
	number        uint8
	current, last info
	err           error
}

// Number returns the port's number, counting from 1.
func (p *Port) Number() uint8 { return p.number }

// Device returns the device currently attached to the port.
func (p *Port) Device() joybus.Device { return p.current.device }

// TODO move this to something like n64/engine/input
type Controller struct {
	Port          Port
	current, last state
	err           error
}

// Down returns all buttons currently held down.
func (c *Controller) Down() joybus.ButtonMask {
	return c.current.down
}

func (c *Controller) Changed() joybus.ButtonMask {
	return c.current.down ^ c.last.down
}

func (c *Controller) Pressed() joybus.ButtonMask {
	return c.Changed() & c.current.down
}

func (c *Controller) Released() joybus.ButtonMask {
	return c.Changed() & c.last.down
}

func (c *Controller) X() int8 {
	return c.current.xAxis
}

func (c *Controller) Y() int8 {
	return c.current.yAxis
}

func (c *Controller) DX() int8 {
	return c.current.xAxis - c.last.xAxis
}

func (c *Controller) DY() int8 {
	return c.current.yAxis - c.last.yAxis
}

func (c *Controller) Plugged() bool {
	return c.Port.current.plugged() && !c.Port.last.plugged()
}

func (c *Controller) Unplugged() bool {
	return !c.Port.current.plugged() && c.Port.last.plugged()
}

func (c *Controller) PakInserted() bool {
	return c.Port.current.pak() && !c.Port.last.pak()
}

func (c *Controller) PakRemoved() bool {
	return !c.Port.current.pak() && c.Port.last.pak()
}
