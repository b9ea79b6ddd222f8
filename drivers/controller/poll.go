package controller

import (
	"github.com/nkraut/n64/rcp/serial"
	"github.com/nkraut/n64/rcp/serial/joybus"
)

var (
	cmdAllStates      *serial.CommandBlock
	cmdAllStatesPorts [4]joybus.ControllerStateCommand

	cmdAllInfo      *serial.CommandBlock
	cmdAllInfoPorts [4]joybus.InfoCommand
)

func init() {
	var err error

	cmdAllStates = serial.NewCommandBlock(serial.CmdConfigureJoybus)
	for i := range cmdAllStatesPorts {
		cmdAllStatesPorts[i], err = joybus.NewControllerStateCommand(cmdAllStates)
		if err != nil {
			panic(err)
		}
	}
	err = joybus.ControlByte(cmdAllStates, joybus.CtrlAbort)
	if err != nil {
		panic(err)
	}

	cmdAllInfo = serial.NewCommandBlock(serial.CmdConfigureJoybus)
	for i := range cmdAllInfoPorts {
		cmdAllInfoPorts[i], err = joybus.NewInfoCommand(cmdAllInfo)
		if err != nil {
			panic(err)
		}
	}
	err = joybus.ControlByte(cmdAllInfo, joybus.CtrlAbort)
	if err != nil {
		panic(err)
	}
}

// Poll updates all four controllers with the current button and stick state.
// The prior state is kept for edge detection, see [Controller.Pressed].
func Poll(states *[4]Controller) {
	for _, cmd := range cmdAllStatesPorts {
		cmd.Reset()
	}
	serial.Run(cmdAllStates)

	for i := range states {
		c := &states[i]
		c.Port.number = uint8(i + 1)
		c.last = c.current
		cur := &c.current
		cur.down, cur.xAxis, cur.yAxis, c.err = cmdAllStatesPorts[i].State()
		if c.err != nil {
			*cur = state{}
		}
	}
}

// PollInfo updates all four controllers with the attached device's identity
// and pak status.  Paks need a separate probe to tell them apart, see
// [ProbePak].
func PollInfo(states *[4]Controller) {
	for _, cmd := range cmdAllInfoPorts {
		cmd.Reset()
	}
	serial.Run(cmdAllInfo)

	for i := range states {
		p := &states[i].Port
		p.number = uint8(i + 1)
		p.last = p.current
		var dev joybus.Device
		var flags byte
		dev, flags, p.err = cmdAllInfoPorts[i].Info()
		if p.err != nil {
			dev, flags = 0, 0
		}
		p.current.device = dev
		p.current.flags = flags
	}
}
