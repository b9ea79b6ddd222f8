// Package rtc drives the cartridge's battery-backed real-time clock.
package rtc

import (
	"errors"
	"fmt"
	"time"

	"github.com/nkraut/n64/debug"
	"github.com/nkraut/n64/rcp/serial"
	"github.com/nkraut/n64/rcp/serial/joybus"
)

var (
	ErrNoRTC   = errors.New("no rtc")
	ErrStopped = errors.New("rtc stopped")
	ErrBattery = errors.New("rtc battery failure")
)

// The cartridge sits on the joybus channel after the four controller ports.
const channel = 4

type RTC struct {
	infoCmdBlock  serial.CommandBlock
	readCmdBlock  serial.CommandBlock
	writeCmdBlock serial.CommandBlock
	infoCmd       joybus.InfoCommand
	readCmd       joybus.ReadRTCCommand
	writeCmd      joybus.WriteRTCCommand
}

// Probe detects the clock via a joybus RTC info command.  Returns [ErrNoRTC]
// if the cartridge has none.
func Probe() (*RTC, error) {
	rtc := newRTC()

	rtc.infoCmd.Reset()
	serial.Run(&rtc.infoCmdBlock)

	dev, status, err := rtc.infoCmd.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRTC, err)
	}
	if dev != joybus.RTC {
		return nil, ErrNoRTC
	}
	if status&joybus.RTCBattery != 0 {
		return rtc, ErrBattery
	}

	return rtc, nil
}

func newRTC() (rtc *RTC) {
	rtc = &RTC{
		infoCmdBlock:  *serial.NewCommandBlock(serial.CmdConfigureJoybus),
		readCmdBlock:  *serial.NewCommandBlock(serial.CmdConfigureJoybus),
		writeCmdBlock: *serial.NewCommandBlock(serial.CmdConfigureJoybus),
	}

	var err error
	for range channel {
		err = joybus.ControlByte(&rtc.infoCmdBlock, joybus.CtrlSkip)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	rtc.infoCmd, err = joybus.NewRTCInfoCommand(&rtc.infoCmdBlock)
	debug.Assert(err == nil, fmt.Sprint(err))
	err = joybus.ControlByte(&rtc.infoCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	for range channel {
		err = joybus.ControlByte(&rtc.readCmdBlock, joybus.CtrlSkip)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	rtc.readCmd, err = joybus.NewReadRTCCommand(&rtc.readCmdBlock)
	debug.Assert(err == nil, fmt.Sprint(err))
	err = joybus.ControlByte(&rtc.readCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	for range channel {
		err = joybus.ControlByte(&rtc.writeCmdBlock, joybus.CtrlSkip)
		debug.Assert(err == nil, fmt.Sprint(err))
	}
	rtc.writeCmd, err = joybus.NewWriteRTCCommand(&rtc.writeCmdBlock)
	debug.Assert(err == nil, fmt.Sprint(err))
	err = joybus.ControlByte(&rtc.writeCmdBlock, joybus.CtrlAbort)
	debug.Assert(err == nil, fmt.Sprint(err))

	return
}

// Read returns the current time kept by the clock.
func (rtc *RTC) Read() (time.Time, error) {
	rtc.readCmd.Reset()
	rtc.readCmd.SetBlock(joybus.RTCBlockTime)
	serial.Run(&rtc.readCmdBlock)

	data, status, err := rtc.readCmd.Data()
	if err != nil {
		return time.Time{}, err
	}
	if status&joybus.RTCStopped != 0 {
		return time.Time{}, ErrStopped
	}

	var block [8]byte
	copy(block[:], data)
	return joybus.DecodeRTCTime(block), nil
}

// Write sets the clock.  The clock is halted while the new time is written
// and restarted afterwards.
func (rtc *RTC) Write(t time.Time) error {
	if err := rtc.setStopped(true); err != nil {
		return err
	}

	block := joybus.EncodeRTCTime(t)
	rtc.writeCmd.Reset()
	rtc.writeCmd.SetBlock(joybus.RTCBlockTime)
	if err := rtc.writeCmd.SetData(block[:]); err != nil {
		return err
	}
	serial.Run(&rtc.writeCmdBlock)
	if _, err := rtc.writeCmd.Status(); err != nil {
		return err
	}

	return rtc.setStopped(false)
}

func (rtc *RTC) setStopped(stop bool) error {
	var block [8]byte
	block[0] = 0x03
	if stop {
		block[0] = 0x07
	}

	rtc.writeCmd.Reset()
	rtc.writeCmd.SetBlock(joybus.RTCBlockControl)
	if err := rtc.writeCmd.SetData(block[:]); err != nil {
		return err
	}
	serial.Run(&rtc.writeCmdBlock)
	_, err := rtc.writeCmd.Status()
	return err
}
