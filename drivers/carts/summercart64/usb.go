package summercart64

import (
	"embedded/rtos"
	"errors"
	"io"
	"runtime"
	"time"
)

// Write sends p over the cart's usb port, split into chunks the size of the
// cart's usb buffer.
func (v *SummerCart64) Write(p []byte) (n int, err error) {
	for len(p) > 0 {
		if err = waitUSB(cmdUSBWriteStatus); err != nil {
			return
		}

		var nn int
		nn, err = usbBuf.WriteAt(p, 0)
		if err != nil && err != io.ErrShortWrite {
			return
		}
		p = p[nn:]

		datatype := 1
		header := uint32(((datatype) << 24) | ((nn) & 0x00FFFFFF))
		_, _, err = execCommand(cmdUSBWrite, uint32(usbBuf.Addr()), header)
		if err != nil {
			return
		}

		n += nn
	}

	return
}

func (v *SummerCart64) Close() (err error) {
	_, err = v.SetConfig(CfgROMWriteEnable, 0)
	return
}

// Read receives pending usb data into p.  Returns immediately with n == 0 if
// no data is pending.
func (v *SummerCart64) Read(p []byte) (n int, err error) {
	msgtype, length, err := execCommand(cmdUSBReadStatus, 0, 0)
	if msgtype == 0 || err != nil {
		return 0, err
	}

	// The usb buffer lies in SDRAM, which is only writable by the cart's
	// dma while ROM writes are enabled.
	writeEnable, err := v.SetConfig(CfgROMWriteEnable, 1)
	if err != nil {
		return 0, err
	}

	pending := min(len(p), int(length), bufferSize)
	_, _, err = execCommand(cmdUSBRead, uint32(usbBuf.Addr()), uint32(pending))
	if err != nil {
		return 0, err
	}

	if err := waitUSB(cmdUSBReadStatus); err != nil {
		return 0, err
	}

	n, err1 := usbBuf.ReadAt(p[:pending], 0)

	_, err = v.SetConfig(CfgROMWriteEnable, writeEnable)
	if err != nil {
		return 0, err
	}

	// sc64 adds null terminator as EOL, replace with newline
	if p[n-1] == 0 {
		p[n-1] = '\n'
	}

	return n, err1
}

// waitUSB polls the given status command until the usb interface is idle.
func waitUSB(cmd command) error {
	start := rtos.Nanotime()
	for {
		status, _, err := execCommand(cmd, 0, 0)
		if err != nil {
			return err
		}
		if status&uint32(statusBusy) == 0 {
			return nil
		}
		if rtos.Nanotime()-start > time.Second {
			return errors.New("usb timeout")
		}
		runtime.Gosched()
	}
}

// execCommand runs a single command on the cart's cpu and busy-waits for its
// results.
func execCommand(cmdId command, data0 uint32, data1 uint32) (result0 uint32, result1 uint32, err error) {
	regs.data0.Store(data0)
	regs.data1.Store(data1)
	regs.status.Store(status(cmdId))

	status := statusBusy
	for status&statusBusy != 0 {
		status = regs.status.Load()
	}

	result0 = regs.data0.Load()
	result1 = regs.data1.Load()

	if status&statusError != 0 {
		err = errCodes[result0]
	}

	return
}
