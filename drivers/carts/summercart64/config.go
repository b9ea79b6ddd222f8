package summercart64

type config uint32

// Config options understood by the cart's firmware.
const (
	CfgBootloaderSwitch = iota
	CfgROMWriteEnable
	CfgROMShadowEnable
	CfgDDMode
	CfgISVAddress
	CfgBootMode
	CfgSaveType
	CfgCICSeed
	CfgTVType
	CfgDDSDEnable
	CfgDDDriveType
	CfgDDDiskState
	CfgButtonState
	CfgButtonMode
	CfgROMExtendedEnable
)

// Values for the CfgButtonMode option.
const (
	ButtonModeDisabled uint32 = iota
	ButtonModeInterrupt
	ButtonModeUSBPacket
	ButtonMode64DDDiskChange
)

// SetConfig updates a config option and returns its previous value.
func (v *SummerCart64) SetConfig(option config, value uint32) (old uint32, err error) {
	_, old, err = execCommand(cmdConfigSet, uint32(option), value)
	return
}

// Config returns the current value of a config option.
func (v *SummerCart64) Config(option config) (current uint32, err error) {
	_, current, err = execCommand(cmdConfigGet, uint32(option), 0)
	return
}
