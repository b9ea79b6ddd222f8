// Access to the floating-point unit's control register (FCR31).
package cpu

// FCR31 rounding modes
const (
	FPURoundNearest uint32 = iota
	FPURoundZero
	FPURoundPosInf
	FPURoundNegInf
)

// FCR31 exception bits, shifted for the flag, enable and cause fields.
const (
	FPUInexact uint32 = 1 << iota
	FPUUnderflow
	FPUOverflow
	FPUDivByZero
	FPUInvalid
	FPUUnimplemented // cause field only
)

const (
	fpuFlagShift   = 2
	fpuEnableShift = 7
	fpuCauseShift  = 12
)

// FPUFlags returns the accumulated exception flags from a FCR31 value.
func FPUFlags(fcr31 uint32) uint32 { return fcr31 >> fpuFlagShift & 0x1f }

// FPUEnables returns the enabled exceptions from a FCR31 value.
func FPUEnables(fcr31 uint32) uint32 { return fcr31 >> fpuEnableShift & 0x1f }

// FPUCause returns the cause field from a FCR31 value.
func FPUCause(fcr31 uint32) uint32 { return fcr31 >> fpuCauseShift & 0x3f }

// FCR31 returns the current value of the FPU control register.
func FCR31() uint32

// SetFCR31 writes the FPU control register, e.g. to clear exception causes or
// change the rounding mode.
func SetFCR31(fcr31 uint32)
