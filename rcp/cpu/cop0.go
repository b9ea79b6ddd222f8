// Access to the system control coprocessor (CP0).  The runtime owns most of
// these registers, especially COUNT and COMPARE which drive the system timer.
// They are exposed read-mostly for diagnostics and tick measurements.
package cpu

// CountSpeed is the rate at which the COUNT register increments.  It wraps
// around after about 91.6 seconds.
const CountSpeed = ClockSpeed / 2

// Status register bits
const (
	StatusIE  uint32 = 1 << 0 // global interrupt enable
	StatusEXL uint32 = 1 << 1 // exception level
	StatusERL uint32 = 1 << 2 // error level
)

// Interrupt pending and mask bits in the cause and status registers
const (
	IntrSoft0 uint32 = 0x0100 << iota
	IntrSoft1
	IntrRCP
	IntrCart
	IntrPrenmi
	_
	_
	IntrTimer
)

// Cause register fields
const (
	CauseBD      uint32 = 1 << 31 // exception in branch delay slot
	CauseCEMask  uint32 = 3 << 28 // coprocessor number of unusable exception
	CauseExcMask uint32 = 31 << 2 // exception code
)

// ExcCode extracts the exception code from a cause register value.
func ExcCode(cause uint32) uint32 { return cause & CauseExcMask >> 2 }

// Count returns the current value of the COUNT register.
func Count() uint32

// Compare returns the current value of the COMPARE register.
func Compare() uint32

// Status returns the current value of the status register.
func Status() uint32

// Cause returns the current value of the cause register.
func Cause() uint32

// EPC returns the exception program counter.
func EPC() uintptr

// BadVAddr returns the most recent faulting virtual address.
func BadVAddr() uintptr
