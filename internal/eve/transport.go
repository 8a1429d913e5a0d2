package eve

// Bus frequency contract. The coprocessor tolerates at most 11 MHz on
// the bus until its clock and timing registers are configured, and at
// most 30 MHz afterwards.
const (
	// MaxInitHz is the highest legal bus frequency during bring-up.
	MaxInitHz uint32 = 11_000_000

	// MaxOpHz is the highest legal bus frequency after bring-up.
	MaxOpHz uint32 = 30_000_000
)

// Transport is the lower-half bus capability the device core drives.
//
// Implementations exist for SPI (spidev) and I2C (i2cdev) wiring, plus
// an in-memory simulator (evesim). A Transport is exclusively owned by
// one Device; the device's lock serialises every call, so
// implementations need not be safe for concurrent use.
//
// All addressed operations use the coprocessor's 22-bit memory map.
// Errors are propagated to the caller verbatim; the core never retries.
type Transport interface {
	// ReadByte reads an 8-bit value from addr.
	ReadByte(addr uint32) (uint8, error)

	// ReadHword reads a 16-bit value from addr.
	ReadHword(addr uint32) (uint16, error)

	// ReadWord reads a 32-bit value from addr.
	ReadWord(addr uint32) (uint32, error)

	// ReadBlock fills p from consecutive addresses starting at addr.
	ReadBlock(addr uint32, p []byte) error

	// WriteByte writes an 8-bit value to addr.
	WriteByte(addr uint32, v uint8) error

	// WriteHword writes a 16-bit value to addr.
	WriteHword(addr uint32, v uint16) error

	// WriteWord writes a 32-bit value to addr.
	WriteWord(addr uint32, v uint32) error

	// WriteBlock writes p to consecutive addresses starting at addr.
	WriteBlock(addr uint32, p []byte) error

	// HostCommand sends a host command byte (outside the memory map).
	HostCommand(cmd uint8) error

	// PowerDown asserts (true) or releases (false) the coprocessor's
	// power-down line.
	PowerDown(down bool) error

	// SetFrequency switches the bus clock. The core only ever requests
	// the configured init and operating frequencies.
	SetFrequency(hz uint32) error
}

// Destroyer is the optional teardown hook a Transport may provide.
// If implemented, it is invoked exactly once when the owning device
// instance is destroyed.
type Destroyer interface {
	Destroy()
}
