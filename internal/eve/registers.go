package eve

// FT80x memory map.
//
// The coprocessor exposes a flat 22-bit address space: general-purpose
// graphics RAM at the bottom, the display-list RAM at RAM_DL, and the
// register file at the top. Addresses below are from the FT800/FT801
// datasheets (FT_000792 / FT_000986).
const (
	// RAMG is the base of general-purpose graphics RAM.
	RAMG uint32 = 0x000000

	// ROMChipID is the ROM chip identification word.
	ROMChipID uint32 = 0x0C0000

	// RAMDL is the base of display-list RAM.
	RAMDL uint32 = 0x100000

	// RAMDLSize is the size of display-list RAM in bytes.
	RAMDLSize uint32 = 8 * 1024
)

// Register addresses.
const (
	RegID        uint32 = 0x102400
	RegFrames    uint32 = 0x102404
	RegClock     uint32 = 0x102408
	RegFrequency uint32 = 0x10240C
	RegHCycle    uint32 = 0x102428
	RegHOffset   uint32 = 0x10242C
	RegHSize     uint32 = 0x102430
	RegHSync0    uint32 = 0x102434
	RegHSync1    uint32 = 0x102438
	RegVCycle    uint32 = 0x10243C
	RegVOffset   uint32 = 0x102440
	RegVSize     uint32 = 0x102444
	RegVSync0    uint32 = 0x102448
	RegVSync1    uint32 = 0x10244C
	RegDLSwap    uint32 = 0x102450
	RegSwizzle   uint32 = 0x102460
	RegCSpread   uint32 = 0x102464
	RegPClkPol   uint32 = 0x102468
	RegPClk      uint32 = 0x10246C
	RegGPIODir   uint32 = 0x10248C
	RegGPIO      uint32 = 0x102490
	RegTracker   uint32 = 0x109000
)

// Host commands (sent over the bus outside the memory map).
const (
	// HostCmdActive wakes the coprocessor from standby/sleep.
	HostCmdActive uint8 = 0x00

	// HostCmdStandby places the coprocessor in standby (PLL running).
	HostCmdStandby uint8 = 0x41

	// HostCmdSleep places the coprocessor in sleep (clock stopped).
	HostCmdSleep uint8 = 0x42

	// HostCmdClkExt selects the external crystal as clock source.
	HostCmdClkExt uint8 = 0x44

	// HostCmdPowerDown powers the core down.
	HostCmdPowerDown uint8 = 0x50

	// HostCmdCoreReset resets the coprocessor core.
	HostCmdCoreReset uint8 = 0x68
)

// Chip identity.
const (
	// chipIDMask selects the identity bits of RegID.
	chipIDMask uint32 = 0xff

	// chipIDValue is the expected masked RegID for any FT80x part.
	chipIDValue uint32 = 0x7c
)

// Variant selects which FT80x part the driver is compiled against.
// FT800 has resistive touch, FT801 capacitive; the display engine is
// otherwise identical, so the variant only affects identity checks and
// the published node path.
type Variant string

const (
	// VariantFT800 is the FT800 (resistive touch) part.
	VariantFT800 Variant = "ft800"

	// VariantFT801 is the FT801 (capacitive touch) part.
	VariantFT801 Variant = "ft801"
)

// romID returns the expected ROM chip ID word for the variant.
func (v Variant) romID() uint32 {
	switch v {
	case VariantFT801:
		return 0x01000801
	default:
		return 0x01000800
	}
}

// NodePath returns the device-node path published for the variant.
func (v Variant) NodePath() string {
	switch v {
	case VariantFT801:
		return "/dev/ft801"
	default:
		return "/dev/ft800"
	}
}

// Valid reports whether v names a supported part.
func (v Variant) Valid() bool {
	return v == VariantFT800 || v == VariantFT801
}

// Display-list swap modes (RegDLSwap).
const (
	// DLSwapDone reads back as zero once a requested swap completed.
	DLSwapDone uint8 = 0x00

	// DLSwapLine swaps at the next scan line.
	DLSwapLine uint8 = 0x01

	// DLSwapFrame swaps at the next frame boundary.
	DLSwapFrame uint8 = 0x02
)

// panelEnableBit is the coprocessor GPIO bit wired to the panel's
// display-enable pin on reference modules.
const panelEnableBit uint8 = 1 << 7

// Display-list command encoders for the bootstrap list written during
// bring-up. Applications encode their own lists; the driver only ever
// builds the minimal clear-screen list.

// dlClearColorRGB encodes a CLEAR_COLOR_RGB display-list word.
func dlClearColorRGB(r, g, b uint8) uint32 {
	return 0x02<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// dlClear encodes a CLEAR display-list word.
func dlClear(color, stencil, tag bool) uint32 {
	w := uint32(0x26) << 24
	if color {
		w |= 1 << 2
	}
	if stencil {
		w |= 1 << 1
	}
	if tag {
		w |= 1
	}
	return w
}

// dlDisplay encodes the DISPLAY end-of-list word.
func dlDisplay() uint32 {
	return 0x00
}
