package eve

import "fmt"

// Profile is a display timing table for one panel geometry.
//
// The values program the coprocessor's horizontal and vertical timing
// registers during bring-up. Exactly one profile is active per device;
// it is selected by configuration at registration time rather than
// compiled in.
type Profile struct {
	// Name identifies the profile in configuration ("wqvga", "qvga").
	Name string

	// HCycle is the total number of pixel clocks per line.
	HCycle uint16
	// HOffset is the horizontal image start in pixels from the left.
	HOffset uint16
	// HSync0 is the start of the HSYNC pulse (falling edge).
	HSync0 uint16
	// HSync1 is the end of the HSYNC pulse (rising edge).
	HSync1 uint16
	// HSize is the image width in pixels.
	HSize uint16

	// VCycle is the total number of lines per screen.
	VCycle uint16
	// VOffset is the vertical image start in lines from the top.
	VOffset uint16
	// VSync0 is the start of the VSYNC pulse (falling edge).
	VSync0 uint16
	// VSync1 is the end of the VSYNC pulse (rising edge).
	VSync1 uint16
	// VSize is the image height in pixels.
	VSize uint16

	// Swizzle rearranges the RGB output pins for the panel wiring.
	Swizzle uint8
	// PClkPol is the pixel clock polarity (0 rising, 1 falling edge).
	PClkPol uint8
	// CSpread staggers R/G/B output transitions to reduce noise.
	CSpread uint8
	// PClkDiv is the pixel clock divisor written to re-enable video
	// output at the end of bring-up. Must be nonzero.
	PClkDiv uint8
}

// Built-in timing profiles for the two reference panels.
var (
	// ProfileWQVGA is the 480x272 WQVGA panel timing.
	ProfileWQVGA = Profile{
		Name:    "wqvga",
		HCycle:  548,
		HOffset: 43,
		HSync0:  0,
		HSync1:  41,
		HSize:   480,
		VCycle:  292,
		VOffset: 12,
		VSync0:  0,
		VSync1:  10,
		VSize:   272,
		Swizzle: 0,
		PClkPol: 1,
		CSpread: 1,
		PClkDiv: 5,
	}

	// ProfileQVGA is the 320x240 QVGA panel timing.
	ProfileQVGA = Profile{
		Name:    "qvga",
		HCycle:  408,
		HOffset: 70,
		HSync0:  0,
		HSync1:  10,
		HSize:   320,
		VCycle:  263,
		VOffset: 13,
		VSync0:  0,
		VSync1:  2,
		VSize:   240,
		Swizzle: 0,
		PClkPol: 0,
		CSpread: 1,
		PClkDiv: 5,
	}
)

// ProfileByName returns the built-in profile with the given name.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "wqvga", "":
		return ProfileWQVGA, nil
	case "qvga":
		return ProfileQVGA, nil
	default:
		return Profile{}, fmt.Errorf("%w: unknown display profile %q", ErrBadConfig, name)
	}
}

// validate checks the profile for values that would leave the panel
// without a picture.
func (p Profile) validate() error {
	if p.PClkDiv == 0 {
		return fmt.Errorf("%w: profile %q has zero pixel clock divisor", ErrBadConfig, p.Name)
	}
	if p.HSize == 0 || p.VSize == 0 {
		return fmt.Errorf("%w: profile %q has zero image size", ErrBadConfig, p.Name)
	}
	return nil
}
