package eve

import "errors"

// Domain errors for the eve package.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, eve.ErrInvalidArgument) {
//	    // reject the request, device state unchanged
//	}
var (
	// ErrInvalidArgument is returned when a command carries a malformed
	// input: zero or non-word-multiple length, oversized display list,
	// misaligned or out-of-range offset, or a nil result slot.
	ErrInvalidArgument = errors.New("eve: invalid argument")

	// ErrDeviceAbsent is returned when identity verification fails during
	// bring-up. The device is never registered.
	ErrDeviceAbsent = errors.New("eve: device absent or wrong chip")

	// ErrTooManyOpens is returned when opening the device would overflow
	// the reference count.
	ErrTooManyOpens = errors.New("eve: too many open handles")

	// ErrUnsupportedOp is returned for an unrecognised control opcode.
	ErrUnsupportedOp = errors.New("eve: unsupported operation")

	// ErrDestroyed is returned when an operation reaches a device instance
	// that has already been torn down.
	ErrDestroyed = errors.New("eve: device destroyed")

	// ErrFrequencyRange is returned at registration when a configured bus
	// frequency exceeds the coprocessor's contract (11 MHz before
	// configuration, 30 MHz after).
	ErrFrequencyRange = errors.New("eve: bus frequency out of range")

	// ErrBadConfig is returned when the registration configuration is
	// incomplete or names an unknown variant or profile.
	ErrBadConfig = errors.New("eve: invalid configuration")
)
