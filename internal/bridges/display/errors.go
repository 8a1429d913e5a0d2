package display

import "errors"

// Domain errors for the display bridge package.
var (
	// ErrUnknownDisplay is returned when a command targets a display name
	// that is not configured on this bridge.
	ErrUnknownDisplay = errors.New("display: unknown display")

	// ErrInvalidPayload is returned when a bus message cannot be parsed.
	ErrInvalidPayload = errors.New("display: invalid message payload")

	// ErrMissingParameter is returned when a command lacks a required
	// parameter.
	ErrMissingParameter = errors.New("display: missing parameter")
)
