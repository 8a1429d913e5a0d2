package influxdb

import "errors"

// Sentinel errors for InfluxDB operations, matched with errors.Is().
//
// ErrDisabled deserves special mention: bus telemetry is optional for a
// display installation, so Connect refuses a disabled config rather than
// silently producing a client that drops every point:
//
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // Run without bus telemetry
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrWriteFailed indicates a write operation failed.
	// Note: Most write errors are handled asynchronously via the error callback.
	ErrWriteFailed = errors.New("influxdb: write failed")

	// ErrDisabled indicates InfluxDB integration is disabled in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
