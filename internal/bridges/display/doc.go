// Package display implements the display protocol bridge for Gray Logic.
//
// This package exposes FT80x display coprocessors on the installation's
// MQTT bus. It translates between Gray Logic's bridge message formats and
// the local device registry that owns the panel hardware.
//
// # Architecture
//
// The bridge operates as a translator between the bus and the panels:
//
//	┌─────────────────┐          ┌─────────────────┐
//	│   Gray Logic    │   MQTT   │ Display Bridge  │  SPI/I2C
//	│      Core       │◄────────►│   (this pkg)    │◄────────► FT80x panels
//	└─────────────────┘          └─────────────────┘
//
// # Key Responsibilities
//
//   - Subscribe to display command and request topics
//   - Load display lists into panel graphics memory
//   - Answer register and touch-tracker read requests
//   - Publish command acknowledgements and request responses
//   - Publish health status and bus statistics
//
// # Commands
//
// Commands arrive on graylogic/command/display/{name}:
//
//   - put_displaylist: load a base64-encoded display list
//   - unlink: remove a panel's node from the namespace
//
// Requests arrive on graylogic/request/display/{request_id}:
//
//   - get_result32: read a 32-bit value from display list memory
//   - get_tracker: read the touch tracker register
//   - get_stats: report per-panel bus statistics
//   - list_displays: enumerate configured panels
//
// # Thread Safety
//
// All exported types are safe for concurrent use from multiple goroutines.
package display
