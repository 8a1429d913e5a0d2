// Package eve is the device core for FT80x EVE display coprocessors.
//
// It owns the three pieces with real invariants: the device lifecycle
// (reference-counted instance destroyed exactly once, on last close or
// unlink, whichever comes later), the control-operation dispatcher, and
// the ordered hardware bring-up sequence. The bus itself is behind the
// Transport interface; SPI and I2C lower halves live in the spidev and
// i2cdev subpackages, and evesim provides an in-memory model for tests
// and simulated installations.
//
// # Usage
//
//	tr, _ := spidev.Open(spidev.Config{Path: "/dev/spidev0.0", ...})
//	dev, err := eve.Register(tr, eve.Config{
//	    Variant: eve.VariantFT800,
//	    Profile: eve.ProfileWQVGA,
//	    InitHz:  10_000_000,
//	    OpHz:    25_000_000,
//	})
//	if err != nil {
//	    return err // transport already released
//	}
//
//	h, _ := dev.Open()
//	defer h.Close()
//	h.Write(displayList)                  // upload a display list
//	v, _ := h.GetResult32(0)              // read a word back
//	trk, _ := h.GetTracker()              // read the tracker register
//
// # Thread Safety
//
// All operations on a Device are safe for concurrent use. A single
// non-reentrant lock serialises lifecycle changes and bus transactions;
// each operation is atomic with respect to the others, and a handle's
// write appears on the bus as one contiguous block transfer.
package eve
