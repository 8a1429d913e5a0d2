package eve

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Opcode identifies a control operation on the device.
type Opcode uint32

// Control opcodes. The vocabulary is deliberately small: display-list
// upload, one-word readback, and the tracker register.
const (
	// OpPutDisplayList writes a display list to display-list RAM.
	// Argument: *DisplayList.
	OpPutDisplayList Opcode = iota + 1

	// OpGetResult32 reads a 32-bit value back from display-list RAM.
	// Argument: *Result32 (Offset in, Value out).
	OpGetResult32

	// OpGetTracker reads the tracker register. After a track command has
	// been issued via the display list, the coprocessor updates this
	// register with new position data.
	// Argument: *uint32 (value out).
	OpGetTracker
)

// DisplayList is the argument to OpPutDisplayList.
type DisplayList struct {
	// Data is the encoded display list. Its length must be nonzero, a
	// multiple of four, and no larger than RAMDLSize.
	Data []byte
}

// Result32 is the argument to OpGetResult32.
type Result32 struct {
	// Offset is the word-aligned byte offset into display-list RAM.
	Offset uint32

	// Value receives the word read from RAMDL+Offset.
	Value uint32
}

// Ioctl validates and executes a control operation under the device
// lock. Commands never retry; a transport fault is returned to the
// caller as-is with no assumption that the command completed.
func (d *Device) Ioctl(op Opcode, arg any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return ErrDestroyed
	}

	switch op {
	case OpPutDisplayList:
		dl, ok := arg.(*DisplayList)
		if !ok || dl == nil {
			return ErrInvalidArgument
		}
		return d.putDisplayListLocked(dl.Data)

	case OpGetResult32:
		res, ok := arg.(*Result32)
		if !ok || res == nil {
			return ErrInvalidArgument
		}
		if res.Offset&3 != 0 || res.Offset >= RAMDLSize {
			return ErrInvalidArgument
		}
		v, err := d.transport.ReadWord(RAMDL + res.Offset)
		if err != nil {
			d.busErrors.Add(1)
			return fmt.Errorf("reading display list word: %w", err)
		}
		d.busReads.Add(1)
		res.Value = v
		return nil

	case OpGetTracker:
		out, ok := arg.(*uint32)
		if !ok || out == nil {
			return ErrInvalidArgument
		}
		v, err := d.transport.ReadWord(RegTracker)
		if err != nil {
			d.busErrors.Add(1)
			return fmt.Errorf("reading tracker register: %w", err)
		}
		d.busReads.Add(1)
		*out = v
		return nil

	default:
		d.logger.Warn("unrecognised control opcode", "op", uint32(op))
		return ErrUnsupportedOp
	}
}

// putDisplayListLocked copies a display list into display-list RAM as
// one contiguous block write. Caller holds mu.
func (d *Device) putDisplayListLocked(data []byte) error {
	n := uint32(len(data))
	if n == 0 || n&3 != 0 || n > RAMDLSize {
		return ErrInvalidArgument
	}

	if err := d.transport.WriteBlock(RAMDL, data); err != nil {
		d.busErrors.Add(1)
		return fmt.Errorf("writing display list: %w", err)
	}
	d.busWrites.Add(1)
	d.bytesWritten.Add(uint64(n))
	return nil
}

// Handle is one open file-like view onto a device.
//
// Writing a handle uploads a display list; reading always reports
// end-of-stream without touching the bus. Close drops the handle's
// reference and may destroy the instance (see Device).
type Handle struct {
	dev    *Device
	closed atomic.Bool
}

// Write uploads the buffer as a display list. It is functionally
// equivalent to Ioctl(OpPutDisplayList, ...): the buffer is copied to
// display-list RAM in a single block write.
func (h *Handle) Write(p []byte) (int, error) {
	if h.closed.Load() {
		return 0, ErrDestroyed
	}
	if err := h.dev.Ioctl(OpPutDisplayList, &DisplayList{Data: p}); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read always reports end-of-stream. Reading the coprocessor through
// the byte stream is undefined; state readback goes through Ioctl.
func (h *Handle) Read(_ []byte) (int, error) {
	return 0, io.EOF
}

// Close releases the handle. Safe to call more than once; only the
// first call drops the device reference.
func (h *Handle) Close() error {
	if !h.closed.CompareAndSwap(false, true) {
		return nil
	}
	return h.dev.close()
}

// Ioctl issues a control operation through this handle.
func (h *Handle) Ioctl(op Opcode, arg any) error {
	if h.closed.Load() {
		return ErrDestroyed
	}
	return h.dev.Ioctl(op, arg)
}

// PutDisplayList is a typed convenience for OpPutDisplayList.
func (h *Handle) PutDisplayList(data []byte) error {
	return h.Ioctl(OpPutDisplayList, &DisplayList{Data: data})
}

// GetResult32 is a typed convenience for OpGetResult32.
func (h *Handle) GetResult32(offset uint32) (uint32, error) {
	res := Result32{Offset: offset}
	if err := h.Ioctl(OpGetResult32, &res); err != nil {
		return 0, err
	}
	return res.Value, nil
}

// GetTracker is a typed convenience for OpGetTracker.
func (h *Handle) GetTracker() (uint32, error) {
	var v uint32
	if err := h.Ioctl(OpGetTracker, &v); err != nil {
		return 0, err
	}
	return v, nil
}
