package eve

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Logger defines the logging interface used by the device core.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// EventSink receives lifecycle notifications for journalling.
// It is optional; if nil, the device operates without event recording.
type EventSink interface {
	// DeviceEvent records a lifecycle event ("registered", "open",
	// "close", "unlink", "destroyed") for the named node.
	DeviceEvent(node, event string)
}

// Config is the board configuration supplied at registration time.
type Config struct {
	// Variant selects the compiled chip variant (ft800 or ft801).
	Variant Variant

	// Profile is the display timing table for the attached panel.
	Profile Profile

	// InitHz is the bus frequency used during bring-up.
	// Must not exceed MaxInitHz. Zero selects the chip limit.
	InitHz uint32

	// OpHz is the bus frequency used after bring-up.
	// Must not exceed MaxOpHz. Zero selects the chip limit.
	OpHz uint32

	// Logger is an optional structured logger.
	Logger Logger

	// Events is an optional lifecycle event sink.
	Events EventSink
}

// validate checks the registration configuration.
func (c Config) validate() error {
	if !c.Variant.Valid() {
		return fmt.Errorf("%w: unknown variant %q", ErrBadConfig, c.Variant)
	}
	if err := c.Profile.validate(); err != nil {
		return err
	}
	if c.InitHz == 0 || c.InitHz > MaxInitHz {
		return fmt.Errorf("%w: init frequency %d Hz (max %d)", ErrFrequencyRange, c.InitHz, MaxInitHz)
	}
	if c.OpHz == 0 || c.OpHz > MaxOpHz {
		return fmt.Errorf("%w: operating frequency %d Hz (max %d)", ErrFrequencyRange, c.OpHz, MaxOpHz)
	}
	return nil
}

// Device is one registered coprocessor instance, shared by every open
// handle that references it.
//
// All mutable state and every bus transaction is guarded by a single
// non-reentrant lock, held for the full duration of each operation, so
// bus transactions are strictly serialised per instance.
//
// The instance is destroyed exactly once, when the reference count is
// zero and the node has been unlinked, whichever of the two conditions
// becomes true last.
type Device struct {
	mu sync.Mutex

	// Guarded by mu.
	crefs     uint8
	unlinked  bool
	destroyed bool
	transport Transport
	frequency uint32

	cfg    Config
	logger Logger
	events EventSink

	// Statistics (atomic for lock-free snapshots).
	busReads     atomic.Uint64
	busWrites    atomic.Uint64
	bytesWritten atomic.Uint64
	busErrors    atomic.Uint64
}

// Register constructs a device instance for the given transport and
// board configuration and runs the hardware bring-up sequence.
//
// On success the returned instance is ready to be published as a node.
// On any failure — bad configuration, identity mismatch, bus fault —
// no instance is returned and the transport's destroy hook (if any)
// has been invoked, so no resource leaks past this call.
func Register(t Transport, cfg Config) (*Device, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: transport is required", ErrBadConfig)
	}
	if cfg.InitHz == 0 {
		cfg.InitHz = MaxInitHz
	}
	if cfg.OpHz == 0 {
		cfg.OpHz = MaxOpHz
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	d := &Device{
		cfg:       cfg,
		transport: t,
		logger:    logger,
		events:    cfg.Events,
	}

	d.mu.Lock()
	err := d.initialize()
	d.mu.Unlock()

	if err != nil {
		// Release the lower half; the instance never becomes reachable.
		if dest, ok := t.(Destroyer); ok {
			dest.Destroy()
		}
		d.logger.Error("bring-up failed", "variant", cfg.Variant, "error", err)
		return nil, err
	}

	d.logger.Info("device registered",
		"variant", cfg.Variant,
		"profile", cfg.Profile.Name,
		"op_hz", cfg.OpHz)
	d.event("registered")
	return d, nil
}

// Open creates a new handle on the device, incrementing the reference
// count. Fails with ErrTooManyOpens if the count would overflow, and
// with ErrDestroyed if the instance has already been torn down.
func (d *Device) Open() (*Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return nil, ErrDestroyed
	}

	// uint8 wrap-around means more than 255 concurrent opens.
	next := d.crefs + 1
	if next == 0 {
		return nil, ErrTooManyOpens
	}
	d.crefs = next

	d.logger.Debug("device opened", "crefs", d.crefs)
	d.event("open")
	return &Handle{dev: d}, nil
}

// close drops one reference. When the last reference goes and the node
// has been unlinked, the instance is destroyed as part of this call.
func (d *Device) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return ErrDestroyed
	}

	if d.crefs <= 1 {
		d.crefs = 0
		if d.unlinked {
			d.destroyLocked()
			return nil
		}
	} else {
		d.crefs--
	}

	d.logger.Debug("device closed", "crefs", d.crefs)
	d.event("close")
	return nil
}

// Unlink marks the device as removed from the namespace. Idempotent;
// the flag is never reset. If no handles are open the instance is
// destroyed immediately, otherwise destruction is deferred to the
// close() that drives the reference count to zero.
func (d *Device) Unlink() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.destroyed {
		return ErrDestroyed
	}

	d.unlinked = true
	d.event("unlink")

	if d.crefs == 0 {
		d.destroyLocked()
	}
	return nil
}

// destroyLocked tears the instance down. Caller holds mu. The two call
// sites (close and Unlink) are mutually exclusive under mu and both
// check crefs/unlinked first, so this runs at most once.
func (d *Device) destroyLocked() {
	d.destroyed = true

	if dest, ok := d.transport.(Destroyer); ok {
		dest.Destroy()
	}
	d.transport = nil

	d.logger.Info("device destroyed", "variant", d.cfg.Variant)
	d.event("destroyed")
}

// event forwards a lifecycle event to the sink, if one is configured.
func (d *Device) event(name string) {
	if d.events != nil {
		d.events.DeviceEvent(d.cfg.Variant.NodePath(), name)
	}
}

// Variant returns the configured chip variant.
func (d *Device) Variant() Variant {
	return d.cfg.Variant
}

// Frequency returns the bus frequency currently in effect.
func (d *Device) Frequency() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frequency
}

// Stats is a snapshot of device counters for monitoring.
type Stats struct {
	BusReads     uint64
	BusWrites    uint64
	BytesWritten uint64
	BusErrors    uint64
	OpenHandles  int
	Unlinked     bool
	FrequencyHz  uint32
}

// GetStats returns current device statistics.
func (d *Device) GetStats() Stats {
	d.mu.Lock()
	crefs := int(d.crefs)
	unlinked := d.unlinked
	freq := d.frequency
	d.mu.Unlock()

	return Stats{
		BusReads:     d.busReads.Load(),
		BusWrites:    d.busWrites.Load(),
		BytesWritten: d.bytesWritten.Load(),
		BusErrors:    d.busErrors.Load(),
		OpenHandles:  crefs,
		Unlinked:     unlinked,
		FrequencyHz:  freq,
	}
}
