//go:build linux

// Package i2cdev is the I2C lower half for the eve device core.
//
// It drives a Linux i2c-dev adapter (/dev/i2c-N) with the FT80x
// addressed framing: memory writes send the 3-byte address (top bits
// 10) followed by data in one message, memory reads send the address
// (top bits 00) then read data under a repeated start. Host commands
// are the raw 3-byte frame.
//
// The adapter's bus clock is fixed by the platform; SetFrequency only
// records the requested rate, the contract on it is enforced by the
// device core's configuration validation.
package i2cdev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

// i2cMsg mirrors struct i2c_msg from <linux/i2c.h>.
type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

// i2cRdwrData mirrors struct i2c_rdwr_ioctl_data.
type i2cRdwrData struct {
	msgs  uintptr
	nmsgs uint32
}

// i2cMRd is the I2C_M_RD message flag.
const i2cMRd = 0x0001

// i2cRdwr is the I2C_RDWR ioctl number from <linux/i2c-dev.h>.
const i2cRdwr = 0x0707

// Memory-transaction markers in the top bits of the address byte.
const (
	memRead  uint8 = 0x00
	memWrite uint8 = 0x80
)

// Config holds I2C transport settings.
type Config struct {
	// Path is the adapter node, e.g. "/dev/i2c-1".
	Path string

	// Addr is the coprocessor's 7-bit slave address (0x23 by default
	// on FT80x modules).
	Addr uint16

	// PowerDownGPIO is the sysfs value file for the PD_N GPIO.
	// If empty, PowerDown is a no-op.
	PowerDownGPIO string
}

// Transport is an I2C-wired eve.Transport.
type Transport struct {
	f   *os.File
	cfg Config
}

var _ eve.Transport = (*Transport)(nil)
var _ eve.Destroyer = (*Transport)(nil)

// Open opens the i2c-dev adapter node.
func Open(cfg Config) (*Transport, error) {
	if cfg.Addr == 0 {
		cfg.Addr = 0x23
	}

	f, err := os.OpenFile(cfg.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening i2c adapter: %w", err)
	}
	return &Transport{f: f, cfg: cfg}, nil
}

// rdwr issues an I2C_RDWR ioctl with the given messages.
func (t *Transport) rdwr(msgs []i2cMsg) error {
	data := i2cRdwrData{
		msgs:  uintptr(unsafe.Pointer(&msgs[0])),
		nmsgs: uint32(len(msgs)),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, t.f.Fd(), i2cRdwr, uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return fmt.Errorf("i2c transfer: %w", errno)
	}
	return nil
}

// readMem reads n bytes from the coprocessor memory map.
func (t *Transport) readMem(addr uint32, n int) ([]byte, error) {
	hdr := []byte{
		memRead | uint8(addr>>16)&0x3f,
		uint8(addr >> 8),
		uint8(addr),
	}
	out := make([]byte, n)

	msgs := []i2cMsg{
		{
			addr: t.cfg.Addr,
			len:  uint16(len(hdr)),
			buf:  uintptr(unsafe.Pointer(&hdr[0])),
		},
		{
			addr:  t.cfg.Addr,
			flags: i2cMRd,
			len:   uint16(n),
			buf:   uintptr(unsafe.Pointer(&out[0])),
		},
	}
	if err := t.rdwr(msgs); err != nil {
		return nil, err
	}
	return out, nil
}

// writeMem writes p into the coprocessor memory map.
func (t *Transport) writeMem(addr uint32, p []byte) error {
	buf := make([]byte, 3+len(p))
	buf[0] = memWrite | uint8(addr>>16)&0x3f
	buf[1] = uint8(addr >> 8)
	buf[2] = uint8(addr)
	copy(buf[3:], p)

	msgs := []i2cMsg{
		{
			addr: t.cfg.Addr,
			len:  uint16(len(buf)),
			buf:  uintptr(unsafe.Pointer(&buf[0])),
		},
	}
	return t.rdwr(msgs)
}

// ReadByte implements eve.Transport.
func (t *Transport) ReadByte(addr uint32) (uint8, error) {
	b, err := t.readMem(addr, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadHword implements eve.Transport.
func (t *Transport) ReadHword(addr uint32) (uint16, error) {
	b, err := t.readMem(addr, 2)
	if err != nil {
		return 0, err
	}
	return uint16(b[0]) | uint16(b[1])<<8, nil
}

// ReadWord implements eve.Transport.
func (t *Transport) ReadWord(addr uint32) (uint32, error) {
	b, err := t.readMem(addr, 4)
	if err != nil {
		return 0, err
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, nil
}

// ReadBlock implements eve.Transport.
func (t *Transport) ReadBlock(addr uint32, p []byte) error {
	b, err := t.readMem(addr, len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

// WriteByte implements eve.Transport.
func (t *Transport) WriteByte(addr uint32, v uint8) error {
	return t.writeMem(addr, []byte{v})
}

// WriteHword implements eve.Transport.
func (t *Transport) WriteHword(addr uint32, v uint16) error {
	return t.writeMem(addr, []byte{uint8(v), uint8(v >> 8)})
}

// WriteWord implements eve.Transport.
func (t *Transport) WriteWord(addr uint32, v uint32) error {
	return t.writeMem(addr, []byte{uint8(v), uint8(v >> 8), uint8(v >> 16), uint8(v >> 24)})
}

// WriteBlock implements eve.Transport.
func (t *Transport) WriteBlock(addr uint32, p []byte) error {
	return t.writeMem(addr, p)
}

// HostCommand implements eve.Transport.
func (t *Transport) HostCommand(cmd uint8) error {
	buf := []byte{cmd, 0x00, 0x00}
	msgs := []i2cMsg{
		{
			addr: t.cfg.Addr,
			len:  uint16(len(buf)),
			buf:  uintptr(unsafe.Pointer(&buf[0])),
		},
	}
	return t.rdwr(msgs)
}

// PowerDown implements eve.Transport via the PD_N sysfs GPIO.
func (t *Transport) PowerDown(down bool) error {
	if t.cfg.PowerDownGPIO == "" {
		return nil
	}

	v := []byte("1")
	if down {
		v = []byte("0")
	}
	if err := os.WriteFile(t.cfg.PowerDownGPIO, v, 0o644); err != nil {
		return fmt.Errorf("driving power-down gpio: %w", err)
	}
	return nil
}

// SetFrequency implements eve.Transport. See the package comment.
func (t *Transport) SetFrequency(_ uint32) error {
	return nil
}

// Destroy implements eve.Destroyer, closing the adapter node.
func (t *Transport) Destroy() {
	t.f.Close()
}
