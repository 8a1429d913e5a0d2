//go:build linux

// Package spidev is the SPI lower half for the eve device core.
//
// It drives a Linux spidev character device (/dev/spidevB.C) with the
// FT80x serial framing: memory transactions carry a 3-byte address
// whose top two bits select the operation (00 read, 10 write), and
// reads insert one dummy byte before data. Host commands are a raw
// 3-byte write outside the memory map.
//
// The package is not safe for concurrent use on its own; the owning
// eve.Device serialises all access under its lock.
package spidev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

// spidev ioctl requests, from <linux/spi/spidev.h>. x/sys/unix does
// not export these, so the encoded values are spelled out here.
const (
	spiIOCWrMode       = 0x40016b01 // _IOW('k', 1, __u8)
	spiIOCWrBitsPerWrd = 0x40016b03 // _IOW('k', 3, __u8)
	spiIOCWrMaxSpeedHz = 0x40046b04 // _IOW('k', 4, __u32)
	spiIOCMessage1     = 0x40206b00 // SPI_IOC_MESSAGE(1)
)

// spiTransfer mirrors struct spi_ioc_transfer.
type spiTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	wordDelay   uint8
	pad         uint8
}

// Memory-transaction markers in the top bits of the address byte.
const (
	memRead  uint8 = 0x00
	memWrite uint8 = 0x80
)

// Config holds SPI transport settings.
type Config struct {
	// Path is the spidev device node, e.g. "/dev/spidev0.0".
	Path string

	// Mode is the SPI mode (0-3). FT80x modules use mode 0.
	Mode uint8

	// PowerDownGPIO is the sysfs value file for the GPIO wired to the
	// coprocessor's PD_N pin, e.g. "/sys/class/gpio/gpio17/value".
	// If empty, the board holds PD_N and PowerDown is a no-op.
	PowerDownGPIO string
}

// Transport is an SPI-wired eve.Transport.
type Transport struct {
	f       *os.File
	cfg     Config
	speedHz uint32
}

var _ eve.Transport = (*Transport)(nil)
var _ eve.Destroyer = (*Transport)(nil)

// Open opens the spidev node and configures mode and word size. The
// bus speed starts unset; eve.Register selects it via SetFrequency
// before the first transaction.
func Open(cfg Config) (*Transport, error) {
	f, err := os.OpenFile(cfg.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening spidev: %w", err)
	}

	t := &Transport{f: f, cfg: cfg}

	if err := t.ioctlByte(spiIOCWrMode, cfg.Mode); err != nil {
		f.Close()
		return nil, fmt.Errorf("setting spi mode: %w", err)
	}
	if err := t.ioctlByte(spiIOCWrBitsPerWrd, 8); err != nil {
		f.Close()
		return nil, fmt.Errorf("setting spi word size: %w", err)
	}

	return t, nil
}

// ioctlByte issues a byte-argument ioctl on the spidev fd.
func (t *Transport) ioctlByte(req uint, v uint8) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, t.f.Fd(), uintptr(req), uintptr(unsafe.Pointer(&v)))
	if errno != 0 {
		return errno
	}
	return nil
}

// transfer runs one full-duplex SPI transaction.
func (t *Transport) transfer(tx, rx []byte) error {
	tr := spiTransfer{
		length:  uint32(len(tx)),
		speedHz: t.speedHz,
	}
	if len(tx) > 0 {
		tr.txBuf = uint64(uintptr(unsafe.Pointer(&tx[0])))
	}
	if len(rx) > 0 {
		if len(rx) != len(tx) {
			return fmt.Errorf("spidev: rx/tx length mismatch")
		}
		tr.rxBuf = uint64(uintptr(unsafe.Pointer(&rx[0])))
	}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, t.f.Fd(), uintptr(spiIOCMessage1), uintptr(unsafe.Pointer(&tr)))
	if errno != 0 {
		return fmt.Errorf("spi transfer: %w", errno)
	}
	return nil
}

// readMem reads n bytes from the coprocessor memory map.
func (t *Transport) readMem(addr uint32, n int) ([]byte, error) {
	// 3 address bytes, 1 dummy byte, then data.
	tx := make([]byte, 4+n)
	rx := make([]byte, 4+n)
	tx[0] = memRead | uint8(addr>>16)&0x3f
	tx[1] = uint8(addr >> 8)
	tx[2] = uint8(addr)

	if err := t.transfer(tx, rx); err != nil {
		return nil, err
	}
	return rx[4:], nil
}

// writeMem writes p into the coprocessor memory map.
func (t *Transport) writeMem(addr uint32, p []byte) error {
	tx := make([]byte, 3+len(p))
	tx[0] = memWrite | uint8(addr>>16)&0x3f
	tx[1] = uint8(addr >> 8)
	tx[2] = uint8(addr)
	copy(tx[3:], p)
	return t.transfer(tx, nil)
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

// HostCommand implements eve.Transport. Host commands are a raw
// 3-byte frame: the command byte followed by two zero bytes.
func (t *Transport) HostCommand(cmd uint8) error {
	return t.transfer([]byte{cmd, 0x00, 0x00}, nil)
}

// PowerDown implements eve.Transport by driving the PD_N GPIO through
// sysfs. PD_N is active low: asserting power-down writes 0.
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

// SetFrequency implements eve.Transport. The speed applies to every
// subsequent transfer and is also recorded as the device default.
func (t *Transport) SetFrequency(hz uint32) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, t.f.Fd(), uintptr(spiIOCWrMaxSpeedHz), uintptr(unsafe.Pointer(&hz)))
	if errno != 0 {
		return fmt.Errorf("setting spi speed: %w", errno)
	}
	t.speedHz = hz
	return nil
}

// Destroy implements eve.Destroyer, closing the spidev node.
func (t *Transport) Destroy() {
	t.f.Close()
}
