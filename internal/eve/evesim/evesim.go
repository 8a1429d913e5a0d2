// Package evesim is an in-memory model of an FT80x coprocessor.
//
// It implements eve.Transport against a simulated register file and
// display-list RAM, and records every bus operation together with the
// bus frequency in effect when it happened. It backs the "simulate" bus
// kind for installations without panel hardware, and the package tests,
// which assert on the recorded operation order.
package evesim

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-display/internal/eve"
)

// OpKind classifies a recorded bus operation.
type OpKind string

// Recorded operation kinds.
const (
	OpReadByte   OpKind = "read_byte"
	OpReadHword  OpKind = "read_hword"
	OpReadWord   OpKind = "read_word"
	OpReadBlock  OpKind = "read_block"
	OpWriteByte  OpKind = "write_byte"
	OpWriteHword OpKind = "write_hword"
	OpWriteWord  OpKind = "write_word"
	OpWriteBlock OpKind = "write_block"
	OpHostCmd    OpKind = "host_command"
	OpPower      OpKind = "power"
	OpFrequency  OpKind = "frequency"
)

// Op is one recorded bus operation.
type Op struct {
	Kind OpKind

	// Addr is the target address for memory operations, the command
	// byte for host commands, and unused otherwise.
	Addr uint32

	// Value is the written or read value for scalar operations, 1/0
	// for power-down assert/release, and the new clock for frequency
	// switches.
	Value uint64

	// Len is the byte count for block operations.
	Len int

	// Freq is the bus frequency in effect when the operation ran.
	Freq uint32
}

// Sim is a simulated FT80x behind the Transport interface.
//
// The zero value is not usable; construct with New.
type Sim struct {
	mu   sync.Mutex
	mem  map[uint32]byte
	freq uint32
	ops  []Op

	// powerDown mirrors the state of the power-down line.
	powerDown bool

	// destroyed counts Destroy invocations.
	destroyed int

	// failOn, if set, makes the named operation kinds fail.
	failOn map[OpKind]error
}

var _ eve.Transport = (*Sim)(nil)
var _ eve.Destroyer = (*Sim)(nil)

// New creates a simulator that identifies as the given variant: the
// identity register holds the expected FT80x id and the ROM chip ID
// word matches the variant. Tests can overwrite either with PokeWord
// to simulate absent or foreign hardware.
func New(variant eve.Variant) *Sim {
	s := &Sim{
		mem:    make(map[uint32]byte),
		failOn: make(map[OpKind]error),
	}
	s.pokeWord(eve.RegID, 0x7c)
	switch variant {
	case eve.VariantFT801:
		s.pokeWord(eve.ROMChipID, 0x01000801)
	default:
		s.pokeWord(eve.ROMChipID, 0x01000800)
	}
	return s
}

// PokeWord stores a 32-bit value directly into simulated memory
// without recording an operation.
func (s *Sim) PokeWord(addr, v uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pokeWord(addr, v)
}

func (s *Sim) pokeWord(addr, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	for i, bb := range b {
		s.mem[addr+uint32(i)] = bb
	}
}

// PeekWord reads a 32-bit value directly from simulated memory without
// recording an operation.
func (s *Sim) PeekWord(addr uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peekWord(addr)
}

func (s *Sim) peekWord(addr uint32) uint32 {
	var b [4]byte
	for i := range b {
		b[i] = s.mem[addr+uint32(i)]
	}
	return binary.LittleEndian.Uint32(b[:])
}

// PeekBlock copies n bytes of simulated memory starting at addr.
func (s *Sim) PeekBlock(addr uint32, n int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = s.mem[addr+uint32(i)]
	}
	return out
}

// FailOn makes every subsequent operation of the given kind return err.
func (s *Sim) FailOn(kind OpKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[kind] = err
}

// Ops returns a copy of the recorded operation log.
func (s *Sim) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// Destroyed reports how many times the destroy hook has run.
func (s *Sim) Destroyed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// record appends an op stamped with the current frequency. Caller
// holds mu.
func (s *Sim) record(op Op) {
	op.Freq = s.freq
	s.ops = append(s.ops, op)
}

// fail returns the injected error for kind, if any. Caller holds mu.
func (s *Sim) fail(kind OpKind) error {
	if err, ok := s.failOn[kind]; ok {
		return err
	}
	return nil
}

// ReadByte implements eve.Transport.
func (s *Sim) ReadByte(addr uint32) (uint8, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpReadByte); err != nil {
		return 0, err
	}
	v := s.mem[addr]
	s.record(Op{Kind: OpReadByte, Addr: addr, Value: uint64(v)})
	return v, nil
}

// ReadHword implements eve.Transport.
func (s *Sim) ReadHword(addr uint32) (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpReadHword); err != nil {
		return 0, err
	}
	v := uint16(s.mem[addr]) | uint16(s.mem[addr+1])<<8
	s.record(Op{Kind: OpReadHword, Addr: addr, Value: uint64(v)})
	return v, nil
}

// ReadWord implements eve.Transport.
func (s *Sim) ReadWord(addr uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpReadWord); err != nil {
		return 0, err
	}
	v := s.peekWord(addr)
	s.record(Op{Kind: OpReadWord, Addr: addr, Value: uint64(v)})
	return v, nil
}

// ReadBlock implements eve.Transport.
func (s *Sim) ReadBlock(addr uint32, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpReadBlock); err != nil {
		return err
	}
	for i := range p {
		p[i] = s.mem[addr+uint32(i)]
	}
	s.record(Op{Kind: OpReadBlock, Addr: addr, Len: len(p)})
	return nil
}

// WriteByte implements eve.Transport.
func (s *Sim) WriteByte(addr uint32, v uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpWriteByte); err != nil {
		return err
	}
	s.mem[addr] = v
	s.record(Op{Kind: OpWriteByte, Addr: addr, Value: uint64(v)})
	return nil
}

// WriteHword implements eve.Transport.
func (s *Sim) WriteHword(addr uint32, v uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpWriteHword); err != nil {
		return err
	}
	s.mem[addr] = byte(v)
	s.mem[addr+1] = byte(v >> 8)
	s.record(Op{Kind: OpWriteHword, Addr: addr, Value: uint64(v)})
	return nil
}

// WriteWord implements eve.Transport.
func (s *Sim) WriteWord(addr uint32, v uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpWriteWord); err != nil {
		return err
	}
	s.pokeWord(addr, v)
	s.record(Op{Kind: OpWriteWord, Addr: addr, Value: uint64(v)})
	return nil
}

// WriteBlock implements eve.Transport.
func (s *Sim) WriteBlock(addr uint32, p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpWriteBlock); err != nil {
		return err
	}
	for i, b := range p {
		s.mem[addr+uint32(i)] = b
	}
	s.record(Op{Kind: OpWriteBlock, Addr: addr, Len: len(p)})
	return nil
}

// HostCommand implements eve.Transport.
func (s *Sim) HostCommand(cmd uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpHostCmd); err != nil {
		return err
	}
	s.record(Op{Kind: OpHostCmd, Addr: uint32(cmd)})
	return nil
}

// PowerDown implements eve.Transport.
func (s *Sim) PowerDown(down bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpPower); err != nil {
		return err
	}
	s.powerDown = down
	var v uint64
	if down {
		v = 1
	}
	s.record(Op{Kind: OpPower, Value: v})
	return nil
}

// SetFrequency implements eve.Transport.
func (s *Sim) SetFrequency(hz uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(OpFrequency); err != nil {
		return err
	}
	s.freq = hz
	s.record(Op{Kind: OpFrequency, Value: uint64(hz)})
	return nil
}

// Destroy implements eve.Destroyer.
func (s *Sim) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed++
}

// String summarises the simulator state for debugging.
func (s *Sim) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("evesim: %d ops, %d Hz, power_down=%v", len(s.ops), s.freq, s.powerDown)
}
