// Package emu provides functional ABS-M emulation.
package emu

import "github.com/pkg/errors"

// DefaultMemorySize is the machine's default memory size in words.
const DefaultMemorySize uint32 = 300

// ErrAddressOutOfRange indicates a memory access outside [0, size).
var ErrAddressOutOfRange = errors.New("address out of range")

// Memory is a fixed-size, word-addressed memory image. The addressing
// unit is one machine word; there are no alignment concerns.
type Memory struct {
	words []uint32
}

// NewMemory creates a zero-filled memory of size words.
func NewMemory(size uint32) *Memory {
	return &Memory{words: make([]uint32, size)}
}

// Size returns the number of addressable words.
func (m *Memory) Size() uint32 {
	return uint32(len(m.words))
}

// CheckAddressInRange reports whether addr is a valid word address.
func (m *Memory) CheckAddressInRange(addr uint32) bool {
	return addr < uint32(len(m.words))
}

// Read returns the word at addr.
func (m *Memory) Read(addr uint32) (uint32, error) {
	if !m.CheckAddressInRange(addr) {
		return 0, errors.Wrapf(ErrAddressOutOfRange, "read at %d", addr)
	}
	return m.words[addr], nil
}

// Write stores value at addr. There are no partial writes.
func (m *Memory) Write(addr, value uint32) error {
	if !m.CheckAddressInRange(addr) {
		return errors.Wrapf(ErrAddressOutOfRange, "write at %d", addr)
	}
	m.words[addr] = value
	return nil
}

// Clear fills all of memory with zero.
func (m *Memory) Clear() {
	for i := range m.words {
		m.words[i] = 0
	}
}

// ClearRange fills the inclusive address range [begin, end] with zero.
func (m *Memory) ClearRange(begin, end uint32) error {
	if begin > end || !m.CheckAddressInRange(end) {
		return errors.Wrapf(ErrAddressOutOfRange, "clear [%d, %d]", begin, end)
	}
	for i := begin; i <= end; i++ {
		m.words[i] = 0
	}
	return nil
}
