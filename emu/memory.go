package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/armsim/insts"
)

// MemorySize is the number of addressable bytes.
const MemorySize = 4096

// Memory is a flat little-endian byte array.
type Memory struct {
	data [MemorySize]byte
}

// NewMemory creates a zeroed memory.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) check(addr uint32, width int, write bool) error {
	if uint64(addr)+uint64(width) > MemorySize {
		return &AccessError{Addr: addr, Width: width, Write: write}
	}
	return nil
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	if err := m.check(addr, 1, false); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	if err := m.check(addr, 1, true); err != nil {
		return err
	}
	m.data[addr] = value
	return nil
}

// Read32 reads the aligned word containing addr and rotates it right by
// the byte offset of addr within that word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	aligned := addr &^ 3
	if err := m.check(aligned, 4, false); err != nil {
		return 0, err
	}
	word := binary.LittleEndian.Uint32(m.data[aligned:])
	return insts.ROR(word, 8*(addr&3)), nil
}

// Write32 stores value little-endian in the four bytes starting at addr.
// The address is not aligned down.
func (m *Memory) Write32(addr uint32, value uint32) error {
	if err := m.check(addr, 4, true); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[addr:], value)
	return nil
}

// LoadProgram copies program into memory starting at address 0.
func (m *Memory) LoadProgram(program []byte) error {
	if len(program) > MemorySize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrProgramTooLarge, len(program), MemorySize)
	}
	copy(m.data[:], program)
	return nil
}

// Bytes returns a copy of the bytes in [from, to).
func (m *Memory) Bytes(from, to uint32) ([]byte, error) {
	if to < from {
		return nil, fmt.Errorf("%w: range 0x%x-0x%x", ErrOutOfBounds, from, to)
	}
	if err := m.check(from, int(to-from), false); err != nil {
		return nil, err
	}
	out := make([]byte, to-from)
	copy(out, m.data[from:to])
	return out, nil
}
