// Package emu provides functional ARMv4 emulation.
package emu

import "fmt"

// Register indices with a fixed role.
const (
	RegLR = 14
	RegPC = 15

	NumRegs = 16
)

// RegFile represents the ARM register file.
// R[15] is the program counter and R[14] the link register.
type RegFile struct {
	R [NumRegs]uint32

	// PSTATE holds the condition flags.
	PSTATE PSTATE
}

// PSTATE represents the processor condition flags.
type PSTATE struct {
	// N is the negative flag.
	N bool
	// Z is the zero flag.
	Z bool
	// C is the carry flag.
	C bool
	// V is the overflow flag.
	V bool
}

// ReadReg reads a register. Only the low four bits of reg are used, which
// matches every register field the decoder produces.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	return r.R[reg&0xF]
}

// WriteReg writes a register. Only the low four bits of reg are used.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	r.R[reg&0xF] = value
}

// PC returns the program counter.
func (r *RegFile) PC() uint32 {
	return r.R[RegPC]
}

// SetPC sets the program counter.
func (r *RegFile) SetPC(pc uint32) {
	r.R[RegPC] = pc
}

// Reg reads register index, rejecting indices outside r0-r15.
func (r *RegFile) Reg(index int) (uint32, error) {
	if index < 0 || index >= NumRegs {
		return 0, fmt.Errorf("%w: register r%d", ErrOutOfBounds, index)
	}
	return r.R[index], nil
}

// SetReg writes register index, rejecting indices outside r0-r15.
func (r *RegFile) SetReg(index int, value uint32) error {
	if index < 0 || index >= NumRegs {
		return fmt.Errorf("%w: register r%d", ErrOutOfBounds, index)
	}
	r.R[index] = value
	return nil
}
