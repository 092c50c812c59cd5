package emu

import "github.com/sarchlab/armsim/insts"

// LoadStoreUnit implements single data transfer address generation and the
// memory accesses for LDR, LDRB, STR and STRB.
type LoadStoreUnit struct {
	regFile  *RegFile
	memory   *Memory
	encoding insts.OffsetEncoding
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory, encoding insts.OffsetEncoding) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile:  regFile,
		memory:   memory,
		encoding: encoding,
	}
}

// Offset returns the unsigned transfer offset: the 12-bit immediate or Rm
// through the barrel shifter with an immediate amount.
func (lsu *LoadStoreUnit) Offset(inst *insts.Instruction) uint32 {
	if inst.OffsetIsImmediate(lsu.encoding) {
		return uint32(inst.Offset12)
	}

	rm := lsu.regFile.ReadReg(inst.Rm)
	return Shift(inst.ShiftType, uint32(inst.ShiftAmount), rm, lsu.regFile.PSTATE.C).Value
}

// Addresses returns the transfer address and the advanced base. The
// transfer address is the advanced base when pre-indexed and the
// unmodified base otherwise.
func (lsu *LoadStoreUnit) Addresses(inst *insts.Instruction) (addr, advanced uint32) {
	base := lsu.regFile.ReadReg(inst.Rn)
	offset := lsu.Offset(inst)

	if inst.Up {
		advanced = base + offset
	} else {
		advanced = base - offset
	}

	if inst.PreIndex {
		return advanced, advanced
	}
	return base, advanced
}

// Load reads a word (rotated for misaligned addresses) or a zero-extended
// byte.
func (lsu *LoadStoreUnit) Load(addr uint32, byteAccess bool) (uint32, error) {
	if byteAccess {
		b, err := lsu.memory.Read8(addr)
		return uint32(b), err
	}
	return lsu.memory.Read32(addr)
}

// Store writes a word or the low byte of value.
func (lsu *LoadStoreUnit) Store(addr, value uint32, byteAccess bool) error {
	if byteAccess {
		return lsu.memory.Write8(addr, uint8(value))
	}
	return lsu.memory.Write32(addr, value)
}
