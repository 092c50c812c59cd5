package emu

import "github.com/sarchlab/armsim/insts"

// BranchUnit implements B and BL.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// Offset returns the amount added to the already-incremented PC. The
// 24-bit field is sign-extended and scaled by 4, then corrected by 4
// because the PC runs one instruction ahead rather than two.
func (b *BranchUnit) Offset(inst *insts.Instruction) uint32 {
	return insts.ASR(inst.BranchField<<8, 6) + 4
}

// Target returns the branch destination and the value BL stores in the
// link register.
func (b *BranchUnit) Target(inst *insts.Instruction) (target, link uint32) {
	pc := b.regFile.PC()
	return pc + b.Offset(inst), pc
}
