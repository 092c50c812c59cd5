package emu

import "github.com/sarchlab/armsim/insts"

// ALU implements the data-processing and multiply datapaths. It reads the
// register file but never writes it; results flow through writeback.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Operand2 decodes the second data-processing operand and its shifter
// carry-out.
func (a *ALU) Operand2(inst *insts.Instruction) ShiftResult {
	carry := a.regFile.PSTATE.C

	if inst.Immediate {
		amount := 2 * uint32(inst.Rotate)
		if amount == 0 {
			return Shift(insts.ShiftLSL, 0, uint32(inst.Imm8), carry)
		}
		return Shift(insts.ShiftROR, amount, uint32(inst.Imm8), carry)
	}

	rm := a.regFile.ReadReg(inst.Rm)
	if inst.RegShift {
		amount := a.regFile.ReadReg(inst.Rs) & 0xFF
		if amount == 0 {
			return Shift(insts.ShiftLSL, 0, rm, carry)
		}
		return Shift(inst.ShiftType, amount, rm, carry)
	}

	return Shift(inst.ShiftType, uint32(inst.ShiftAmount), rm, carry)
}

// DataProcessing computes the result of a data-processing instruction and
// the flags it would set.
func (a *ALU) DataProcessing(inst *insts.Instruction) (uint32, PSTATE) {
	shift := a.Operand2(inst)
	op1 := a.regFile.ReadReg(inst.Rn)
	op2 := shift.Value

	var c uint32
	if a.regFile.PSTATE.C {
		c = 1
	}

	var result uint32
	switch inst.ALUOp {
	case insts.ALUAnd, insts.ALUTst:
		result = op1 & op2
	case insts.ALUEor, insts.ALUTeq:
		result = op1 ^ op2
	case insts.ALUSub, insts.ALUCmp:
		result = op1 - op2
	case insts.ALURsb:
		result = op2 - op1
	case insts.ALUAdd, insts.ALUCmn:
		result = op1 + op2
	case insts.ALUAdc:
		result = op1 + op2 + c
	case insts.ALUSbc:
		result = op1 - op2 + c - 1
	case insts.ALURsc:
		result = op2 - op1 + c - 1
	case insts.ALUOrr:
		result = op1 | op2
	case insts.ALUMov:
		result = op2
	case insts.ALUBic:
		result = op1 &^ op2
	case insts.ALUMvn:
		result = ^op2
	}

	flags := a.regFile.PSTATE
	flags.N = result>>31 == 1
	flags.Z = result == 0
	if inst.ALUOp.Logic() {
		flags.C = shift.Carry
	} else {
		flags.V = arithOverflow(op1, op2, result)
		flags.C = result < op1
	}

	return result, flags
}

// arithOverflow reports signed overflow: both operands share a sign that
// the result does not.
func arithOverflow(op1, op2, result uint32) bool {
	s1 := op1 >> 31
	return s1 == op2>>31 && s1 != result>>31
}

// Multiply computes Rm * Rs, plus Rn when accumulating, and the flags it
// would set. Only N and Z change.
func (a *ALU) Multiply(inst *insts.Instruction) (uint32, PSTATE) {
	result := a.regFile.ReadReg(inst.Rm) * a.regFile.ReadReg(inst.Rs)
	if inst.Accumulate {
		result += a.regFile.ReadReg(inst.Rn)
	}

	flags := a.regFile.PSTATE
	flags.N = result>>31 == 1
	flags.Z = result == 0

	return result, flags
}
