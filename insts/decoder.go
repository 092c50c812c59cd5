package insts

import (
	"errors"
	"fmt"
)

// ErrUnknownOpcode is returned when a word matches no supported instruction
// class.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Op represents the operation class of a decoded instruction.
type Op uint8

// Operation classes.
const (
	OpUnknown Op = iota
	OpDataProcessing
	OpMultiply
	OpLoad
	OpLoadByte
	OpStore
	OpStoreByte
	OpBranch
)

// Format represents an instruction encoding format. Every decoded
// instruction has exactly one of the four known formats.
type Format uint8

// Instruction formats.
const (
	FormatUnknown  Format = iota
	FormatDataProc        // Data Processing
	FormatMultiply        // Multiply / Multiply-Accumulate
	FormatTransfer        // Single Data Transfer
	FormatBranch          // Branch / Branch with Link
)

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Reserved; rejected by the condition evaluator
)

// ShiftType represents a shift type for register operands.
type ShiftType uint8

// Shift types.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right
)

// ALUOp represents a data-processing opcode (bits 24:21).
type ALUOp uint8

// Data-processing opcodes.
const (
	ALUAnd ALUOp = 0b0000
	ALUEor ALUOp = 0b0001
	ALUSub ALUOp = 0b0010
	ALURsb ALUOp = 0b0011
	ALUAdd ALUOp = 0b0100
	ALUAdc ALUOp = 0b0101
	ALUSbc ALUOp = 0b0110
	ALURsc ALUOp = 0b0111
	ALUTst ALUOp = 0b1000
	ALUTeq ALUOp = 0b1001
	ALUCmp ALUOp = 0b1010
	ALUCmn ALUOp = 0b1011
	ALUOrr ALUOp = 0b1100
	ALUMov ALUOp = 0b1101
	ALUBic ALUOp = 0b1110
	ALUMvn ALUOp = 0b1111
)

// Logic reports whether the opcode takes its carry flag from the barrel
// shifter rather than from the arithmetic result.
func (o ALUOp) Logic() bool {
	switch o {
	case ALUAnd, ALUEor, ALUTst, ALUTeq, ALUOrr, ALUMov, ALUBic, ALUMvn:
		return true
	default:
		return false
	}
}

// WritesResult reports whether the opcode writes its result to Rd.
// TST, TEQ, CMP and CMN only update flags.
func (o ALUOp) WritesResult() bool {
	switch o {
	case ALUTst, ALUTeq, ALUCmp, ALUCmn:
		return false
	default:
		return true
	}
}

// OffsetEncoding selects how bit 25 of a single data transfer is read.
type OffsetEncoding uint8

const (
	// OffsetImmediateWhenSet treats bit 25 set as a 12-bit immediate offset.
	// This is the polarity of the reference interpreter and the default.
	OffsetImmediateWhenSet OffsetEncoding = iota
	// OffsetImmediateWhenClear is the architectural ARM polarity: bit 25
	// clear selects the 12-bit immediate, set selects a shifted register.
	OffsetImmediateWhenClear
)

// Instruction represents a decoded ARM instruction. It is created once per
// fetch and never modified afterwards.
type Instruction struct {
	Word   uint32 // Raw instruction word
	Op     Op     // Operation class
	Format Format // Encoding format
	Cond   Cond   // Condition code, bits [31:28]

	// Register operands. For multiply, Rd is bits [19:16] and Rn (the
	// accumulator) is bits [15:12]; every other format uses Rn [19:16] and
	// Rd [15:12].
	Rn uint8
	Rd uint8
	Rs uint8 // bits [11:8]
	Rm uint8 // bits [3:0]

	// Data processing fields
	ALUOp     ALUOp // bits [24:21]
	SetFlags  bool  // bit 20 (also used by multiply)
	Immediate bool  // bit 25
	RegShift  bool  // bit 4: shift amount held in Rs
	Rotate    uint8 // bits [11:8] of an immediate operand
	Imm8      uint8 // bits [7:0] of an immediate operand

	// Shift for register operand / register offset
	ShiftType   ShiftType // bits [6:5]
	ShiftAmount uint8     // bits [11:7]

	// Multiply fields
	Accumulate bool // bit 21

	// Single data transfer fields
	PreIndex  bool   // bit 24
	Up        bool   // bit 23
	Byte      bool   // bit 22
	WriteBack bool   // bit 21
	Load      bool   // bit 20
	Offset12  uint16 // bits [11:0]

	// Branch fields
	Link        bool   // bit 24
	BranchField uint32 // bits [23:0]
}

// OffsetIsImmediate reports whether a single data transfer uses its 12-bit
// immediate offset under the given bit-25 polarity.
func (inst *Instruction) OffsetIsImmediate(enc OffsetEncoding) bool {
	if enc == OffsetImmediateWhenClear {
		return !inst.Immediate
	}
	return inst.Immediate
}

// Decoder decodes ARM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM instruction word. Classes are tried from the
// most specific pattern to the least specific one.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	inst := &Instruction{
		Word: word,
		Cond: Cond(Bits(word, 31, 28)),
	}

	switch {
	case d.isMultiply(word):
		d.decodeMultiply(word, inst)
	case d.isTransfer(word):
		d.decodeTransfer(word, inst)
	case d.isDataProcessing(word):
		d.decodeDataProcessing(word, inst)
	case d.isBranch(word):
		d.decodeBranch(word, inst)
	default:
		return nil, fmt.Errorf("%w: 0x%08X", ErrUnknownOpcode, word)
	}

	return inst, nil
}

// extractRegisters fills the register fields shared by every format.
func (d *Decoder) extractRegisters(word uint32, inst *Instruction) {
	inst.Rn = uint8(Bits(word, 19, 16))
	inst.Rd = uint8(Bits(word, 15, 12))
	inst.Rs = uint8(Bits(word, 11, 8))
	inst.Rm = uint8(Bits(word, 3, 0))
}

// isMultiply checks for multiply: bits [27:22] == 0 and bits [7:4] == 0b1001.
func (d *Decoder) isMultiply(word uint32) bool {
	return word&0x0FC000F0 == 0x00000090
}

// decodeMultiply decodes MUL and MLA.
// Format: cond | 000000 | A | S | Rd | Rn | Rs | 1001 | Rm
func (d *Decoder) decodeMultiply(word uint32, inst *Instruction) {
	inst.Format = FormatMultiply
	inst.Op = OpMultiply

	inst.Rd = uint8(Bits(word, 19, 16))
	inst.Rn = uint8(Bits(word, 15, 12))
	inst.Rs = uint8(Bits(word, 11, 8))
	inst.Rm = uint8(Bits(word, 3, 0))

	inst.Accumulate = Bit(word, 21) == 1
	inst.SetFlags = Bit(word, 20) == 1
}

// isTransfer checks for single data transfer: bits [27:26] == 0b01.
func (d *Decoder) isTransfer(word uint32) bool {
	return Bits(word, 27, 26) == 0b01
}

// decodeTransfer decodes LDR, LDRB, STR and STRB.
// Format: cond | 01 | I | P | U | B | W | L | Rn | Rd | offset12
func (d *Decoder) decodeTransfer(word uint32, inst *Instruction) {
	inst.Format = FormatTransfer
	d.extractRegisters(word, inst)

	inst.Immediate = Bit(word, 25) == 1
	inst.PreIndex = Bit(word, 24) == 1
	inst.Up = Bit(word, 23) == 1
	inst.Byte = Bit(word, 22) == 1
	inst.WriteBack = Bit(word, 21) == 1
	inst.Load = Bit(word, 20) == 1
	inst.Offset12 = uint16(Bits(word, 11, 0))
	inst.ShiftType = ShiftType(Bits(word, 6, 5))
	inst.ShiftAmount = uint8(Bits(word, 11, 7))

	switch {
	case inst.Load && inst.Byte:
		inst.Op = OpLoadByte
	case inst.Load:
		inst.Op = OpLoad
	case inst.Byte:
		inst.Op = OpStoreByte
	default:
		inst.Op = OpStore
	}
}

// isDataProcessing checks for data processing: bits [27:26] == 0b00.
func (d *Decoder) isDataProcessing(word uint32) bool {
	return Bits(word, 27, 26) == 0b00
}

// decodeDataProcessing decodes the sixteen ALU opcodes.
// Format: cond | 00 | I | opcode | S | Rn | Rd | operand2
func (d *Decoder) decodeDataProcessing(word uint32, inst *Instruction) {
	inst.Format = FormatDataProc
	inst.Op = OpDataProcessing
	d.extractRegisters(word, inst)

	inst.Immediate = Bit(word, 25) == 1
	inst.ALUOp = ALUOp(Bits(word, 24, 21))
	inst.SetFlags = Bit(word, 20) == 1
	inst.RegShift = Bit(word, 4) == 1
	inst.Rotate = uint8(Bits(word, 11, 8))
	inst.Imm8 = uint8(Bits(word, 7, 0))
	inst.ShiftType = ShiftType(Bits(word, 6, 5))
	inst.ShiftAmount = uint8(Bits(word, 11, 7))
}

// isBranch checks for branch: bits [27:25] == 0b101.
func (d *Decoder) isBranch(word uint32) bool {
	return Bits(word, 27, 25) == 0b101
}

// decodeBranch decodes B and BL.
// Format: cond | 101 | L | offset24
func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Format = FormatBranch
	inst.Op = OpBranch

	inst.Link = Bit(word, 24) == 1
	inst.BranchField = Bits(word, 23, 0)
}
