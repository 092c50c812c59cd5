package insts

import (
	"fmt"
	"strings"
)

var condNames = [...]string{
	"EQ", "NE", "CS", "CC", "MI", "PL", "VS", "VC",
	"HI", "LS", "GE", "LT", "GT", "LE", "", "NV",
}

var aluNames = [...]string{
	"AND", "EOR", "SUB", "RSB", "ADD", "ADC", "SBC", "RSC",
	"TST", "TEQ", "CMP", "CMN", "ORR", "MOV", "BIC", "MVN",
}

var shiftNames = [...]string{"LSL", "LSR", "ASR", "ROR"}

// String returns the condition suffix; AL is the empty suffix.
func (c Cond) String() string {
	return condNames[c&0xF]
}

// String returns the assembler mnemonic of the shift type.
func (t ShiftType) String() string {
	return shiftNames[t&0x3]
}

// String returns the assembler mnemonic of the opcode.
func (o ALUOp) String() string {
	return aluNames[o&0xF]
}

func (o Op) String() string {
	switch o {
	case OpDataProcessing:
		return "DataProcessing"
	case OpMultiply:
		return "Multiply"
	case OpLoad:
		return "Load"
	case OpLoadByte:
		return "LoadByte"
	case OpStore:
		return "Store"
	case OpStoreByte:
		return "StoreByte"
	case OpBranch:
		return "Branch"
	default:
		return "Unknown"
	}
}

// String disassembles the instruction with the default offset encoding.
func (inst *Instruction) String() string {
	return inst.Disassemble(OffsetImmediateWhenSet)
}

// Disassemble renders the instruction in the syntax accepted by the
// assembler. Branch targets are printed as byte offsets relative to the
// address of the branch itself.
func (inst *Instruction) Disassemble(enc OffsetEncoding) string {
	switch inst.Format {
	case FormatDataProc:
		return inst.disasmDataProc()
	case FormatMultiply:
		return inst.disasmMultiply()
	case FormatTransfer:
		return inst.disasmTransfer(enc)
	case FormatBranch:
		return inst.disasmBranch()
	default:
		return fmt.Sprintf(".word 0x%08X", inst.Word)
	}
}

func reg(r uint8) string {
	return fmt.Sprintf("R%d", r)
}

func (inst *Instruction) disasmDataProc() string {
	var sb strings.Builder
	sb.WriteString(inst.ALUOp.String())
	sb.WriteString(inst.Cond.String())
	if inst.SetFlags && inst.ALUOp.WritesResult() {
		sb.WriteString("S")
	}
	sb.WriteByte(' ')

	switch inst.ALUOp {
	case ALUMov, ALUMvn:
		sb.WriteString(reg(inst.Rd))
	case ALUTst, ALUTeq, ALUCmp, ALUCmn:
		sb.WriteString(reg(inst.Rn))
	default:
		sb.WriteString(reg(inst.Rd) + ", " + reg(inst.Rn))
	}

	sb.WriteString(", ")
	if inst.Immediate {
		fmt.Fprintf(&sb, "#%d", ROR(uint32(inst.Imm8), 2*uint32(inst.Rotate)))
	} else {
		sb.WriteString(inst.shiftedRegister(inst.RegShift))
	}

	return sb.String()
}

// shiftedRegister renders Rm and its shift. Immediate shift amounts of zero
// follow the encoder conventions: LSL #0 is omitted, LSR/ASR #0 mean #32 and
// ROR #0 is RRX.
func (inst *Instruction) shiftedRegister(regShift bool) string {
	rm := reg(inst.Rm)
	if regShift {
		return fmt.Sprintf("%s, %s %s", rm, inst.ShiftType, reg(inst.Rs))
	}

	amount := inst.ShiftAmount
	switch {
	case amount == 0 && inst.ShiftType == ShiftLSL:
		return rm
	case amount == 0 && inst.ShiftType == ShiftROR:
		return rm + ", RRX"
	case amount == 0:
		return fmt.Sprintf("%s, %s #32", rm, inst.ShiftType)
	}

	return fmt.Sprintf("%s, %s #%d", rm, inst.ShiftType, amount)
}

func (inst *Instruction) disasmMultiply() string {
	mnemonic := "MUL"
	if inst.Accumulate {
		mnemonic = "MLA"
	}
	s := ""
	if inst.SetFlags {
		s = "S"
	}

	out := fmt.Sprintf("%s%s%s %s, %s, %s",
		mnemonic, inst.Cond, s, reg(inst.Rd), reg(inst.Rm), reg(inst.Rs))
	if inst.Accumulate {
		out += ", " + reg(inst.Rn)
	}
	return out
}

func (inst *Instruction) disasmTransfer(enc OffsetEncoding) string {
	var sb strings.Builder
	if inst.Load {
		sb.WriteString("LDR")
	} else {
		sb.WriteString("STR")
	}
	sb.WriteString(inst.Cond.String())
	if inst.Byte {
		sb.WriteString("B")
	}
	if !inst.PreIndex && inst.WriteBack {
		sb.WriteString("T")
	}
	fmt.Fprintf(&sb, " %s, [%s", reg(inst.Rd), reg(inst.Rn))

	sign := ""
	if !inst.Up {
		sign = "-"
	}

	var offset string
	if inst.OffsetIsImmediate(enc) {
		if inst.Offset12 != 0 || !inst.Up {
			offset = fmt.Sprintf("#%s%d", sign, inst.Offset12)
		}
	} else {
		offset = sign + inst.shiftedRegister(false)
	}

	switch {
	case inst.PreIndex && offset == "":
		sb.WriteString("]")
	case inst.PreIndex:
		sb.WriteString(", " + offset + "]")
	case offset == "":
		sb.WriteString("], #0")
	default:
		sb.WriteString("], " + offset)
	}

	if inst.PreIndex && inst.WriteBack {
		sb.WriteString("!")
	}

	return sb.String()
}

// BranchOffset returns the byte distance from the branch instruction to its
// target.
func (inst *Instruction) BranchOffset() int32 {
	return int32(inst.BranchField<<8)>>6 + 8
}

func (inst *Instruction) disasmBranch() string {
	link := ""
	if inst.Link {
		link = "L"
	}
	return fmt.Sprintf("B%s%s #%d", link, inst.Cond, inst.BranchOffset())
}
