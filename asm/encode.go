package asm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sarchlab/armsim/insts"
)

const condPattern = `(EQ|NE|CS|HS|CC|LO|MI|PL|VS|VC|HI|LS|GE|LT|GT|LE|AL)?`

var (
	reDataProc = regexp.MustCompile(`^(AND|EOR|SUB|RSB|ADD|ADC|SBC|RSC|TST|TEQ|CMP|CMN|ORR|MOV|BIC|MVN)` + condPattern + `(S)?$`)
	reMultiply = regexp.MustCompile(`^(MUL|MLA)` + condPattern + `(S)?$`)
	reTransfer = regexp.MustCompile(`^(LDR|STR)` + condPattern + `(B)?(T)?$`)
	reBranch   = regexp.MustCompile(`^B(L)?` + condPattern + `$`)

	rePreIndexed  = regexp.MustCompile(`^\[([^\]]*)\]\s*(!?)$`)
	rePostIndexed = regexp.MustCompile(`^\[([^\],]*)\]\s*,\s*(.+)$`)
)

var condCodes = map[string]insts.Cond{
	"EQ": insts.CondEQ, "NE": insts.CondNE,
	"CS": insts.CondCS, "HS": insts.CondCS,
	"CC": insts.CondCC, "LO": insts.CondCC,
	"MI": insts.CondMI, "PL": insts.CondPL,
	"VS": insts.CondVS, "VC": insts.CondVC,
	"HI": insts.CondHI, "LS": insts.CondLS,
	"GE": insts.CondGE, "LT": insts.CondLT,
	"GT": insts.CondGT, "LE": insts.CondLE,
	"AL": insts.CondAL, "": insts.CondAL,
}

var aluOps = map[string]insts.ALUOp{
	"AND": insts.ALUAnd, "EOR": insts.ALUEor,
	"SUB": insts.ALUSub, "RSB": insts.ALURsb,
	"ADD": insts.ALUAdd, "ADC": insts.ALUAdc,
	"SBC": insts.ALUSbc, "RSC": insts.ALURsc,
	"TST": insts.ALUTst, "TEQ": insts.ALUTeq,
	"CMP": insts.ALUCmp, "CMN": insts.ALUCmn,
	"ORR": insts.ALUOrr, "MOV": insts.ALUMov,
	"BIC": insts.ALUBic, "MVN": insts.ALUMvn,
}

var shiftTypes = map[string]insts.ShiftType{
	"LSL": insts.ShiftLSL, "ASL": insts.ShiftLSL,
	"LSR": insts.ShiftLSR,
	"ASR": insts.ShiftASR,
	"ROR": insts.ShiftROR,
}

var registerAliases = map[string]uint32{
	"SP": 13, "LR": 14, "PC": 15,
}

func cond(suffix string) uint32 {
	return uint32(condCodes[suffix]) << 28
}

func flag(set bool, bit uint) uint32 {
	if set {
		return 1 << bit
	}
	return 0
}

// register parses R0-R15 or one of the SP/LR/PC aliases.
func register(token string) (uint32, error) {
	name := strings.ToUpper(strings.TrimSpace(token))
	if r, ok := registerAliases[name]; ok {
		return r, nil
	}
	if len(name) < 2 || name[0] != 'R' {
		return 0, ErrRegisterInvalid
	}
	r, err := strconv.ParseUint(name[1:], 10, 8)
	if err != nil || r > 15 {
		return 0, ErrRegisterInvalid
	}
	return uint32(r), nil
}

// immediate parses "#value".
func immediate(token string) (uint32, error) {
	if !strings.HasPrefix(token, "#") {
		return 0, ErrOperandMissing
	}
	return valueOf(token[1:])
}

// compressImmediate finds an 8-bit value and 4-bit rotation that produce v.
func compressImmediate(v uint32) (imm8 uint32, rot uint32, ok bool) {
	for rot = 0; rot < 16; rot++ {
		if v < 256 {
			return v, rot, true
		}
		v = insts.ROR(v, 30)
	}
	return 0, 0, false
}

// encodeShift encodes the shift token that follows Rm into bits [11:4].
// Register-specified shifts are accepted only when allowRegister is set.
func encodeShift(token string, allowRegister bool) (uint32, error) {
	fields := strings.Fields(token)
	if len(fields) == 0 {
		return 0, ErrShiftInvalid
	}

	name := strings.ToUpper(fields[0])
	if name == "RRX" {
		if len(fields) != 1 {
			return 0, ErrShiftInvalid
		}
		return uint32(insts.ShiftROR) << 5, nil
	}

	shift, ok := shiftTypes[name]
	if !ok || len(fields) != 2 {
		return 0, ErrShiftInvalid
	}

	if !strings.HasPrefix(fields[1], "#") {
		if !allowRegister {
			return 0, ErrShiftInvalid
		}
		rs, err := register(fields[1])
		if err != nil {
			return 0, err
		}
		return rs<<8 | uint32(shift)<<5 | 1<<4, nil
	}

	amount, err := immediate(fields[1])
	if err != nil {
		return 0, err
	}

	switch {
	case shift == insts.ShiftLSL && amount > 31:
		return 0, ErrShiftInvalid
	case shift == insts.ShiftROR && amount > 31:
		// ROR #0 is RRX, so ROR has no encoding for 32.
		return 0, ErrShiftInvalid
	case amount > 32:
		return 0, ErrShiftInvalid
	case amount == 0:
		// Any shift by zero is LSL #0.
		shift = insts.ShiftLSL
	case amount == 32:
		amount = 0
	}

	return amount<<7 | uint32(shift)<<5, nil
}

// encodeShiftedRegister encodes "Rm" or "Rm, shift".
func encodeShiftedRegister(ops []string, allowRegister bool) (uint32, error) {
	rm, err := register(ops[0])
	if err != nil {
		return 0, err
	}
	switch len(ops) {
	case 1:
		return rm, nil
	case 2:
		shift, err := encodeShift(ops[1], allowRegister)
		if err != nil {
			return 0, err
		}
		return shift | rm, nil
	default:
		return 0, ErrOperandExtra
	}
}

// encodeDataProc encodes the sixteen ALU opcodes.
//
//	cond | 00 | I | opcode | S | Rn | Rd | operand2
func encodeDataProc(m []string, ops []string) (uint32, error) {
	op := aluOps[m[1]]
	setFlags := m[3] == "S"

	var rd, rn uint32
	var err error

	switch op {
	case insts.ALUMov, insts.ALUMvn:
		if len(ops) < 2 {
			return 0, ErrOperandMissing
		}
		if rd, err = register(ops[0]); err != nil {
			return 0, err
		}
		ops = ops[1:]
	case insts.ALUTst, insts.ALUTeq, insts.ALUCmp, insts.ALUCmn:
		if len(ops) < 2 {
			return 0, ErrOperandMissing
		}
		if rn, err = register(ops[0]); err != nil {
			return 0, err
		}
		setFlags = true
		ops = ops[1:]
	default:
		if len(ops) < 3 {
			return 0, ErrOperandMissing
		}
		if rd, err = register(ops[0]); err != nil {
			return 0, err
		}
		if rn, err = register(ops[1]); err != nil {
			return 0, err
		}
		ops = ops[2:]
	}

	word := cond(m[2]) | uint32(op)<<21 | flag(setFlags, 20) | rn<<16 | rd<<12

	if strings.HasPrefix(ops[0], "#") {
		if len(ops) > 1 {
			return 0, ErrOperandExtra
		}
		value, err := immediate(ops[0])
		if err != nil {
			return 0, err
		}
		imm8, rot, ok := compressImmediate(value)
		if !ok {
			return 0, ErrImmediateRange
		}
		return word | 1<<25 | rot<<8 | imm8, nil
	}

	op2, err := encodeShiftedRegister(ops, true)
	if err != nil {
		return 0, err
	}

	return word | op2, nil
}

// encodeMultiply encodes MUL Rd, Rm, Rs and MLA Rd, Rm, Rs, Rn.
//
//	cond | 000000 | A | S | Rd | Rn | Rs | 1001 | Rm
func encodeMultiply(m []string, ops []string) (uint32, error) {
	accumulate := m[1] == "MLA"

	want := 3
	if accumulate {
		want = 4
	}
	switch {
	case len(ops) < want:
		return 0, ErrOperandMissing
	case len(ops) > want:
		return 0, ErrOperandExtra
	}

	var regs [4]uint32
	for i, op := range ops {
		r, err := register(op)
		if err != nil {
			return 0, err
		}
		regs[i] = r
	}
	rd, rm, rs, rn := regs[0], regs[1], regs[2], regs[3]

	return cond(m[2]) | flag(accumulate, 21) | flag(m[3] == "S", 20) |
		rd<<16 | rn<<12 | rs<<8 | 0x9<<4 | rm, nil
}

// encodeTransfer encodes LDR, STR and their B and T variants.
//
//	cond | 01 | I | P | U | B | W | L | Rn | Rd | offset
func (asm *Assembler) encodeTransfer(m []string, operands string) (uint32, error) {
	rdText, address, ok := strings.Cut(operands, ",")
	if !ok {
		return 0, ErrOperandMissing
	}
	rd, err := register(rdText)
	if err != nil {
		return 0, err
	}

	address = strings.TrimSpace(address)

	var preIndex, writeBack bool
	var inside, offsetText string

	if pre := rePreIndexed.FindStringSubmatch(address); pre != nil {
		preIndex = true
		writeBack = pre[2] == "!"
		inside = pre[1]
		if rnText, rest, ok := strings.Cut(inside, ","); ok {
			inside, offsetText = rnText, strings.TrimSpace(rest)
		}
	} else if post := rePostIndexed.FindStringSubmatch(address); post != nil {
		inside = post[1]
		offsetText = strings.TrimSpace(post[2])
	} else {
		return 0, ErrAddressInvalid
	}

	if m[4] == "T" {
		if preIndex {
			return 0, ErrWriteBackConflict
		}
		writeBack = true
	}

	rn, err := register(inside)
	if err != nil {
		return 0, err
	}

	up := true
	isImmediate := true
	var offset uint32

	switch {
	case offsetText == "":
		if !preIndex {
			return 0, ErrAddressInvalid
		}
	case strings.HasPrefix(offsetText, "#"):
		value := strings.TrimSpace(offsetText[1:])
		if strings.HasPrefix(value, "-") {
			up = false
			value = value[1:]
		} else {
			value = strings.TrimPrefix(value, "+")
		}
		if offset, err = valueOf(value); err != nil {
			return 0, err
		}
		if offset > 0xFFF {
			return 0, ErrImmediateRange
		}
	default:
		isImmediate = false
		if strings.HasPrefix(offsetText, "-") {
			up = false
			offsetText = offsetText[1:]
		} else {
			offsetText = strings.TrimPrefix(offsetText, "+")
		}
		if offset, err = encodeShiftedRegister(splitOperands(offsetText), false); err != nil {
			return 0, err
		}
	}

	immBit := isImmediate == (asm.Encoding == insts.OffsetImmediateWhenSet)

	return cond(m[2]) | 0b01<<26 | flag(immBit, 25) | flag(preIndex, 24) |
		flag(up, 23) | flag(m[3] == "B", 22) | flag(writeBack, 21) |
		flag(m[1] == "LDR", 20) | rn<<16 | rd<<12 | offset, nil
}

// encodeBranch encodes B and BL. The target is a label, an absolute byte
// address, or "#offset" relative to the branch itself.
//
//	cond | 101 | L | offset24
func (asm *Assembler) encodeBranch(m []string, operands string, addr uint32) (uint32, error) {
	target := strings.TrimSpace(operands)
	if target == "" {
		return 0, ErrOperandMissing
	}

	var distance int64
	switch loc, isLabel := asm.Label[target]; {
	case isLabel:
		distance = int64(loc) - int64(addr)
	case strings.HasPrefix(target, "#"):
		rel, err := valueOf(target[1:])
		if err != nil {
			return 0, err
		}
		distance = int64(int32(rel))
	case reIdentifier.FindString(target) == target:
		return 0, ErrLabelMissing(target)
	default:
		abs, err := valueOf(target)
		if err != nil {
			return 0, err
		}
		distance = int64(abs) - int64(addr)
	}

	field := distance - 8
	if field%4 != 0 || field < -(1<<25) || field >= 1<<25 {
		return 0, ErrBranchRange
	}

	return cond(m[2]) | 0b101<<25 | flag(m[1] == "L", 24) |
		uint32(field>>2)&0xFFFFFF, nil
}
