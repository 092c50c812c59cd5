package emu

import "github.com/sarchlab/armsim/insts"

// ShiftResult is the output of the barrel shifter.
type ShiftResult struct {
	Value uint32
	Carry bool
}

// Shift runs value through the barrel shifter. carryIn is the current C
// flag; it becomes the carry-out for LSL #0 and the bit rotated in by RRX.
//
// Amount edge cases:
//   - LSL: 0 passes value and carry through, 32 keeps bit 0 as carry, more
//     than 32 clears both.
//   - LSR: 0 means 32, more than 32 clears value and carry.
//   - ASR: 0 or more than 31 means 32, filling with the sign bit.
//   - ROR: reduced by 32 while above 32; 0 is RRX.
func Shift(t insts.ShiftType, amount uint32, value uint32, carryIn bool) ShiftResult {
	switch t {
	case insts.ShiftLSL:
		switch {
		case amount == 0:
			return ShiftResult{Value: value, Carry: carryIn}
		case amount <= 32:
			return ShiftResult{
				Value: insts.LSL(value, amount),
				Carry: insts.Bit(value, uint(32-amount)) == 1,
			}
		default:
			return ShiftResult{}
		}

	case insts.ShiftLSR:
		if amount == 0 {
			amount = 32
		}
		if amount > 32 {
			return ShiftResult{}
		}
		return ShiftResult{
			Value: insts.LSR(value, amount),
			Carry: insts.Bit(value, uint(amount-1)) == 1,
		}

	case insts.ShiftASR:
		if amount == 0 || amount > 31 {
			amount = 32
		}
		return ShiftResult{
			Value: insts.ASR(value, amount),
			Carry: insts.Bit(value, uint(amount-1)) == 1,
		}

	default:
		for amount > 32 {
			amount -= 32
		}
		if amount == 0 {
			return ShiftResult{
				Value: insts.RRX(value, carryIn),
				Carry: insts.Bit(value, 0) == 1,
			}
		}
		return ShiftResult{
			Value: insts.ROR(value, amount),
			Carry: insts.Bit(value, uint(amount-1)) == 1,
		}
	}
}
