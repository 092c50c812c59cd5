package insts

import "math/bits"

// Bit returns bit index of word as 0 or 1.
func Bit(word uint32, index uint) uint32 {
	return (word >> index) & 1
}

// Bits returns the inclusive bit range [hi:lo] of word, right-aligned.
func Bits(word uint32, hi, lo uint) uint32 {
	width := hi - lo + 1
	if width >= 32 {
		return word >> lo
	}
	return (word >> lo) & ((1 << width) - 1)
}

// LSL shifts value left by amount. Amounts of 32 or more yield 0.
func LSL(value, amount uint32) uint32 {
	if amount >= 32 {
		return 0
	}
	return value << amount
}

// LSR shifts value right by amount, filling with zeros. Amounts of 32 or
// more yield 0.
func LSR(value, amount uint32) uint32 {
	if amount >= 32 {
		return 0
	}
	return value >> amount
}

// ASR shifts value right by amount, replicating the sign bit. Amounts of 32
// or more behave like 31, so the result is all sign bits.
func ASR(value, amount uint32) uint32 {
	if amount >= 32 {
		amount = 31
	}
	return uint32(int32(value) >> amount)
}

// ROR rotates value right by amount modulo 32.
func ROR(value, amount uint32) uint32 {
	return bits.RotateLeft32(value, -int(amount%32))
}

// RRX rotates value right by one through carry: carry enters at bit 31.
// The bit shifted out of bit 0 is the caller's carry-out.
func RRX(value uint32, carry bool) uint32 {
	result := value >> 1
	if carry {
		result |= 1 << 31
	}
	return result
}
