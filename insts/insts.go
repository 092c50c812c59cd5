// Package insts provides ARMv4 (ARM7) instruction definitions and decoding.
//
// This package implements decoding of 32-bit ARM machine words into
// structured instruction records. It supports:
//   - Data Processing: AND, EOR, SUB, RSB, ADD, ADC, SBC, RSC, TST, TEQ,
//     CMP, CMN, ORR, MOV, BIC, MVN with immediate or shifted-register operands
//   - Multiply: MUL, MLA
//   - Single Data Transfer: LDR, LDRB, STR, STRB
//   - Branch: B, BL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0xE0012083) // AND R2, R1, R3, LSL #1
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d, Rm: %d\n", inst.Op, inst.Rd, inst.Rn, inst.Rm)
package insts
