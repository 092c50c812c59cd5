package benchmarks

import (
	"strings"

	"github.com/sarchlab/armsim/emu"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets one instruction class or pattern.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		matrixMultiply2x2(),
		loopSimulation(),
		byteCopy(),
		fibonacci(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: loop, matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply2x2(),
		branchTaken(),
	}
}

func source(lines ...string) string {
	return strings.Join(lines, "\n")
}

// 1. Arithmetic Sequential - independent data processing operations
func arithmeticSequential() Benchmark {
	lines := make([]string, 0, 20)
	for i := 0; i < 4; i++ {
		lines = append(lines,
			"ADD R0, R0, #1",
			"ADD R1, R1, #1",
			"ADD R2, R2, #1",
			"ADD R3, R3, #1",
			"ADD R4, R4, #1",
		)
	}

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADD operations",
		Source:       source(lines...),
		ExpectedRegs: map[int]uint32{0: 4, 1: 4, 2: 4, 3: 4, 4: 4},
	}
}

// 2. Dependency Chain - a counted loop around one dependent ADD
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "20 dependent ADDs (R0 = R0 + 1) in a SUBS/BNE loop",
		Source: source(
			"        MOV R0, #0",
			"        MOV R1, #20",
			"loop:   ADD R0, R0, #1",
			"        SUBS R1, R1, #1",
			"        BNE loop",
		),
		ExpectedRegs: map[int]uint32{0: 20, 1: 0},
	}
}

// 3. Memory Sequential - store/load pairs walking an array
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "10 store/load pairs to sequential words",
		Source: source(
			"        MOV R1, #0x800",
			"        MOV R0, #42",
			"        MOV R2, #10",
			"loop:   STR R0, [R1]",
			"        LDR R3, [R1], #4",
			"        ADD R0, R0, #1",
			"        SUBS R2, R2, #1",
			"        BNE loop",
		),
		ExpectedRegs: map[int]uint32{0: 52, 1: 0x828, 3: 51},
		ExpectedMem:  map[uint32]uint32{0x800: 42, 0x824: 51},
	}
}

// 4. Function Calls - BL and return through LR
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 calls to a leaf function returning with MOV PC, LR",
		Source: source(
			"        MOV R0, #0",
			"        MOV R4, #5",
			"loop:   BL add3",
			"        SUBS R4, R4, #1",
			"        BNE loop",
			"        B done",
			"add3:   ADD R0, R0, #3",
			"        MOV PC, LR",
			"done:",
		),
		ExpectedRegs: map[int]uint32{0: 15, 4: 0},
	}
}

// 5. Branch Taken - conditional execution on alternating parity
func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "16 iterations of TST with conditional ADDs",
		Source: source(
			"        MOV R0, #0",
			"        MOV R1, #16",
			"loop:   TST R1, #1",
			"        ADDEQ R0, R0, #2",
			"        ADDNE R0, R0, #1",
			"        SUBS R1, R1, #1",
			"        BNE loop",
		),
		ExpectedRegs: map[int]uint32{0: 24, 1: 0},
	}
}

// 6. Matrix Multiply 2x2 - MUL/MLA over words in memory
func matrixMultiply2x2() Benchmark {
	return Benchmark{
		Name:        "matrix_multiply_2x2",
		Description: "C = A * B for 2x2 word matrices",
		Source: source(
			".equ MAT_A 0x800",
			".equ MAT_B 0x810",
			".equ MAT_C 0x820",
			"        MOV R8, #MAT_A",
			"        MOV R9, #MAT_B",
			"        MOV R10, #MAT_C",
			"        LDR R0, [R8], #4    ; A00",
			"        LDR R1, [R8], #4    ; A01",
			"        LDR R2, [R8], #4    ; A10",
			"        LDR R3, [R8], #4    ; A11",
			"        LDR R4, [R9], #4    ; B00",
			"        LDR R5, [R9], #4    ; B01",
			"        LDR R6, [R9], #4    ; B10",
			"        LDR R7, [R9], #4    ; B11",
			"        MUL R11, R0, R4",
			"        MLA R11, R1, R6, R11",
			"        STR R11, [R10], #4",
			"        MUL R11, R0, R5",
			"        MLA R11, R1, R7, R11",
			"        STR R11, [R10], #4",
			"        MUL R11, R2, R4",
			"        MLA R11, R3, R6, R11",
			"        STR R11, [R10], #4",
			"        MUL R11, R2, R5",
			"        MLA R11, R3, R7, R11",
			"        STR R11, [R10], #4",
		),
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			for i, v := range []uint32{1, 2, 3, 4, 5, 6, 7, 8} {
				_ = memory.Write32(0x800+4*uint32(i), v)
			}
		},
		ExpectedRegs: map[int]uint32{11: 50},
		ExpectedMem: map[uint32]uint32{
			0x820: 19, 0x824: 22,
			0x828: 43, 0x82C: 50,
		},
	}
}

// 7. Loop Simulation - sum of 1..100
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "Sum 1..100 with a register-operand ADD",
		Source: source(
			"        MOV R0, #0",
			"        MOV R1, #100",
			"loop:   ADD R0, R0, R1",
			"        SUBS R1, R1, #1",
			"        BNE loop",
		),
		ExpectedRegs: map[int]uint32{0: 5050, 1: 0},
	}
}

// 8. Byte Copy - LDRB/STRB with post-indexed addressing
func byteCopy() Benchmark {
	return Benchmark{
		Name:        "byte_copy",
		Description: "Copy 16 bytes one at a time",
		Source: source(
			"        MOV R1, #0x800",
			"        MOV R2, #0x900",
			"        MOV R3, #16",
			"loop:   LDRB R0, [R1], #1",
			"        STRB R0, [R2], #1",
			"        SUBS R3, R3, #1",
			"        BNE loop",
		),
		Setup: func(regFile *emu.RegFile, memory *emu.Memory) {
			for i := uint32(0); i < 16; i++ {
				_ = memory.Write8(0x800+i, uint8(i+1))
			}
		},
		ExpectedRegs: map[int]uint32{1: 0x810, 2: 0x910},
		ExpectedMem: map[uint32]uint32{
			0x900: 0x04030201,
			0x90C: 0x100F0E0D,
		},
	}
}

// 9. Fibonacci - register moves in a loop
func fibonacci() Benchmark {
	return Benchmark{
		Name:        "fibonacci",
		Description: "F(20) by iteration",
		Source: source(
			"        MOV R0, #0",
			"        MOV R1, #1",
			"        MOV R2, #20",
			"loop:   ADD R3, R0, R1",
			"        MOV R0, R1",
			"        MOV R1, R3",
			"        SUBS R2, R2, #1",
			"        BNE loop",
		),
		ExpectedRegs: map[int]uint32{0: 6765, 1: 10946},
	}
}
