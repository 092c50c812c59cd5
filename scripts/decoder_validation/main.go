// Validate decoder throughput and the disassembler/assembler round trip.
package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/sarchlab/armsim/asm"
	"github.com/sarchlab/armsim/insts"
)

var words = []uint32{
	0xE3A0002A, // MOV R0, #42
	0xE0912003, // ADDS R2, R1, R3
	0xE1A00211, // MOV R0, R1, LSL R2
	0xE0230291, // MLA R3, R1, R2, R0
	0xE7910004, // LDR R0, [R1, #4]
	0xE6C32001, // STRB R2, [R3], #1
	0x1AFFFFFD, // BNE #-4
}

func main() {
	decoder := insts.NewDecoder()

	failures := 0
	for _, word := range words {
		inst, err := decoder.Decode(word)
		if err != nil {
			fmt.Printf("0x%08x: decode failed: %v\n", word, err)
			failures++
			continue
		}

		text := inst.Disassemble(insts.OffsetImmediateWhenSet)
		prog, err := (&asm.Assembler{}).Parse(strings.NewReader(text))
		switch {
		case err != nil:
			fmt.Printf("0x%08x: %-28s reassembly failed: %v\n", word, text, err)
			failures++
		case prog.Words[0] != word:
			fmt.Printf("0x%08x: %-28s reassembled to 0x%08x\n", word, text, prog.Words[0])
			failures++
		default:
			fmt.Printf("0x%08x: %s\n", word, text)
		}
	}

	// Warm up
	for i := 0; i < 1000; i++ {
		_, _ = decoder.Decode(words[0])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, word := range words {
			_, _ = decoder.Decode(word)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("\nDecoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Round-trip failures: %d\n", failures)
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))

	if failures > 0 {
		os.Exit(1)
	}
}
