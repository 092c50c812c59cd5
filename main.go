// Package main provides the entry point for armsim.
// armsim is an ARMv4 instruction interpreter with a cycle-counting core model.
//
// For the full CLI, use: go run ./cmd/armsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("armsim - ARM instruction interpreter")
	fmt.Println("")
	fmt.Println("Usage: armsim [options] <program>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to a YAML or JSON configuration file")
	fmt.Println("  -trace     Print the register file after every executed instruction")
	fmt.Println("  -mem       Dump a memory range after the run (from:to)")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/armsim' for the full CLI.")
	fmt.Println("Run 'go run ./cmd/armasm' to assemble a source file.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/armsim' instead.")
	}
}
