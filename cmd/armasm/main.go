// Package main provides the entry point for armasm, the assembler for
// armsim programs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/armsim/asm"
	"github.com/sarchlab/armsim/insts"
)

var (
	output       = flag.String("o", "", "Output file (default: input with .bin extension)")
	conventional = flag.Bool("conventional", false, "Encode LDR/STR bit 25 with the architectural polarity")
	listing      = flag.Bool("l", false, "Print a listing of the assembled words")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: armasm [options] <program.s>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	sourcePath := flag.Arg(0)

	source, err := os.Open(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening source: %v\n", err)
		os.Exit(1)
	}
	defer source.Close()

	assembler := &asm.Assembler{}
	if *conventional {
		assembler.Encoding = insts.OffsetImmediateWhenClear
	}

	prog, err := assembler.Parse(source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", sourcePath, err)
		os.Exit(1)
	}

	outPath := *output
	if outPath == "" {
		outPath = strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath)) + ".bin"
	}

	if err := os.WriteFile(outPath, prog.Bytes(), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if *listing {
		printListing(prog, assembler.Encoding)
	}
}

// printListing prints each word with its address and disassembly.
func printListing(prog *asm.Program, enc insts.OffsetEncoding) {
	decoder := insts.NewDecoder()
	for i, word := range prog.Words {
		text := fmt.Sprintf(".word 0x%08X", word)
		if inst, err := decoder.Decode(word); err == nil {
			text = inst.Disassemble(enc)
		}
		fmt.Printf("%04x: %08x  %4d  %s\n", 4*i, word, prog.LineNo[i], text)
	}
}
