// Package dump renders emulator state for humans.
package dump

import (
	"fmt"
	"io"

	"github.com/bradleyjkemp/memviz"

	"github.com/sarchlab/armsim/emu"
)

// Registers writes r0-r15 four per line followed by the flags.
func Registers(w io.Writer, regs *emu.RegFile) error {
	for i := 0; i < emu.NumRegs; i++ {
		if i != 0 && i%4 == 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}

		format := "r%d:  0x%08x  "
		if i >= 10 {
			format = "r%d: 0x%08x  "
		}
		if _, err := fmt.Fprintf(w, format, i, regs.R[i]); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%s\n\n", Flags(regs.PSTATE))
	return err
}

// Flags renders the condition flags as "NZCV", with clear flags in lower
// case.
func Flags(p emu.PSTATE) string {
	b := []byte("nzcv")
	for i, set := range []bool{p.N, p.Z, p.C, p.V} {
		if set {
			b[i] -= 'a' - 'A'
		}
	}
	return "flags: " + string(b)
}

// Memory writes a hex dump of [from, to), sixteen bytes per line.
func Memory(w io.Writer, mem *emu.Memory, from, to uint32) error {
	data, err := mem.Bytes(from, to)
	if err != nil {
		return err
	}

	for off := 0; off < len(data); off += 16 {
		end := off + 16
		if end > len(data) {
			end = len(data)
		}
		if _, err := fmt.Fprintf(w, "%08x: % x\n", from+uint32(off), data[off:end]); err != nil {
			return err
		}
	}

	return nil
}

// Graph writes the register file as a Graphviz dot graph.
func Graph(w io.Writer, regs *emu.RegFile) {
	snapshot := *regs
	memviz.Map(w, &snapshot)
}
