package loader

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/armsim/emu"
)

// ErrUnsupportedELF is returned for ELF files the emulator cannot run.
var ErrUnsupportedELF = errors.New("unsupported ELF file")

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the address where this segment is placed.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// LoadELF parses a 32-bit little-endian ARM ELF executable. Execution
// starts at address 0, so the entry point must be 0.
func LoadELF(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("%w: not a 32-bit ELF file", ErrUnsupportedELF)
	}
	if f.ByteOrder != binary.LittleEndian {
		return nil, fmt.Errorf("%w: not little-endian", ErrUnsupportedELF)
	}
	if f.Machine != elf.EM_ARM {
		return nil, fmt.Errorf("%w: machine type %v", ErrUnsupportedELF, f.Machine)
	}
	if f.Entry != 0 {
		return nil, fmt.Errorf("%w: entry point 0x%x, want 0", ErrUnsupportedELF, f.Entry)
	}

	prog := &Program{Format: FormatELF}
	var end uint64

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		if phdr.Vaddr+phdr.Memsz > emu.MemorySize {
			return nil, fmt.Errorf("%w: segment 0x%x+0x%x exceeds %d bytes",
				emu.ErrProgramTooLarge, phdr.Vaddr, phdr.Memsz, emu.MemorySize)
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})

		if e := phdr.Vaddr + phdr.Filesz; e > end {
			end = e
		}
	}

	if len(prog.Segments) == 0 {
		return nil, fmt.Errorf("%w: no loadable segments", ErrUnsupportedELF)
	}

	// BSS beyond the last file byte is already zero in a fresh memory.
	// The image is padded to a whole word so that the PC can reach its end.
	end = (end + 3) &^ 3
	prog.Image = make([]byte, end)
	for _, seg := range prog.Segments {
		copy(prog.Image[seg.VirtAddr:], seg.Data)
	}

	return prog, nil
}
