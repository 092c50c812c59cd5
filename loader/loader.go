// Package loader reads program images for the emulator.
//
// Two formats are accepted: a raw, headerless sequence of little-endian
// instruction words, and a 32-bit little-endian ARM ELF executable whose
// PT_LOAD segments are flattened into one image starting at address 0.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/armsim/emu"
)

// Format identifies the container a program was read from.
type Format uint8

// Program formats.
const (
	FormatRaw Format = iota
	FormatELF
)

func (f Format) String() string {
	if f == FormatELF {
		return "elf"
	}
	return "raw"
}

// ErrUnalignedImage is returned for raw images that are not a whole number
// of instruction words. The PC could never reach the end of such a program.
var ErrUnalignedImage = errors.New("image is not a whole number of words")

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

// Program is a program image ready for emu.Emulator.LoadProgram.
type Program struct {
	// Image is copied to memory at address 0. Its length is the address at
	// which execution halts.
	Image []byte
	// Format is the container the image came from.
	Format Format
	// Segments lists the loadable segments of an ELF file; empty for raw
	// images.
	Segments []Segment
}

// Load reads the program at path. Files starting with the ELF magic are
// parsed as ELF; everything else is treated as a raw image.
func Load(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program: %w", err)
	}

	if bytes.HasPrefix(data, elfMagic) {
		return LoadELF(bytes.NewReader(data))
	}

	return LoadRaw(data)
}

// LoadRaw wraps a headerless image.
func LoadRaw(data []byte) (*Program, error) {
	if len(data) > emu.MemorySize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", emu.ErrProgramTooLarge, len(data), emu.MemorySize)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnalignedImage, len(data))
	}

	return &Program{
		Image:  data,
		Format: FormatRaw,
	}, nil
}
