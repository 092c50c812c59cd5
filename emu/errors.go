package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/armsim/insts"
)

var (
	// ErrOutOfBounds is returned when an access touches a byte outside
	// memory or a register index outside r0-r15.
	ErrOutOfBounds = errors.New("out of bounds access")

	// ErrProgramTooLarge is returned when a program image does not fit in
	// memory.
	ErrProgramTooLarge = errors.New("program too large")

	// ErrInvalidCondition is returned for the reserved condition code 0b1111.
	ErrInvalidCondition = errors.New("invalid condition")

	// ErrInstructionLimit is returned by Run when the configured instruction
	// limit is reached before the program halts.
	ErrInstructionLimit = errors.New("instruction limit reached")

	// ErrUnknownOpcode is returned for words that match no instruction class.
	ErrUnknownOpcode = insts.ErrUnknownOpcode
)

// AccessError describes a rejected memory access.
type AccessError struct {
	Addr  uint32
	Width int
	Write bool
}

func (e *AccessError) Error() string {
	kind := "read"
	if e.Write {
		kind = "write"
	}
	return fmt.Sprintf("%d-byte %s at 0x%08x: %v", e.Width, kind, e.Addr, ErrOutOfBounds)
}

func (e *AccessError) Unwrap() error {
	return ErrOutOfBounds
}

// FaultError reports the instruction that stopped a run.
type FaultError struct {
	PC   uint32 // Address of the faulting instruction
	Word uint32 // Raw instruction word, zero if the fetch itself failed
	Err  error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("fault at pc=0x%08x word=0x%08x: %v", e.PC, e.Word, e.Err)
}

func (e *FaultError) Unwrap() error {
	return e.Err
}
