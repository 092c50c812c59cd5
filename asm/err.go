package asm

import (
	"errors"

	"github.com/sarchlab/armsim/translate"
)

var f = translate.From

var (
	ErrEquateSyntax      = errors.New(f(".equ syntax"))
	ErrEquateDuplicate   = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate    = errors.New(f("label duplicated"))
	ErrDirectiveUnknown  = errors.New(f("directive unknown"))
	ErrOpcodeInvalid     = errors.New(f("opcode invalid"))
	ErrOperandMissing    = errors.New(f("operand missing"))
	ErrOperandExtra      = errors.New(f("excessive operands"))
	ErrRegisterInvalid   = errors.New(f("register invalid"))
	ErrImmediateRange    = errors.New(f("immediate not encodable"))
	ErrShiftInvalid      = errors.New(f("shift invalid"))
	ErrAddressInvalid    = errors.New(f("address invalid"))
	ErrBranchRange       = errors.New(f("branch target out of range"))
	ErrWriteBackConflict = errors.New(f("T suffix requires post-indexing"))
)

// ErrLabelMissing is returned for a branch to an undefined label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrParseNumber is returned for a malformed numeric literal.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression is returned when a $(...) expression does not
// evaluate to an integer.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// SyntaxError locates an assembly error in the source.
type SyntaxError struct {
	LineNo int
	Line   string
	Err    error
}

func (err *SyntaxError) Error() string {
	return f("line %v '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err *SyntaxError) Unwrap() error {
	return err.Err
}
