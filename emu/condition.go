package emu

import (
	"fmt"

	"github.com/sarchlab/armsim/insts"
)

// EvaluateCondition reports whether an instruction with the given condition
// code executes under flags. The reserved code 0b1111 is rejected.
func EvaluateCondition(cond insts.Cond, flags PSTATE) (bool, error) {
	switch cond {
	case insts.CondEQ:
		return flags.Z, nil
	case insts.CondNE:
		return !flags.Z, nil
	case insts.CondCS:
		return flags.C, nil
	case insts.CondCC:
		return !flags.C, nil
	case insts.CondMI:
		return flags.N, nil
	case insts.CondPL:
		return !flags.N, nil
	case insts.CondVS:
		return flags.V, nil
	case insts.CondVC:
		return !flags.V, nil
	case insts.CondHI:
		return flags.C && !flags.Z, nil
	case insts.CondLS:
		return !flags.C || flags.Z, nil
	case insts.CondGE:
		return flags.N == flags.V, nil
	case insts.CondLT:
		return flags.N != flags.V, nil
	case insts.CondGT:
		return !flags.Z && flags.N == flags.V, nil
	case insts.CondLE:
		return flags.Z || flags.N != flags.V, nil
	case insts.CondAL:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0b%04b", ErrInvalidCondition, uint8(cond))
	}
}
