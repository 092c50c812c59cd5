// Package latency provides instruction timing models for cycle counting.
//
// The latency values follow the ARM7TDMI and can be configured via
// TimingConfig.
package latency

import (
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the cost in cycles of an instruction that passed its
// condition check.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch inst.Format {
	case insts.FormatDataProc:
		cycles := t.config.DataProcLatency
		if !inst.Immediate && inst.RegShift {
			cycles += t.config.RegisterShiftPenalty
		}
		if inst.ALUOp.WritesResult() && inst.Rd == emu.RegPC {
			cycles += t.config.PCWritePenalty
		}
		return cycles

	case insts.FormatMultiply:
		if inst.Accumulate {
			return t.config.MultiplyAccumulateLatency
		}
		return t.config.MultiplyLatency

	case insts.FormatTransfer:
		if !inst.Load {
			return t.config.StoreLatency
		}
		if inst.Rd == emu.RegPC {
			return t.config.LoadLatency + t.config.LoadPCPenalty
		}
		return t.config.LoadLatency

	case insts.FormatBranch:
		return t.config.BranchLatency

	default:
		return 1
	}
}

// GetStepLatency returns the cost of a retired step: GetLatency when the
// instruction executed, SkippedLatency when its condition failed.
func (t *Table) GetStepLatency(inst *insts.Instruction, executed bool) uint64 {
	if !executed {
		return t.config.SkippedLatency
	}
	return t.GetLatency(inst)
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Format == insts.FormatTransfer
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpLoad || inst.Op == insts.OpLoadByte
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpStore || inst.Op == insts.OpStoreByte
}

// IsBranchOp returns true if the instruction is a branch operation.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op == insts.OpBranch
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
