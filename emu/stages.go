package emu

import "github.com/sarchlab/armsim/insts"

// ExecuteStage computes ALU results, transfer addresses and branch targets.
// It reads the register file but defers every write to WritebackStage.
type ExecuteStage struct {
	alu             *ALU
	lsu             *LoadStoreUnit
	branchUnit      *BranchUnit
	regFile         *RegFile
	strictWriteBack bool
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(
	regFile *RegFile,
	alu *ALU,
	lsu *LoadStoreUnit,
	branchUnit *BranchUnit,
	strictWriteBack bool,
) *ExecuteStage {
	return &ExecuteStage{
		alu:             alu,
		lsu:             lsu,
		branchUnit:      branchUnit,
		regFile:         regFile,
		strictWriteBack: strictWriteBack,
	}
}

// ExecResult holds the result of the execute stage and the writes that
// memory and writeback will perform.
type ExecResult struct {
	Inst *insts.Instruction

	// Register result (data processing and multiply).
	ALUResult uint32
	RegWrite  bool
	Rd        uint8

	// Flags to commit when SetFlags is true.
	SetFlags bool
	Flags    PSTATE

	// Single data transfer.
	MemRead      bool
	MemWrite     bool
	Byte         bool
	Address      uint32
	StoreValue   uint32
	BaseWrite    bool
	Rn           uint8
	AdvancedBase uint32

	// Branch.
	BranchTaken  bool
	BranchTarget uint32
	Link         bool
	LinkValue    uint32
}

// Execute runs one decoded instruction through the datapath selected by its
// format.
func (s *ExecuteStage) Execute(inst *insts.Instruction) ExecResult {
	result := ExecResult{Inst: inst}

	switch inst.Format {
	case insts.FormatDataProc:
		result.ALUResult, result.Flags = s.alu.DataProcessing(inst)
		result.SetFlags = inst.SetFlags
		result.RegWrite = inst.ALUOp.WritesResult()
		result.Rd = inst.Rd

	case insts.FormatMultiply:
		result.ALUResult, result.Flags = s.alu.Multiply(inst)
		result.SetFlags = inst.SetFlags
		result.RegWrite = true
		result.Rd = inst.Rd

	case insts.FormatTransfer:
		result.Address, result.AdvancedBase = s.lsu.Addresses(inst)
		result.MemRead = inst.Load
		result.MemWrite = !inst.Load
		result.Byte = inst.Byte
		result.Rd = inst.Rd
		result.Rn = inst.Rn
		result.BaseWrite = !s.strictWriteBack || inst.WriteBack || !inst.PreIndex
		if result.MemWrite {
			result.StoreValue = s.regFile.ReadReg(inst.Rd)
		}

	case insts.FormatBranch:
		result.BranchTaken = true
		result.ALUResult = s.branchUnit.Offset(inst)
		result.BranchTarget, result.LinkValue = s.branchUnit.Target(inst)
		result.Link = inst.Link
	}

	return result
}

// MemoryStage handles memory load/store operations.
type MemoryStage struct {
	lsu *LoadStoreUnit
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(lsu *LoadStoreUnit) *MemoryStage {
	return &MemoryStage{lsu: lsu}
}

// MemoryResult holds the result of the memory stage.
type MemoryResult struct {
	MemData uint32
}

// Access performs the memory read or write requested by ex, if any.
func (s *MemoryStage) Access(ex *ExecResult) (MemoryResult, error) {
	result := MemoryResult{}

	switch {
	case ex.MemRead:
		data, err := s.lsu.Load(ex.Address, ex.Byte)
		if err != nil {
			return result, err
		}
		result.MemData = data
	case ex.MemWrite:
		if err := s.lsu.Store(ex.Address, ex.StoreValue, ex.Byte); err != nil {
			return result, err
		}
	}

	return result, nil
}

// WritebackStage commits register and flag updates.
type WritebackStage struct {
	regFile *RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback applies ex to the register file. For transfers the base is
// written before the loaded value, so a load into its own base register
// keeps the loaded data.
func (s *WritebackStage) Writeback(ex *ExecResult, mem MemoryResult) {
	if ex.SetFlags {
		s.regFile.PSTATE = ex.Flags
	}

	if ex.BaseWrite {
		s.regFile.WriteReg(ex.Rn, ex.AdvancedBase)
	}

	switch {
	case ex.MemRead:
		s.regFile.WriteReg(ex.Rd, mem.MemData)
	case ex.RegWrite:
		s.regFile.WriteReg(ex.Rd, ex.ALUResult)
	}

	if ex.BranchTaken {
		if ex.Link {
			s.regFile.WriteReg(RegLR, ex.LinkValue)
		}
		s.regFile.SetPC(ex.BranchTarget)
	}
}
