package emu

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/rs/xid"

	"github.com/sarchlab/armsim/insts"
)

// StepResult represents the result of a single Step.
type StepResult struct {
	// Halted is true when the PC reached the end of the program before the
	// fetch. No instruction ran.
	Halted bool

	// Executed is true when an instruction passed its condition check and
	// ran. False with Halted and Err unset means it was skipped.
	Executed bool

	// Err is set if the step faulted. It is a *FaultError.
	Err error
}

// StepInfo describes one retired instruction, executed or skipped.
type StepInfo struct {
	PC       uint32
	Word     uint32
	Inst     *insts.Instruction
	Executed bool

	// Result is the execute stage output; zero when skipped.
	Result ExecResult
}

// MemAccess describes one data memory access.
type MemAccess struct {
	PC    uint32
	Addr  uint32
	Write bool
	Byte  bool
}

// Observer receives notifications as instructions retire. Observers must
// not modify emulator state.
type Observer interface {
	Retired(info StepInfo)
	Accessed(access MemAccess)
}

// Stats summarizes a run.
type Stats struct {
	Instructions uint64 // Instructions fetched and retired
	Executed     uint64 // Instructions whose condition passed
	Skipped      uint64 // Instructions whose condition failed
	Loads        uint64
	Stores       uint64
	Branches     uint64 // Taken branches
}

// Emulator executes ARM instructions functionally, one at a time.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit

	// Stages
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	observers []Observer
	logger    logr.Logger
	runID     xid.ID

	offsetEncoding  insts.OffsetEncoding
	strictWriteBack bool

	// Execution state
	programSize     uint32
	stats           Stats
	maxInstructions uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithLogger sets the logger. Steps are logged at V(1).
func WithLogger(logger logr.Logger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = logger
	}
}

// WithObserver adds an observer. Observers are notified in the order they
// were added.
func WithObserver(o Observer) EmulatorOption {
	return func(e *Emulator) {
		e.observers = append(e.observers, o)
	}
}

// WithOffsetEncoding selects how bit 25 of LDR/STR is interpreted.
func WithOffsetEncoding(enc insts.OffsetEncoding) EmulatorOption {
	return func(e *Emulator) {
		e.offsetEncoding = enc
	}
}

// WithStrictWriteBack makes pre-indexed transfers update the base register
// only when the W bit is set. By default the base is always updated.
func WithStrictWriteBack(strict bool) EmulatorOption {
	return func(e *Emulator) {
		e.strictWriteBack = strict
	}
}

// NewEmulator creates a new emulator with zeroed registers and memory.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		logger:  logr.Discard(),
		runID:   xid.New(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.WithValues("run", e.runID.String())
	e.buildUnits()

	return e
}

func (e *Emulator) buildUnits() {
	e.alu = NewALU(e.regFile)
	e.lsu = NewLoadStoreUnit(e.regFile, e.memory, e.offsetEncoding)
	e.branchUnit = NewBranchUnit(e.regFile)

	e.executeStage = NewExecuteStage(e.regFile, e.alu, e.lsu, e.branchUnit, e.strictWriteBack)
	e.memoryStage = NewMemoryStage(e.lsu)
	e.writebackStage = NewWritebackStage(e.regFile)
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// RunID returns the identifier attached to this emulator's log lines.
func (e *Emulator) RunID() string {
	return e.runID.String()
}

// Stats returns the counters accumulated since the last reset.
func (e *Emulator) Stats() Stats {
	return e.stats
}

// InstructionCount returns the number of instructions retired.
func (e *Emulator) InstructionCount() uint64 {
	return e.stats.Instructions
}

// ProgramSize returns the size in bytes of the loaded program.
func (e *Emulator) ProgramSize() uint32 {
	return e.programSize
}

// LoadProgram copies program to address 0, records its size as the halt
// address and sets PC to 0. Other registers, the flags and memory beyond
// the program are kept, so operands may be set up before loading. Call
// Reset first to start from a clean state.
func (e *Emulator) LoadProgram(program []byte) error {
	if err := e.memory.LoadProgram(program); err != nil {
		return err
	}
	e.programSize = uint32(len(program))
	e.regFile.SetPC(0)
	return nil
}

// Reset clears registers, memory and counters. The RegFile and Memory
// returned earlier stay valid.
func (e *Emulator) Reset() {
	*e.regFile = RegFile{}
	*e.memory = Memory{}
	e.programSize = 0
	e.stats = Stats{}
}

// Halted reports whether the PC is at the end of the program.
func (e *Emulator) Halted() bool {
	return e.regFile.PC() == e.programSize
}

// Step fetches, decodes and retires a single instruction.
func (e *Emulator) Step() StepResult {
	pc := e.regFile.PC()
	if pc == e.programSize {
		return StepResult{Halted: true}
	}

	// Check instruction limit before executing
	if e.maxInstructions > 0 && e.stats.Instructions >= e.maxInstructions {
		return StepResult{
			Err: &FaultError{PC: pc, Err: fmt.Errorf("%w: %d", ErrInstructionLimit, e.maxInstructions)},
		}
	}

	// 1. Fetch
	word, err := e.memory.Read32(pc)
	if err != nil {
		return StepResult{Err: &FaultError{PC: pc, Err: err}}
	}
	e.regFile.SetPC(pc + 4)

	// 2. Decode
	inst, err := e.decoder.Decode(word)
	if err != nil {
		return StepResult{Err: &FaultError{PC: pc, Word: word, Err: err}}
	}

	// 3. Condition check
	pass, err := EvaluateCondition(inst.Cond, e.regFile.PSTATE)
	if err != nil {
		return StepResult{Err: &FaultError{PC: pc, Word: word, Err: err}}
	}

	info := StepInfo{PC: pc, Word: word, Inst: inst, Executed: pass}

	// 4. Execute, memory, writeback
	if pass {
		ex := e.executeStage.Execute(inst)

		mem, err := e.memoryStage.Access(&ex)
		if err != nil {
			return StepResult{Err: &FaultError{PC: pc, Word: word, Err: err}}
		}
		if ex.MemRead || ex.MemWrite {
			e.notifyAccess(MemAccess{PC: pc, Addr: ex.Address, Write: ex.MemWrite, Byte: ex.Byte})
		}

		e.writebackStage.Writeback(&ex, mem)
		info.Result = ex
	}

	e.retire(info)

	return StepResult{Executed: pass}
}

func (e *Emulator) retire(info StepInfo) {
	e.stats.Instructions++
	if !info.Executed {
		e.stats.Skipped++
	} else {
		e.stats.Executed++
		switch {
		case info.Result.MemRead:
			e.stats.Loads++
		case info.Result.MemWrite:
			e.stats.Stores++
		case info.Result.BranchTaken:
			e.stats.Branches++
		}
	}

	if e.logger.V(1).Enabled() {
		e.logger.V(1).Info("step",
			"pc", fmt.Sprintf("0x%08x", info.PC),
			"word", fmt.Sprintf("0x%08x", info.Word),
			"inst", info.Inst.Disassemble(e.offsetEncoding),
			"executed", info.Executed)
	}

	for _, o := range e.observers {
		o.Retired(info)
	}
}

func (e *Emulator) notifyAccess(access MemAccess) {
	for _, o := range e.observers {
		o.Accessed(access)
	}
}

// Run steps until the program halts or faults.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			e.logger.Error(result.Err, "run stopped", "instructions", e.stats.Instructions)
			return result.Err
		}
		if result.Halted {
			e.logger.Info("program halted",
				"pc", fmt.Sprintf("0x%08x", e.regFile.PC()),
				"instructions", e.stats.Instructions)
			return nil
		}
	}
}
