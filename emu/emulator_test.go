package emu_test

import (
	"errors"

	"github.com/go-logr/logr/funcr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
)

type recorder struct {
	retired  []emu.StepInfo
	accesses []emu.MemAccess
}

func (r *recorder) Retired(info emu.StepInfo) {
	r.retired = append(r.retired, info)
}

func (r *recorder) Accessed(access emu.MemAccess) {
	r.accesses = append(r.accesses, access)
}

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e = emu.NewEmulator()
	})

	It("should create an emulator with zeroed state", func() {
		Expect(e.RegFile().PC()).To(BeZero())
		Expect(e.InstructionCount()).To(BeZero())
		Expect(e.RunID()).ToNot(BeEmpty())
	})

	It("should halt immediately on an empty program", func() {
		Expect(e.LoadProgram(nil)).To(Succeed())

		result := e.Step()
		Expect(result.Halted).To(BeTrue())
		Expect(e.Run()).To(Succeed())
	})

	It("should advance the PC before executing", func() {
		// MOV R0, R15
		Expect(e.LoadProgram(program(0xE1A0000F))).To(Succeed())

		Expect(e.Step().Err).ToNot(HaveOccurred())
		Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(4)))
	})

	It("should skip instructions whose condition fails", func() {
		// MOVEQ R0, #1
		Expect(e.LoadProgram(program(0x03A00001))).To(Succeed())

		result := e.Step()
		Expect(result.Err).ToNot(HaveOccurred())
		Expect(result.Executed).To(BeFalse())
		Expect(e.RegFile().ReadReg(0)).To(BeZero())
		Expect(e.RegFile().PC()).To(Equal(uint32(4)))
		Expect(e.Stats().Skipped).To(Equal(uint64(1)))
	})

	Describe("Branch", func() {
		It("should treat an all-ones field as the next instruction", func() {
			// B with field 0xFFFFFF, then MOV R0, #7
			Expect(e.LoadProgram(program(0xEAFFFFFF, 0xE3A00007))).To(Succeed())

			Expect(e.Step().Err).ToNot(HaveOccurred())
			Expect(e.RegFile().PC()).To(Equal(uint32(4)))

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadReg(0)).To(Equal(uint32(7)))
		})

		It("should store the return address for BL", func() {
			// BL +8, MOV R0, #1, MOV R1, #2
			Expect(e.LoadProgram(program(0xEB000000, 0xE3A00001, 0xE3A01002))).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().ReadReg(emu.RegLR)).To(Equal(uint32(4)))
			Expect(e.RegFile().ReadReg(0)).To(BeZero())
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(2)))
		})

		It("should run a countdown loop to completion", func() {
			// MOV R0, #5; loop: SUBS R0, R0, #1; BNE loop
			Expect(e.LoadProgram(program(0xE3A00005, 0xE2500001, 0x1AFFFFFD))).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(e.RegFile().ReadReg(0)).To(BeZero())
			Expect(e.RegFile().PSTATE.Z).To(BeTrue())
			Expect(e.RegFile().PC()).To(Equal(uint32(12)))

			stats := e.Stats()
			Expect(stats.Instructions).To(Equal(uint64(11)))
			Expect(stats.Skipped).To(Equal(uint64(1)))
			Expect(stats.Branches).To(Equal(uint64(4)))
		})
	})

	Describe("Faults", func() {
		It("should report unknown opcodes with the PC and word", func() {
			Expect(e.LoadProgram(program(0xE3A00001, 0xEC000000))).To(Succeed())

			err := e.Run()

			var fault *emu.FaultError
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.PC).To(Equal(uint32(4)))
			Expect(fault.Word).To(Equal(uint32(0xEC000000)))
			Expect(err).To(MatchError(emu.ErrUnknownOpcode))
		})

		It("should reject the reserved condition", func() {
			Expect(e.LoadProgram(program(0xF0012083))).To(Succeed())

			Expect(e.Step().Err).To(MatchError(emu.ErrInvalidCondition))
			Expect(e.RegFile().ReadReg(2)).To(BeZero())
		})

		It("should report out of bounds data accesses", func() {
			// LDR R2, [R1]
			e.RegFile().WriteReg(1, 0x2000)
			Expect(e.LoadProgram(program(0xE7912000))).To(Succeed())

			err := e.Step().Err

			var accessErr *emu.AccessError
			Expect(errors.As(err, &accessErr)).To(BeTrue())
			Expect(accessErr.Addr).To(Equal(uint32(0x2000)))
			Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(0x2000)))
		})

		It("should fault when execution runs past memory", func() {
			Expect(e.LoadProgram([]byte{0, 0})).To(Succeed())

			err := e.Run()

			var fault *emu.FaultError
			Expect(errors.As(err, &fault)).To(BeTrue())
			Expect(fault.PC).To(Equal(uint32(emu.MemorySize)))
			Expect(err).To(MatchError(emu.ErrOutOfBounds))
			Expect(e.InstructionCount()).To(Equal(uint64(emu.MemorySize / 4)))
		})

		It("should stop at the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMaxInstructions(10))
			// B . (branch to itself)
			Expect(e.LoadProgram(program(0xEAFFFFFE))).To(Succeed())

			err := e.Run()

			Expect(err).To(MatchError(emu.ErrInstructionLimit))
			Expect(e.InstructionCount()).To(Equal(uint64(10)))
		})

		It("should reject oversized programs", func() {
			err := e.LoadProgram(make([]byte, emu.MemorySize+4))
			Expect(err).To(MatchError(emu.ErrProgramTooLarge))
		})
	})

	Describe("Observers", func() {
		It("should see every retired instruction and data access", func() {
			rec := &recorder{}
			e = emu.NewEmulator(emu.WithObserver(rec))
			e.RegFile().WriteReg(0, 0x100)
			// STR R1, [R0, #4]; MOVEQ R2, #1
			Expect(e.LoadProgram(program(0xE7801004, 0x03A02001))).To(Succeed())

			Expect(e.Run()).To(Succeed())

			Expect(rec.retired).To(HaveLen(2))
			Expect(rec.retired[0].Executed).To(BeTrue())
			Expect(rec.retired[0].Result.MemWrite).To(BeTrue())
			Expect(rec.retired[1].Executed).To(BeFalse())
			Expect(rec.accesses).To(Equal([]emu.MemAccess{
				{PC: 0, Addr: 0x104, Write: true},
			}))
		})
	})

	It("should log steps at V(1) tagged with the run id", func() {
		var lines []string
		logger := funcr.New(func(prefix, args string) {
			lines = append(lines, args)
		}, funcr.Options{Verbosity: 1})
		e = emu.NewEmulator(emu.WithLogger(logger))
		Expect(e.LoadProgram(program(0xE3A00001))).To(Succeed())

		Expect(e.Run()).To(Succeed())

		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(ContainSubstring(`"inst"="MOV R0, #1"`))
		Expect(lines[0]).To(ContainSubstring(e.RunID()))
		Expect(lines[1]).To(ContainSubstring("program halted"))
	})

	It("should reset state", func() {
		Expect(e.LoadProgram(program(0xE3A00001))).To(Succeed())
		Expect(e.Run()).To(Succeed())

		e.Reset()

		Expect(e.RegFile().ReadReg(0)).To(BeZero())
		Expect(e.InstructionCount()).To(BeZero())
		Expect(e.ProgramSize()).To(BeZero())
	})

	It("should keep registers and memory across LoadProgram", func() {
		regs := e.RegFile()
		regs.WriteReg(3, 7)
		regs.PSTATE.C = true
		Expect(e.LoadProgram(program(0xE3A00001, 0xE3A01002))).To(Succeed())
		Expect(e.Run()).To(Succeed())

		// MOV R2, #3
		Expect(e.LoadProgram(program(0xE3A02003))).To(Succeed())

		Expect(e.RegFile().PC()).To(BeZero())
		Expect(e.ProgramSize()).To(Equal(uint32(4)))
		Expect(e.RegFile().ReadReg(1)).To(Equal(uint32(2)))
		Expect(e.RegFile().ReadReg(3)).To(Equal(uint32(7)))
		Expect(e.RegFile().PSTATE.C).To(BeTrue())
		Expect(e.Memory().Read32(4)).To(Equal(uint32(0xE3A01002)))
	})

	It("should load onto a clean state after Reset", func() {
		regs := e.RegFile()
		mem := e.Memory()
		Expect(e.LoadProgram(program(0xE3A00001, 0xE3A01002))).To(Succeed())
		Expect(e.Run()).To(Succeed())

		e.Reset()
		Expect(e.LoadProgram(program(0xE3A02003))).To(Succeed())

		Expect(e.RegFile()).To(BeIdenticalTo(regs))
		Expect(e.Memory()).To(BeIdenticalTo(mem))
		Expect(regs.ReadReg(0)).To(BeZero())
		Expect(regs.ReadReg(1)).To(BeZero())
		Expect(mem.Read32(4)).To(BeZero())
		Expect(e.Run()).To(Succeed())
		Expect(regs.ReadReg(2)).To(Equal(uint32(3)))
	})
})
