package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/insts"
)

var _ = Describe("Disassembler", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	disasm := func(word uint32) string {
		inst, err := decoder.Decode(word)
		Expect(err).ToNot(HaveOccurred())
		return inst.Disassemble(insts.OffsetImmediateWhenClear)
	}

	It("should render data processing forms", func() {
		Expect(disasm(0x00110002)).To(Equal("ANDEQS R0, R1, R2"))
		Expect(disasm(0x10243005)).To(Equal("EORNE R3, R4, R5"))
		Expect(disasm(0x20565027)).To(Equal("SUBCSS R5, R6, R7, LSR #32"))
		Expect(disasm(0x3069804A)).To(Equal("RSBCC R8, R9, R10, ASR #32"))
		Expect(disasm(0x408CB06D)).To(Equal("ADDMI R11, R12, R13, RRX"))
		Expect(disasm(0x62DCAF51)).To(Equal("SBCVSS R10, R12, #324"))
		Expect(disasm(0x70FC123B)).To(Equal("RSCVCS R1, R12, R11, LSR R2"))
		Expect(disasm(0x831300F5)).To(Equal("TSTHI R3, #245"))
		Expect(disasm(0x913A000B)).To(Equal("TEQLS R10, R11"))
		Expect(disasm(0xB1710AC3)).To(Equal("CMNLT R1, R3, ASR #21"))
		Expect(disasm(0xE1F0A37B)).To(Equal("MVNS R10, R11, ROR R3"))
	})

	It("should render multiply forms", func() {
		Expect(disasm(0x10110392)).To(Equal("MULNES R1, R2, R3"))
		Expect(disasm(0xE0070998)).To(Equal("MUL R7, R8, R9"))
		Expect(disasm(0xE031BA95)).To(Equal("MLAS R1, R5, R10, R11"))
	})

	It("should render transfer forms", func() {
		Expect(disasm(0xB5D2B000)).To(Equal("LDRLTB R11, [R2]"))
		Expect(disasm(0xE5732014)).To(Equal("LDRB R2, [R3, #-20]!"))
		Expect(disasm(0xE795DF82)).To(Equal("LDR R13, [R5, R2, LSL #31]"))
		Expect(disasm(0xC667C261)).To(Equal("STRGTBT R12, [R7], -R1, ROR #4"))
		Expect(disasm(0xE6E85001)).To(Equal("STRBT R5, [R8], R1"))
		Expect(disasm(0xE483B0F5)).To(Equal("STR R11, [R3], #245"))
	})

	It("should render branch offsets relative to the branch", func() {
		Expect(disasm(0x1BFFFFFE)).To(Equal("BLNE #0"))
		Expect(disasm(0xEA000000)).To(Equal("B #8"))
	})

	It("should use the default bit 25 polarity in String", func() {
		inst, err := decoder.Decode(0xE7912004)
		Expect(err).ToNot(HaveOccurred())
		Expect(inst.String()).To(Equal("LDR R2, [R1, #4]"))
	})

	It("should name operation classes", func() {
		Expect(insts.OpLoadByte.String()).To(Equal("LoadByte"))
		Expect(insts.CondAL.String()).To(Equal(""))
		Expect(insts.ShiftASR.String()).To(Equal("ASR"))
	})
})
