package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
)

var _ = Describe("Barrel shifter", func() {
	DescribeTable("edge cases",
		func(t insts.ShiftType, amount, value uint32, carryIn bool, want uint32, wantCarry bool) {
			r := emu.Shift(t, amount, value, carryIn)
			Expect(r.Value).To(Equal(want))
			Expect(r.Carry).To(Equal(wantCarry))
		},
		Entry("LSL #0 passes carry through", insts.ShiftLSL, uint32(0), uint32(0x80000001), true, uint32(0x80000001), true),
		Entry("LSL #1", insts.ShiftLSL, uint32(1), uint32(0x80000001), false, uint32(2), true),
		Entry("LSL #32 keeps bit 0", insts.ShiftLSL, uint32(32), uint32(1), false, uint32(0), true),
		Entry("LSL #33 clears", insts.ShiftLSL, uint32(33), uint32(0xFFFFFFFF), true, uint32(0), false),
		Entry("LSR #0 means #32", insts.ShiftLSR, uint32(0), uint32(0x80000000), false, uint32(0), true),
		Entry("LSR #4", insts.ShiftLSR, uint32(4), uint32(0xF8), false, uint32(0xF), true),
		Entry("LSR #32", insts.ShiftLSR, uint32(32), uint32(0x7FFFFFFF), true, uint32(0), false),
		Entry("LSR #33 clears", insts.ShiftLSR, uint32(33), uint32(0xFFFFFFFF), true, uint32(0), false),
		Entry("ASR #0 means #32", insts.ShiftASR, uint32(0), uint32(0x80000000), false, uint32(0xFFFFFFFF), true),
		Entry("ASR #4", insts.ShiftASR, uint32(4), uint32(0x80000010), true, uint32(0xF8000001), false),
		Entry("ASR #40 of a positive value", insts.ShiftASR, uint32(40), uint32(0x7FFFFFFF), true, uint32(0), false),
		Entry("ROR #0 is RRX", insts.ShiftROR, uint32(0), uint32(1), true, uint32(0x80000000), true),
		Entry("RRX without carry", insts.ShiftROR, uint32(0), uint32(0x80000002), false, uint32(0x40000001), false),
		Entry("ROR #4", insts.ShiftROR, uint32(4), uint32(0xF0F0F0F0), true, uint32(0x0F0F0F0F), false),
		Entry("ROR #32", insts.ShiftROR, uint32(32), uint32(0x80000000), false, uint32(0x80000000), true),
		Entry("ROR #36 reduces to #4", insts.ShiftROR, uint32(36), uint32(0x0000000F), false, uint32(0xF0000000), true),
		Entry("ROR #64 reduces to #32", insts.ShiftROR, uint32(64), uint32(0x00000001), false, uint32(1), false),
	)

	It("should be total and clear logical shifts past 32", func() {
		values := []uint32{0, 1, 0x80000000, 0xFFFFFFFF, 0x12345678}
		types := []insts.ShiftType{insts.ShiftLSL, insts.ShiftLSR, insts.ShiftASR, insts.ShiftROR}

		for _, t := range types {
			for amount := uint32(0); amount < 256; amount++ {
				for _, v := range values {
					for _, c := range []bool{false, true} {
						r := emu.Shift(t, amount, v, c)
						if amount > 32 && (t == insts.ShiftLSL || t == insts.ShiftLSR) {
							Expect(r.Value).To(BeZero())
							Expect(r.Carry).To(BeFalse())
						}
					}
				}
			}
		}
	})
})
