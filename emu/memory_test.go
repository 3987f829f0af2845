package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/XwanXuanX/Misim/emu"
)

var _ = Describe("Memory", func() {
	var mem *emu.Memory

	BeforeEach(func() {
		mem = emu.NewMemory(50)
	})

	It("should start zero-filled", func() {
		for addr := uint32(0); addr < 50; addr++ {
			Expect(mem.Read(addr)).To(Equal(uint32(0)))
		}
	})

	It("should report its size", func() {
		Expect(mem.Size()).To(Equal(uint32(50)))
	})

	Describe("CheckAddressInRange", func() {
		It("should accept addresses below the size", func() {
			Expect(mem.CheckAddressInRange(0)).To(BeTrue())
			Expect(mem.CheckAddressInRange(49)).To(BeTrue())
		})

		It("should reject addresses at or past the size", func() {
			Expect(mem.CheckAddressInRange(50)).To(BeFalse())
			Expect(mem.CheckAddressInRange(0xFFFFFFFF)).To(BeFalse())
		})
	})

	Describe("Read and Write", func() {
		It("should read back a written word", func() {
			Expect(mem.Write(7, 0xDEADBEEF)).To(Succeed())
			Expect(mem.Read(7)).To(Equal(uint32(0xDEADBEEF)))
		})

		It("should fail to read out of range", func() {
			_, err := mem.Read(50)

			Expect(errors.Is(err, emu.ErrAddressOutOfRange)).To(BeTrue())
		})

		It("should fail to write out of range", func() {
			err := mem.Write(50, 1)

			Expect(errors.Is(err, emu.ErrAddressOutOfRange)).To(BeTrue())
		})
	})

	Describe("Clear", func() {
		It("should zero all of memory", func() {
			Expect(mem.Write(3, 1)).To(Succeed())
			Expect(mem.Write(49, 2)).To(Succeed())

			mem.Clear()

			Expect(mem.Read(3)).To(Equal(uint32(0)))
			Expect(mem.Read(49)).To(Equal(uint32(0)))
		})

		It("should zero only the requested range", func() {
			Expect(mem.Write(10, 1)).To(Succeed())
			Expect(mem.Write(11, 2)).To(Succeed())
			Expect(mem.Write(12, 3)).To(Succeed())

			Expect(mem.ClearRange(10, 11)).To(Succeed())

			Expect(mem.Read(10)).To(Equal(uint32(0)))
			Expect(mem.Read(11)).To(Equal(uint32(0)))
			Expect(mem.Read(12)).To(Equal(uint32(3)))
		})

		It("should reject an out-of-range clear", func() {
			err := mem.ClearRange(10, 50)

			Expect(errors.Is(err, emu.ErrAddressOutOfRange)).To(BeTrue())
		})

		It("should reject an inverted clear range", func() {
			err := mem.ClearRange(20, 10)

			Expect(errors.Is(err, emu.ErrAddressOutOfRange)).To(BeTrue())
		})
	})
})

var _ = Describe("RegFile", func() {
	var regs *emu.RegFile

	BeforeEach(func() {
		regs = &emu.RegFile{}
	})

	It("should read and write general-purpose registers", func() {
		regs.SetGP(emu.R3, 0x1234)
		regs.SetGP(emu.SP, 100)

		Expect(regs.GP(emu.R3)).To(Equal(uint32(0x1234)))
		Expect(regs.GP(emu.SP)).To(Equal(uint32(100)))
		Expect(regs.GP(emu.R0)).To(Equal(uint32(0)))
	})

	It("should keep the four PSR flags independent", func() {
		regs.SetPSR(emu.FlagZ, true)
		regs.SetPSR(emu.FlagV, true)

		Expect(regs.PSR(emu.FlagN)).To(BeFalse())
		Expect(regs.PSR(emu.FlagZ)).To(BeTrue())
		Expect(regs.PSR(emu.FlagC)).To(BeFalse())
		Expect(regs.PSR(emu.FlagV)).To(BeTrue())
	})

	It("should clear a single flag", func() {
		regs.SetPSR(emu.FlagC, true)
		regs.SetPSR(emu.FlagC, false)

		Expect(regs.PSR(emu.FlagC)).To(BeFalse())
	})

	It("should clear all flags at once", func() {
		regs.SetPSR(emu.FlagN, true)
		regs.SetPSR(emu.FlagZ, true)
		regs.SetPSR(emu.FlagC, true)
		regs.SetPSR(emu.FlagV, true)

		regs.ClearPSR()

		Expect(regs.PSR(emu.FlagN)).To(BeFalse())
		Expect(regs.PSR(emu.FlagZ)).To(BeFalse())
		Expect(regs.PSR(emu.FlagC)).To(BeFalse())
		Expect(regs.PSR(emu.FlagV)).To(BeFalse())
	})

	It("should name registers and flags", func() {
		Expect(emu.R0.String()).To(Equal("R0"))
		Expect(emu.SP.String()).To(Equal("SP"))
		Expect(emu.PC.String()).To(Equal("PC"))
		Expect(emu.FlagN.String()).To(Equal("N"))
		Expect(emu.CS.String()).To(Equal("Code Segment"))
	})
})
