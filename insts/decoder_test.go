package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/XwanXuanX/Misim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("field extraction", func() {
		// ADD R1, R1, #1
		// Encoding: imm=1 | Rm=1 | Rd=1 | op_code=ADD | op_type=It
		It("should decode ADD R1, R1, #1", func() {
			inst := decoder.Decode(0x00111001)

			Expect(inst.Type).To(Equal(insts.It))
			Expect(inst.Code).To(Equal(insts.ADD))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(uint16(1)))
		})

		// XOR R2, R3, R4
		// Encoding: Rn=4 | Rm=3 | Rd=2 | op_code=XOR | op_type=Rt
		It("should decode XOR R2, R3, R4", func() {
			inst := decoder.Decode(0x00432060)

			Expect(inst.Type).To(Equal(insts.Rt))
			Expect(inst.Code).To(Equal(insts.XOR))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rm).To(Equal(uint8(3)))
			Expect(inst.Rn).To(Equal(uint8(4)))
		})

		// JMP #9
		// Encoding: imm=9 | op_code=JMP | op_type=Jt
		It("should decode JMP #9", func() {
			inst := decoder.Decode(0x00900104)

			Expect(inst.Type).To(Equal(insts.Jt))
			Expect(inst.Code).To(Equal(insts.JMP))
			Expect(inst.Imm).To(Equal(uint16(9)))
		})

		// PUSH R7
		// Encoding: Rd=7 | op_code=PUSH | op_type=St
		It("should decode PUSH R7", func() {
			inst := decoder.Decode(0x000070E3)

			Expect(inst.Type).To(Equal(insts.St))
			Expect(inst.Code).To(Equal(insts.PUSH))
			Expect(inst.Rd).To(Equal(uint8(7)))
		})

		It("should extract Rn as the low nibble of the immediate field", func() {
			inst := decoder.Decode(0x00A00000)

			Expect(inst.Rn).To(Equal(uint8(0xA)))
			Expect(inst.Imm).To(Equal(uint16(0x00A)))
		})

		It("should extract a full 12-bit immediate", func() {
			inst := decoder.Decode(0xFFF00000)

			Expect(inst.Imm).To(Equal(uint16(0xFFF)))
			Expect(inst.Rn).To(Equal(uint8(0xF)))
		})
	})

	Describe("totality", func() {
		It("should decode arbitrary words without failing", func() {
			words := []uint32{
				0x00000000, 0xFFFFFFFF, 0xDEADBEEF, 0x12345678,
				0x80000001, 0x7FFFFFFE, 0x00111001,
			}

			for _, w := range words {
				inst := decoder.Decode(w)
				Expect(uint32(inst.Imm)).To(Equal(w >> 20))
			}
		})
	})

	Describe("Encode", func() {
		It("should reproduce the defined fields of any decoded word", func() {
			words := []uint32{
				0x00000000, 0xFFFFFFFF, 0xDEADBEEF, 0x12345678,
				0xCAFEBABE, 0x00111001, 0x00900104, 0x000070E3,
			}

			for _, w := range words {
				Expect(decoder.Encode(decoder.Decode(w))).To(Equal(w))
			}
		})

		It("should encode constructor-built R-type instructions", func() {
			inst := insts.NewRType(insts.ADD, 2, 0, 1)
			word := decoder.Encode(inst)

			round := decoder.Decode(word)
			Expect(round.Type).To(Equal(insts.Rt))
			Expect(round.Code).To(Equal(insts.ADD))
			Expect(round.Rd).To(Equal(uint8(2)))
			Expect(round.Rm).To(Equal(uint8(0)))
			Expect(round.Rn).To(Equal(uint8(1)))
		})

		It("should encode constructor-built I-type instructions", func() {
			inst := insts.NewIType(insts.ADD, 1, 1, 1)

			Expect(decoder.Encode(inst)).To(Equal(uint32(0x00111001)))
		})

		It("should encode constructor-built J-type instructions", func() {
			inst := insts.NewJType(insts.SYSCALL, 1)
			round := decoder.Decode(decoder.Encode(inst))

			Expect(round.Type).To(Equal(insts.Jt))
			Expect(round.Code).To(Equal(insts.SYSCALL))
			Expect(round.Imm).To(Equal(uint16(1)))
		})
	})

	Describe("names", func() {
		It("should name op types", func() {
			Expect(insts.Rt.String()).To(Equal("R type"))
			Expect(insts.Jt.String()).To(Equal("J type"))
			Expect(insts.OpType(200).String()).To(Equal("unknown"))
		})

		It("should name opcodes", func() {
			Expect(insts.ADD.String()).To(Equal("ADD"))
			Expect(insts.SYSCALL.String()).To(Equal("SYSCALL"))
			Expect(insts.OpCode(200).String()).To(Equal("unknown"))
		})
	})
})
