// Package insts provides ABS-M instruction definitions and decoding.
package insts

// ABS-M fixed 32-bit encoding, bit 0 = LSB:
//
//	[0:4)   op_type
//	[4:12)  op_code
//	[12:16) Rd
//	[16:20) Rm
//	[20:24) Rn        <- shares bits with imm
//	[20:32) imm       <- used when Rn is absent
type field struct {
	start  uint
	length uint
}

var (
	fieldOpType = field{start: 0, length: 4}
	fieldOpCode = field{start: 4, length: 8}
	fieldRd     = field{start: 12, length: 4}
	fieldRm     = field{start: 16, length: 4}
	fieldRn     = field{start: 20, length: 4}
	fieldImm    = field{start: 20, length: 12}
)

// makeMask returns a mask of length low bits.
func makeMask(length uint) uint32 {
	if length >= 32 {
		return ^uint32(0)
	}
	return 1<<length - 1
}

// extract shifts and masks one encoding field out of an instruction word.
func extract(word uint32, f field) uint32 {
	return (word >> f.start) & makeMask(f.length)
}

// deposit places a field value into an instruction word.
func deposit(value uint32, f field) uint32 {
	return (value & makeMask(f.length)) << f.start
}

// Decoder decodes ABS-M machine code into instructions.
//
// Decoding is total: every 32-bit word yields an Instruction. The decoder
// does not validate that the (op_type, op_code) pair is semantically
// consistent; that is the core's responsibility.
type Decoder struct{}

// NewDecoder creates a new ABS-M instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ABS-M instruction word.
func (d *Decoder) Decode(word uint32) Instruction {
	return Instruction{
		Type: OpType(extract(word, fieldOpType)),
		Code: OpCode(extract(word, fieldOpCode)),
		Rd:   uint8(extract(word, fieldRd)),
		Rn:   uint8(extract(word, fieldRn)),
		Rm:   uint8(extract(word, fieldRm)),
		Imm:  uint16(extract(word, fieldImm)),
	}
}

// Encode produces the 32-bit word for an instruction. Rn and Imm overlap
// in the encoding; both are deposited, so an instruction built with only
// the field its shape defines round-trips exactly.
func (d *Decoder) Encode(inst Instruction) uint32 {
	return deposit(uint32(inst.Type), fieldOpType) |
		deposit(uint32(inst.Code), fieldOpCode) |
		deposit(uint32(inst.Rd), fieldRd) |
		deposit(uint32(inst.Rm), fieldRm) |
		deposit(uint32(inst.Rn), fieldRn) |
		deposit(uint32(inst.Imm), fieldImm)
}

// Terminator is the program-terminating sentinel word. Fetching it halts
// execution normally.
const Terminator uint32 = 0xFFFFFFFF
