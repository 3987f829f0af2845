// Package emu provides functional ABS-M emulation.
package emu

import (
	mathbits "math/bits"

	"github.com/XwanXuanX/Misim/bits"
)

// ALUOp selects one of the thirteen ALU micro-operations.
type ALUOp uint8

// ALU micro-operations.
const (
	ALUOpADD  ALUOp = iota // A + B
	ALUOpUMUL              // A * B
	ALUOpUDIV              // A / B
	ALUOpUMOL              // A % B
	ALUOpPASS              // A

	ALUOpAND  // A & B
	ALUOpORR  // A | B
	ALUOpXOR  // A ^ B
	ALUOpCOMP // ^A

	ALUOpSHL // A << B
	ALUOpSHR // A >> B
	ALUOpRTL // A rotated left by B
	ALUOpRTR // A rotated right by B
)

// FlagSet is the set of PSR flags an ALU operation produced, one bit per
// flag.
type FlagSet uint8

// Has reports whether flag is in the set.
func (s FlagSet) Has(flag PSRFlag) bool {
	return s&(1<<flag) != 0
}

// Empty reports whether no flag is in the set.
func (s FlagSet) Empty() bool {
	return s == 0
}

func (s FlagSet) with(flag PSRFlag) FlagSet {
	return s | 1<<flag
}

// ALUInput is the input bus of the ALU: an opcode and the two operands.
type ALUInput struct {
	Op ALUOp
	A  uint32
	B  uint32
}

// ALUOutput is the output bus of the ALU: the result and the flags the
// operation produced.
type ALUOutput struct {
	Flags  FlagSet
	Result uint32
}

// ALU implements the ABS-M arithmetic and logic operations as a pure
// function of its input. It holds no state.
type ALU struct{}

// Execute runs one micro-operation. Division and modulus by zero are
// defined as no-operation: the zero output with an empty flag set.
func (ALU) Execute(in ALUInput) ALUOutput {
	switch in.Op {
	case ALUOpADD:
		return add(in.A, in.B)
	case ALUOpUMUL:
		return makeOutput(uint32(bits.Promote(in.A) * bits.Promote(in.B)))
	case ALUOpUDIV:
		if bits.TestBitNone(in.B) {
			return ALUOutput{}
		}
		return makeOutput(in.A / in.B)
	case ALUOpUMOL:
		if bits.TestBitNone(in.B) {
			return ALUOutput{}
		}
		return makeOutput(in.A % in.B)
	case ALUOpPASS:
		return makeOutput(in.A)
	case ALUOpAND:
		return makeOutput(in.A & in.B)
	case ALUOpORR:
		return makeOutput(in.A | in.B)
	case ALUOpXOR:
		return makeOutput(in.A ^ in.B)
	case ALUOpCOMP:
		return makeOutput(^in.A)
	case ALUOpSHL:
		return makeOutput(shiftLeft(in.A, in.B))
	case ALUOpSHR:
		return makeOutput(shiftRight(in.A, in.B))
	case ALUOpRTL:
		return makeOutput(mathbits.RotateLeft32(in.A, int(in.B%bits.WordBits)))
	case ALUOpRTR:
		return makeOutput(mathbits.RotateLeft32(in.A, -int(in.B%bits.WordBits)))
	}

	return ALUOutput{}
}

// The shift amount is used raw: any B >= WordBits shifts every bit out.
func shiftLeft(a, b uint32) uint32 {
	if b >= bits.WordBits {
		return 0
	}
	return a << b
}

func shiftRight(a, b uint32) uint32 {
	if b >= bits.WordBits {
		return 0
	}
	return a >> b
}

// nzFlags derives the N and Z flags from a result word.
func nzFlags(r uint32) FlagSet {
	var flags FlagSet

	if negative, _ := bits.TestBit(r, bits.WordBits-1); negative {
		flags = flags.with(FlagN)
	}
	if bits.TestBitNone(r) {
		flags = flags.with(FlagZ)
	}

	return flags
}

func makeOutput(r uint32) ALUOutput {
	return ALUOutput{Flags: nzFlags(r), Result: r}
}

// add produces all four flags. C is set only when the sum wraps strictly
// past both operands; V when the operands' top bits agree but disagree
// with the result's.
func add(a, b uint32) ALUOutput {
	r := a + b
	flags := nzFlags(r)

	if r < a && r < b {
		flags = flags.with(FlagC)
	}

	msbA, _ := bits.TestBit(a, bits.WordBits-1)
	msbB, _ := bits.TestBit(b, bits.WordBits-1)
	msbR, _ := bits.TestBit(r, bits.WordBits-1)
	if msbA == msbB && msbA != msbR {
		flags = flags.with(FlagV)
	}

	return ALUOutput{Flags: flags, Result: r}
}
