// Package emu provides functional ABS-M emulation.
package emu

// GPReg names a general-purpose register slot.
type GPReg uint8

// General-purpose register indices. R0-R12 are scratch registers; SP, LR
// and PC occupy the top three slots.
const (
	R0 GPReg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP // stack pointer
	LR // link register
	PC // program counter

	NumGPRegs = 16
)

var gpNames = [NumGPRegs]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "SP", "LR", "PC",
}

func (r GPReg) String() string {
	if r >= NumGPRegs {
		return "unknown"
	}
	return gpNames[r]
}

// PSRFlag names a program-status flag bit.
type PSRFlag uint8

// PSR flag bit positions.
const (
	FlagN PSRFlag = iota // negative: top bit of the result
	FlagZ                // zero: result equals 0
	FlagC                // carry: unsigned overflow on ADD
	FlagV                // overflow: signed overflow on ADD
)

var psrNames = [...]string{FlagN: "N", FlagZ: "Z", FlagC: "C", FlagV: "V"}

func (f PSRFlag) String() string {
	if int(f) >= len(psrNames) {
		return "unknown"
	}
	return psrNames[f]
}

// SegReg names a memory segment.
type SegReg uint8

// Segment registers.
const (
	CS SegReg = iota // code segment
	DS               // data segment
	SS               // stack segment
	ES               // extra segment
)

var segNames = [...]string{
	CS: "Code Segment",
	DS: "Data Segment",
	SS: "Stack Segment",
	ES: "Extra Segment",
}

func (s SegReg) String() string {
	if int(s) >= len(segNames) {
		return "unknown"
	}
	return segNames[s]
}

// RegFile represents the ABS-M register file: 16 general-purpose words
// (R0-R12, SP, LR, PC) and the four program-status flags, stored one bit
// each.
type RegFile struct {
	gp  [NumGPRegs]uint32
	psr uint8
}

// GP reads general-purpose register reg. reg < NumGPRegs is a caller
// contract; register indices come from 4-bit encoding fields.
func (r *RegFile) GP(reg GPReg) uint32 {
	return r.gp[reg]
}

// SetGP writes general-purpose register reg.
func (r *RegFile) SetGP(reg GPReg, value uint32) {
	r.gp[reg] = value
}

// PSR reports whether a program-status flag is set.
func (r *RegFile) PSR(flag PSRFlag) bool {
	return r.psr&(1<<flag) != 0
}

// SetPSR sets or clears one program-status flag.
func (r *RegFile) SetPSR(flag PSRFlag, value bool) {
	if value {
		r.psr |= 1 << flag
	} else {
		r.psr &^= 1 << flag
	}
}

// ClearPSR clears all four program-status flags.
func (r *RegFile) ClearPSR() {
	r.psr = 0
}
