// Package emu provides functional ABS-M emulation.
package emu

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/XwanXuanX/Misim/bits"
	"github.com/XwanXuanX/Misim/insts"
)

// Core errors.
var (
	// ErrSegmentMisconfig indicates an invalid segment map at init.
	ErrSegmentMisconfig = errors.New("segment misconfiguration")

	// ErrPCOutOfCS indicates a fetch with PC outside the code segment.
	ErrPCOutOfCS = errors.New("PC exceeds code segment boundary")

	// ErrStackOverflow indicates a PUSH past the stack segment.
	ErrStackOverflow = errors.New("stack overflow")

	// ErrUnknownOpCode indicates an opcode with no execution rule.
	ErrUnknownOpCode = errors.New("unknown opcode")

	// ErrMaxInstructions indicates the optional instruction-count guard
	// fired before the program reached its terminator.
	ErrMaxInstructions = errors.New("max instructions reached")
)

// SegmentRange is an inclusive range [Start, End] of word addresses.
type SegmentRange struct {
	Start uint32
	End   uint32
}

// Contains reports whether addr lies inside the range.
func (r SegmentRange) Contains(addr uint32) bool {
	return addr >= r.Start && addr <= r.End
}

func (r SegmentRange) size() uint64 {
	return uint64(r.End-r.Start) + 1
}

// SegmentMap assigns an address range to each of the four segments.
type SegmentMap map[SegReg]SegmentRange

// Core owns the architectural state of one ABS-M machine: memory, the
// register file, and the segment map. It drives the
// fetch/decode/execute/memory-access loop and optionally reports each
// retired instruction to a borrowed tracer.
type Core struct {
	memory  *Memory
	regFile *RegFile
	decoder *insts.Decoder

	segments SegmentMap
	alu      ALU
	syscalls *SyscallTable
	tracer   *Tracer

	stdin  io.Reader
	stdout io.Writer

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithTracer attaches a borrowed tracer. The core never owns it; the
// caller closes it after the run.
func WithTracer(t *Tracer) CoreOption {
	return func(c *Core) {
		c.tracer = t
	}
}

// WithStdin sets the reader console-input syscalls read from.
func WithStdin(r io.Reader) CoreOption {
	return func(c *Core) {
		c.stdin = r
	}
}

// WithStdout sets the writer console-output syscalls write to.
func WithStdout(w io.Writer) CoreOption {
	return func(c *Core) {
		c.stdout = w
	}
}

// WithSyscallTable sets a custom syscall table.
func WithSyscallTable(t *SyscallTable) CoreOption {
	return func(c *Core) {
		c.syscalls = t
	}
}

// WithMemorySize sets the memory size in words.
func WithMemorySize(size uint32) CoreOption {
	return func(c *Core) {
		c.memory = NewMemory(size)
	}
}

// WithMaxInstructions sets the maximum number of instructions to retire.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) CoreOption {
	return func(c *Core) {
		c.maxInstructions = max
	}
}

// NewCore creates a core over the given segment map. The map must name
// all four segments with in-bounds, pairwise disjoint ranges whose total
// size fits the memory; a bad map is fatal before the run begins. On
// success SP = SS.End+1 and PC = CS.Start.
func NewCore(segments SegmentMap, opts ...CoreOption) (*Core, error) {
	c := &Core{
		memory:  NewMemory(DefaultMemorySize),
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.syscalls == nil {
		c.syscalls = NewSyscallTable(c.stdin, c.stdout)
	}

	if err := c.initSegments(segments); err != nil {
		c.traceError(err.Error())
		return nil, err
	}

	return c, nil
}

// initSegments validates the segment map and places SP and PC.
func (c *Core) initSegments(segments SegmentMap) error {
	for _, seg := range [...]SegReg{CS, DS, SS, ES} {
		if _, ok := segments[seg]; !ok {
			return errors.Wrapf(ErrSegmentMisconfig, "missing %v", seg)
		}
	}

	ranges := make([]SegmentRange, 0, len(segments))
	for _, rng := range segments {
		if rng.Start > rng.End || rng.End >= c.memory.Size() {
			return errors.Wrapf(ErrSegmentMisconfig,
				"invalid range [%d, %d]", rng.Start, rng.End)
		}
		ranges = append(ranges, rng)
	}

	sort.Slice(ranges, func(i, j int) bool {
		return ranges[i].Start < ranges[j].Start
	})

	var total uint64
	for i, rng := range ranges {
		if i > 0 && ranges[i-1].End >= rng.Start {
			return errors.Wrapf(ErrSegmentMisconfig,
				"overlapping ranges [%d, %d] and [%d, %d]",
				ranges[i-1].Start, ranges[i-1].End, rng.Start, rng.End)
		}
		total += rng.size()
	}
	if total > uint64(c.memory.Size()) {
		return errors.Wrapf(ErrSegmentMisconfig,
			"segments cover %d words, memory has %d", total, c.memory.Size())
	}

	c.segments = segments
	c.regFile.SetGP(SP, segments[SS].End+1)
	c.regFile.SetGP(PC, segments[CS].Start)

	return nil
}

// Memory returns the core's memory.
func (c *Core) Memory() *Memory {
	return c.memory
}

// RegFile returns the core's register file.
func (c *Core) RegFile() *RegFile {
	return c.regFile
}

// Segments returns the core's segment map.
func (c *Core) Segments() SegmentMap {
	return c.segments
}

// InstructionCount returns the number of instructions retired.
func (c *Core) InstructionCount() uint64 {
	return c.instructionCount
}

// LoadInstructions writes words into the code segment, starting at
// CS.Start and silently stopping at CS.End.
func (c *Core) LoadInstructions(words []uint32) {
	c.loadSegment(c.segments[CS], words)
}

// LoadData writes words into the data segment, starting at DS.Start and
// silently stopping at DS.End.
func (c *Core) LoadData(words []uint32) {
	c.loadSegment(c.segments[DS], words)
}

func (c *Core) loadSegment(rng SegmentRange, words []uint32) {
	addr := rng.Start
	for _, word := range words {
		if addr > rng.End {
			return
		}
		_ = c.memory.Write(addr, word)
		addr++
	}
}

// Step executes a single instruction. done reports that the terminator
// sentinel was fetched; a non-nil error is fatal.
func (c *Core) Step() (done bool, err error) {
	word, err := c.fetch()
	if err != nil {
		return false, err
	}

	if bits.TestBitAll(word) {
		return true, nil
	}

	inst := c.decoder.Decode(word)

	if inst.Type == insts.Jt {
		if err := c.checkJump(inst); err != nil {
			return false, err
		}
		c.generateTrace(word, inst)
		c.instructionCount++
		return false, nil
	}

	out, err := c.execute(inst)
	if err != nil {
		return false, err
	}

	if err := c.memoryAccess(inst, out.Result); err != nil {
		return false, err
	}

	c.generateTrace(word, inst)
	c.instructionCount++

	return false, nil
}

// Run executes instructions until the terminator is fetched or a fatal
// condition occurs. Fatal conditions are reported to the tracer as an
// ERROR entry before they surface.
func (c *Core) Run() error {
	for {
		if c.maxInstructions > 0 && c.instructionCount >= c.maxInstructions {
			err := errors.Wrapf(ErrMaxInstructions, "%d", c.maxInstructions)
			c.traceError(err.Error())
			return err
		}

		done, err := c.Step()
		if err != nil {
			c.traceError(err.Error())
			return err
		}
		if done {
			return nil
		}
	}
}

// fetch asserts PC lies in CS, reads the word at PC, and increments PC.
func (c *Core) fetch() (uint32, error) {
	pc := c.regFile.GP(PC)

	if !c.segments[CS].Contains(pc) {
		return 0, errors.Wrapf(ErrPCOutOfCS, "PC=%d", pc)
	}

	word, err := c.memory.Read(pc)
	if err != nil {
		return 0, errors.Wrap(err, "fetch")
	}

	c.regFile.SetGP(PC, pc+1)
	return word, nil
}

// generateALUInput synthesizes the ALU input bus for a non-jump
// instruction.
func (c *Core) generateALUInput(inst insts.Instruction) (ALUInput, error) {
	binary := func(op ALUOp) (ALUInput, error) {
		switch inst.Type {
		case insts.Rt:
			return ALUInput{Op: op, A: c.regFile.GP(GPReg(inst.Rm)), B: c.regFile.GP(GPReg(inst.Rn))}, nil
		case insts.It:
			return ALUInput{Op: op, A: c.regFile.GP(GPReg(inst.Rm)), B: uint32(inst.Imm)}, nil
		}
		return ALUInput{}, errors.Wrapf(ErrUnknownOpCode,
			"%v is not valid for %v", inst.Code, inst.Type)
	}

	switch inst.Code {
	case insts.ADD:
		return binary(ALUOpADD)
	case insts.UMUL:
		return binary(ALUOpUMUL)
	case insts.UDIV:
		return binary(ALUOpUDIV)
	case insts.UMOL:
		return binary(ALUOpUMOL)
	case insts.AND:
		return binary(ALUOpAND)
	case insts.ORR:
		return binary(ALUOpORR)
	case insts.XOR:
		return binary(ALUOpXOR)
	case insts.SHL:
		return binary(ALUOpSHL)
	case insts.SHR:
		return binary(ALUOpSHR)
	case insts.RTL:
		return binary(ALUOpRTL)
	case insts.RTR:
		return binary(ALUOpRTR)
	case insts.NOT:
		return ALUInput{Op: ALUOpCOMP, A: c.regFile.GP(GPReg(inst.Rm))}, nil
	case insts.LDR, insts.STR:
		// PASS computes the effective address from Rm.
		return ALUInput{Op: ALUOpPASS, A: c.regFile.GP(GPReg(inst.Rm))}, nil
	case insts.PUSH:
		return ALUInput{Op: ALUOpADD, A: c.regFile.GP(SP), B: ^uint32(0)}, nil
	case insts.POP:
		return ALUInput{Op: ALUOpADD, A: c.regFile.GP(SP), B: 1}, nil
	}

	return ALUInput{}, errors.Wrapf(ErrUnknownOpCode, "opcode %d", inst.Code)
}

// execute runs the ALU and replaces the PSR with the produced flag set.
// Flags the operation did not produce are cleared, so C and V become
// false on every non-ADD instruction.
func (c *Core) execute(inst insts.Instruction) (ALUOutput, error) {
	in, err := c.generateALUInput(inst)
	if err != nil {
		return ALUOutput{}, err
	}

	out := c.alu.Execute(in)
	c.updatePSR(out.Flags)

	return out, nil
}

func (c *Core) updatePSR(flags FlagSet) {
	c.regFile.ClearPSR()
	for _, flag := range [...]PSRFlag{FlagN, FlagZ, FlagC, FlagV} {
		if flags.Has(flag) {
			c.regFile.SetPSR(flag, true)
		}
	}
}

// memoryAccess performs the memory-access/writeback stage on the ALU
// result.
func (c *Core) memoryAccess(inst insts.Instruction, result uint32) error {
	switch inst.Code {
	case insts.LDR:
		word, err := c.memory.Read(result)
		if err != nil {
			return errors.Wrap(err, "load")
		}
		c.regFile.SetGP(GPReg(inst.Rd), word)

	case insts.STR:
		if err := c.memory.Write(result, c.regFile.GP(GPReg(inst.Rd))); err != nil {
			return errors.Wrap(err, "store")
		}

	case insts.PUSH:
		if !c.segments[SS].Contains(result) {
			return errors.Wrapf(ErrStackOverflow, "push to %d", result)
		}
		if err := c.memory.Write(result, c.regFile.GP(GPReg(inst.Rd))); err != nil {
			return errors.Wrap(err, "push")
		}
		c.regFile.SetGP(SP, result)

	case insts.POP:
		// Only result-1 is checked against SS; popping past the stack
		// bottom is a silent no-op.
		if !c.segments[SS].Contains(result - 1) {
			return nil
		}
		word, err := c.memory.Read(c.regFile.GP(SP))
		if err != nil {
			return errors.Wrap(err, "pop")
		}
		c.regFile.SetGP(GPReg(inst.Rd), word)
		c.regFile.SetGP(SP, result)

	default:
		c.regFile.SetGP(GPReg(inst.Rd), result)
	}

	return nil
}

// checkJump handles the J-type dispatch arm: branches and SYSCALL. No
// register writeback and no ALU pass happen here.
func (c *Core) checkJump(inst insts.Instruction) error {
	jump := func(condition bool) {
		if condition {
			c.regFile.SetGP(PC, uint32(inst.Imm))
		}
	}

	switch inst.Code {
	case insts.JMP:
		jump(true)
	case insts.JZ:
		jump(c.regFile.PSR(FlagZ))
	case insts.JN:
		jump(c.regFile.PSR(FlagN))
	case insts.JC:
		jump(c.regFile.PSR(FlagC))
	case insts.JV:
		jump(c.regFile.PSR(FlagV))
	case insts.JZN:
		jump(c.regFile.PSR(FlagZ) || c.regFile.PSR(FlagN))
	case insts.SYSCALL:
		if err := c.syscalls.Invoke(inst.Imm, c.memory, c.regFile); err != nil {
			return errors.Wrap(err, "syscall")
		}
	default:
		return errors.Wrapf(ErrUnknownOpCode, "jump opcode %d", inst.Code)
	}

	return nil
}

func (c *Core) generateTrace(word uint32, inst insts.Instruction) {
	if c.tracer != nil {
		c.tracer.GenerateTrace(word, inst, c.memory, c.regFile, c.segments)
	}
}

func (c *Core) traceError(message string) {
	if c.tracer != nil {
		c.tracer.Log(LevelError, message)
	}
}
