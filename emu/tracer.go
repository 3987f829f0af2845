// Package emu provides functional ABS-M emulation.
package emu

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/XwanXuanX/Misim/insts"
)

// TraceLevel is the severity of a tracer log line.
type TraceLevel uint8

// Trace levels.
const (
	LevelInfo TraceLevel = iota
	LevelWarning
	LevelError
)

func (l TraceLevel) prefix() string {
	switch l {
	case LevelInfo:
		return "INFO: "
	case LevelWarning:
		return "WARNING: "
	case LevelError:
		return "ERROR: "
	}
	return "UNKNOWN: "
}

// tracedSegments is the order segments appear in each trace record.
var tracedSegments = [...]SegReg{CS, DS, SS, ES}

// Tracer records per-instruction architectural state to a CSV-style log.
// The core borrows it for the lifetime of a run; recording has no effect
// on the computation.
type Tracer struct {
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer

	instructionCount uint64
}

// NewTracer creates a tracer writing to the file at path.
func NewTracer(path string) (*Tracer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create log file")
	}

	buf := bufio.NewWriter(file)
	return &Tracer{file: file, buf: buf, csv: csv.NewWriter(buf)}, nil
}

// InstructionCount returns the number of trace records emitted.
func (t *Tracer) InstructionCount() uint64 {
	return t.instructionCount
}

// Log writes a level-tagged message. An ERROR-level log flushes and
// closes the log file; the caller escalates the condition itself.
func (t *Tracer) Log(level TraceLevel, message string) {
	t.csv.Flush()
	fmt.Fprintf(t.buf, "%s%s\n", level.prefix(), message)

	if level == LevelError {
		_ = t.Close()
	}
}

// GenerateTrace appends one retired-instruction record: a heading with
// the instruction count and raw word, the decoded fields, a register
// snapshot, and the contents of each segment.
func (t *Tracer) GenerateTrace(
	word uint32,
	inst insts.Instruction,
	mem *Memory,
	regs *RegFile,
	segments SegmentMap,
) {
	fmt.Fprintf(t.buf, "#%d,0x%08X\n", t.instructionCount, word)

	t.writeInstruction(inst)
	t.writeRegisters(regs)
	t.writeMemory(mem, segments)

	t.csv.Flush()
	fmt.Fprintln(t.buf)

	t.instructionCount++
}

// Close flushes and closes the log file.
func (t *Tracer) Close() error {
	t.csv.Flush()
	if err := t.buf.Flush(); err != nil {
		_ = t.file.Close()
		return errors.Wrap(err, "flush log file")
	}
	return errors.Wrap(t.file.Close(), "close log file")
}

func (t *Tracer) writeInstruction(inst insts.Instruction) {
	_ = t.csv.Write([]string{"OpType", "OpCode", "Rd", "Rm", "Rn", "Imm"})
	_ = t.csv.Write([]string{
		inst.Type.String(),
		inst.Code.String(),
		strconv.Itoa(int(inst.Rd)),
		strconv.Itoa(int(inst.Rm)),
		strconv.Itoa(int(inst.Rn)),
		strconv.Itoa(int(inst.Imm)),
	})
}

func (t *Tracer) writeRegisters(regs *RegFile) {
	labels := make([]string, 0, NumGPRegs+4)
	values := make([]string, 0, NumGPRegs+4)

	for reg := R0; reg < NumGPRegs; reg++ {
		labels = append(labels, reg.String())
		values = append(values, strconv.FormatUint(uint64(regs.GP(reg)), 10))
	}
	for _, flag := range [...]PSRFlag{FlagN, FlagZ, FlagC, FlagV} {
		labels = append(labels, flag.String())
		values = append(values, strconv.FormatBool(regs.PSR(flag)))
	}

	_ = t.csv.Write(labels)
	_ = t.csv.Write(values)
}

func (t *Tracer) writeMemory(mem *Memory, segments SegmentMap) {
	for _, seg := range tracedSegments {
		rng, ok := segments[seg]
		if !ok {
			continue
		}

		record := []string{seg.String()}
		for addr := rng.Start; addr <= rng.End; addr++ {
			word, err := mem.Read(addr)
			if err != nil {
				break
			}
			record = append(record, strconv.FormatUint(uint64(word), 10))
		}
		_ = t.csv.Write(record)
	}
}
