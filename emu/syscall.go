// Package emu provides functional ABS-M emulation.
package emu

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Syscall errors.
var (
	// ErrUnknownSyscall indicates a SYSCALL immediate with no handler.
	ErrUnknownSyscall = errors.New("unknown syscall number")

	// ErrSyscallOverflow indicates console input longer than the caller's
	// buffer length in R1.
	ErrSyscallOverflow = errors.New("input exceeds buffer length")
)

// Syscall numbers.
const (
	SyscallWelcome    uint16 = 0 // print a fixed greeting
	SyscallConsoleOut uint16 = 1 // write R1 words starting at memory[R0]
	SyscallConsoleIn  uint16 = 2 // read a line into memory[R0..R0+len)
)

const welcomeMessage = "Welcome stranger!\n\n" +
	"This is the CPU speaking - I'm glad that you found this easter egg " +
	"left by my creator.\nIf you see this message, it means that you must " +
	"be browsing through the code or experimenting with me.\n" +
	"Well, wish you a good day. Bye, adios!\n"

// SyscallFn handles one system call. It may read and mutate memory and
// registers. A non-nil error is fatal to the run.
type SyscallFn func(mem *Memory, regs *RegFile) error

// SyscallTable maps syscall immediates to handlers. Console I/O goes
// through the configured reader and writer, which default to the
// process's standard streams.
type SyscallTable struct {
	handlers map[uint16]SyscallFn

	stdin  *bufio.Reader
	stdout io.Writer
}

// NewSyscallTable creates a syscall table with the three built-in
// handlers registered.
func NewSyscallTable(stdin io.Reader, stdout io.Writer) *SyscallTable {
	t := &SyscallTable{
		handlers: make(map[uint16]SyscallFn),
		stdin:    bufio.NewReader(stdin),
		stdout:   stdout,
	}

	t.Register(SyscallWelcome, t.welcome)
	t.Register(SyscallConsoleOut, t.consoleOut)
	t.Register(SyscallConsoleIn, t.consoleIn)

	return t
}

// Register installs a handler for a syscall number, replacing any
// existing one.
func (t *SyscallTable) Register(num uint16, fn SyscallFn) {
	t.handlers[num] = fn
}

// Invoke dispatches syscall num. An unregistered number is fatal.
func (t *SyscallTable) Invoke(num uint16, mem *Memory, regs *RegFile) error {
	fn, ok := t.handlers[num]
	if !ok {
		return errors.Wrapf(ErrUnknownSyscall, "syscall %d", num)
	}
	return fn(mem, regs)
}

func (t *SyscallTable) welcome(_ *Memory, _ *RegFile) error {
	_, err := fmt.Fprint(t.stdout, welcomeMessage)
	return err
}

// consoleOut writes R1 words starting at memory[R0] to the console, one
// character per word, low byte.
func (t *SyscallTable) consoleOut(mem *Memory, regs *RegFile) error {
	start := regs.GP(R0)
	length := regs.GP(R1)

	var sb strings.Builder
	for addr := start; addr < start+length; addr++ {
		word, err := mem.Read(addr)
		if err != nil {
			return errors.Wrap(err, "console out")
		}
		sb.WriteByte(byte(word))
	}

	_, err := io.WriteString(t.stdout, sb.String())
	return err
}

// consoleIn reads one line from the console and stores its characters
// into memory[R0..R0+len). A line longer than R1 is fatal.
func (t *SyscallTable) consoleIn(mem *Memory, regs *RegFile) error {
	line, err := t.stdin.ReadString('\n')
	if err != nil && len(line) == 0 {
		return errors.Wrap(err, "console in")
	}
	line = strings.TrimRight(line, "\r\n")

	if uint32(len(line)) > regs.GP(R1) {
		return errors.Wrapf(ErrSyscallOverflow,
			"input length %d, buffer length %d", len(line), regs.GP(R1))
	}

	addr := regs.GP(R0)
	for i := 0; i < len(line); i++ {
		if err := mem.Write(addr+uint32(i), uint32(line[i])); err != nil {
			return errors.Wrap(err, "console in")
		}
	}

	return nil
}
