// Package main provides the command-line interface for Misim.
// Misim is an instruction-set simulator for the ABS-M architecture.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/XwanXuanX/Misim/emu"
	"github.com/XwanXuanX/Misim/loader"
)

var (
	configPath = flag.String("config", "", "Path to machine configuration JSON file")
	maxInsts   = flag.Uint64("max-insts", 0, "Stop after this many instructions (0 = no limit)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: misim [options] <program.bin> [<trace.csv>]\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	os.Exit(run(flag.Arg(0), flag.Arg(1)))
}

// run loads and executes one program, returning the process exit code.
func run(binaryPath, logPath string) int {
	config := emu.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = emu.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			return 1
		}
	}
	if *maxInsts > 0 {
		config.MaxInstructions = *maxInsts
	}

	prog, err := loader.Load(binaryPath, config.MemorySize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", binaryPath)
		fmt.Printf("Data words: %d\n", len(prog.Data))
		fmt.Printf("Instruction words: %d\n", len(prog.Instructions))
	}

	opts := []emu.CoreOption{
		emu.WithMemorySize(config.MemorySize),
		emu.WithMaxInstructions(config.MaxInstructions),
	}

	var tracer *emu.Tracer
	if logPath != "" {
		tracer, err = emu.NewTracer(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating tracer: %v\n", err)
			return 1
		}
		defer func() { _ = tracer.Close() }()
		opts = append(opts, emu.WithTracer(tracer))
	}

	core, err := emu.NewCore(prog.Segments, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing core: %v\n", err)
		return 1
	}

	core.LoadData(prog.Data)
	core.LoadInstructions(prog.Instructions)

	if err := core.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Emulation error: %v\n", err)
		return 1
	}

	if *verbose {
		fmt.Printf("\nProgram: %s\n", binaryPath)
		fmt.Printf("Instructions executed: %d\n", core.InstructionCount())
	}

	return 0
}
