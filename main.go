// Package main provides the entry point for Misim.
// Misim is an instruction-set simulator for the ABS-M architecture.
//
// For the full CLI, use: go run ./cmd/misim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("Misim - ABS-M Instruction-Set Simulator")
	fmt.Println("")
	fmt.Println("Usage: misim [options] <program.bin> [<trace.csv>]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config     Path to machine configuration JSON file")
	fmt.Println("  -max-insts  Stop after this many instructions")
	fmt.Println("  -v          Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/misim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/misim' instead.")
	}
}
