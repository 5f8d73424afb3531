package main

import (
	"fmt"
	"os"

	"dukkha/compiler"
	"dukkha/vm"
)

// runFile compiles and executes the dukkha program at path, returning the
// process's exit code. This is invoked directly by main, ahead of the
// subcommands dispatcher, so that the bare `dukkha <file>` form keeps the
// exact 0/64/66/70 exit-code contract instead of whatever subcommands
// itself would produce.
func runFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file: %v\n", err)
		return exitNoInput
	}

	code, errs := compiler.Compile(data)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(os.Stderr, e)
		}
		return exitSoftware
	}

	machine := vm.New()
	if err := machine.Run(code); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitSoftware
	}

	return 0
}
