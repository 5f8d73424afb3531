// Command dukkha is the CLI entry point: run a script file, disassemble
// its compiled bytecode, or start an interactive REPL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// Exit codes follow a sysexits-style contract for the bare `dukkha <file>`
// invocation: 0 success, 64 wrong usage, 66 the file couldn't be read, 70 a
// compile or runtime failure.
const (
	exitUsage    = 64
	exitNoInput  = 66
	exitSoftware = 70
)

func isSubcommand(name string) bool {
	switch name {
	case "repl", "disasm", "help", "flags", "commands":
		return true
	}
	return false
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: dukkha <file>\n       dukkha repl\n       dukkha disasm <file>")
		os.Exit(exitUsage)
	}

	if !isSubcommand(os.Args[1]) {
		os.Exit(runFile(os.Args[1]))
	}

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&disasmCmd{}, "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
