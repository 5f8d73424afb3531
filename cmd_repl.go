package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"dukkha/compiler"
	"dukkha/lexer"
	"dukkha/token"
	"dukkha/vm"
)

// replCmd implements the interactive REPL subcommand.
type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive dukkha session" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive REPL. Globals declared in one entry persist into the
  next; "exit" quits.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("dukkha REPL — type 'exit' to quit")

	machine := vm.New()
	var buf strings.Builder

	for {
		if buf.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil {
			return subcommands.ExitSuccess
		}

		if strings.TrimSpace(line) == "exit" && buf.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(line)
		source := []byte(buf.String())

		if !isInputReady(source) {
			continue
		}

		code, errs := compiler.Compile(source)
		if len(errs) > 0 {
			if allErrorsAtEOF(errs, source) {
				continue
			}
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e)
			}
			buf.Reset()
			continue
		}

		if err := machine.Run(code); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		buf.Reset()
	}
}

// isInputReady decides whether src forms a complete program worth trying to
// compile yet, so the REPL can keep reading continuation lines for an
// unfinished block or a trailing operator instead of reporting a premature
// syntax error.
func isInputReady(src []byte) bool {
	lx := lexer.New(src)

	depth := 0
	var last token.Token
	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.LBRACE {
			depth++
		}
		if tok.Kind == token.RBRACE {
			depth--
		}
		last = tok
	}

	if depth > 0 {
		return false
	}

	switch last.Kind {
	case token.ASSIGN, token.PLUS, token.MINUS, token.STAR, token.SLASH, token.BANG,
		token.EQ_EQ, token.BANG_EQ, token.LESS, token.LESS_EQ, token.GREATER, token.GTR_EQ,
		token.COMMA, token.LPAREN, token.LBRACE,
		token.IF, token.ELSE, token.WHILE, token.FOR, token.FUNCTION, token.RETURN,
		token.LET, token.CONST, token.AND, token.OR, token.NOT, token.PRINT:
		return false
	}
	return true
}

// allErrorsAtEOF reports whether every compile error points at the
// position of src's final token, meaning the user simply hasn't finished
// typing rather than having made a real mistake.
func allErrorsAtEOF(errs []error, src []byte) bool {
	lx := lexer.New(src)
	var eof token.Token
	for {
		tok := lx.Next()
		eof = tok
		if tok.Kind == token.EOF {
			break
		}
	}

	for _, e := range errs {
		ce, ok := e.(compiler.CompileError)
		if !ok {
			return false
		}
		if ce.Line != eof.Line || ce.Column != eof.Column {
			return false
		}
	}
	return len(errs) > 0
}
