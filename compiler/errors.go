package compiler

import (
	"fmt"

	"dukkha/token"
)

// CompileError is raised for every lexical, syntactic, or compile-time
// semantic failure (e.g. local redefinition). All share one wire format:
// exactly one line per error, with an optional trailing "got <Kind>" clause.
type CompileError struct {
	Line    int
	Column  int
	Message string
	Got     token.Kind
	HasGot  bool
}

func newError(line, column int, message string) CompileError {
	return CompileError{Line: line, Column: column, Message: message}
}

func newErrorWithGot(line, column int, message string, got token.Kind) CompileError {
	return CompileError{Line: line, Column: column, Message: message, Got: got, HasGot: true}
}

func (e CompileError) Error() string {
	if e.HasGot {
		return fmt.Sprintf("Error at: %d:%d - %s, got %s", e.Line, e.Column, e.Message, e.Got)
	}
	return fmt.Sprintf("Error at: %d:%d - %s", e.Line, e.Column, e.Message)
}
