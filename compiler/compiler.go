// Package compiler implements dukkha's single-pass compiler: a
// recursive-descent parser that emits Bytecode directly while it consumes
// tokens, with no intermediate syntax tree. It threads expression
// precedence, lexical scope tracking, string interning, and forward-jump
// patching through a single token-stream pass.
//
// Locals/globals tracking and forward-jump patching are threaded through
// the same single pass rather than a second pass over a tree.
package compiler

import (
	"fmt"

	"dukkha/bytecode"
	"dukkha/lexer"
	"dukkha/token"
	"dukkha/value"
)

// local records an in-scope local variable: its lexical depth and its slot
// on the VM's evaluation stack, which equals its position in this stack at
// the moment it was declared.
type local struct {
	name  string
	depth int
	slot  int
}

// Compiler holds the two tokens of lookahead state the single-pass design
// needs (cursor, the next token to consume, and prev, the most recently
// consumed one — kept because identifier/string payloads must survive into
// emission), plus the locals stack, the string-intern table, and the
// running block depth.
type Compiler struct {
	lex *lexer.Lexer

	cursor token.Token
	prev   token.Token

	code *bytecode.Bytecode

	blockDepth int
	locals     []local
	strings    map[string]int

	hadError bool
	errs     []error
}

// Compile lexes and compiles src in one pass. On success it returns the
// completed Bytecode and a nil error slice; on any lexical or syntactic
// failure it returns every recorded error (compilation continues past each
// one to surface more in a single run) and the caller must discard the
// partial Bytecode.
func Compile(src []byte) (*bytecode.Bytecode, []error) {
	c := &Compiler{
		lex:     lexer.New(src),
		code:    bytecode.New(),
		strings: make(map[string]int),
	}
	c.advance()

	for c.cursor.Kind != token.EOF {
		c.declaration()
	}
	c.emit(bytecode.Return)

	if c.hadError {
		return c.code, c.errs
	}
	return c.code, nil
}

// advance consumes the current token, lexing the next one into cursor.
func (c *Compiler) advance() {
	c.prev = c.cursor
	tok := c.lex.Next()
	if tok.Kind == token.ERROR {
		c.errorAt(tok, tok.Text)
	}
	c.cursor = tok
}

func (c *Compiler) errorAt(at token.Token, msg string) {
	c.hadError = true
	c.errs = append(c.errs, newError(at.Line, at.Column, msg))
}

func (c *Compiler) errorExpected(at token.Token, msg string) {
	c.hadError = true
	c.errs = append(c.errs, newErrorWithGot(at.Line, at.Column, msg, at.Kind))
}

func (c *Compiler) consume(kind token.Kind, msg string) {
	if c.cursor.Kind == kind {
		c.advance()
		return
	}
	c.errorExpected(c.cursor, msg)
	c.advance()
}

// emit appends an instruction tagged with the line of the token that just
// finished being consumed (prev), which is always the rightmost token of
// whatever construct is being emitted.
func (c *Compiler) emit(op bytecode.Opcode, operand ...int) int {
	return c.code.Emit(op, c.prev.Line, operand...)
}

// emitJump emits op with a placeholder operand and returns the opcode's
// address, to be passed to patchJump once the target is known.
func (c *Compiler) emitJump(op bytecode.Opcode) int {
	return c.emit(op, 0)
}

// patchJump overwrites the operand of a previously-emitted jump at addr so
// it targets the current end of the code buffer.
func (c *Compiler) patchJump(addr int) {
	c.code.SetUint16(addr+1, uint16(len(c.code.Code)))
}

// resolveString interns text once per compilation: repeated references to
// the same identifier or string literal resolve to the same constant-pool
// slot.
func (c *Compiler) resolveString(text string) int {
	if idx, ok := c.strings[text]; ok {
		return idx
	}
	idx := c.code.PushConst(value.Str(text))
	c.strings[text] = idx
	return idx
}

// resolveLocal walks the locals stack top-down for the first record visible
// at the current block depth, returning its slot.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name && c.locals[i].depth <= c.blockDepth {
			return c.locals[i].slot, true
		}
	}
	return 0, false
}

// --- declarations ---------------------------------------------------------

func (c *Compiler) declaration() {
	switch c.cursor.Kind {
	case token.LET:
		c.advance()
		c.letDeclaration()
	case token.LBRACE:
		c.advance()
		c.block()
	default:
		c.statement()
	}
}

// block compiles declarations up to a matching '}'. The opening '{' must
// already have been consumed by the caller. On close, every local declared
// at this depth is popped with one Pop per local, keeping the evaluation
// stack depth equal to what it was on entry.
func (c *Compiler) block() {
	c.blockDepth++

	for c.cursor.Kind != token.RBRACE && c.cursor.Kind != token.EOF {
		c.declaration()
	}
	c.consume(token.RBRACE, "'}' expected")

	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth == c.blockDepth {
		c.locals = c.locals[:len(c.locals)-1]
		c.emit(bytecode.Pop)
	}
	c.blockDepth--
}

// letDeclaration compiles `let NAME [= expr] ;`. Globals are allocated with
// AllocGlobal before being stored; locals are declared on the locals stack
// and stored by slot. A local that redefines a same-depth name is reported
// but not pushed, so slot numbering for subsequent locals stays correct.
func (c *Compiler) letDeclaration() {
	c.consume(token.IDENT, "variable name expected")
	name := c.prev.Text

	global := c.blockDepth == 0
	var nameIdx int
	redefined := false

	if global {
		nameIdx = c.resolveString(name)
		c.emit(bytecode.AllocGlobal, nameIdx)
	} else {
		for i := len(c.locals) - 1; i >= 0 && c.locals[i].depth == c.blockDepth; i-- {
			if c.locals[i].name == name {
				c.errorAt(c.prev, fmt.Sprintf("redefinition of variable '%s'", name))
				redefined = true
				break
			}
		}
	}

	if c.cursor.Kind == token.ASSIGN {
		c.advance()
		c.expression()
	} else {
		c.emit(bytecode.LoadNull)
	}

	if global {
		c.emit(bytecode.StoreGlobal, nameIdx)
	} else {
		slot := len(c.locals)
		c.emit(bytecode.StoreLocal, slot)
		if !redefined {
			c.locals = append(c.locals, local{name: name, depth: c.blockDepth, slot: slot})
		}
	}

	c.consume(token.SEMICOLON, "';' expected")
}

// --- statements ------------------------------------------------------------

func (c *Compiler) statement() {
	switch c.cursor.Kind {
	case token.PRINT:
		c.advance()
		c.printStatement()
	case token.IDENT:
		c.advance()
		c.assignment()
	case token.IF:
		c.advance()
		c.ifStatement()
	case token.WHILE:
		c.advance()
		c.whileStatement()
	default:
		c.expression()
		c.consume(token.SEMICOLON, "';' expected")
		// An expression-statement's value is otherwise unobserved; drop it
		// so the evaluation stack returns to its pre-statement depth.
		c.emit(bytecode.Pop)
	}
}

// assignment compiles `NAME = expr ;`. NAME was consumed by statement()
// into prev. The target resolves exactly as an rvalue reference would:
// locals first, then globals.
func (c *Compiler) assignment() {
	name := c.prev.Text

	c.consume(token.ASSIGN, "'=' expected")
	c.expression()
	c.consume(token.SEMICOLON, "';' expected")

	if slot, ok := c.resolveLocal(name); ok {
		c.emit(bytecode.StoreLocal, slot)
		return
	}
	idx := c.resolveString(name)
	c.emit(bytecode.StoreGlobal, idx)
}

func (c *Compiler) printStatement() {
	c.expression()
	c.emit(bytecode.Print)
	c.consume(token.SEMICOLON, "';' expected")
}

// ifStatement compiles `if expr { ... } (else if expr { ... })* (else { ... })?`
// with the canonical single-pass jump-patching scheme: each condition emits
// a JumpIfFalse to its own block's end, and each taken block emits a Jump
// recorded in endJumps, patched to the overall end once every arm compiles.
func (c *Compiler) ifStatement() {
	c.expression()
	c.consume(token.LBRACE, "'{' expected")

	jumpIfFalse := c.emitJump(bytecode.JumpIfFalse)
	c.block()

	var endJumps []int
	endJumps = append(endJumps, c.emitJump(bytecode.Jump))
	c.patchJump(jumpIfFalse)

	for c.cursor.Kind == token.ELSE {
		c.advance()
		if c.cursor.Kind == token.IF {
			c.advance()
			c.expression()
			c.consume(token.LBRACE, "'{' expected")

			jumpIfFalse = c.emitJump(bytecode.JumpIfFalse)
			c.block()
			endJumps = append(endJumps, c.emitJump(bytecode.Jump))
			c.patchJump(jumpIfFalse)
		} else {
			c.consume(token.LBRACE, "'{' expected")
			c.block()
			break
		}
	}

	for _, addr := range endJumps {
		c.patchJump(addr)
	}
}

// whileStatement compiles `while expr { ... }`. There is no `else` clause:
// a prior design ran one unconditionally regardless of how the loop
// exited, which is indistinguishable from dead code at every call site.
func (c *Compiler) whileStatement() {
	loopTop := len(c.code.Code)

	c.expression()
	jumpIfFalse := c.emitJump(bytecode.JumpIfFalse)

	c.consume(token.LBRACE, "'{' expected")
	c.block()

	c.emit(bytecode.Jump, loopTop)
	c.patchJump(jumpIfFalse)
}

// --- expressions -----------------------------------------------------------

func (c *Compiler) expression() {
	c.logicalOr()
}

// logicalOr lowers `or` to a compile-time short-circuit: if the left
// operand is true, the right is never evaluated and the result is true.
func (c *Compiler) logicalOr() {
	c.logicalAnd()

	for c.cursor.Kind == token.OR {
		c.advance()

		jumpIfFalse := c.emitJump(bytecode.JumpIfFalse)
		trueIdx := c.code.PushConst(value.B(true))
		c.emit(bytecode.Constant16, trueIdx)
		jumpEnd := c.emitJump(bytecode.Jump)

		c.patchJump(jumpIfFalse)
		c.logicalAnd()
		c.patchJump(jumpEnd)
	}
}

// logicalAnd lowers `and` to a compile-time short-circuit: if the left
// operand is false, the right is never evaluated and the result is false.
func (c *Compiler) logicalAnd() {
	c.logicalNot()

	for c.cursor.Kind == token.AND {
		c.advance()

		jumpIfFalse := c.emitJump(bytecode.JumpIfFalse)
		c.logicalNot()
		jumpEnd := c.emitJump(bytecode.Jump)

		c.patchJump(jumpIfFalse)
		falseIdx := c.code.PushConst(value.B(false))
		c.emit(bytecode.Constant16, falseIdx)
		c.patchJump(jumpEnd)
	}
}

func (c *Compiler) logicalNot() {
	if c.cursor.Kind == token.NOT {
		c.advance()
		c.comparison()
		c.emit(bytecode.Not)
	} else {
		c.comparison()
	}
}

func isComparisonOp(k token.Kind) bool {
	switch k {
	case token.EQ_EQ, token.BANG_EQ, token.GTR_EQ, token.LESS_EQ, token.GREATER, token.LESS:
		return true
	default:
		return false
	}
}

// comparison desugars !=, <=, >= into the primitive opcodes Equal/Greater/
// Less plus Not.
func (c *Compiler) comparison() {
	c.addition()

	for isComparisonOp(c.cursor.Kind) {
		op := c.cursor.Kind
		c.advance()
		c.addition()

		switch op {
		case token.EQ_EQ:
			c.emit(bytecode.Equal)
		case token.BANG_EQ:
			c.emit(bytecode.Equal)
			c.emit(bytecode.Not)
		case token.GTR_EQ:
			c.emit(bytecode.Less)
			c.emit(bytecode.Not)
		case token.LESS_EQ:
			c.emit(bytecode.Greater)
			c.emit(bytecode.Not)
		case token.GREATER:
			c.emit(bytecode.Greater)
		case token.LESS:
			c.emit(bytecode.Less)
		}
	}
}

func (c *Compiler) addition() {
	c.multiplication()

	for c.cursor.Kind == token.PLUS || c.cursor.Kind == token.MINUS {
		op := c.cursor.Kind
		c.advance()
		c.multiplication()
		if op == token.PLUS {
			c.emit(bytecode.Add)
		} else {
			c.emit(bytecode.Subtract)
		}
	}
}

func (c *Compiler) multiplication() {
	c.unary()

	for c.cursor.Kind == token.STAR || c.cursor.Kind == token.SLASH {
		op := c.cursor.Kind
		c.advance()
		c.unary()
		if op == token.STAR {
			c.emit(bytecode.Multiply)
		} else {
			c.emit(bytecode.Divide)
		}
	}
}

func (c *Compiler) unary() {
	if c.cursor.Kind == token.MINUS {
		c.advance()
		c.exp()
		c.emit(bytecode.Negate)
	} else {
		c.exp()
	}
}

// exp compiles `**`, right-associative: a**b**c == a**(b**c).
func (c *Compiler) exp() {
	c.arbitrary()

	if c.cursor.Kind == token.STAR_STAR {
		c.advance()
		c.exp()
		c.emit(bytecode.Exp)
	}
}

// arbitrary compiles a single atom: a literal, a variable reference, or a
// parenthesized expression.
func (c *Compiler) arbitrary() {
	switch c.cursor.Kind {
	case token.NUMBER:
		c.advance()
		idx := c.code.PushConst(value.Num(c.prev.Number))
		c.emit(bytecode.Constant16, idx)
	case token.STRING_LIT:
		c.advance()
		idx := c.resolveString(c.prev.Text)
		c.emit(bytecode.Constant16, idx)
	case token.TRUE:
		c.advance()
		idx := c.code.PushConst(value.B(true))
		c.emit(bytecode.Constant16, idx)
	case token.FALSE:
		c.advance()
		idx := c.code.PushConst(value.B(false))
		c.emit(bytecode.Constant16, idx)
	case token.NULL:
		c.advance()
		c.emit(bytecode.LoadNull)
	case token.IDENT:
		c.advance()
		c.resolveVariable(c.prev.Text)
	case token.LPAREN:
		c.advance()
		c.expression()
		c.consume(token.RPAREN, "')' expected")
	default:
		c.errorExpected(c.cursor, "invalid syntax")
		c.advance()
	}
}

// resolveVariable emits the load for an rvalue identifier reference: a
// local if one is in scope, otherwise a global looked up by interned name.
func (c *Compiler) resolveVariable(name string) {
	if slot, ok := c.resolveLocal(name); ok {
		c.emit(bytecode.LoadLocal, slot)
		return
	}
	idx := c.resolveString(name)
	c.emit(bytecode.LoadGlobal, idx)
}
