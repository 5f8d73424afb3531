// Package vm implements the stack-based virtual machine that executes
// compiled dukkha Bytecode. It is a straight fetch-decode-execute loop:
// no function frames, since the language has no user-defined functions —
// every local lives in the single shared Stack, addressed by slot.
package vm

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"dukkha/bytecode"
	"dukkha/value"
)

// VM holds the runtime state for one program execution: the evaluation
// stack, the instruction pointer, the global-variable table, and the
// writer Print sends output to.
type VM struct {
	stack   Stack
	ip      int
	globals map[string]value.Value

	Out io.Writer
}

// New returns a VM ready to Run a program, writing Print output to stdout.
func New() *VM {
	return &VM{
		globals: make(map[string]value.Value),
		Out:     os.Stdout,
	}
}

func (vm *VM) runtimeErr(line int, msg string) error {
	return RuntimeError{Line: line, IP: vm.ip, Message: msg}
}

// Run executes code from its first instruction, returning nil once a
// Return opcode is reached or a RuntimeError on the first fault.
func (vm *VM) Run(code *bytecode.Bytecode) error {
	vm.ip = 0

	for vm.ip < len(code.Code) {
		op := bytecode.Opcode(code.Code[vm.ip])
		line := code.Lines[vm.ip]
		width := bytecode.OperandWidths[op]

		switch op {
		case bytecode.Return:
			return nil

		case bytecode.Constant16:
			idx := int(code.ReadUint16(vm.ip + 1))
			vm.stack.Push(code.GetConst(idx))

		case bytecode.Pop:
			vm.stack.Pop()

		case bytecode.Negate:
			a, _ := vm.stack.Pop()
			if !a.Is(value.Number) {
				return vm.runtimeErr(line, fmt.Sprintf("operand must be a number, got %s", a.Kind()))
			}
			vm.stack.Push(value.Num(-a.Number()))

		case bytecode.Add, bytecode.Subtract, bytecode.Multiply, bytecode.Divide, bytecode.Exp:
			if err := vm.binaryArith(op, line); err != nil {
				return err
			}

		case bytecode.Not:
			a, _ := vm.stack.Pop()
			if !a.Is(value.Bool) {
				return vm.runtimeErr(line, fmt.Sprintf("operand must be a bool, got %s", a.Kind()))
			}
			vm.stack.Push(value.B(!a.Bool()))

		case bytecode.And, bytecode.Or:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			if !a.Is(value.Bool) || !b.Is(value.Bool) {
				return vm.runtimeErr(line, "operands must be bool")
			}
			if op == bytecode.And {
				vm.stack.Push(value.B(a.Bool() && b.Bool()))
			} else {
				vm.stack.Push(value.B(a.Bool() || b.Bool()))
			}

		case bytecode.Equal:
			b, _ := vm.stack.Pop()
			a, _ := vm.stack.Pop()
			vm.stack.Push(value.B(a.Equals(b)))

		case bytecode.Greater, bytecode.Less:
			if err := vm.binaryCompare(op, line); err != nil {
				return err
			}

		case bytecode.Print:
			a, _ := vm.stack.Pop()
			fmt.Fprintln(vm.Out, a.Display())

		case bytecode.LoadNull:
			vm.stack.Push(value.NullValue())

		case bytecode.AllocGlobal:
			idx := int(code.ReadUint16(vm.ip + 1))
			name := code.GetConst(idx).String()
			if _, exists := vm.globals[name]; exists {
				return vm.runtimeErr(line, fmt.Sprintf("global '%s' already declared", name))
			}
			vm.globals[name] = value.NullValue()

		case bytecode.StoreGlobal:
			idx := int(code.ReadUint16(vm.ip + 1))
			name := code.GetConst(idx).String()
			v, _ := vm.stack.Pop()
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeErr(line, fmt.Sprintf("undefined variable '%s'", name))
			}
			vm.globals[name] = v

		case bytecode.LoadGlobal:
			idx := int(code.ReadUint16(vm.ip + 1))
			name := code.GetConst(idx).String()
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeErr(line, fmt.Sprintf("undefined variable '%s'", name))
			}
			vm.stack.Push(v)

		case bytecode.StoreLocal:
			slot := int(code.ReadUint16(vm.ip + 1))
			v, _ := vm.stack.Pop()
			vm.stack.Set(slot, v)

		case bytecode.LoadLocal:
			slot := int(code.ReadUint16(vm.ip + 1))
			vm.stack.Push(vm.stack.Get(slot))

		case bytecode.Jump:
			vm.ip = int(code.ReadUint16(vm.ip + 1))
			continue

		case bytecode.JumpIfFalse:
			v, _ := vm.stack.Pop()
			if !v.Is(value.Bool) {
				return vm.runtimeErr(line, fmt.Sprintf("condition must be a bool, got %s", v.Kind()))
			}
			target := int(code.ReadUint16(vm.ip + 1))
			if !v.Bool() {
				vm.ip = target
				continue
			}

		default:
			return vm.runtimeErr(line, fmt.Sprintf("unknown opcode %v", op))
		}

		vm.ip += 1 + width
	}

	return nil
}

func (vm *VM) binaryArith(op bytecode.Opcode, line int) error {
	b, _ := vm.stack.Pop()
	a, _ := vm.stack.Pop()

	// Add and Multiply have string-involving forms: 'a' + 'b' concatenates,
	// and a string times a number repeats it (either operand order).
	if op == bytecode.Add && a.Is(value.String) && b.Is(value.String) {
		vm.stack.Push(value.Str(a.String() + b.String()))
		return nil
	}
	if op == bytecode.Multiply {
		if a.Is(value.String) && b.Is(value.Number) {
			vm.stack.Push(value.Str(repeatString(a.String(), b.Number())))
			return nil
		}
		if a.Is(value.Number) && b.Is(value.String) {
			vm.stack.Push(value.Str(repeatString(b.String(), a.Number())))
			return nil
		}
	}

	if !a.Is(value.Number) || !b.Is(value.Number) {
		return vm.runtimeErr(line, fmt.Sprintf("operands must be numbers, got %s and %s", a.Kind(), b.Kind()))
	}

	var r float64
	switch op {
	case bytecode.Add:
		r = a.Number() + b.Number()
	case bytecode.Subtract:
		r = a.Number() - b.Number()
	case bytecode.Multiply:
		r = a.Number() * b.Number()
	case bytecode.Divide:
		r = a.Number() / b.Number()
	case bytecode.Exp:
		r = math.Pow(a.Number(), b.Number())
	}

	vm.stack.Push(value.Num(r))
	return nil
}

// repeatString implements 'ab' * n: n repetitions of s, or "" when n is
// zero or negative.
func repeatString(s string, n float64) string {
	count := int(n)
	if count <= 0 {
		return ""
	}
	return strings.Repeat(s, count)
}

func (vm *VM) binaryCompare(op bytecode.Opcode, line int) error {
	b, _ := vm.stack.Pop()
	a, _ := vm.stack.Pop()
	if !a.Is(value.Number) || !b.Is(value.Number) {
		return vm.runtimeErr(line, fmt.Sprintf("operands must be numbers, got %s and %s", a.Kind(), b.Kind()))
	}

	if op == bytecode.Greater {
		vm.stack.Push(value.B(a.Number() > b.Number()))
	} else {
		vm.stack.Push(value.B(a.Number() < b.Number()))
	}
	return nil
}
