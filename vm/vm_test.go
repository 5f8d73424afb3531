package vm

import (
	"bytes"
	"testing"

	"dukkha/bytecode"
	"dukkha/value"
)

func TestArithmeticAndPrint(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(2)))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(3)))
	code.Emit(bytecode.Add, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "5\n" {
		t.Errorf("output = %q, want %q", buf.String(), "5\n")
	}
}

func TestStringConcatenation(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str("hi")))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str(" there")))
	code.Emit(bytecode.Add, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "hi there\n" {
		t.Errorf("output = %q, want %q", buf.String(), "hi there\n")
	}
}

func TestStringRepetition(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str("ab")))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(3)))
	code.Emit(bytecode.Multiply, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "ababab\n" {
		t.Errorf("output = %q, want %q", buf.String(), "ababab\n")
	}
}

func TestStringRepetitionCommutesWithNumberFirst(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(3)))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str("ab")))
	code.Emit(bytecode.Multiply, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "ababab\n" {
		t.Errorf("output = %q, want %q", buf.String(), "ababab\n")
	}
}

func TestNegativeRepetitionYieldsEmptyString(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str("ab")))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(-1)))
	code.Emit(bytecode.Multiply, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "\n" {
		t.Errorf("output = %q, want just a newline", buf.String())
	}
}

func TestDivisionByZeroFollowsIEEE754(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 7, code.PushConst(value.Num(1)))
	code.Emit(bytecode.Constant16, 7, code.PushConst(value.Num(0)))
	code.Emit(bytecode.Divide, 7)
	code.Emit(bytecode.Print, 7)
	code.Emit(bytecode.Return, 7)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "+Inf\n" {
		t.Errorf("output = %q, want %q", buf.String(), "+Inf\n")
	}
}

func TestZeroDividedByZeroIsNaN(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(0)))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(0)))
	code.Emit(bytecode.Divide, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "NaN\n" {
		t.Errorf("output = %q, want %q", buf.String(), "NaN\n")
	}
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.LoadGlobal, 3, code.PushConst(value.Str("missing")))
	code.Emit(bytecode.Return, 3)

	m := New()
	if err := m.Run(code); err == nil {
		t.Fatal("expected a runtime error for an undefined global")
	}
}

func TestStoreToUndeclaredGlobalIsRuntimeError(t *testing.T) {
	code := bytecode.New()
	nameIdx := code.PushConst(value.Str("missing"))
	code.Emit(bytecode.Constant16, 5, code.PushConst(value.Num(1)))
	code.Emit(bytecode.StoreGlobal, 5, nameIdx)
	code.Emit(bytecode.Return, 5)

	m := New()
	if err := m.Run(code); err == nil {
		t.Fatal("expected a runtime error storing to an undeclared global")
	}
}

func TestGlobalDoubleDeclarationIsRuntimeError(t *testing.T) {
	code := bytecode.New()
	nameIdx := code.PushConst(value.Str("g"))
	code.Emit(bytecode.AllocGlobal, 1, nameIdx)
	code.Emit(bytecode.AllocGlobal, 2, nameIdx)
	code.Emit(bytecode.Return, 2)

	m := New()
	if err := m.Run(code); err == nil {
		t.Fatal("expected a runtime error for redeclaring a global")
	}
}

func TestLocalStoreAndLoadBySlot(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(42)))
	code.Emit(bytecode.StoreLocal, 1, 0)
	code.Emit(bytecode.LoadLocal, 1, 0)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "42\n" {
		t.Errorf("output = %q, want %q", buf.String(), "42\n")
	}
}

func TestJumpIfFalseRequiresBoolCondition(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 4, code.PushConst(value.Num(1)))
	code.Emit(bytecode.JumpIfFalse, 4, 0)
	code.Emit(bytecode.Return, 4)

	m := New()
	if err := m.Run(code); err == nil {
		t.Fatal("expected a runtime error for a non-bool condition")
	}
}

func TestJumpSkipsOverInstructions(t *testing.T) {
	code := bytecode.New()
	jumpAddr := code.Emit(bytecode.Jump, 1, 0)
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str("skipped")))
	code.Emit(bytecode.Print, 1)
	target := len(code.Code)
	code.SetUint16(jumpAddr+1, uint16(target))
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "" {
		t.Errorf("output = %q, want empty (print should have been skipped)", buf.String())
	}
}

func TestNegateRequiresNumber(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 2, code.PushConst(value.B(true)))
	code.Emit(bytecode.Negate, 2)
	code.Emit(bytecode.Return, 2)

	m := New()
	if err := m.Run(code); err == nil {
		t.Fatal("expected a runtime error negating a bool")
	}
}

func TestEqualNeverErrorsAcrossKinds(t *testing.T) {
	code := bytecode.New()
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Num(1)))
	code.Emit(bytecode.Constant16, 1, code.PushConst(value.Str("1")))
	code.Emit(bytecode.Equal, 1)
	code.Emit(bytecode.Print, 1)
	code.Emit(bytecode.Return, 1)

	var buf bytes.Buffer
	m := New()
	m.Out = &buf
	if err := m.Run(code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "false\n" {
		t.Errorf("output = %q, want %q", buf.String(), "false\n")
	}
}
