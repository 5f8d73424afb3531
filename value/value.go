// Package value defines the single dynamically-typed value that flows
// through the lexer's literals, the compiler's constant pool, and the VM's
// evaluation stack.
package value

import "strconv"

// Kind tags the variant a Value currently holds.
type Kind byte

const (
	Number Kind = iota
	Bool
	String
	Null
	// Error is an internal sentinel kind, built only by ErrValue. It is
	// never constructible from user source; the VM reports runtime
	// failures as a RuntimeError rather than as a Value of this kind.
	Error
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Null:
		return "null"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Value is a tagged union. Only the field matching Kind is meaningful.
type Value struct {
	kind Kind
	num  float64
	flag bool
	str  string
}

func Num(n float64) Value       { return Value{kind: Number, num: n} }
func B(b bool) Value            { return Value{kind: Bool, flag: b} }
func Str(s string) Value        { return Value{kind: String, str: s} }
func NullValue() Value          { return Value{kind: Null} }
func ErrValue(msg string) Value { return Value{kind: Error, str: msg} }

// Is reports whether the value holds the given kind.
func (v Value) Is(k Kind) bool { return v.kind == k }

func (v Value) Kind() Kind { return v.kind }

// Number returns the numeric payload; only meaningful when Is(Number).
func (v Value) Number() float64 { return v.num }

// Bool returns the boolean payload; only meaningful when Is(Bool).
func (v Value) Bool() bool { return v.flag }

// String returns the string payload or, for Error, the error message;
// only meaningful when Is(String) or Is(Error).
func (v Value) String() string { return v.str }

// Equals implements same-kind value equality. Values of different kinds are
// never equal — there is no implicit coercion between them.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == other.num
	case Bool:
		return v.flag == other.flag
	case String:
		return v.str == other.str
	case Null:
		return true
	default:
		return false
	}
}

// Display renders the value's user-visible textual form, as written by the
// Print opcode.
func (v Value) Display() string {
	switch v.kind {
	case Number:
		return formatNumber(v.num)
	case Bool:
		if v.flag {
			return "true"
		}
		return "false"
	case String:
		return v.str
	case Null:
		return "null"
	default:
		return "<error: " + v.str + ">"
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
