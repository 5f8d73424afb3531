package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders the instruction stream as a human-readable listing,
// one instruction per line, resolving constant-pool and jump operands
// inline. Its format is diagnostic only, not a contract.
func (b *Bytecode) Disassemble() string {
	var out strings.Builder

	ip := 0
	for ip < len(b.Code) {
		op := Opcode(b.Code[ip])
		width := OperandWidths[op]

		fmt.Fprintf(&out, "%04d %-14s", ip, op)

		if width == 2 {
			operand := int(b.ReadUint16(ip + 1))
			switch op {
			case Constant16, AllocGlobal, StoreGlobal, LoadGlobal:
				fmt.Fprintf(&out, " %5d  ; %s", operand, b.GetConst(operand).Display())
			case Jump, JumpIfFalse:
				fmt.Fprintf(&out, " -> %04d", operand)
			default:
				fmt.Fprintf(&out, " %5d", operand)
			}
		}

		out.WriteByte('\n')
		ip += 1 + width
	}

	return out.String()
}
