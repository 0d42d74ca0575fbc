package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable instruction listing for the buffer.
func (b *SymbolBuffer) Disassemble() string {
	return b.DisassembleWithName("")
}

// DisassembleWithName returns a listing with a name header.
// Malformed streams are marked in place rather than aborting the listing.
func (b *SymbolBuffer) DisassembleWithName(name string) string {
	var sb strings.Builder

	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; TraceScript Bytecode v%d, %d symbols\n", FormatVersion, len(b.Symbols)))

	i := 0
	for i < len(b.Symbols) {
		sym := b.At(i)
		if sym.Type != TypeOperator {
			sb.WriteString(fmt.Sprintf("%04d  ; malformed: expected operator, got %s %s\n", i, sym.Type, sym))
			i++
			continue
		}

		op := Opcode(sym.Value)
		if !op.Known() {
			sb.WriteString(fmt.Sprintf("%04d  %s\n", i, op))
			i++
			continue
		}

		operands := make([]string, 0, op.Operands())
		for j := 1; j <= op.Operands(); j++ {
			if i+j >= len(b.Symbols) {
				operands = append(operands, "<truncated>")
				break
			}
			operands = append(operands, b.At(i+j).String())
		}

		sb.WriteString(fmt.Sprintf("%04d  %-6s %s", i, op.String(), strings.Join(operands, ", ")))
		if !GetOpcodeInfo(op).Implemented {
			sb.WriteString("  ; unsupported")
		}
		sb.WriteString("\n")

		i += op.InstructionLen()
	}

	return sb.String()
}
