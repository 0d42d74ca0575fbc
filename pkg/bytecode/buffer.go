package bytecode

import (
	"encoding/binary"
	"fmt"
)

// FormatVersion is the current serialized buffer format version.
// Increment when making incompatible changes to the format.
const FormatVersion uint16 = 1

// Magic bytes for serialized buffers: "TSBC" (TraceScript ByteCode).
var Magic = []byte{'T', 'S', 'B', 'C'}

// SymbolBuffer is the flat, ordered symbol sequence forming one compiled
// script. The engine only reads it; the emit helpers exist for the compiler
// side and for building fixtures in tests.
type SymbolBuffer struct {
	Symbols []Symbol
}

// NewSymbolBuffer creates an empty buffer.
func NewSymbolBuffer() *SymbolBuffer {
	return &SymbolBuffer{Symbols: make([]Symbol, 0, 16)}
}

// Len returns the number of symbols in the buffer.
func (b *SymbolBuffer) Len() int {
	return len(b.Symbols)
}

// At returns the symbol at the given index. The caller is responsible for
// bounds checks; the engine treats running past the end as a malformed stream.
func (b *SymbolBuffer) At(i int) Symbol {
	return b.Symbols[i]
}

// Emit appends one symbol and returns its index.
func (b *SymbolBuffer) Emit(s Symbol) int {
	idx := len(b.Symbols)
	b.Symbols = append(b.Symbols, s)
	return idx
}

// EmitOp appends an Operator symbol for the given opcode.
func (b *SymbolBuffer) EmitOp(op Opcode) int {
	return b.Emit(Symbol{Type: TypeOperator, Value: uint64(op)})
}

// EmitBinary appends a complete binary instruction: op src0 src1 dest.
func (b *SymbolBuffer) EmitBinary(op Opcode, src0, src1, dest Symbol) int {
	idx := b.EmitOp(op)
	b.Emit(src0)
	b.Emit(src1)
	b.Emit(dest)
	return idx
}

// EmitUnary appends a complete unary instruction: op src0 dest.
func (b *SymbolBuffer) EmitUnary(op Opcode, src0, dest Symbol) int {
	idx := b.EmitOp(op)
	b.Emit(src0)
	b.Emit(dest)
	return idx
}

// EmitPrint appends a print instruction: print src0.
func (b *SymbolBuffer) EmitPrint(src0 Symbol) int {
	idx := b.EmitOp(OpPrint)
	b.Emit(src0)
	return idx
}

// Imm builds an immediate-number operand symbol.
func Imm(v uint64) Symbol { return Symbol{Type: TypeImmediate, Value: v} }

// Ident builds a named-variable operand symbol.
func Ident(idx uint64) Symbol { return Symbol{Type: TypeIdentifier, Value: idx} }

// Temp builds a temporary operand symbol.
func Temp(idx uint64) Symbol { return Symbol{Type: TypeTemporary, Value: idx} }

// Reg builds a register operand symbol.
func Reg(sel uint64) Symbol { return Symbol{Type: TypeRegister, Value: sel} }

// Pseudo builds a pseudo-register operand symbol.
func Pseudo(sel uint64) Symbol { return Symbol{Type: TypePseudoReg, Value: sel} }

// Serialize encodes the buffer to bytes for storage/transport.
// Format:
//
//	[magic:4] [version:2] [count:4]
//	count * ([type:4] [value:8])
func (b *SymbolBuffer) Serialize() ([]byte, error) {
	buf := make([]byte, 0, 10+len(b.Symbols)*12)

	buf = append(buf, Magic...)
	buf = binary.BigEndian.AppendUint16(buf, FormatVersion)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(b.Symbols)))

	for _, s := range b.Symbols {
		buf = binary.BigEndian.AppendUint32(buf, uint32(s.Type))
		buf = binary.BigEndian.AppendUint64(buf, s.Value)
	}

	return buf, nil
}

// Deserialize decodes a buffer from bytes.
func Deserialize(data []byte) (*SymbolBuffer, error) {
	if len(data) < 10 {
		return nil, fmt.Errorf("bytecode too short: need at least 10 bytes, got %d", len(data))
	}

	if string(data[0:4]) != string(Magic) {
		return nil, fmt.Errorf("invalid bytecode magic: expected %q, got %q", Magic, data[0:4])
	}

	version := binary.BigEndian.Uint16(data[4:6])
	if version > FormatVersion {
		return nil, fmt.Errorf("bytecode version %d is newer than supported version %d", version, FormatVersion)
	}

	count := binary.BigEndian.Uint32(data[6:10])
	pos := 10

	if pos+int(count)*12 > len(data) {
		return nil, fmt.Errorf("unexpected end of bytecode: need %d symbols at pos %d", count, pos)
	}

	b := &SymbolBuffer{Symbols: make([]Symbol, count)}
	for i := range b.Symbols {
		b.Symbols[i].Type = SymbolType(binary.BigEndian.Uint32(data[pos:]))
		pos += 4
		b.Symbols[i].Value = binary.BigEndian.Uint64(data[pos:])
		pos += 8
	}

	return b, nil
}
