package bytecode

import "fmt"

// Opcode identifies the operation carried by an Operator symbol.
// The numbering matches the captured on-the-wire layout and must not change.
type Opcode uint64

const (
	// ========================================================================
	// Binary operations: src0, src1, dest. Result is src1 <op> src0.
	// ========================================================================

	OpOr  Opcode = 0  // dest = src1 | src0
	OpXor Opcode = 1  // dest = src1 ^ src0
	OpAnd Opcode = 2  // dest = src1 & src0
	OpAsr Opcode = 3  // dest = src1 >> src0
	OpAsl Opcode = 4  // dest = src1 << src0
	OpAdd Opcode = 5  // dest = src1 + src0 (wrapping)
	OpSub Opcode = 6  // dest = src1 - src0 (wrapping)
	OpMul Opcode = 7  // dest = src1 * src0 (wrapping)
	OpDiv Opcode = 8  // dest = src1 / src0; src0 == 0 is an arithmetic error
	OpMod Opcode = 9  // dest = src1 % src0; src0 == 0 is an arithmetic error

	// ========================================================================
	// Memory dereference: src0 is an address, dest receives the read value.
	// ========================================================================

	OpPoi Opcode = 10 // full 64-bit read
	OpDb  Opcode = 11 // read truncated to 8 bits
	OpDd  Opcode = 12 // read truncated to 16 bits
	OpDw  Opcode = 13 // read truncated to 32 bits
	OpDq  Opcode = 14 // full 64-bit read

	// ========================================================================
	// String-typed operations. Defined in the language, not executable here.
	// ========================================================================

	OpStr    Opcode = 15
	OpWstr   Opcode = 16
	OpSizeof Opcode = 17

	// ========================================================================
	// Unary operations: src0, dest.
	// ========================================================================

	OpNot Opcode = 18 // dest = ^src0
	OpNeg Opcode = 19 // dest = two's-complement negation of src0
	OpHi  Opcode = 20 // read at src0, take upper 16 bits of the quadword
	OpLow Opcode = 21 // read at src0, take lower 16 bits of the quadword
	OpMov Opcode = 22 // dest = src0; identifier destinations surface the value

	// ========================================================================
	// Output
	// ========================================================================

	OpPrint Opcode = 23 // deliver src0 to the output sink; no destination
)

// OpcodeInfo provides metadata about each opcode for dispatch and validation.
type OpcodeInfo struct {
	Name        string // Human-readable name
	Operands    int    // Operand symbols following the operator symbol
	Implemented bool   // False for string-typed operations
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	OpOr:  {"or", 3, true},
	OpXor: {"xor", 3, true},
	OpAnd: {"and", 3, true},
	OpAsr: {"asr", 3, true},
	OpAsl: {"asl", 3, true},
	OpAdd: {"add", 3, true},
	OpSub: {"sub", 3, true},
	OpMul: {"mul", 3, true},
	OpDiv: {"div", 3, true},
	OpMod: {"mod", 3, true},

	OpPoi: {"poi", 2, true},
	OpDb:  {"db", 2, true},
	OpDd:  {"dd", 2, true},
	OpDw:  {"dw", 2, true},
	OpDq:  {"dq", 2, true},

	OpStr:    {"str", 2, false},
	OpWstr:   {"wstr", 2, false},
	OpSizeof: {"sizeof", 2, false},

	OpNot: {"not", 2, true},
	OpNeg: {"neg", 2, true},
	OpHi:  {"hi", 2, true},
	OpLow: {"low", 2, true},
	OpMov: {"mov", 2, true},

	OpPrint: {"print", 1, true},
}

// GetOpcodeInfo returns metadata for an opcode. Unknown opcodes get a zero
// entry with a synthesized name so trace output stays readable.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("unknown(0x%x)", uint64(op))}
}

// Known reports whether the opcode is part of the defined instruction set.
func (op Opcode) Known() bool {
	_, ok := opcodeInfoTable[op]
	return ok
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// Operands returns the number of operand symbols following the operator.
func (op Opcode) Operands() int {
	return GetOpcodeInfo(op).Operands
}

// InstructionLen returns the total symbol count of one instruction.
func (op Opcode) InstructionLen() int {
	return 1 + op.Operands()
}

// IsBinary reports whether the opcode takes two sources and a destination.
func (op Opcode) IsBinary() bool {
	return op >= OpOr && op <= OpMod
}

// IsDeref reports whether the opcode reads guest memory.
func (op Opcode) IsDeref() bool {
	return (op >= OpPoi && op <= OpDq) || op == OpHi || op == OpLow
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
