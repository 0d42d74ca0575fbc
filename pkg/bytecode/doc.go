// Package bytecode defines the flat instruction representation shared by the
// script compiler, the controller-side engine, and the in-target engine.
//
// A compiled script is a sequence of fixed-width Symbols. Each instruction
// begins with exactly one Operator symbol (carrying an Opcode in its value
// field) followed by the fixed number of operand symbols the opcode requires.
// Operand symbols carry either an immediate, a register or pseudo-register
// selector, or an index into the per-invocation temporary/variable store.
// There are no jumps: the stream is purely linear, and the caller of the
// engine owns the program counter.
//
// The format is designed for:
//   - Fixed-width decoding (one type tag + one 64-bit value per symbol)
//   - Bit-exact 64-bit integer semantics (no implicit narrowing)
//   - Easy serialization (binary "TSBC" framing here, CBOR packets in wire)
package bytecode
