package engine

import "errors"

// The engine's error taxonomy. Every per-instruction failure wraps exactly
// one of these sentinels, so callers can classify with errors.Is.
var (
	// ErrMalformedInstruction indicates the operator slot did not contain an
	// operator symbol, or the operand count ran past the buffer end.
	ErrMalformedInstruction = errors.New("malformed instruction")

	// ErrUnsupportedOperation indicates a defined but unexecutable opcode
	// (str, wstr, sizeof) or an opcode outside the instruction set.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrInvalidOperand indicates an operand that cannot be resolved: an
	// out-of-range store index, a register symbol under the host variant, or
	// an unknown register/pseudo-register selector.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrArithmetic indicates division or modulo by zero.
	ErrArithmetic = errors.New("arithmetic error")

	// ErrMemoryAccess indicates a dereference of an address the current
	// context cannot safely read.
	ErrMemoryAccess = errors.New("memory access error")
)
