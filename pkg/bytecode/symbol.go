package bytecode

import "fmt"

// SymbolType discriminates how a Symbol's 64-bit value is interpreted.
// The numbering matches the captured on-the-wire layout and must not change.
type SymbolType uint32

const (
	// TypeIdentifier indexes a named script variable in the store.
	TypeIdentifier SymbolType = 0

	// TypeImmediate carries a literal 64-bit number.
	TypeImmediate SymbolType = 1

	// TypeRegister selects a general-purpose architectural register.
	TypeRegister SymbolType = 2

	// TypePseudoReg selects a context-derived value ($tid, $pid, ...).
	TypePseudoReg SymbolType = 3

	// TypeOperator carries an Opcode and starts an instruction.
	TypeOperator SymbolType = 4

	// TypeTemporary indexes a compiler-allocated temporary in the store.
	TypeTemporary SymbolType = 5
)

// String returns a human-readable name for a symbol type.
func (t SymbolType) String() string {
	switch t {
	case TypeIdentifier:
		return "id"
	case TypeImmediate:
		return "num"
	case TypeRegister:
		return "reg"
	case TypePseudoReg:
		return "pseudo"
	case TypeOperator:
		return "op"
	case TypeTemporary:
		return "temp"
	default:
		return fmt.Sprintf("SymbolType(%d)", uint32(t))
	}
}

// Symbol is one bytecode operand or operator record. It is a fixed-width,
// copyable value with no owned resources.
type Symbol struct {
	Type  SymbolType
	Value uint64
}

// String renders a symbol for trace output and disassembly.
func (s Symbol) String() string {
	switch s.Type {
	case TypeOperator:
		return Opcode(s.Value).String()
	case TypeImmediate:
		return fmt.Sprintf("0x%x", s.Value)
	case TypeIdentifier:
		return fmt.Sprintf("var%d", s.Value)
	case TypeTemporary:
		return fmt.Sprintf("t%d", s.Value)
	case TypeRegister:
		return RegisterName(s.Value)
	case TypePseudoReg:
		return PseudoRegName(s.Value)
	default:
		return fmt.Sprintf("%s(0x%x)", s.Type, s.Value)
	}
}

// General-purpose register selectors carried by Register-typed symbols.
// One slot per x86-64 architectural register, in guest-state layout order.
const (
	RegRAX uint64 = iota
	RegRCX
	RegRDX
	RegRBX
	RegRSP
	RegRBP
	RegRSI
	RegRDI
	RegR8
	RegR9
	RegR10
	RegR11
	RegR12
	RegR13
	RegR14
	RegR15

	// RegisterCount is the size of a register file.
	RegisterCount = 16
)

// InvalidSelector is the sentinel the compiler emits for a selector it could
// not resolve. It is never a valid register or pseudo-register.
const InvalidSelector uint64 = 0x80000000

var registerNames = [RegisterCount]string{
	"rax", "rcx", "rdx", "rbx", "rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15",
}

// RegisterName returns the assembler name for a register selector.
func RegisterName(sel uint64) string {
	if sel < RegisterCount {
		return registerNames[sel]
	}
	return fmt.Sprintf("reg(0x%x)", sel)
}

// Pseudo-register selectors carried by PseudoRegister-typed symbols.
const (
	// PseudoTID is the current thread id ($tid).
	PseudoTID uint64 = iota

	// PseudoPID is the current process id ($pid).
	PseudoPID

	// PseudoProc is a reference to the current process object ($proc).
	PseudoProc

	// PseudoThread is a reference to the current thread object ($thread).
	PseudoThread

	// PseudoTEB is the thread environment block address ($teb).
	PseudoTEB

	// PseudoIP is the instruction pointer at the trap point ($ip).
	PseudoIP

	// PseudoBuffer is the address of the per-event reserved buffer ($buffer).
	PseudoBuffer

	// PseudoRegCount is the number of defined pseudo-registers.
	PseudoRegCount
)

var pseudoRegNames = [PseudoRegCount]string{
	"$tid", "$pid", "$proc", "$thread", "$teb", "$ip", "$buffer",
}

// PseudoRegName returns the script-level name for a pseudo-register selector.
func PseudoRegName(sel uint64) string {
	if sel < PseudoRegCount {
		return pseudoRegNames[sel]
	}
	return fmt.Sprintf("pseudo(0x%x)", sel)
}
