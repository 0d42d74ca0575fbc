package engine

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/probelab/tracescript/pkg/bytecode"
)

// Mode discriminates the two execution environments.
type Mode int

const (
	// ModeHost runs the engine inside the controller process.
	ModeHost Mode = iota

	// ModeTarget runs the engine against a captured or live target state.
	ModeTarget
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	if m == ModeTarget {
		return "target"
	}
	return "host"
}

// Context supplies the environment facts an instruction may depend on.
// Accessor calls are pure reads with respect to engine state; the engine only
// mutates a context through SetReg, and only when the script says so.
type Context interface {
	// Mode identifies the environment variant.
	Mode() Mode

	// ThreadID returns the current thread id ($tid).
	ThreadID() uint64

	// ProcessID returns the current process id ($pid).
	ProcessID() uint64

	// ProcessObject returns a reference to the current process object ($proc).
	ProcessObject() uint64

	// ThreadObject returns a reference to the current thread object ($thread).
	ThreadObject() uint64

	// TEB returns the thread environment block address ($teb).
	TEB() uint64

	// InstructionPointer returns the instruction pointer at the trap point ($ip).
	InstructionPointer() uint64

	// ReservedBuffer returns the address of the per-event scratch buffer ($buffer).
	ReservedBuffer() uint64

	// Reg reads a general-purpose register by selector.
	Reg(sel uint64) (uint64, error)

	// SetReg writes a general-purpose register by selector.
	SetReg(sel, v uint64) error

	// ReadQuad reads the 64-bit value at a guest address.
	ReadQuad(addr uint64) (uint64, error)
}

// RegisterFile is the 16-slot general-purpose register snapshot of the target
// variant, in guest-state layout order (rax..r15).
type RegisterFile [bytecode.RegisterCount]uint64

// HostContext is the controller-process environment. Thread and process ids
// are the real OS identifiers of the calling thread; target-only accessors
// return zero; there is no register file.
type HostContext struct {
	// Mem, when non-nil, allows dereference opcodes to read controller
	// memory (for example a locally staged buffer). Nil means every
	// dereference fails.
	Mem MemoryReader
}

// NewHostContext creates a host-variant context with no memory reader.
func NewHostContext() *HostContext {
	return &HostContext{}
}

// Mode identifies the host variant.
func (c *HostContext) Mode() Mode { return ModeHost }

// ThreadID returns the OS thread id of the calling thread.
func (c *HostContext) ThreadID() uint64 { return uint64(unix.Gettid()) }

// ProcessID returns the controller's process id.
func (c *HostContext) ProcessID() uint64 { return uint64(os.Getpid()) }

// ProcessObject has no meaning in the controller process.
func (c *HostContext) ProcessObject() uint64 { return 0 }

// ThreadObject has no meaning in the controller process.
func (c *HostContext) ThreadObject() uint64 { return 0 }

// TEB has no meaning in the controller process.
func (c *HostContext) TEB() uint64 { return 0 }

// InstructionPointer has no meaning in the controller process.
func (c *HostContext) InstructionPointer() uint64 { return 0 }

// ReservedBuffer has no meaning in the controller process.
func (c *HostContext) ReservedBuffer() uint64 { return 0 }

// Reg fails: the host variant has no register file.
func (c *HostContext) Reg(sel uint64) (uint64, error) {
	return 0, fmt.Errorf("%w: register %s read under host context", ErrInvalidOperand, bytecode.RegisterName(sel))
}

// SetReg fails: the host variant has no register file.
func (c *HostContext) SetReg(sel, v uint64) error {
	return fmt.Errorf("%w: register %s write under host context", ErrInvalidOperand, bytecode.RegisterName(sel))
}

// ReadQuad delegates to the attached memory reader, if any.
func (c *HostContext) ReadQuad(addr uint64) (uint64, error) {
	if c.Mem == nil {
		return 0, fmt.Errorf("%w: host context has no memory reader for 0x%x", ErrMemoryAccess, addr)
	}
	return c.Mem.ReadQuad(addr)
}

// TargetContext is a snapshot of target state at a trap/trace point. The
// caller populates every field and guarantees the snapshot stays valid for
// the duration of the script's execution.
type TargetContext struct {
	Regs RegisterFile

	TID    uint64 // current thread id
	PID    uint64 // current process id
	Proc   uint64 // current process object reference
	Thread uint64 // current thread object reference
	Teb    uint64 // thread environment block address
	IP     uint64 // instruction pointer at the trap point
	Buffer uint64 // per-event reserved buffer address
	Mem    MemoryReader
}

// Mode identifies the target variant.
func (c *TargetContext) Mode() Mode { return ModeTarget }

// ThreadID returns the snapshot thread id.
func (c *TargetContext) ThreadID() uint64 { return c.TID }

// ProcessID returns the snapshot process id.
func (c *TargetContext) ProcessID() uint64 { return c.PID }

// ProcessObject returns the snapshot process object reference.
func (c *TargetContext) ProcessObject() uint64 { return c.Proc }

// ThreadObject returns the snapshot thread object reference.
func (c *TargetContext) ThreadObject() uint64 { return c.Thread }

// TEB returns the snapshot thread environment block address.
func (c *TargetContext) TEB() uint64 { return c.Teb }

// InstructionPointer returns the snapshot instruction pointer.
func (c *TargetContext) InstructionPointer() uint64 { return c.IP }

// ReservedBuffer returns the snapshot reserved buffer address.
func (c *TargetContext) ReservedBuffer() uint64 { return c.Buffer }

// Reg reads a register from the snapshot file.
func (c *TargetContext) Reg(sel uint64) (uint64, error) {
	if sel >= bytecode.RegisterCount {
		return 0, fmt.Errorf("%w: unknown register selector 0x%x", ErrInvalidOperand, sel)
	}
	return c.Regs[sel], nil
}

// SetReg writes a register in the snapshot file.
func (c *TargetContext) SetReg(sel, v uint64) error {
	if sel >= bytecode.RegisterCount {
		return fmt.Errorf("%w: unknown register selector 0x%x", ErrInvalidOperand, sel)
	}
	c.Regs[sel] = v
	return nil
}

// ReadQuad delegates to the snapshot memory reader, if any.
func (c *TargetContext) ReadQuad(addr uint64) (uint64, error) {
	if c.Mem == nil {
		return 0, fmt.Errorf("%w: target context has no memory reader for 0x%x", ErrMemoryAccess, addr)
	}
	return c.Mem.ReadQuad(addr)
}

// pseudoRegValue resolves a pseudo-register selector against a context.
func pseudoRegValue(ctx Context, sel uint64) (uint64, error) {
	switch sel {
	case bytecode.PseudoTID:
		return ctx.ThreadID(), nil
	case bytecode.PseudoPID:
		return ctx.ProcessID(), nil
	case bytecode.PseudoProc:
		return ctx.ProcessObject(), nil
	case bytecode.PseudoThread:
		return ctx.ThreadObject(), nil
	case bytecode.PseudoTEB:
		return ctx.TEB(), nil
	case bytecode.PseudoIP:
		return ctx.InstructionPointer(), nil
	case bytecode.PseudoBuffer:
		return ctx.ReservedBuffer(), nil
	default:
		return 0, fmt.Errorf("%w: unknown pseudo-register selector 0x%x", ErrInvalidOperand, sel)
	}
}
