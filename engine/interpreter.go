package engine

import (
	"fmt"
	"io"

	"github.com/tliron/commonlog"

	"github.com/probelab/tracescript/pkg/bytecode"
)

var log = commonlog.GetLogger("tracescript.engine")

// Engine executes one script invocation. Store, Ctx, and Out are supplied by
// the caller and scoped to the invocation; the engine itself holds no shared
// mutable state.
type Engine struct {
	Store *Store
	Ctx   Context
	Out   OutputSink

	// Tag identifies the originating event to the output sink.
	Tag uint64

	// Immediate requests synchronous delivery for print results.
	Immediate bool

	// ResultOut receives host-side mov-to-variable results. Nil drops them.
	// Under the target variant the result is logged instead.
	ResultOut io.Writer

	// Trace prints each instruction before executing it.
	Trace bool
}

// NewEngine creates an engine for one invocation.
func NewEngine(store *Store, ctx Context, out OutputSink) *Engine {
	return &Engine{Store: store, Ctx: ctx, Out: out}
}

// Run executes the buffer from the beginning to the end, stopping at the
// first failing instruction.
func (e *Engine) Run(buf *bytecode.SymbolBuffer) error {
	cursor := 0
	for cursor < buf.Len() {
		var err error
		cursor, err = e.Step(buf, cursor)
		if err != nil {
			return err
		}
	}
	return nil
}

// Step executes exactly one instruction starting at cursor and returns the
// advanced cursor. On error the cursor still points past the consumed
// symbols, so a caller that chooses to skip a failing instruction keeps
// stream alignment; the recommended default is to abort the script.
func (e *Engine) Step(buf *bytecode.SymbolBuffer, cursor int) (int, error) {
	start := cursor

	opSym, cursor, err := e.fetch(buf, cursor)
	if err != nil {
		return cursor, e.at(start, err)
	}
	if opSym.Type != bytecode.TypeOperator {
		return cursor, e.at(start, fmt.Errorf("%w: expected operator, got %s %s",
			ErrMalformedInstruction, opSym.Type, opSym))
	}

	op := bytecode.Opcode(opSym.Value)
	info := bytecode.GetOpcodeInfo(op)
	if !op.Known() {
		return cursor, e.at(start, fmt.Errorf("%w: opcode 0x%x", ErrUnsupportedOperation, opSym.Value))
	}
	if !info.Implemented {
		// Advance past the whole instruction so the stream stays aligned.
		cursor = min(cursor+info.Operands, buf.Len())
		return cursor, e.at(start, fmt.Errorf("%w: %s", ErrUnsupportedOperation, info.Name))
	}

	if e.Trace {
		fmt.Printf("[%04d] %-6s\n", start, info.Name)
	}

	// Every implemented opcode fetches src0 first. Fetch order is part of
	// the contract: it fixes the read-before-write point when a variable is
	// both source and destination.
	src0, cursor, err := e.fetch(buf, cursor)
	if err != nil {
		return cursor, e.at(start, err)
	}
	srcVal0, err := e.getValue(src0)
	if err != nil {
		return cursor, e.at(start, err)
	}

	switch {
	case op.IsBinary():
		src1, next, err := e.fetch(buf, cursor)
		if err != nil {
			return next, e.at(start, err)
		}
		cursor = next
		srcVal1, err := e.getValue(src1)
		if err != nil {
			return cursor, e.at(start, err)
		}
		dest, next, err := e.fetch(buf, cursor)
		if err != nil {
			return next, e.at(start, err)
		}
		cursor = next

		desVal, err := binaryOp(op, srcVal0, srcVal1)
		if err != nil {
			return cursor, e.at(start, err)
		}
		if err := e.setValue(dest, desVal); err != nil {
			return cursor, e.at(start, err)
		}
		return cursor, nil

	case op == bytecode.OpNot, op == bytecode.OpNeg, op == bytecode.OpMov,
		op.IsDeref():
		dest, next, err := e.fetch(buf, cursor)
		if err != nil {
			return next, e.at(start, err)
		}
		cursor = next

		var desVal uint64
		switch op {
		case bytecode.OpNot:
			desVal = ^srcVal0
		case bytecode.OpNeg:
			desVal = uint64(-int64(srcVal0))
		case bytecode.OpMov:
			desVal = srcVal0
		default:
			read, err := e.Ctx.ReadQuad(srcVal0)
			if err != nil {
				return cursor, e.at(start, err)
			}
			desVal = truncateRead(op, read)
		}

		if err := e.setValue(dest, desVal); err != nil {
			return cursor, e.at(start, err)
		}
		if op == bytecode.OpMov && dest.Type == bytecode.TypeIdentifier {
			e.surfaceResult(desVal)
		}
		return cursor, nil

	case op == bytecode.OpPrint:
		if err := e.Out.Deliver(e.Tag, e.Immediate, fmt.Sprintf("%x", srcVal0)); err != nil {
			return cursor, e.at(start, err)
		}
		return cursor, nil

	default:
		return cursor, e.at(start, fmt.Errorf("%w: %s", ErrUnsupportedOperation, info.Name))
	}
}

// fetch reads one symbol and advances the cursor.
func (e *Engine) fetch(buf *bytecode.SymbolBuffer, cursor int) (bytecode.Symbol, int, error) {
	if cursor >= buf.Len() {
		return bytecode.Symbol{}, cursor, fmt.Errorf("%w: symbol %d past end of buffer (%d symbols)",
			ErrMalformedInstruction, cursor, buf.Len())
	}
	return buf.At(cursor), cursor + 1, nil
}

// getValue resolves an operand symbol to its 64-bit value.
func (e *Engine) getValue(sym bytecode.Symbol) (uint64, error) {
	switch sym.Type {
	case bytecode.TypeIdentifier:
		return e.Store.Var(sym.Value)
	case bytecode.TypeImmediate:
		return sym.Value, nil
	case bytecode.TypeRegister:
		return e.Ctx.Reg(sym.Value)
	case bytecode.TypePseudoReg:
		return pseudoRegValue(e.Ctx, sym.Value)
	case bytecode.TypeTemporary:
		return e.Store.Temp(sym.Value)
	default:
		return 0, fmt.Errorf("%w: %s symbol in operand position", ErrInvalidOperand, sym.Type)
	}
}

// setValue writes a result through a destination symbol. Only variables,
// temporaries, and (under the target variant) registers are writable.
func (e *Engine) setValue(sym bytecode.Symbol, v uint64) error {
	switch sym.Type {
	case bytecode.TypeIdentifier:
		return e.Store.SetVar(sym.Value, v)
	case bytecode.TypeTemporary:
		return e.Store.SetTemp(sym.Value, v)
	case bytecode.TypeRegister:
		return e.Ctx.SetReg(sym.Value, v)
	default:
		return fmt.Errorf("%w: %s symbol is not writable", ErrInvalidOperand, sym.Type)
	}
}

// surfaceResult makes a mov into a named variable visible to the operator,
// distinct from the normal print path.
func (e *Engine) surfaceResult(v uint64) {
	if e.Ctx.Mode() == ModeTarget {
		log.Infof("result is %x", v)
		return
	}
	if e.ResultOut != nil {
		fmt.Fprintf(e.ResultOut, "Result is %x\n", v)
	}
}

// at annotates an error with the instruction's start position.
func (e *Engine) at(pos int, err error) error {
	return fmt.Errorf("instruction at %d: %w", pos, err)
}

// binaryOp computes src1 <op> src0 with wrapping 64-bit semantics.
func binaryOp(op bytecode.Opcode, srcVal0, srcVal1 uint64) (uint64, error) {
	switch op {
	case bytecode.OpOr:
		return srcVal1 | srcVal0, nil
	case bytecode.OpXor:
		return srcVal1 ^ srcVal0, nil
	case bytecode.OpAnd:
		return srcVal1 & srcVal0, nil
	case bytecode.OpAsr:
		if srcVal0 >= 64 {
			return 0, nil
		}
		return srcVal1 >> srcVal0, nil
	case bytecode.OpAsl:
		if srcVal0 >= 64 {
			return 0, nil
		}
		return srcVal1 << srcVal0, nil
	case bytecode.OpAdd:
		return srcVal1 + srcVal0, nil
	case bytecode.OpSub:
		return srcVal1 - srcVal0, nil
	case bytecode.OpMul:
		return srcVal1 * srcVal0, nil
	case bytecode.OpDiv:
		if srcVal0 == 0 {
			return 0, fmt.Errorf("%w: division by zero", ErrArithmetic)
		}
		return srcVal1 / srcVal0, nil
	case bytecode.OpMod:
		if srcVal0 == 0 {
			return 0, fmt.Errorf("%w: modulo by zero", ErrArithmetic)
		}
		return srcVal1 % srcVal0, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a binary opcode", ErrUnsupportedOperation, op)
	}
}

// truncateRead narrows a quadword read per the dereference opcode.
func truncateRead(op bytecode.Opcode, v uint64) uint64 {
	switch op {
	case bytecode.OpHi:
		// HIWORD semantics: the word above the low word, not bits 48..63.
		return (v >> 16) & 0xFFFF
	case bytecode.OpLow:
		return v & 0xFFFF
	case bytecode.OpDb:
		return v & 0xFF
	case bytecode.OpDd:
		return v & 0xFFFF
	case bytecode.OpDw:
		return v & 0xFFFFFFFF
	default: // poi, dq
		return v
	}
}
