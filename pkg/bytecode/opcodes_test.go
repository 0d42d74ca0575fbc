package bytecode

import "testing"

func TestAllOpcodesHaveMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" {
			t.Errorf("opcode 0x%x has no name", uint64(op))
		}
		if info.Operands < 1 || info.Operands > 3 {
			t.Errorf("opcode %s has implausible operand count %d", info.Name, info.Operands)
		}
	}
}

func TestOpcodeCount(t *testing.T) {
	if OpcodeCount() != 24 {
		t.Errorf("expected 24 opcodes, got %d", OpcodeCount())
	}
}

func TestBinaryOpcodesTakeThreeOperands(t *testing.T) {
	for _, op := range []Opcode{OpOr, OpXor, OpAnd, OpAsr, OpAsl, OpAdd, OpSub, OpMul, OpDiv, OpMod} {
		if !op.IsBinary() {
			t.Errorf("%s should be binary", op)
		}
		if op.Operands() != 3 {
			t.Errorf("%s should take 3 operands, got %d", op, op.Operands())
		}
		if op.InstructionLen() != 4 {
			t.Errorf("%s instruction length should be 4, got %d", op, op.InstructionLen())
		}
	}
}

func TestUnaryOpcodesTakeTwoOperands(t *testing.T) {
	for _, op := range []Opcode{OpNot, OpNeg, OpHi, OpLow, OpMov, OpPoi, OpDb, OpDd, OpDw, OpDq} {
		if op.IsBinary() {
			t.Errorf("%s should not be binary", op)
		}
		if op.Operands() != 2 {
			t.Errorf("%s should take 2 operands, got %d", op, op.Operands())
		}
	}
}

func TestPrintTakesOneOperand(t *testing.T) {
	if OpPrint.Operands() != 1 {
		t.Errorf("print should take 1 operand, got %d", OpPrint.Operands())
	}
}

func TestStringOpcodesAreUnimplemented(t *testing.T) {
	for _, op := range []Opcode{OpStr, OpWstr, OpSizeof} {
		if !op.Known() {
			t.Errorf("%s should be a known opcode", op)
		}
		if GetOpcodeInfo(op).Implemented {
			t.Errorf("%s should be unimplemented", op)
		}
	}
}

func TestDerefPredicate(t *testing.T) {
	for _, op := range []Opcode{OpPoi, OpDb, OpDd, OpDw, OpDq, OpHi, OpLow} {
		if !op.IsDeref() {
			t.Errorf("%s should be a dereference opcode", op)
		}
	}
	for _, op := range []Opcode{OpAdd, OpMov, OpPrint, OpNot} {
		if op.IsDeref() {
			t.Errorf("%s should not be a dereference opcode", op)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	op := Opcode(0xFF)
	if op.Known() {
		t.Error("0xFF should not be a known opcode")
	}
	if op.String() != "unknown(0xff)" {
		t.Errorf("unexpected name for unknown opcode: %q", op.String())
	}
}
