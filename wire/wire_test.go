package wire

import (
	"bytes"
	"testing"

	"github.com/probelab/tracescript/pkg/bytecode"
)

func testBuffer() *bytecode.SymbolBuffer {
	b := bytecode.NewSymbolBuffer()
	b.EmitBinary(bytecode.OpAdd, bytecode.Imm(2), bytecode.Reg(bytecode.RegRAX), bytecode.Temp(0))
	b.EmitPrint(bytecode.Temp(0))
	return b
}

func TestScriptPacketRoundtrip(t *testing.T) {
	pkt := NewScriptPacket(7, true, testBuffer())

	data, err := MarshalScriptPacket(pkt)
	if err != nil {
		t.Fatalf("MarshalScriptPacket failed: %v", err)
	}

	got, err := UnmarshalScriptPacket(data)
	if err != nil {
		t.Fatalf("UnmarshalScriptPacket failed: %v", err)
	}
	if got.Tag != 7 || !got.Immediate {
		t.Errorf("delivery parameters lost: %+v", got)
	}

	buf := got.Buffer()
	want := testBuffer()
	if buf.Len() != want.Len() {
		t.Fatalf("expected %d symbols, got %d", want.Len(), buf.Len())
	}
	for i := 0; i < want.Len(); i++ {
		if buf.At(i) != want.At(i) {
			t.Errorf("symbol %d: expected %v, got %v", i, want.At(i), buf.At(i))
		}
	}
}

func TestCanonicalEncoding(t *testing.T) {
	pkt := NewScriptPacket(1, false, testBuffer())

	a, err := MarshalScriptPacket(pkt)
	if err != nil {
		t.Fatalf("MarshalScriptPacket failed: %v", err)
	}
	b, err := MarshalScriptPacket(pkt)
	if err != nil {
		t.Fatalf("MarshalScriptPacket failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical packets should encode to identical bytes")
	}
}

func TestBufferRoundtrip(t *testing.T) {
	data, err := MarshalBuffer(testBuffer())
	if err != nil {
		t.Fatalf("MarshalBuffer failed: %v", err)
	}
	got, err := UnmarshalBuffer(data)
	if err != nil {
		t.Fatalf("UnmarshalBuffer failed: %v", err)
	}
	if got.Len() != testBuffer().Len() {
		t.Errorf("expected %d symbols, got %d", testBuffer().Len(), got.Len())
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := UnmarshalScriptPacket([]byte{0xFF, 0x00, 0x13}); err == nil {
		t.Error("expected an error for garbage input")
	}
	if _, err := UnmarshalBuffer([]byte("not cbor at all")); err == nil {
		t.Error("expected an error for garbage input")
	}
}
