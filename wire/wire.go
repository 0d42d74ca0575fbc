// Package wire encodes compiled script packets for transport between the
// controller and a target. CBOR is used in canonical mode so identical
// scripts always encode to identical bytes.
package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/probelab/tracescript/pkg/bytecode"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ScriptPacket is the unit a controller ships to a target alongside an event
// registration: the compiled symbol stream plus the delivery parameters the
// engine hands to the output sink.
type ScriptPacket struct {
	Tag       uint64            `cbor:"1,keyasint"`
	Immediate bool              `cbor:"2,keyasint"`
	Symbols   []bytecode.Symbol `cbor:"3,keyasint"`
}

// Buffer returns the packet's symbols as an executable buffer.
func (p *ScriptPacket) Buffer() *bytecode.SymbolBuffer {
	return &bytecode.SymbolBuffer{Symbols: p.Symbols}
}

// NewScriptPacket builds a packet from a compiled buffer.
func NewScriptPacket(tag uint64, immediate bool, buf *bytecode.SymbolBuffer) *ScriptPacket {
	return &ScriptPacket{Tag: tag, Immediate: immediate, Symbols: buf.Symbols}
}

// MarshalScriptPacket serializes a ScriptPacket to CBOR bytes.
func MarshalScriptPacket(p *ScriptPacket) ([]byte, error) {
	return cborEncMode.Marshal(p)
}

// UnmarshalScriptPacket deserializes a ScriptPacket from CBOR bytes.
func UnmarshalScriptPacket(data []byte) (*ScriptPacket, error) {
	var p ScriptPacket
	if err := cbor.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("wire: unmarshal script packet: %w", err)
	}
	return &p, nil
}

// MarshalBuffer serializes a bare symbol buffer to CBOR bytes.
func MarshalBuffer(b *bytecode.SymbolBuffer) ([]byte, error) {
	return cborEncMode.Marshal(b.Symbols)
}

// UnmarshalBuffer deserializes a bare symbol buffer from CBOR bytes.
func UnmarshalBuffer(data []byte) (*bytecode.SymbolBuffer, error) {
	var syms []bytecode.Symbol
	if err := cbor.Unmarshal(data, &syms); err != nil {
		return nil, fmt.Errorf("wire: unmarshal symbol buffer: %w", err)
	}
	return &bytecode.SymbolBuffer{Symbols: syms}, nil
}
