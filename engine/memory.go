package engine

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// MemoryReader is an explicit, possibly-failing read capability for guest
// memory. Dereference opcodes always read a full quadword; the opcode itself
// performs any truncation.
type MemoryReader interface {
	// ReadQuad reads the 64-bit value at addr.
	ReadQuad(addr uint64) (uint64, error)
}

type region struct {
	base uint64
	data []byte
}

// SnapshotMemory is a MemoryReader backed by copied guest memory regions.
// Guest memory is little-endian (x86). Used for captured dumps and as the
// target-context fixture in tests.
type SnapshotMemory struct {
	regions []region
}

// NewSnapshotMemory creates an empty snapshot.
func NewSnapshotMemory() *SnapshotMemory {
	return &SnapshotMemory{}
}

// AddRegion copies data into the snapshot at base. Regions must not overlap.
func (m *SnapshotMemory) AddRegion(base uint64, data []byte) {
	d := make([]byte, len(data))
	copy(d, data)
	m.regions = append(m.regions, region{base: base, data: d})
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].base < m.regions[j].base
	})
}

// ReadQuad reads the little-endian 64-bit value at addr, failing if any of
// the eight bytes falls outside a mapped region.
func (m *SnapshotMemory) ReadQuad(addr uint64) (uint64, error) {
	for _, r := range m.regions {
		if addr >= r.base && addr-r.base+8 <= uint64(len(r.data)) {
			off := addr - r.base
			return binary.LittleEndian.Uint64(r.data[off : off+8]), nil
		}
	}
	return 0, fmt.Errorf("%w: no mapped region covers 0x%x", ErrMemoryAccess, addr)
}
