package engine

import "fmt"

const (
	// MaxTempCount is the number of temporary slots per invocation.
	MaxTempCount = 32

	// MaxVarCount is the number of named-variable slots per invocation.
	MaxVarCount = 32
)

// Store holds the script-local temporaries and named variables for one
// invocation. The zero value is ready to use. A Store must not be shared
// between concurrent invocations.
type Store struct {
	temps [MaxTempCount]uint64
	vars  [MaxVarCount]uint64
}

// NewStore allocates a zeroed store.
func NewStore() *Store {
	return &Store{}
}

// Temp reads temporary slot idx.
func (s *Store) Temp(idx uint64) (uint64, error) {
	if idx >= MaxTempCount {
		return 0, fmt.Errorf("%w: temporary index %d out of range [0,%d)", ErrInvalidOperand, idx, MaxTempCount)
	}
	return s.temps[idx], nil
}

// SetTemp writes temporary slot idx.
func (s *Store) SetTemp(idx, v uint64) error {
	if idx >= MaxTempCount {
		return fmt.Errorf("%w: temporary index %d out of range [0,%d)", ErrInvalidOperand, idx, MaxTempCount)
	}
	s.temps[idx] = v
	return nil
}

// Var reads named-variable slot idx.
func (s *Store) Var(idx uint64) (uint64, error) {
	if idx >= MaxVarCount {
		return 0, fmt.Errorf("%w: variable index %d out of range [0,%d)", ErrInvalidOperand, idx, MaxVarCount)
	}
	return s.vars[idx], nil
}

// SetVar writes named-variable slot idx.
func (s *Store) SetVar(idx, v uint64) error {
	if idx >= MaxVarCount {
		return fmt.Errorf("%w: variable index %d out of range [0,%d)", ErrInvalidOperand, idx, MaxVarCount)
	}
	s.vars[idx] = v
	return nil
}
