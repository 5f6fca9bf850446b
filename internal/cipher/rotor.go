package cipher

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RotorDefinition is the static description of a rotor. Definitions are
// immutable: Edit returns a new value that keeps the identifier.
type RotorDefinition struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Permutation Permutation `json:"permutation"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// now is swapped by tests that need stable timestamps.
var now = func() time.Time { return time.Now().UTC() }

// NewRotorDefinition validates perm and returns a definition with a fresh
// identifier.
func NewRotorDefinition(name, description string, perm []int) (*RotorDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("rotor name cannot be empty")
	}
	p, err := NewPermutation(perm)
	if err != nil {
		return nil, err
	}
	ts := now()
	return &RotorDefinition{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Permutation: p,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Edit returns a copy of d with the given name, description and permutation
// and a new update time. A nil perm keeps the current permutation.
func (d *RotorDefinition) Edit(name, description string, perm []int) (*RotorDefinition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("rotor name cannot be empty")
	}
	next := *d
	next.Name = name
	next.Description = strings.TrimSpace(description)
	if perm != nil {
		p, err := NewPermutation(perm)
		if err != nil {
			return nil, err
		}
		next.Permutation = p
	}
	next.UpdatedAt = now()
	if !next.UpdatedAt.After(d.UpdatedAt) {
		next.UpdatedAt = d.UpdatedAt.Add(time.Nanosecond)
	}
	return &next, nil
}

// RotorState is the runtime position of one rotor during a single encode or
// decode call.
type RotorState struct {
	Position  int
	StepCount int
}

// NewRotorState returns the state of a rotor that starts at position.
func NewRotorState(position int) (RotorState, error) {
	if err := ValidatePosition(position); err != nil {
		return RotorState{}, err
	}
	return RotorState{Position: position}, nil
}

// Step returns the state after advancing one position. Position 64 wraps
// to 1.
func (s RotorState) Step() RotorState {
	next := s.Position + 1
	if s.Position == AlphabetSize {
		next = 1
	}
	return RotorState{Position: next, StepCount: s.StepCount + 1}
}

// Offset is the zero-based rotation applied to the permutation.
func (s RotorState) Offset() int {
	return s.Position - 1
}

// ForwardTransform maps c through def rotated to position.
func ForwardTransform(c rune, def *RotorDefinition, position int) (rune, error) {
	idx, err := CharToIndex(c)
	if err != nil {
		return 0, err
	}
	if err := ValidatePosition(position); err != nil {
		return 0, err
	}
	return rune(Alphabet[forwardIndex(&def.Permutation, idx, position-1)]), nil
}

// InverseTransform undoes ForwardTransform for the same rotor and position.
func InverseTransform(c rune, def *RotorDefinition, position int) (rune, error) {
	idx, err := CharToIndex(c)
	if err != nil {
		return 0, err
	}
	if err := ValidatePosition(position); err != nil {
		return 0, err
	}
	offset := position - 1
	target := mod64(idx + offset)
	for i, v := range def.Permutation {
		if v == target {
			return rune(Alphabet[mod64(i-offset)]), nil
		}
	}
	return 0, fmt.Errorf("rotor %s: no preimage for %d: %w", def.ID, target, ErrInconsistentRotor)
}

func forwardIndex(perm *Permutation, idx, offset int) int {
	return mod64(perm[mod64(idx+offset)] - offset)
}

func inverseIndex(inv *Permutation, idx, offset int) int {
	return mod64(inv[mod64(idx+offset)] - offset)
}
