package cipher

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes. Every error returned by this package matches exactly one of
// them through errors.Is.
var (
	// ErrValidation covers malformed permutations, positions and
	// configurations. Always surfaced to the caller, never auto-corrected.
	ErrValidation = errors.New("validation error")
	// ErrCharacter covers symbols outside the alphabet and indices outside
	// [0,63].
	ErrCharacter = errors.New("character error")
	// ErrStructural covers configurations that reference missing rotors or
	// no rotors at all.
	ErrStructural = errors.New("structural error")
)

// classError is a sentinel that also matches its class.
type classError struct {
	msg   string
	class error
}

func (e *classError) Error() string { return e.msg }

func (e *classError) Is(target error) bool { return target == e.class }

var (
	ErrWrongLength     error = &classError{"permutation has wrong length", ErrValidation}
	ErrNonInteger      error = &classError{"non-integer value", ErrValidation}
	ErrOutOfRange      error = &classError{"value out of range", ErrValidation}
	ErrDuplicateValues error = &classError{"permutation has duplicate values", ErrValidation}
	ErrMissingValues   error = &classError{"permutation has missing values", ErrValidation}

	ErrInvalidPosition error = &classError{"invalid rotor position", ErrValidation}

	ErrEmptyConfiguration error = &classError{"configuration has no rotors", ErrValidation}
	ErrTooManyRotors      error = &classError{"configuration has too many rotors", ErrValidation}
	ErrLengthMismatch     error = &classError{"rotor and position counts differ", ErrValidation}
	ErrDuplicateRotorID   error = &classError{"rotor configured more than once", ErrValidation}

	ErrInvalidCharacter error = &classError{"character not in alphabet", ErrCharacter}
	ErrIndexOutOfRange  error = &classError{"alphabet index out of range", ErrCharacter}

	ErrNoActiveRotors error = &classError{"no active rotors", ErrStructural}
	ErrUnknownRotorID error = &classError{"unknown rotor id", ErrStructural}
)

// ErrInconsistentRotor means an inverse lookup found no preimage. A validated
// permutation cannot produce it; seeing it indicates a bug.
var ErrInconsistentRotor = errors.New("cipher: rotor permutation is not a bijection")

// PermutationErrorKind identifies one way a permutation can be malformed.
type PermutationErrorKind int

const (
	PermutationWrongLength PermutationErrorKind = iota + 1
	PermutationNonInteger
	PermutationOutOfRange
	PermutationDuplicate
	PermutationMissing
)

func (k PermutationErrorKind) String() string {
	switch k {
	case PermutationWrongLength:
		return "wrong_length"
	case PermutationNonInteger:
		return "non_integer"
	case PermutationOutOfRange:
		return "out_of_range"
	case PermutationDuplicate:
		return "duplicate"
	case PermutationMissing:
		return "missing"
	default:
		return fmt.Sprintf("PermutationErrorKind(%d)", int(k))
	}
}

func (k PermutationErrorKind) sentinel() error {
	switch k {
	case PermutationWrongLength:
		return ErrWrongLength
	case PermutationNonInteger:
		return ErrNonInteger
	case PermutationOutOfRange:
		return ErrOutOfRange
	case PermutationDuplicate:
		return ErrDuplicateValues
	case PermutationMissing:
		return ErrMissingValues
	}
	return nil
}

// PermutationError lists every problem found in a candidate permutation.
type PermutationError struct {
	// Length is the observed number of elements.
	Length int
	// NonInteger and OutOfRange hold offending element indices.
	NonInteger []int
	OutOfRange []int
	// Duplicates and Missing hold offending values, ascending.
	Duplicates []int
	Missing    []int
}

// Kinds returns the failure kinds present, in declaration order.
func (e *PermutationError) Kinds() []PermutationErrorKind {
	var kinds []PermutationErrorKind
	if e.Length != AlphabetSize {
		kinds = append(kinds, PermutationWrongLength)
	}
	if len(e.NonInteger) > 0 {
		kinds = append(kinds, PermutationNonInteger)
	}
	if len(e.OutOfRange) > 0 {
		kinds = append(kinds, PermutationOutOfRange)
	}
	if len(e.Duplicates) > 0 {
		kinds = append(kinds, PermutationDuplicate)
	}
	if len(e.Missing) > 0 {
		kinds = append(kinds, PermutationMissing)
	}
	return kinds
}

// Has reports whether kind is among the failures.
func (e *PermutationError) Has(kind PermutationErrorKind) bool {
	for _, k := range e.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func (e *PermutationError) Error() string {
	parts := make([]string, 0, 5)
	for _, kind := range e.Kinds() {
		switch kind {
		case PermutationWrongLength:
			parts = append(parts, fmt.Sprintf("length %d (want %d)", e.Length, AlphabetSize))
		case PermutationNonInteger:
			parts = append(parts, fmt.Sprintf("non-integer at indices %v", e.NonInteger))
		case PermutationOutOfRange:
			parts = append(parts, fmt.Sprintf("out of range at indices %v", e.OutOfRange))
		case PermutationDuplicate:
			parts = append(parts, fmt.Sprintf("duplicate values %v", e.Duplicates))
		case PermutationMissing:
			parts = append(parts, fmt.Sprintf("missing values %v", e.Missing))
		}
	}
	return "invalid permutation: " + strings.Join(parts, "; ")
}

func (e *PermutationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	for _, kind := range e.Kinds() {
		if kind.sentinel() == target {
			return true
		}
	}
	return false
}

// PositionError reports a rotor position outside [1,64] or not an integer.
type PositionError struct {
	// Input is the offending value as given.
	Input string
	// NotInteger is set when Input could not be read as an integer.
	NotInteger bool
}

func (e *PositionError) Error() string {
	if e.NotInteger {
		return fmt.Sprintf("invalid rotor position %q: not an integer", e.Input)
	}
	return fmt.Sprintf("invalid rotor position %s: must be between 1 and %d", e.Input, AlphabetSize)
}

func (e *PositionError) Is(target error) bool {
	switch target {
	case ErrValidation, ErrInvalidPosition:
		return true
	case ErrNonInteger:
		return e.NotInteger
	case ErrOutOfRange:
		return !e.NotInteger
	}
	return false
}

// ConfigurationErrorKind identifies one way a configuration can be malformed.
type ConfigurationErrorKind int

const (
	ConfigurationEmpty ConfigurationErrorKind = iota + 1
	ConfigurationTooManyRotors
	ConfigurationLengthMismatch
	ConfigurationDuplicateID
	ConfigurationInvalidPosition
)

func (k ConfigurationErrorKind) sentinel() error {
	switch k {
	case ConfigurationEmpty:
		return ErrEmptyConfiguration
	case ConfigurationTooManyRotors:
		return ErrTooManyRotors
	case ConfigurationLengthMismatch:
		return ErrLengthMismatch
	case ConfigurationDuplicateID:
		return ErrDuplicateRotorID
	case ConfigurationInvalidPosition:
		return ErrInvalidPosition
	}
	return nil
}

// ConfigurationError describes one problem in a Configuration. Validation
// joins one of these per problem found.
type ConfigurationError struct {
	Kind ConfigurationErrorKind
	// Index is the offending slot for duplicate ids and invalid positions.
	Index   int
	RotorID string
	// RotorCount, PositionCount and Max describe size problems.
	RotorCount    int
	PositionCount int
	Max           int
	// Err is the underlying position error, if any.
	Err error
}

func (e *ConfigurationError) Error() string {
	switch e.Kind {
	case ConfigurationEmpty:
		return "invalid configuration: no rotors selected"
	case ConfigurationTooManyRotors:
		return fmt.Sprintf("invalid configuration: %d rotors selected, at most %d allowed", e.RotorCount, e.Max)
	case ConfigurationLengthMismatch:
		return fmt.Sprintf("invalid configuration: %d rotors but %d positions", e.RotorCount, e.PositionCount)
	case ConfigurationDuplicateID:
		return fmt.Sprintf("invalid configuration: rotor %q repeated at slot %d", e.RotorID, e.Index+1)
	case ConfigurationInvalidPosition:
		return fmt.Sprintf("invalid configuration: slot %d: %v", e.Index+1, e.Err)
	default:
		return "invalid configuration"
	}
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrValidation || target == e.Kind.sentinel()
}

// CharacterError reports a symbol outside the alphabet.
type CharacterError struct {
	Char rune
}

func (e *CharacterError) Error() string {
	return fmt.Sprintf("invalid character %q: not in alphabet", e.Char)
}

func (e *CharacterError) Is(target error) bool {
	return target == ErrCharacter || target == ErrInvalidCharacter
}

// IndexError reports an alphabet index outside [0,63].
type IndexError struct {
	Index int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("alphabet index %d out of range [0,%d]", e.Index, AlphabetSize-1)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrCharacter || target == ErrIndexOutOfRange
}

// UnknownRotorError reports a configured rotor id the lookup does not know.
type UnknownRotorError struct {
	ID string
}

func (e *UnknownRotorError) Error() string {
	return fmt.Sprintf("unknown rotor id %q", e.ID)
}

func (e *UnknownRotorError) Is(target error) bool {
	return target == ErrStructural || target == ErrUnknownRotorID
}
