package cipher

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// DefaultMaxActiveRotors bounds the configuration length when the caller
// does not configure a maximum.
const DefaultMaxActiveRotors = 10

// Permutation is a validated bijection over the alphabet indices. Values
// of this type are only produced by NewPermutation, ParsePermutation and the
// generators, so holding one means the bijection holds.
type Permutation [AlphabetSize]int

// NewPermutation validates p and copies it into a Permutation.
func NewPermutation(p []int) (Permutation, error) {
	var perm Permutation
	if err := ValidatePermutation(p); err != nil {
		return perm, err
	}
	copy(perm[:], p)
	return perm, nil
}

// ParsePermutation validates loosely typed values, as produced by decoding
// JSON, YAML or CBOR into []any, and converts them into a Permutation.
func ParsePermutation(raw []any) (Permutation, error) {
	var perm Permutation
	if err := inspect(len(raw), func(i int) (int, bool) { return toInt(raw[i]) }); err != nil {
		return perm, err
	}
	for i, v := range raw {
		perm[i], _ = toInt(v)
	}
	return perm, nil
}

// ValidatePermutation checks that p holds each of 0..63 exactly once. The
// returned *PermutationError lists every offending index and value.
func ValidatePermutation(p []int) error {
	if err := inspect(len(p), func(i int) (int, bool) { return p[i], true }); err != nil {
		return err
	}
	return nil
}

func inspect(n int, at func(i int) (int, bool)) *PermutationError {
	e := &PermutationError{Length: n}
	var counts [AlphabetSize]int
	for i := 0; i < n; i++ {
		v, ok := at(i)
		switch {
		case !ok:
			e.NonInteger = append(e.NonInteger, i)
		case v < 0 || v >= AlphabetSize:
			e.OutOfRange = append(e.OutOfRange, i)
		default:
			counts[v]++
		}
	}
	for v, c := range counts {
		switch {
		case c == 0:
			e.Missing = append(e.Missing, v)
		case c > 1:
			e.Duplicates = append(e.Duplicates, v)
		}
	}
	if len(e.Kinds()) == 0 {
		return nil
	}
	return e
}

// toInt reports whether v is an integer. Integers that do not fit in int are
// returned as -1 so they are reported as out of range.
func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return -1, true
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return -1, true
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return -1, true
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return toInt(i)
		}
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
		return 0, false
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < -1 || f > AlphabetSize {
		return -1, true
	}
	return int(f), true
}

// ValidatePosition checks that pos is a rotor position in [1,64].
func ValidatePosition(pos int) error {
	if pos < 1 || pos > AlphabetSize {
		return &PositionError{Input: strconv.Itoa(pos)}
	}
	return nil
}

// ParsePosition reads a user supplied rotor position.
func ParsePosition(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	pos, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &PositionError{Input: s, NotInteger: true}
	}
	if err := ValidatePosition(pos); err != nil {
		return 0, err
	}
	return pos, nil
}

// ParsePositions reads a list of positions, reporting every bad entry.
func ParsePositions(fields []string) ([]int, error) {
	positions := make([]int, len(fields))
	var errs []error
	for i, field := range fields {
		pos, err := ParsePosition(field)
		if err != nil {
			errs = append(errs, &ConfigurationError{Kind: ConfigurationInvalidPosition, Index: i, Err: err})
			continue
		}
		positions[i] = pos
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return positions, nil
}

// Configuration is an ordered rotor selection with matching start positions.
// Rotors are applied left to right in RotorIDs order when encoding.
type Configuration struct {
	RotorIDs  []string `json:"rotor_ids" yaml:"rotor_ids"`
	Positions []int    `json:"positions" yaml:"positions"`
}

// Validate is ValidateConfiguration applied to c.
func (c Configuration) Validate(maxRotors int) error {
	return ValidateConfiguration(c.RotorIDs, c.Positions, maxRotors)
}

// ValidateConfiguration checks the shape of a configuration. A maxRotors of
// zero or less selects DefaultMaxActiveRotors. Every problem found is
// returned, joined.
func ValidateConfiguration(ids []string, positions []int, maxRotors int) error {
	if maxRotors <= 0 {
		maxRotors = DefaultMaxActiveRotors
	}

	var errs []error
	if len(ids) == 0 {
		errs = append(errs, &ConfigurationError{Kind: ConfigurationEmpty})
	}
	if len(ids) > maxRotors {
		errs = append(errs, &ConfigurationError{Kind: ConfigurationTooManyRotors, RotorCount: len(ids), Max: maxRotors})
	}
	if len(ids) != len(positions) {
		errs = append(errs, &ConfigurationError{
			Kind:          ConfigurationLengthMismatch,
			RotorCount:    len(ids),
			PositionCount: len(positions),
		})
	}

	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if _, dup := seen[id]; dup {
			errs = append(errs, &ConfigurationError{Kind: ConfigurationDuplicateID, Index: i, RotorID: id})
			continue
		}
		seen[id] = struct{}{}
	}

	for i, pos := range positions {
		if err := ValidatePosition(pos); err != nil {
			errs = append(errs, &ConfigurationError{Kind: ConfigurationInvalidPosition, Index: i, Err: err})
		}
	}

	return errors.Join(errs...)
}
