package cipher

import "fmt"

// activeRotor pairs a shared, read-only definition with call-local state.
type activeRotor struct {
	def     *RotorDefinition
	inverse Permutation
}

// Pipeline runs characters through an ordered rotor stack. A Pipeline
// belongs to a single encode or decode call and is not safe for concurrent
// use; the definitions it references are never written.
type Pipeline struct {
	ids    []string
	rotors []activeRotor
	states []RotorState
	// owed is set by DecodeRune: the step for the previous character has
	// not been applied yet.
	owed bool
}

// NewPipeline resolves cfg against lookup and positions every rotor at its
// start position. maxRotors of zero or less selects DefaultMaxActiveRotors.
func NewPipeline(cfg Configuration, lookup Lookup, maxRotors int) (*Pipeline, error) {
	if len(cfg.RotorIDs) == 0 {
		return nil, ErrNoActiveRotors
	}
	if err := cfg.Validate(maxRotors); err != nil {
		return nil, err
	}

	p := &Pipeline{
		ids:    append([]string(nil), cfg.RotorIDs...),
		rotors: make([]activeRotor, len(cfg.RotorIDs)),
		states: make([]RotorState, len(cfg.RotorIDs)),
	}
	for i, id := range cfg.RotorIDs {
		var def *RotorDefinition
		ok := false
		if lookup != nil {
			def, ok = lookup.Rotor(id)
		}
		if !ok || def == nil {
			return nil, &UnknownRotorError{ID: id}
		}
		if err := ValidatePermutation(def.Permutation[:]); err != nil {
			return nil, fmt.Errorf("rotor %q: %w", id, err)
		}
		p.rotors[i] = activeRotor{def: def, inverse: invert(&def.Permutation)}
		p.states[i] = RotorState{Position: cfg.Positions[i]}
	}
	return p, nil
}

// EncodeRune maps c forward through every rotor, left to right, at the
// current positions and then steps the stack.
func (p *Pipeline) EncodeRune(c rune) (rune, error) {
	idx, err := CharToIndex(c)
	if err != nil {
		return 0, err
	}
	p.settle()
	for i := range p.rotors {
		idx = forwardIndex(&p.rotors[i].def.Permutation, idx, p.states[i].Offset())
	}
	cascade(p.states)
	return rune(Alphabet[idx]), nil
}

// DecodeRune first applies the step still owed for the previous character,
// which realigns the stack with the state the encoder used at this index,
// then maps c back through every rotor, right to left. Its own step is owed
// to the next call and is settled by States and Positions.
func (p *Pipeline) DecodeRune(c rune) (rune, error) {
	idx, err := CharToIndex(c)
	if err != nil {
		return 0, err
	}
	p.settle()
	for i := len(p.rotors) - 1; i >= 0; i-- {
		idx = inverseIndex(&p.rotors[i].inverse, idx, p.states[i].Offset())
	}
	p.owed = true
	return rune(Alphabet[idx]), nil
}

func (p *Pipeline) settle() {
	if p.owed {
		cascade(p.states)
		p.owed = false
	}
}

// States returns a copy of the rotor states, left to right.
func (p *Pipeline) States() []RotorState {
	p.settle()
	out := make([]RotorState, len(p.states))
	copy(out, p.states)
	return out
}

// Positions returns the current position of every rotor in configured order.
func (p *Pipeline) Positions() []RotorPosition {
	p.settle()
	out := make([]RotorPosition, len(p.states))
	for i, s := range p.states {
		out[i] = RotorPosition{RotorID: p.ids[i], Position: s.Position}
	}
	return out
}

// cascade steps the rightmost rotor and carries to the left while the rotor
// just stepped has a cumulative step count that is a multiple of 64.
func cascade(states []RotorState) {
	i := len(states) - 1
	if i < 0 {
		return
	}
	states[i] = states[i].Step()
	for i > 0 && states[i].StepCount%AlphabetSize == 0 {
		i--
		states[i] = states[i].Step()
	}
}

func invert(perm *Permutation) Permutation {
	var inv Permutation
	for i, v := range perm {
		inv[v] = i
	}
	return inv
}
