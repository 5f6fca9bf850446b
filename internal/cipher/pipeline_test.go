package cipher

import (
	"errors"
	"fmt"
	"testing"
)

// stack registers n seeded rotors and returns a configuration selecting
// them at the given start positions.
func stack(t *testing.T, positions ...int) (Configuration, MapLookup) {
	t.Helper()

	lookup := make(MapLookup)
	cfg := Configuration{Positions: positions}
	for i := range positions {
		def, err := NewRotorDefinition(fmt.Sprintf("rotor-%d", i), "", SeededPermutation(uint64(i+1)).Slice())
		if err != nil {
			t.Fatalf("NewRotorDefinition: %v", err)
		}
		lookup[def.ID] = def
		cfg.RotorIDs = append(cfg.RotorIDs, def.ID)
	}
	return cfg, lookup
}

func encodeN(t *testing.T, p *Pipeline, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := p.EncodeRune(rune(Alphabet[i%AlphabetSize])); err != nil {
			t.Fatalf("EncodeRune #%d: %v", i, err)
		}
	}
}

func TestCascade(t *testing.T) {
	tests := []struct {
		name      string
		positions []int
		chars     int
		want      []RotorState
	}{
		{
			name:      "single rotor full revolution",
			positions: []int{1},
			chars:     64,
			want:      []RotorState{{Position: 1, StepCount: 64}},
		},
		{
			name:      "single rotor wraps from 64",
			positions: []int{64},
			chars:     1,
			want:      []RotorState{{Position: 1, StepCount: 1}},
		},
		{
			name:      "two rotors below carry",
			positions: []int{1, 1},
			chars:     63,
			want:      []RotorState{{Position: 1}, {Position: 64, StepCount: 63}},
		},
		{
			name:      "two rotors carry once",
			positions: []int{1, 1},
			chars:     64,
			want:      []RotorState{{Position: 2, StepCount: 1}, {Position: 1, StepCount: 64}},
		},
		{
			name:      "carry counts steps, not position",
			positions: []int{10, 50},
			chars:     64,
			want:      []RotorState{{Position: 11, StepCount: 1}, {Position: 50, StepCount: 64}},
		},
		{
			name:      "three rotors double carry",
			positions: []int{1, 1, 1},
			chars:     4096,
			want: []RotorState{
				{Position: 2, StepCount: 1},
				{Position: 1, StepCount: 64},
				{Position: 1, StepCount: 4096},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, lookup := stack(t, tt.positions...)
			p, err := NewPipeline(cfg, lookup, 0)
			if err != nil {
				t.Fatalf("NewPipeline: %v", err)
			}
			encodeN(t, p, tt.chars)
			got := p.States()
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("rotor %d: got %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodeReproducesEncoderStates(t *testing.T) {
	cfg, lookup := stack(t, 3, 64, 17)
	text := "The quick brown fox jumps over the lazy dog. 0123456789 and then some more text."

	enc, err := NewPipeline(cfg, lookup, 0)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	var cipherText []rune
	var encStates [][]RotorState
	for _, r := range text {
		encStates = append(encStates, enc.States())
		c, err := enc.EncodeRune(r)
		if err != nil {
			t.Fatalf("EncodeRune: %v", err)
		}
		cipherText = append(cipherText, c)
	}

	dec, err := NewPipeline(cfg, lookup, 0)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	var plain []rune
	for i, c := range cipherText {
		got := dec.States()
		for j := range got {
			if got[j] != encStates[i][j] {
				t.Fatalf("char %d rotor %d: decoder at %+v, encoder was at %+v", i, j, got[j], encStates[i][j])
			}
		}
		r, err := dec.DecodeRune(c)
		if err != nil {
			t.Fatalf("DecodeRune: %v", err)
		}
		plain = append(plain, r)
	}

	if string(plain) != text {
		t.Fatalf("decoded %q, want %q", string(plain), text)
	}
	encFinal, decFinal := enc.Positions(), dec.Positions()
	for i := range encFinal {
		if encFinal[i] != decFinal[i] {
			t.Errorf("final position %d: encoder %+v, decoder %+v", i, encFinal[i], decFinal[i])
		}
	}
}

func TestPipelineSingleRotorMatchesTransform(t *testing.T) {
	cfg, lookup := stack(t, 7)
	def := lookup[cfg.RotorIDs[0]]
	p, err := NewPipeline(cfg, lookup, 0)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	for i, c := range "ABC" {
		want, err := ForwardTransform(c, def, 7+i)
		if err != nil {
			t.Fatalf("ForwardTransform: %v", err)
		}
		got, err := p.EncodeRune(c)
		if err != nil {
			t.Fatalf("EncodeRune: %v", err)
		}
		if got != want {
			t.Errorf("char %d: pipeline %q, transform %q", i, got, want)
		}
	}
}

func TestNewPipelineErrors(t *testing.T) {
	cfg, lookup := stack(t, 1, 2)

	if _, err := NewPipeline(Configuration{}, lookup, 0); !errors.Is(err, ErrNoActiveRotors) || !errors.Is(err, ErrStructural) {
		t.Errorf("empty configuration: expected ErrNoActiveRotors, got %v", err)
	}

	missing := Configuration{RotorIDs: []string{cfg.RotorIDs[0], "ghost"}, Positions: []int{1, 1}}
	_, err := NewPipeline(missing, lookup, 0)
	var unknown *UnknownRotorError
	if !errors.As(err, &unknown) || unknown.ID != "ghost" {
		t.Errorf("expected UnknownRotorError for ghost, got %v", err)
	}
	if !errors.Is(err, ErrUnknownRotorID) || !errors.Is(err, ErrStructural) {
		t.Errorf("expected ErrUnknownRotorID, got %v", err)
	}

	if _, err := NewPipeline(cfg, nil, 0); !errors.Is(err, ErrUnknownRotorID) {
		t.Errorf("nil lookup: expected ErrUnknownRotorID, got %v", err)
	}

	bad := Configuration{RotorIDs: cfg.RotorIDs, Positions: []int{1, 99}}
	if _, err := NewPipeline(bad, lookup, 0); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}

	if _, err := NewPipeline(cfg, lookup, 1); !errors.Is(err, ErrTooManyRotors) {
		t.Errorf("expected ErrTooManyRotors, got %v", err)
	}

	corrupt := *lookup[cfg.RotorIDs[1]]
	corrupt.Permutation[0] = corrupt.Permutation[1]
	lookup[corrupt.ID] = &corrupt
	if _, err := NewPipeline(cfg, lookup, 0); !errors.Is(err, ErrValidation) || !errors.Is(err, ErrDuplicateValues) {
		t.Errorf("corrupt definition: expected validation error, got %v", err)
	}
}

func TestPipelineRejectsForeignCharacters(t *testing.T) {
	cfg, lookup := stack(t, 1)
	p, err := NewPipeline(cfg, lookup, 0)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	if _, err := p.EncodeRune('!'); !errors.Is(err, ErrInvalidCharacter) {
		t.Fatalf("expected ErrInvalidCharacter, got %v", err)
	}
	if got := p.States()[0]; got.StepCount != 0 {
		t.Fatalf("rejected character stepped the rotor: %+v", got)
	}
}

func TestInvert(t *testing.T) {
	perm := SeededPermutation(77)
	inv := invert(&perm)
	for i := range perm {
		if inv[perm[i]] != i {
			t.Fatalf("inv[perm[%d]] = %d", i, inv[perm[i]])
		}
	}
}
