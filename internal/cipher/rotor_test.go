package cipher

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// testRotors returns a fixed set of definitions covering structured and
// shuffled permutations.
func testRotors(t *testing.T) []*RotorDefinition {
	t.Helper()

	perms := []struct {
		name string
		perm Permutation
	}{
		{"identity", IdentityPermutation()},
		{"shift-1", ShiftPermutation(1)},
		{"shift-17", ShiftPermutation(17)},
		{"reverse", ReversePermutation()},
	}
	for seed := uint64(1); seed <= 6; seed++ {
		perms = append(perms, struct {
			name string
			perm Permutation
		}{fmt.Sprintf("seeded-%d", seed), SeededPermutation(seed)})
	}

	defs := make([]*RotorDefinition, 0, len(perms))
	for _, p := range perms {
		def, err := NewRotorDefinition(p.name, "", p.perm.Slice())
		if err != nil {
			t.Fatalf("NewRotorDefinition(%s): %v", p.name, err)
		}
		defs = append(defs, def)
	}
	return defs
}

func TestRotorStateStep(t *testing.T) {
	tests := []struct {
		name string
		in   RotorState
		want RotorState
	}{
		{"start", RotorState{Position: 1}, RotorState{Position: 2, StepCount: 1}},
		{"middle", RotorState{Position: 32, StepCount: 7}, RotorState{Position: 33, StepCount: 8}},
		{"wrap", RotorState{Position: 64, StepCount: 63}, RotorState{Position: 1, StepCount: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Step()
			if got != tt.want {
				t.Errorf("Step() = %+v, want %+v", got, tt.want)
			}
		})
	}

	s := RotorState{Position: 10}
	_ = s.Step()
	if s.Position != 10 || s.StepCount != 0 {
		t.Fatalf("Step mutated the receiver: %+v", s)
	}
}

func TestRotorStateFullRevolution(t *testing.T) {
	s, err := NewRotorState(5)
	if err != nil {
		t.Fatalf("NewRotorState: %v", err)
	}
	for i := 0; i < AlphabetSize; i++ {
		s = s.Step()
	}
	if s.Position != 5 || s.StepCount != AlphabetSize {
		t.Fatalf("after one revolution got %+v", s)
	}

	if _, err := NewRotorState(0); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("expected ErrInvalidPosition, got %v", err)
	}
}

func TestForwardTransformExamples(t *testing.T) {
	identity, _ := NewRotorDefinition("identity", "", IdentityPermutation().Slice())
	shift, _ := NewRotorDefinition("shift", "", ShiftPermutation(1).Slice())

	got, err := ForwardTransform('A', identity, 1)
	if err != nil || got != 'A' {
		t.Fatalf("identity forward('A') = %q, %v; want 'A'", got, err)
	}

	got, err = ForwardTransform('A', shift, 1)
	if err != nil || got != 'B' {
		t.Fatalf("shift forward('A') = %q, %v; want 'B'", got, err)
	}
	back, err := InverseTransform('B', shift, 1)
	if err != nil || back != 'A' {
		t.Fatalf("shift inverse('B') = %q, %v; want 'A'", back, err)
	}

	got, err = ForwardTransform('.', shift, 1)
	if err != nil || got != 'A' {
		t.Fatalf("shift forward('.') = %q, %v; want wrap to 'A'", got, err)
	}
}

func TestForwardTransformDependsOnPosition(t *testing.T) {
	def, _ := NewRotorDefinition("seeded", "", SeededPermutation(9).Slice())
	outputs := make(map[rune]bool)
	for pos := 1; pos <= AlphabetSize; pos++ {
		c, err := ForwardTransform('H', def, pos)
		if err != nil {
			t.Fatalf("ForwardTransform at %d: %v", pos, err)
		}
		outputs[c] = true
	}
	if len(outputs) < 2 {
		t.Fatal("expected a shuffled rotor to map 'H' differently across positions")
	}
}

func TestInverseUndoesForwardForEveryRotorPositionAndSymbol(t *testing.T) {
	for _, def := range testRotors(t) {
		for pos := 1; pos <= AlphabetSize; pos++ {
			for _, c := range Alphabet {
				enc, err := ForwardTransform(c, def, pos)
				if err != nil {
					t.Fatalf("%s@%d forward(%q): %v", def.Name, pos, c, err)
				}
				dec, err := InverseTransform(enc, def, pos)
				if err != nil {
					t.Fatalf("%s@%d inverse(%q): %v", def.Name, pos, enc, err)
				}
				if dec != c {
					t.Fatalf("%s@%d: inverse(forward(%q)) = %q", def.Name, pos, c, dec)
				}
			}
		}
	}
}

func TestTransformErrors(t *testing.T) {
	def, _ := NewRotorDefinition("identity", "", IdentityPermutation().Slice())

	if _, err := ForwardTransform('!', def, 1); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("expected ErrInvalidCharacter, got %v", err)
	}
	if _, err := InverseTransform('#', def, 1); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("expected ErrInvalidCharacter, got %v", err)
	}
	if _, err := ForwardTransform('A', def, 65); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("expected ErrInvalidPosition, got %v", err)
	}

	broken := &RotorDefinition{ID: "broken"}
	if _, err := InverseTransform('B', broken, 1); !errors.Is(err, ErrInconsistentRotor) {
		t.Errorf("expected ErrInconsistentRotor, got %v", err)
	}
}

func TestNewRotorDefinition(t *testing.T) {
	def, err := NewRotorDefinition("  Alpha  ", " first rotor ", SeededPermutation(3).Slice())
	if err != nil {
		t.Fatalf("NewRotorDefinition: %v", err)
	}
	if def.ID == "" {
		t.Fatal("expected generated id")
	}
	if def.Name != "Alpha" || def.Description != "first rotor" {
		t.Errorf("unexpected name/description %q/%q", def.Name, def.Description)
	}
	if def.CreatedAt.IsZero() || !def.CreatedAt.Equal(def.UpdatedAt) {
		t.Errorf("unexpected timestamps %v/%v", def.CreatedAt, def.UpdatedAt)
	}

	other, _ := NewRotorDefinition("Alpha", "", SeededPermutation(3).Slice())
	if other.ID == def.ID {
		t.Fatal("expected distinct ids for distinct definitions")
	}

	if _, err := NewRotorDefinition("", "", IdentityPermutation().Slice()); err == nil {
		t.Fatal("expected error for empty name")
	}
	if _, err := NewRotorDefinition("short", "", []int{0, 1, 2}); !errors.Is(err, ErrWrongLength) {
		t.Fatalf("expected ErrWrongLength, got %v", err)
	}
}

func TestRotorDefinitionEdit(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	restore := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = restore })

	def, err := NewRotorDefinition("alpha", "", IdentityPermutation().Slice())
	if err != nil {
		t.Fatalf("NewRotorDefinition: %v", err)
	}

	edited, err := def.Edit("beta", "renamed", ShiftPermutation(5).Slice())
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.ID != def.ID {
		t.Errorf("edit changed id: %s -> %s", def.ID, edited.ID)
	}
	if !edited.UpdatedAt.After(def.UpdatedAt) {
		t.Errorf("expected newer update time, got %v <= %v", edited.UpdatedAt, def.UpdatedAt)
	}
	if !edited.CreatedAt.Equal(def.CreatedAt) {
		t.Errorf("edit changed creation time")
	}
	if def.Name != "alpha" || def.Permutation != IdentityPermutation() {
		t.Errorf("edit mutated the original definition")
	}
	if edited.Permutation != ShiftPermutation(5) {
		t.Errorf("edit did not apply the new permutation")
	}

	kept, err := edited.Edit("gamma", "", nil)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if kept.Permutation != edited.Permutation {
		t.Errorf("nil permutation should keep the current one")
	}

	bad := IdentityPermutation().Slice()
	bad[37] = 10
	if _, err := def.Edit("alpha", "", bad); !errors.Is(err, ErrDuplicateValues) {
		t.Fatalf("expected ErrDuplicateValues, got %v", err)
	}
}
