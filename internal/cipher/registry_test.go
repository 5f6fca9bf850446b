package cipher

import (
	"errors"
	"testing"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	a, _ := NewRotorDefinition("beta", "", SeededPermutation(1).Slice())
	b, _ := NewRotorDefinition("alpha", "", SeededPermutation(2).Slice())

	reg, err := NewRegistry(a, b)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if reg.Len() != 2 {
		t.Fatalf("Len = %d, want 2", reg.Len())
	}

	got, ok := reg.Rotor(a.ID)
	if !ok || got != a {
		t.Fatalf("Rotor(%s) = %v, %v", a.ID, got, ok)
	}
	if _, ok := reg.Rotor("missing"); ok {
		t.Fatal("expected miss for unknown id")
	}

	list := reg.List()
	if len(list) != 2 || list[0].Name != "alpha" || list[1].Name != "beta" {
		t.Fatalf("List not sorted by name: %v", list)
	}

	if err := reg.Register(a); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatal("expected nil registration to fail")
	}
	if err := reg.Register(&RotorDefinition{Permutation: IdentityPermutation()}); err == nil {
		t.Fatal("expected empty id to fail")
	}

	broken := &RotorDefinition{ID: "broken", Name: "broken"}
	if err := reg.Register(broken); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	reg.Unregister(a.ID)
	if reg.Len() != 1 {
		t.Fatalf("Len after Unregister = %d", reg.Len())
	}
	reg.Unregister("missing")
}

func TestRegistryReplace(t *testing.T) {
	def, _ := NewRotorDefinition("alpha", "", IdentityPermutation().Slice())
	reg, err := NewRegistry(def)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	edited, err := def.Edit("alpha", "shifted", ShiftPermutation(3).Slice())
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := reg.Replace(edited); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	got, _ := reg.Rotor(def.ID)
	if got.Permutation != ShiftPermutation(3) {
		t.Fatal("Replace did not swap the definition")
	}

	stranger, _ := NewRotorDefinition("stranger", "", IdentityPermutation().Slice())
	if err := reg.Replace(stranger); !errors.Is(err, ErrUnknownRotorID) {
		t.Fatalf("expected ErrUnknownRotorID, got %v", err)
	}
}

func TestRegistryServesAsLookup(t *testing.T) {
	cfg, lookup := stack(t, 1, 1)
	defs := make([]*RotorDefinition, 0, len(lookup))
	for _, def := range lookup {
		defs = append(defs, def)
	}
	reg, err := NewRegistry(defs...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	viaMap, err := Encode("Registry backed.", cfg, lookup)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	viaRegistry, err := Encode("Registry backed.", cfg, reg)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if viaMap.Text != viaRegistry.Text {
		t.Fatal("registry and map lookups disagree")
	}

	fn := LookupFunc(reg.Rotor)
	if _, ok := fn.Rotor(cfg.RotorIDs[0]); !ok {
		t.Fatal("LookupFunc did not delegate")
	}
}
