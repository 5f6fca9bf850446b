// Package cipher implements the rotor substitution engine behind enigmactl.
//
// # Overview
//
// Text is encoded one symbol at a time through an ordered stack of rotors.
// Each rotor is a bijection over the 64 symbols of Alphabet, rotated by its
// current position. After every symbol the rightmost rotor steps, and the
// step carries left like an odometer.
//
// # Quick Start
//
//	fast, _ := cipher.NewRotorDefinition("fast", "", cipher.SeededPermutation(1).Slice())
//	slow, _ := cipher.NewRotorDefinition("slow", "", cipher.SeededPermutation(2).Slice())
//	lookup := cipher.NewMapLookup(fast, slow)
//
//	cfg := cipher.Configuration{
//	    RotorIDs:  []string{slow.ID, fast.ID},
//	    Positions: []int{1, 32},
//	}
//
//	enc, _ := cipher.Encode("Hello World.", cfg, lookup)
//	dec, _ := cipher.Decode(enc.Text, cfg, lookup)
//	// dec.Text == "Hello World."
//	// dec.Positions() equals enc.Positions()
//
// # Rotor Transform
//
// With offset = position-1, a rotor maps index i to
//
//	(P[(i+offset) mod 64] - offset) mod 64
//
// and its inverse maps j to (P⁻¹[(j+offset) mod 64] - offset) mod 64.
//
// # Stepping
//
// Every encoded symbol steps the rightmost rotor once. When a rotor's
// cumulative step count reaches a multiple of 64 its left neighbour steps
// too, and the carry continues left while each newly stepped rotor is again
// at a multiple of 64. Positions wrap from 64 to 1.
//
// Decoding starts from the same positions and reproduces the encoder's
// position sequence, so both directions report the same final positions.
//
// # Errors
//
// Errors fall in three classes, testable with errors.Is:
//   - ErrValidation - malformed permutations, positions and configurations
//   - ErrCharacter - symbols outside the alphabet
//   - ErrStructural - unknown rotor ids, empty rotor stacks
//
// The message codec never fails on a stray character: it copies it through
// unchanged and records a Warning.
//
// # Thread Safety
//
// Definitions are read-only once built and Registry locks internally. Every
// Encode or Decode call builds its own Pipeline, so concurrent calls never
// share rotor state.
package cipher
