package cipher

import "math/rand/v2"

// IdentityPermutation maps every index to itself.
func IdentityPermutation() Permutation {
	var p Permutation
	for i := range p {
		p[i] = i
	}
	return p
}

// ShiftPermutation maps i to (i+k) mod 64.
func ShiftPermutation(k int) Permutation {
	var p Permutation
	for i := range p {
		p[i] = mod64(i + k)
	}
	return p
}

// ReversePermutation maps i to 63-i.
func ReversePermutation() Permutation {
	var p Permutation
	for i := range p {
		p[i] = AlphabetSize - 1 - i
	}
	return p
}

// RandomPermutation returns a uniformly shuffled permutation.
func RandomPermutation() Permutation {
	return shuffled(rand.Shuffle)
}

// SeededPermutation returns the same shuffled permutation for the same seed.
func SeededPermutation(seed uint64) Permutation {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return shuffled(rng.Shuffle)
}

func shuffled(shuffle func(n int, swap func(i, j int))) Permutation {
	p := IdentityPermutation()
	shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

// Slice returns the permutation as a new slice.
func (p Permutation) Slice() []int {
	out := make([]int, len(p))
	copy(out, p[:])
	return out
}
