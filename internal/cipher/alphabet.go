package cipher

// Alphabet is the ordered set of symbols every rotor operates over. A
// symbol's index in this string is its alphabet index.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789 ."

// AlphabetSize is the number of symbols in Alphabet and the length of every
// permutation.
const AlphabetSize = 64

// symbolIndex maps an ASCII code point to its alphabet index, or -1 when the
// code point is not part of the alphabet. Built once in init and never
// written afterwards.
var symbolIndex [128]int8

func init() {
	if len(Alphabet) != AlphabetSize {
		panic("cipher: alphabet must contain exactly 64 symbols")
	}
	for i := range symbolIndex {
		symbolIndex[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		c := Alphabet[i]
		if symbolIndex[c] != -1 {
			panic("cipher: duplicate alphabet symbol " + string(rune(c)))
		}
		symbolIndex[c] = int8(i)
	}
}

// InAlphabet reports whether r is one of the alphabet symbols.
func InAlphabet(r rune) bool {
	return r >= 0 && r < 128 && symbolIndex[r] >= 0
}

// CharToIndex returns the alphabet index of r.
func CharToIndex(r rune) (int, error) {
	if !InAlphabet(r) {
		return 0, &CharacterError{Char: r}
	}
	return int(symbolIndex[r]), nil
}

// IndexToChar returns the alphabet symbol at index i.
func IndexToChar(i int) (rune, error) {
	if i < 0 || i >= AlphabetSize {
		return 0, &IndexError{Index: i}
	}
	return rune(Alphabet[i]), nil
}

// mod64 normalises any integer into [0,63].
func mod64(v int) int {
	v %= AlphabetSize
	if v < 0 {
		v += AlphabetSize
	}
	return v
}
