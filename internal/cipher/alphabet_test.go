package cipher

import (
	"errors"
	"testing"
)

func TestIndexCharRoundTrip(t *testing.T) {
	for i := 0; i < AlphabetSize; i++ {
		c, err := IndexToChar(i)
		if err != nil {
			t.Fatalf("IndexToChar(%d): %v", i, err)
		}
		got, err := CharToIndex(c)
		if err != nil {
			t.Fatalf("CharToIndex(%q): %v", c, err)
		}
		if got != i {
			t.Errorf("CharToIndex(IndexToChar(%d)) = %d", i, got)
		}
	}

	for _, c := range Alphabet {
		i, err := CharToIndex(c)
		if err != nil {
			t.Fatalf("CharToIndex(%q): %v", c, err)
		}
		got, _ := IndexToChar(i)
		if got != c {
			t.Errorf("IndexToChar(CharToIndex(%q)) = %q", c, got)
		}
	}
}

func TestAlphabetSymbolsAreDistinct(t *testing.T) {
	seen := make(map[rune]bool)
	for _, c := range Alphabet {
		if seen[c] {
			t.Fatalf("symbol %q appears twice", c)
		}
		seen[c] = true
	}
	if len(seen) != AlphabetSize {
		t.Fatalf("expected %d symbols, got %d", AlphabetSize, len(seen))
	}
}

func TestCharToIndexRejectsUnknownSymbols(t *testing.T) {
	for _, c := range []rune{'!', '\n', '-', 'é', '世', -1, 0x10FFFF} {
		_, err := CharToIndex(c)
		if !errors.Is(err, ErrInvalidCharacter) {
			t.Errorf("CharToIndex(%q): expected ErrInvalidCharacter, got %v", c, err)
		}
		if !errors.Is(err, ErrCharacter) {
			t.Errorf("CharToIndex(%q): expected ErrCharacter class", c)
		}
		var charErr *CharacterError
		if !errors.As(err, &charErr) || charErr.Char != c {
			t.Errorf("CharToIndex(%q): expected *CharacterError carrying the symbol, got %#v", c, err)
		}
	}
}

func TestIndexToCharRejectsOutOfRange(t *testing.T) {
	for _, i := range []int{-1, 64, 1000} {
		if _, err := IndexToChar(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("IndexToChar(%d): expected ErrIndexOutOfRange, got %v", i, err)
		}
	}
}

func TestKnownIndices(t *testing.T) {
	tests := []struct {
		char  rune
		index int
	}{
		{'A', 0},
		{'Z', 25},
		{'a', 26},
		{'z', 51},
		{'0', 52},
		{'9', 61},
		{' ', 62},
		{'.', 63},
	}
	for _, tt := range tests {
		got, err := CharToIndex(tt.char)
		if err != nil {
			t.Fatalf("CharToIndex(%q): %v", tt.char, err)
		}
		if got != tt.index {
			t.Errorf("CharToIndex(%q) = %d, want %d", tt.char, got, tt.index)
		}
	}
}
