package rotorfile

import (
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/alexandr-studio/enigma-ai/internal/cipher"
)

// permutationDomainKey keys the fingerprint hash so it cannot collide with
// a plain BLAKE3 digest of the same bytes. ASCII, zero padded to 32 bytes.
var permutationDomainKey = [32]byte{
	'e', 'n', 'i', 'g', 'm', 'a', '.', 'r', 'o', 't', 'o', 'r', '.',
	'p', 'e', 'r', 'm', 'u', 't', 'a', 't', 'i', 'o', 'n',
}

// Fingerprint returns the hex BLAKE3 keyed hash of perm, one byte per
// entry.
func Fingerprint(perm cipher.Permutation) string {
	hasher, err := blake3.NewKeyed(permutationDomainKey[:])
	if err != nil {
		panic("rotorfile: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	var buf [cipher.AlphabetSize]byte
	for i, v := range perm {
		buf[i] = byte(v)
	}
	_, _ = hasher.Write(buf[:])
	return hex.EncodeToString(hasher.Sum(nil))
}
