// Package scripthash computes the Electrum-style scripthash used to index
// watched output scripts.
package scripthash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Length is the size in bytes of a ScriptHash.
const Length = 32

// ScriptHash is the Electrum-style identifier for an output script:
// reverse(SHA256(script)).
type ScriptHash [Length]byte

// Compute returns the ScriptHash for the given raw output script.
// It is pure, total, and cannot fail.
func Compute(script []byte) ScriptHash {
	sum := sha256.Sum256(script)

	var sh ScriptHash
	for i := 0; i < Length; i++ {
		sh[i] = sum[Length-1-i]
	}
	return sh
}

// String returns the lowercase hex encoding of the ScriptHash.
func (sh ScriptHash) String() string {
	return hex.EncodeToString(sh[:])
}

// Bytes returns a copy of the underlying 32 bytes.
func (sh ScriptHash) Bytes() []byte {
	out := make([]byte, Length)
	copy(out, sh[:])
	return out
}

// FromHex parses a hex-encoded scripthash, rejecting anything that is not
// exactly 32 bytes long.
func FromHex(s string) (ScriptHash, error) {
	var sh ScriptHash

	raw, err := hex.DecodeString(s)
	if err != nil {
		return sh, fmt.Errorf("decode scripthash hex: %w", err)
	}
	if len(raw) != Length {
		return sh, fmt.Errorf("invalid scripthash length: got %d, want %d", len(raw), Length)
	}

	copy(sh[:], raw)
	return sh, nil
}

// FromBytes builds a ScriptHash from a raw 32-byte slice.
func FromBytes(b []byte) (ScriptHash, error) {
	var sh ScriptHash
	if len(b) != Length {
		return sh, fmt.Errorf("invalid scripthash length: got %d, want %d", len(b), Length)
	}
	copy(sh[:], b)
	return sh, nil
}
