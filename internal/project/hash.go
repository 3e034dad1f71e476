package project

import (
	"crypto/sha256"
	"os"
)

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// Zero reports whether the digest was never computed.
func (d Digest) Zero() bool {
	var z Digest
	return d == z
}

// HashBytes hashes raw file content.
func HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}

// HashFile hashes the content of a file on disk.
func HashFile(path string) (Digest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Digest{}, err
	}
	return HashBytes(data), nil
}

// Combine builds an aggregate hash: H( content || dep1 || dep2 ... ).
// The order of deps must be deterministic.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
