package avl

import (
	"crypto/sha256"

	"lukechampine.com/blake3"
)

const (
	// leafTag is prepended to the preimage of a leaf's label.
	leafTag = 0x00
	// internalTag is prepended to the preimage of an internal node's label.
	internalTag = 0x01
)

// HashFunction is the pluggable, fixed-width, collision-resistant digest
// used to commit to tree nodes. Implementations must be safe to use from a
// single goroutine at a time only: the prover and verifier each own one
// hasher instance, never shared across threads.
type HashFunction interface {
	// Len returns digestSize, the number of bytes in a raw digest (before
	// the trailing height byte that turns a digest into a Label).
	Len() int
	// Sum returns the digest of the concatenation of all the given byte
	// slices.
	Sum(parts ...[]byte) []byte
}

// Blake3Hash implements HashFunction using BLAKE3 with a 32-byte output,
// matching the default hash used by the teacher's authenticated tree.
type Blake3Hash struct{}

// Len returns 32.
func (Blake3Hash) Len() int { return 32 }

// Sum hashes the concatenation of parts with BLAKE3.
func (Blake3Hash) Sum(parts ...[]byte) []byte {
	h := blake3.New(32, nil)
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(nil)
}

// Sha256Hash implements HashFunction using SHA-256.
type Sha256Hash struct{}

// Len returns 32.
func (Sha256Hash) Len() int { return 32 }

// Sum hashes the concatenation of parts with SHA-256.
func (Sha256Hash) Sum(parts ...[]byte) []byte {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum(nil)
}

// leafLabel computes H(0x00 || key || value || nextLeafKey).
func leafLabel(hf HashFunction, key, value, nextLeafKey []byte) Label {
	digest := hf.Sum([]byte{leafTag}, key, value, nextLeafKey)
	return newLabel(digest, 0)
}

// internalLabel computes H(0x01 || balance || left.label || right.label)
// and stamps it with the subtree height, which is
// 1+max(left.height, right.height).
func internalLabel(hf HashFunction, balance int8, left, right Label) Label {
	digest := hf.Sum([]byte{internalTag}, []byte{byte(balance)}, left.Digest(), right.Digest())
	height := left.Height()
	if right.Height() > height {
		height = right.Height()
	}
	return newLabel(digest, height+1)
}
