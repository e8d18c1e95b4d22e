package avl

import "errors"

// Prover-side failures. A failed performOneModification call leaves the
// tree byte-identical to its pre-call state; see spec.md §7.
var (
	// ErrDuplicateKey is returned by Insert when the key already exists.
	ErrDuplicateKey = errors.New("avl: key already exists")
	// ErrMissingKey is returned by Update or Remove when the key does not
	// exist.
	ErrMissingKey = errors.New("avl: key not found")
	// ErrOverflow is returned by UpdateLongBy when the signed 64-bit
	// addition would overflow.
	ErrOverflow = errors.New("avl: arithmetic overflow")
	// ErrNegativeDelta is returned by UpdateLongBy when the key is absent
	// and the delta is negative, since there is no existing value to
	// subtract from.
	ErrNegativeDelta = errors.New("avl: negative delta on missing key")
	// ErrReservedKey is returned when a caller attempts to use a sentinel
	// key (NegativeInfinity or PositiveInfinity) as a real key.
	ErrReservedKey = errors.New("avl: key is a reserved sentinel")
	// ErrBadValueLength is returned when a supplied value does not match
	// the tree's configured value length.
	ErrBadValueLength = errors.New("avl: value has wrong length")
	// ErrBadKeyLength is returned when a supplied key does not match the
	// tree's configured key length.
	ErrBadKeyLength = errors.New("avl: key has wrong length")
)

// Verifier-side failures. Once any of these occurs, the verifier's digest
// becomes sticky-nil for the remainder of the batch; see spec.md §7.
var (
	// ErrProofMalformed covers an unreadable skeleton, a stack-machine
	// invariant violation, or a direction bitstream that runs out during
	// replay. A skeleton too large for its envelope is ErrProofTooLarge.
	ErrProofMalformed = errors.New("avl: proof malformed")
	// ErrDigestMismatch means the reconstructed root's label does not
	// equal the starting digest the verifier was given.
	ErrDigestMismatch = errors.New("avl: reconstructed root does not match starting digest")
	// ErrModificationInapplicable means the proof did not convey the leaf
	// needed for the current modification, or the update function itself
	// failed.
	ErrModificationInapplicable = errors.New("avl: proof does not support this modification")
	// ErrEnvelopeMismatch means more inserts or deletes were replayed than
	// the declared envelope allows. Replaying fewer is not recorded as an
	// error: Digest then returns (nil, false) and Err stays nil.
	ErrEnvelopeMismatch = errors.New("avl: modification count does not match declared envelope")
	// ErrProofTooLarge means the proof's skeleton exceeds the bound implied
	// by the declared envelope.
	ErrProofTooLarge = errors.New("avl: proof skeleton exceeds declared envelope")
)
