package avl

import (
	"encoding/binary"
)

// UpdateFunc is the generic per-key update function described in
// spec.md §6: given the current value at a key (nil if the key is
// absent), it returns the new value to store (nil to leave the key
// untouched / delete it, depending on kind) and an error that aborts the
// whole modification without mutating anything.
type UpdateFunc func(current Value) (Value, error)

// kind of modification to apply to a single key during a batch.
type modKind uint8

const (
	modInsert modKind = iota
	modUpdate
	modRemove
	modRemoveIfExists
	modUpdateLongBy
	modGeneric
)

// Modification describes one key-level operation within a batch, per
// spec.md §6. Construct one with the package-level helpers below rather
// than building the struct directly.
type Modification struct {
	kind   modKind
	key    Key
	value  Value // Insert/Update's new value, or UpdateLongBy's delta encoded big-endian
	update UpdateFunc
}

// Insert adds key with value. Fails with ErrDuplicateKey if key is
// already present.
func Insert(key Key, value Value) Modification {
	return Modification{kind: modInsert, key: key, value: value}
}

// Update changes the value stored at an existing key. Fails with
// ErrMissingKey if key is absent.
func Update(key Key, value Value) Modification {
	return Modification{kind: modUpdate, key: key, value: value}
}

// Remove deletes key. Fails with ErrMissingKey if key is absent.
func Remove(key Key) Modification {
	return Modification{kind: modRemove, key: key}
}

// RemoveIfExists deletes key if present; it is not an error if key is
// absent, in which case the batch simply does not touch that key.
func RemoveIfExists(key Key) Modification {
	return Modification{kind: modRemoveIfExists, key: key}
}

// UpdateLongBy treats the value at key as a big-endian int64 and adds
// delta to it, failing with ErrOverflow on signed overflow. If key is
// absent, a non-negative delta inserts it with delta as its value and a
// negative delta fails with ErrNegativeDelta.
func UpdateLongBy(key Key, delta int64) Modification {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(delta))
	return Modification{kind: modUpdateLongBy, key: key, value: buf}
}

// Generic applies an arbitrary UpdateFunc at key: it is called with the
// key's current value (nil if absent) and must return the new value
// (nil to delete an existing key, or to signal "no such key" is fine
// for an absent one) or an error to abort the modification.
func Generic(key Key, update UpdateFunc) Modification {
	return Modification{kind: modGeneric, key: key, update: update}
}

// toUpdateFunc lowers every modification kind to the single generic
// UpdateFunc shape the prover/verifier descent actually executes against
// a found-or-not-found leaf, per spec.md §6's equivalence table.
func (m Modification) toUpdateFunc() UpdateFunc {
	switch m.kind {
	case modInsert:
		return func(current Value) (Value, error) {
			if current != nil {
				return nil, ErrDuplicateKey
			}
			return m.value, nil
		}
	case modUpdate:
		return func(current Value) (Value, error) {
			if current == nil {
				return nil, ErrMissingKey
			}
			return m.value, nil
		}
	case modRemove:
		return func(current Value) (Value, error) {
			if current == nil {
				return nil, ErrMissingKey
			}
			return nil, nil
		}
	case modRemoveIfExists:
		return func(current Value) (Value, error) {
			if current == nil {
				return current, errNoOp
			}
			return nil, nil
		}
	case modUpdateLongBy:
		delta := int64(binary.BigEndian.Uint64(m.value))
		return func(current Value) (Value, error) {
			if current == nil {
				if delta < 0 {
					return nil, ErrNegativeDelta
				}
				out := make([]byte, 8)
				binary.BigEndian.PutUint64(out, uint64(delta))
				return out, nil
			}
			if len(current) != 8 {
				return nil, ErrBadValueLength
			}
			existing := int64(binary.BigEndian.Uint64(current))
			sum, overflowed := addInt64(existing, delta)
			if overflowed {
				return nil, ErrOverflow
			}
			out := make([]byte, 8)
			binary.BigEndian.PutUint64(out, uint64(sum))
			return out, nil
		}
	default: // modGeneric
		return m.update
	}
}

// errNoOp is an internal sentinel: the operation found nothing to do
// (RemoveIfExists on an absent key) and must leave the tree untouched,
// but this is not reported to the caller as an error.
var errNoOp = errNoOpError{}

type errNoOpError struct{}

func (errNoOpError) Error() string { return "avl: no-op" }

// addInt64 returns a+b and whether the addition overflowed int64.
func addInt64(a, b int64) (sum int64, overflowed bool) {
	sum = a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, true
	}
	return sum, false
}
