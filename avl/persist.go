package avl

import "go.uber.org/zap"

// This file is the narrow seam between the in-memory tree and the
// versioned store (store package): content-addressed node encoding, so
// a node can be written once and referenced by digest from its parent,
// and decoding, so a prior root can be rebuilt node-by-node on rollback.
// It does not know anything about the store's backend; the caller
// supplies a fetch-by-digest callback.

const (
	encodedLeaf     byte = 0x00
	encodedInternal byte = 0x01
)

// encodeNode serializes a single node (not its subtree) for persistence.
// An internal node references its children by content digest rather
// than inlining them, matching the copy-on-write sharing already present
// in the live tree: an unchanged subtree's encoding, and therefore its
// digest and storage key, is byte-identical across versions.
func encodeNode(n *node, hf HashFunction) []byte {
	switch n.k {
	case kindLeaf:
		out := make([]byte, 0, 1+len(n.key)+len(n.value)+len(n.nextLeafKey))
		out = append(out, encodedLeaf)
		out = append(out, n.key...)
		out = append(out, n.value...)
		out = append(out, n.nextLeafKey...)
		return out
	case kindInternal:
		leftDigest := n.left.labelOf(hf).Digest()
		rightDigest := n.right.labelOf(hf).Digest()
		out := make([]byte, 0, 1+len(n.splitKey)+1+len(leftDigest)+len(rightDigest))
		out = append(out, encodedInternal)
		out = append(out, n.splitKey...)
		out = append(out, byte(n.balance))
		out = append(out, leftDigest...)
		out = append(out, rightDigest...)
		return out
	default:
		return nil
	}
}

// decodeNode parses bytes produced by encodeNode, recursively resolving
// an internal node's children via fetch. fetch is keyed by the raw
// digest (hf.Len() bytes, no trailing height byte).
func decodeNode(data []byte, kl, vl int, hf HashFunction, fetch func(digest []byte) ([]byte, error)) (*node, error) {
	if len(data) == 0 {
		return nil, ErrProofMalformed
	}
	switch data[0] {
	case encodedLeaf:
		rest := data[1:]
		if len(rest) != kl+vl+kl {
			return nil, ErrProofMalformed
		}
		key := cloneBytes(rest[:kl])
		value := cloneBytes(rest[kl : kl+vl])
		nextLeafKey := cloneBytes(rest[kl+vl:])
		return newLeaf(key, value, nextLeafKey), nil

	case encodedInternal:
		rest := data[1:]
		dsz := hf.Len()
		if len(rest) != kl+1+2*dsz {
			return nil, ErrProofMalformed
		}
		splitKey := cloneBytes(rest[:kl])
		rest = rest[kl:]
		balance := int8(rest[0])
		rest = rest[1:]
		leftDigest := cloneBytes(rest[:dsz])
		rest = rest[dsz:]
		rightDigest := cloneBytes(rest[:dsz])

		leftData, err := fetch(leftDigest)
		if err != nil {
			return nil, err
		}
		left, err := decodeNode(leftData, kl, vl, hf, fetch)
		if err != nil {
			return nil, err
		}

		rightData, err := fetch(rightDigest)
		if err != nil {
			return nil, err
		}
		right, err := decodeNode(rightData, kl, vl, hf, fetch)
		if err != nil {
			return nil, err
		}

		return newInternal(splitKey, left, right, balance), nil

	default:
		return nil, ErrProofMalformed
	}
}

// FromSnapshot rebuilds a prover whose root is the node identified by
// rootDigest, fetching every node transitively reachable from it via
// fetch. It is the counterpart to WalkNew + a store's rollback.
func FromSnapshot(kl, vl int, hf HashFunction, rootDigest []byte, fetch func(digest []byte) ([]byte, error)) (*Prover, error) {
	data, err := fetch(rootDigest)
	if err != nil {
		return nil, err
	}
	root, err := decodeNode(data, kl, vl, hf, fetch)
	if err != nil {
		return nil, err
	}
	return &Prover{
		hf:   hf,
		kl:   kl,
		vl:   vl,
		root: root,
		bits: &bitWriter{},
		log:  zap.NewNop(),
	}, nil
}
