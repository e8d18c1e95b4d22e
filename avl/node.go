package avl

// kind discriminates the three node variants described in spec.md §3: a
// leaf carrying real key/value data, an internal branch, and a
// verifier-only "LabelOnly" placeholder standing in for a subtree the
// current batch never touched.
type kind uint8

const (
	kindLeaf kind = iota
	kindInternal
	kindLabelOnly
)

// node is the single representation shared by the prover's live tree and
// the verifier's reconstructed partial tree (spec.md §4.1's "Tree ops
// (shared)" component). Which fields are meaningful depends on kind:
// leaves use key/value/nextLeafKey, internal nodes use splitKey/left/
// right/balance, and labelOnly nodes use only label/height.
type node struct {
	k kind

	// leaf fields.
	key         Key
	value       Value
	nextLeafKey Key

	// internal fields. splitKey equals the minimum key of the right
	// subtree (spec.md §3 invariant 3).
	splitKey Key
	left     *node
	right    *node
	balance  int8

	// shared bookkeeping.
	height int
	label  Label
	dirty  bool // label needs recomputing from current children/leaf data

	// prover batch bookkeeping. The verifier never sets isNew; it marks
	// the nodes parseSkeleton reconstructs visited but never reads the flag.
	isNew   bool // cloned (or created) during the current batch: safe to mutate
	visited bool // touched during the current batch: must appear in the next proof skeleton
}

func newLeaf(key Key, value Value, nextLeafKey Key) *node {
	return &node{
		k:           kindLeaf,
		key:         key,
		value:       value,
		nextLeafKey: nextLeafKey,
		height:      0,
		dirty:       true,
	}
}

func newInternal(splitKey Key, left, right *node, balance int8) *node {
	n := &node{
		k:        kindInternal,
		splitKey: splitKey,
		left:     left,
		right:    right,
		balance:  balance,
		dirty:    true,
	}
	n.height = 1 + maxInt(left.height, right.height)
	return n
}

func newLabelOnly(label Label) *node {
	return &node{
		k:      kindLabelOnly,
		label:  cloneLabelBytes(label),
		height: label.Height(),
	}
}

func cloneLabelBytes(l Label) Label {
	out := make(Label, len(l))
	copy(out, l)
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// isLeaf, isInternal, isLabelOnly are small readability helpers.
func (n *node) isLeaf() bool      { return n.k == kindLeaf }
func (n *node) isInternal() bool  { return n.k == kindInternal }
func (n *node) isLabelOnly() bool { return n.k == kindLabelOnly }

// labelOf computes (and caches) n's label using hf. LabelOnly nodes
// always have a precomputed, never-dirty label.
func (n *node) labelOf(hf HashFunction) Label {
	if !n.dirty && n.label != nil {
		return n.label
	}
	switch n.k {
	case kindLeaf:
		n.label = leafLabel(hf, n.key, n.value, n.nextLeafKey)
	case kindInternal:
		n.label = internalLabel(hf, n.balance, n.left.labelOf(hf), n.right.labelOf(hf))
		n.height = 1 + maxInt(n.left.height, n.right.height)
	case kindLabelOnly:
		// label is already set and never dirty.
	}
	n.dirty = false
	return n.label
}

// clone makes a shallow copy of n: children pointers (if any) are shared,
// not deep-copied, which is exactly copy-on-write: the clone is the only
// one of the two that may be mutated further during the current batch.
func (n *node) clone() *node {
	c := *n
	c.isNew = true
	c.dirty = true
	return &c
}

// cow returns n if it is already new-this-batch, otherwise a fresh clone
// marked new. Callers must overwrite the parent pointer that referenced n
// with the returned node.
func cow(n *node) *node {
	if n.isNew {
		return n
	}
	return n.clone()
}
