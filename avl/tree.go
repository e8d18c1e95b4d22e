package avl

// This file holds the authenticated-tree operations shared between the
// prover's live mutation path and the verifier's replay (spec.md §4.1).
// Both sides build the exact same node shape (node.go) and apply the
// exact same rotation algebra (rotation.go); what differs between them
// is only how a direction decision gets made at each internal node: the
// prover compares a live key against n.splitKey and records the result,
// the verifier consumes the next bit from the proof's direction stream.
// That single difference is captured by directionFunc, which both
// descend and the deterministic rightmost-leaf search take as a
// parameter — this is the "four capabilities" design of spec.md §4.1
// collapsed to the one capability that actually varies once both sides
// share a node representation (see DESIGN.md for the full rationale).

// directionFunc decides, at internal node n, whether descent continues
// left (true) or right (false). Implementations must have a side effect
// of recording (prover) or consuming (verifier) exactly one direction
// bit, even when the caller only wants a deterministic rightmost search,
// so that the two sides' bitstream cursors stay aligned.
type directionFunc func(n *node) bool

// descend walks from n down to a leaf, invoking dir at every internal
// node. It returns the top-down path of internal nodes visited, the
// direction taken at each (true=left), and the leaf reached.
func descend(n *node, dir directionFunc) (path []*node, dirs []bool, leaf *node, err error) {
	for {
		if n == nil {
			return path, dirs, nil, ErrProofMalformed
		}
		if n.isLabelOnly() {
			return path, dirs, nil, ErrProofMalformed
		}
		if n.isLeaf() {
			return path, dirs, n, nil
		}
		path = append(path, n)
		left := dir(n)
		dirs = append(dirs, left)
		if left {
			n = n.left
		} else {
			n = n.right
		}
	}
}

// applyAlongPath rewires path[len(path)-1] to point, in the direction
// dirs[len(dirs)-1] used to reach it, at newSubtree, then walks back up
// to the root rebalancing every ancestor. path and dirs must describe a
// top-down route from the tree's root (path[0]) down to (but not
// including) the node newSubtree is replacing; every node in path must
// already be owned by the caller (cloned, for the prover's COW). It
// returns the new root of the whole tree.
func applyAlongPath(path []*node, dirs []bool, newSubtree *node) *node {
	current := newSubtree
	for i := len(path) - 1; i >= 0; i-- {
		p := path[i]
		if dirs[i] {
			p.left = current
		} else {
			p.right = current
		}
		current = rebalance(p)
	}
	return current
}

// spliceInsert turns leaf `old` (already owned by the caller) into an
// internal node with two leaf children: old (now ending at newKey) and a
// freshly created leaf holding (newKey, newValue, old's former
// nextLeafKey). path/dirs locate old's ancestors, per descend. It
// returns the new root of the whole tree (spec.md §4.1 step 4).
func spliceInsert(path []*node, dirs []bool, old *node, newKey Key, newValue Value) *node {
	formerNext := old.nextLeafKey
	old.nextLeafKey = cloneBytes(newKey)
	old.dirty = true

	inserted := newLeaf(cloneBytes(newKey), cloneBytes(newValue), formerNext)
	inserted.isNew = true

	combined := newInternal(cloneBytes(newKey), old, inserted, 0)
	combined.isNew = true

	return applyAlongPath(path, dirs, combined)
}

// spliceDelete removes the leaf found at the end of path/dirs (its
// immediate parent, path[len(path)-1], is discarded entirely) and
// promotes `sibling` into the grandparent's place. It returns the new
// root of the whole tree (spec.md §4.2 step 2).
func spliceDelete(path []*node, dirs []bool, sibling *node) *node {
	return applyAlongPath(path[:len(path)-1], dirs[:len(dirs)-1], sibling)
}

// siblingOf returns the other child of a leaf's immediate parent, given
// the direction that led to the leaf being deleted.
func siblingOf(parent *node, leafWasLeft bool) *node {
	if leafWasLeft {
		return parent.right
	}
	return parent.left
}

// relinkPredecessor walks the deterministic rightmost path of the
// subtree rooted at s (owning each node via own as it descends, so the
// prover's COW clones happen lazily and the verifier's identity pass-
// through mutates in place), sets the rightmost leaf's nextLeafKey to
// newNext, and marks every node on the path dirty. dir must be an
// always-right direction function so both sides' bitstream cursors
// consume the same number of bits (spec.md §4.3's lastRightStep). It
// returns the (possibly different, if cloning occurred) subtree root.
func relinkPredecessor(s *node, newNext Key, own func(*node) *node, dir directionFunc) *node {
	s = own(s)
	if s.isLeaf() {
		s.nextLeafKey = cloneBytes(newNext)
		s.dirty = true
		return s
	}
	dir(s) // consume/record the forced-right bit; result intentionally unused
	s.right = relinkPredecessor(s.right, newNext, own, dir)
	s.dirty = true
	s.height = 1 + maxInt(s.left.height, s.right.height)
	return s
}
