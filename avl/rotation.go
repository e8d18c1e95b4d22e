package avl

// This file holds the AVL rotation algebra shared, byte-for-byte, between
// the prover's live mutation path and the verifier's replay: both sides
// build and rebalance the same node representation (node.go), so the same
// rotation code produces the same subtree shape no matter which side runs
// it, which is what makes the verifier's replayed digest match the
// prover's.
//
// balance is defined as height(right) - height(left), per spec.md §3.

// rebalance recomputes n's balance from its current children's heights
// and, if the AVL invariant (|balance| <= 1) is violated, performs the
// single or double rotation required to restore it. It returns the
// (possibly different) root of the subtree.
//
// n must be an internal node whose children's heights/labels are already
// up to date.
func rebalance(n *node) *node {
	n.balance = int8(n.right.height - n.left.height)
	n.dirty = true
	switch n.balance {
	case -2:
		return rebalanceLeftHeavy(n)
	case 2:
		return rebalanceRightHeavy(n)
	default:
		n.height = 1 + maxInt(n.left.height, n.right.height)
		return n
	}
}

// rebalanceLeftHeavy handles n.balance == -2 (left child taller by 2).
func rebalanceLeftHeavy(n *node) *node {
	left := n.left
	if left.balance <= 0 {
		// single rotation: left-left case.
		return rotateRight(n)
	}
	// double rotation: left-right case.
	n.left = rotateLeft(left)
	return rotateRight(n)
}

// rebalanceRightHeavy handles n.balance == 2 (right child taller by 2).
func rebalanceRightHeavy(n *node) *node {
	right := n.right
	if right.balance >= 0 {
		// single rotation: right-right case.
		return rotateLeft(n)
	}
	// double rotation: right-left case.
	n.right = rotateRight(right)
	return rotateLeft(n)
}

// rotateLeft performs a left rotation around n (n.right becomes the new
// subtree root, n becomes its left child). Matches the single-rotation
// entry of the table in spec.md §4.1, mirrored for the right-heavy case.
func rotateLeft(n *node) *node {
	newRoot := n.right
	n.right = newRoot.left
	newRoot.left = n

	n.balance = n.balance - 1 - max8(newRoot.balance, 0)
	newRoot.balance = newRoot.balance - 1 + min8(n.balance, 0)

	n.height = 1 + maxInt(heightOf(n.left), heightOf(n.right))
	n.dirty = true
	newRoot.height = 1 + maxInt(heightOf(newRoot.left), heightOf(newRoot.right))
	newRoot.dirty = true
	return newRoot
}

// rotateRight performs a right rotation around n (n.left becomes the new
// subtree root, n becomes its right child).
func rotateRight(n *node) *node {
	newRoot := n.left
	n.left = newRoot.right
	newRoot.right = n

	n.balance = n.balance + 1 - min8(newRoot.balance, 0)
	newRoot.balance = newRoot.balance + 1 + max8(n.balance, 0)

	n.height = 1 + maxInt(heightOf(n.left), heightOf(n.right))
	n.dirty = true
	newRoot.height = 1 + maxInt(heightOf(newRoot.left), heightOf(newRoot.right))
	newRoot.dirty = true
	return newRoot
}

func heightOf(n *node) int {
	if n == nil {
		return -1
	}
	return n.height
}

func max8(a, b int8) int8 {
	if a > b {
		return a
	}
	return b
}

func min8(a, b int8) int8 {
	if a < b {
		return a
	}
	return b
}
