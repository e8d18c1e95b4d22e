package avl

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Prover is the mutable, AVL-balanced side of the authenticated
// dictionary (spec.md §4.2). It must not be shared across goroutines:
// like the hash function it wraps, it keeps stateful, single-threaded
// recording buffers between performOneModification and generateProof.
type Prover struct {
	hf HashFunction
	kl int
	vl int

	root *node
	bits *bitWriter

	log   *zap.Logger
	stats Stats
}

// Stats are debug counters mirroring the instrumentation a teacher tree
// keeps for its own sanity checks (spec.md §4.2's checkTree collaborator
// and §9's design notes around explicit, inspectable invariants).
type Stats struct {
	Inserts int
	Updates int
	Removes int
	NoOps   int
}

// New creates a prover over an empty dictionary: a single leaf
// (NegativeInfinity, 0^VL, PositiveInfinity), per spec.md §3.
func New(kl, vl int, hf HashFunction) *Prover {
	root := newLeaf(NegativeInfinity(kl), make(Value, vl), PositiveInfinity(kl))
	return &Prover{
		hf:   hf,
		kl:   kl,
		vl:   vl,
		root: root,
		bits: &bitWriter{},
		log:  zap.NewNop(),
	}
}

// SetLogger attaches a logger used for structural diagnostics
// (per-modification tracing, rejected modifications). The default is a
// no-op logger.
func (p *Prover) SetLogger(l *zap.Logger) { p.log = l }

// Stats returns a snapshot of the prover's debug counters.
func (p *Prover) Stats() Stats { return p.stats }

func (p *Prover) validateKey(k Key) error {
	if len(k) != p.kl {
		return ErrBadKeyLength
	}
	if isSentinel(k) {
		return ErrReservedKey
	}
	return nil
}

// PerformOneModification applies m to the live tree, recording proof
// state on success. On failure the tree, direction bitstream, and
// visited/isNew flags are left exactly as they were (spec.md §7).
func (p *Prover) PerformOneModification(m Modification) error {
	p.log.Debug("performing modification", zap.Uint8("kind", uint8(m.kind)), zap.Binary("key", m.key))

	if err := p.validateKey(m.key); err != nil {
		p.log.Warn("modification rejected", zap.Binary("key", m.key), zap.Error(err))
		return err
	}
	switch m.kind {
	case modInsert, modUpdate:
		if len(m.value) != p.vl {
			p.log.Warn("modification rejected", zap.Binary("key", m.key), zap.Error(ErrBadValueLength))
			return ErrBadValueLength
		}
	}

	found, leaf, err := p.dryFind(m.key)
	if err != nil {
		return err
	}
	var current Value
	if found {
		current = leaf.value
	}
	newValue, uerr := m.toUpdateFunc()(current)
	if uerr != nil && uerr != errNoOp {
		p.log.Warn("modification rejected", zap.Binary("key", m.key), zap.Error(uerr))
		return uerr
	}
	if uerr == errNoOp {
		p.commitNoOp(m.key)
		p.stats.NoOps++
		return nil
	}

	if newValue == nil {
		if !found {
			p.commitNoOp(m.key)
			p.stats.NoOps++
			return nil
		}
		p.commitDelete(m.key)
		p.stats.Removes++
		return nil
	}
	if found {
		p.commitUpdate(m.key, newValue)
		p.stats.Updates++
		return nil
	}
	p.commitInsert(m.key, newValue)
	p.stats.Inserts++
	return nil
}

// dryFind locates the leaf that would be reached for key k, without
// mutating or recording anything: used to decide a modification's
// outcome before any proof state is committed.
func (p *Prover) dryFind(k Key) (found bool, leaf *node, err error) {
	dir := func(n *node) bool { return KeyLess(k, n.splitKey) }
	_, _, l, derr := descend(p.root, dir)
	if derr != nil {
		return false, nil, derr
	}
	return bytesEqual(l.key, k), l, nil
}

// recordingDir compares k against the live tree and records (1=left,
// 0=right) every direction it takes.
func (p *Prover) recordingDir(k Key) directionFunc {
	return func(n *node) bool {
		left := KeyLess(k, n.splitKey)
		p.bits.writeBit(left)
		return left
	}
}

// forcedRightDir always descends right, recording a bit anyway so the
// verifier's bitstream cursor stays aligned (spec.md §4.3).
func (p *Prover) forcedRightDir() directionFunc {
	return func(*node) bool {
		p.bits.writeBit(false)
		return false
	}
}

// ownDescend is the committing counterpart of descend: it clones
// (copy-on-write) and marks visited every node from *ref down to the
// leaf it reaches, rewiring *ref in place as it goes.
func ownDescend(ref **node, dir directionFunc) (path []*node, dirs []bool, leaf *node) {
	*ref = cow(*ref)
	(*ref).visited = true
	n := *ref
	for n.isInternal() {
		path = append(path, n)
		left := dir(n)
		dirs = append(dirs, left)
		var childRef **node
		if left {
			childRef = &n.left
		} else {
			childRef = &n.right
		}
		*childRef = cow(*childRef)
		(*childRef).visited = true
		n = *childRef
	}
	return path, dirs, n
}

func (p *Prover) commitInsert(k Key, v Value) {
	path, dirs, leaf := ownDescend(&p.root, p.recordingDir(k))
	p.root = spliceInsert(path, dirs, leaf, k, v)
}

func (p *Prover) commitUpdate(k Key, v Value) {
	path, _, leaf := ownDescend(&p.root, p.recordingDir(k))
	leaf.value = cloneBytes(v)
	leaf.dirty = true
	for _, n := range path {
		n.dirty = true
	}
}

func (p *Prover) commitNoOp(k Key) {
	ownDescend(&p.root, p.recordingDir(k))
}

func (p *Prover) commitDelete(k Key) {
	path, dirs, leaf := ownDescend(&p.root, p.recordingDir(k))

	lastRightIdx := -1
	for i := len(dirs) - 1; i >= 0; i-- {
		if !dirs[i] {
			lastRightIdx = i
			break
		}
	}
	if lastRightIdx < 0 {
		// Unreachable for any validated real key: the only leftmost leaf
		// is the NegativeInfinity sentinel, which is never a delete target.
		p.log.Error("delete found no right turn on descent", zap.Binary("key", k))
		return
	}

	path[lastRightIdx].left = relinkPredecessor(path[lastRightIdx].left, leaf.nextLeafKey, cow, p.forcedRightDir())
	// The deleted leaf was the minimum of path[lastRightIdx].right; its
	// successor becomes that subtree's new minimum.
	path[lastRightIdx].splitKey = cloneBytes(leaf.nextLeafKey)

	sibling := siblingOf(path[len(path)-1], dirs[len(dirs)-1])
	p.root = spliceDelete(path, dirs, sibling)
}

// GenerateProof freezes the current batch: it serializes the skeleton of
// every visited node plus the padded direction bitstream, then clears
// all visited/isNew flags so the next batch starts clean (spec.md §4.2).
//
// Callers that need to persist new nodes before they are discarded from
// the proof-recording bookkeeping (the persistence layer's job; see
// store.PersistentProver) must do so before calling GenerateProof, using
// WalkNew.
func (p *Prover) GenerateProof() []byte {
	w := newSkeletonWriter(p.kl, p.vl, p.hf)
	w.write(p.root)
	out := w.finish()
	out = append(out, p.bits.finish()...)

	clearBatchFlags(p.root)
	p.bits = &bitWriter{}
	return out
}

// WalkNew calls fn, in bottom-up order, for every node reachable from
// the root that was created or cloned during the current batch,
// together with its content digest and persistence encoding. It must be
// called before GenerateProof, which clears the bookkeeping WalkNew
// relies on.
func (p *Prover) WalkNew(fn func(digest, encoded []byte)) {
	walkNew(p.root, p.hf, fn)
}

func walkNew(n *node, hf HashFunction, fn func(digest, encoded []byte)) {
	if !n.isNew {
		return
	}
	if n.isInternal() {
		walkNew(n.left, hf, fn)
		walkNew(n.right, hf, fn)
	}
	fn(n.labelOf(hf).Digest(), encodeNode(n, hf))
}

// clearBatchFlags resets visited/isNew across the whole reachable tree;
// it does not recurse into subtrees that were never touched this batch,
// since those already have isNew=false and visited=false.
func clearBatchFlags(n *node) {
	if !n.visited && !n.isNew {
		return
	}
	n.visited = false
	n.isNew = false
	if n.isInternal() {
		clearBatchFlags(n.left)
		clearBatchFlags(n.right)
	}
}

// Digest returns the root label (digest || height), per spec.md §6.
func (p *Prover) Digest() Label {
	return p.root.labelOf(p.hf)
}

// Height returns the current tree's root height.
func (p *Prover) Height() int {
	return p.root.height
}

// UnauthenticatedLookup reads the current value at k without touching
// any proof state.
func (p *Prover) UnauthenticatedLookup(k Key) (Value, bool) {
	if isSentinel(k) {
		return nil, false
	}
	_, _, leaf, err := descend(p.root, func(n *node) bool { return KeyLess(k, n.splitKey) })
	if err != nil || !bytesEqual(leaf.key, k) {
		return nil, false
	}
	return cloneBytes(leaf.value), true
}

// CheckTree walks the whole tree verifying the AVL balance invariant
// (spec.md §8 property 2). It is a debug aid, not part of the protocol.
func (p *Prover) CheckTree() error {
	_, err := checkSubtree(p.root)
	return err
}

// DebugDump writes an indented text rendering of the tree shape to w:
// one line per node, leaves showing their key and internal nodes
// showing their balance. It exists to make a CheckTree failure
// diagnosable without a debugger attached.
func (p *Prover) DebugDump(w io.Writer) error {
	return dumpSubtree(w, p.root, 0)
}

func dumpSubtree(w io.Writer, n *node, depth int) error {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	switch n.k {
	case kindLeaf:
		_, err := fmt.Fprintf(w, "%sleaf %x\n", indent, n.key)
		return err
	case kindInternal:
		if _, err := fmt.Fprintf(w, "%sinternal balance=%d\n", indent, n.balance); err != nil {
			return err
		}
		if err := dumpSubtree(w, n.left, depth+1); err != nil {
			return err
		}
		return dumpSubtree(w, n.right, depth+1)
	default:
		_, err := fmt.Fprintf(w, "%s<label-only>\n", indent)
		return err
	}
}

// checkSubtree returns n's height, recursively validating the AVL
// balance invariant along the way.
func checkSubtree(n *node) (height int, err error) {
	switch n.k {
	case kindLeaf:
		return 0, nil
	case kindInternal:
		lh, err := checkSubtree(n.left)
		if err != nil {
			return 0, err
		}
		rh, err := checkSubtree(n.right)
		if err != nil {
			return 0, err
		}
		bal := rh - lh
		if bal < -1 || bal > 1 {
			return 0, ErrProofMalformed
		}
		if int8(bal) != n.balance {
			return 0, ErrProofMalformed
		}
		return 1 + maxInt(lh, rh), nil
	default:
		return 0, ErrProofMalformed
	}
}
