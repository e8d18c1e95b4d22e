package avl

import (
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"
)

const (
	testKL = 8
	testVL = 8
)

func mkKey(i int) Key {
	k := make(Key, testKL)
	// keep the first byte away from 0x00/0xFF so no generated key can
	// collide with a sentinel even for small i.
	k[0] = 0x01
	k[testKL-1] = byte(i)
	k[testKL-2] = byte(i >> 8)
	return k
}

func mkValue(i int) Value {
	v := make(Value, testVL)
	v[testVL-1] = byte(i)
	return v
}

func newTestProver() *Prover {
	return New(testKL, testVL, Blake3Hash{})
}

func TestEmptyTreeIsSingleLeaf(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	c.Assert(p.root.isLeaf(), qt.IsTrue)
	c.Assert(p.Height(), qt.Equals, 0)
	c.Assert(p.CheckTree(), qt.IsNil)
}

func TestRoundTripDigestSingleInsert(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()

	start := p.Digest()
	err := p.PerformOneModification(Insert(mkKey(1), mkValue(1)))
	c.Assert(err, qt.IsNil)
	proof := p.GenerateProof()
	end := p.Digest()

	v := NewVerifier(start, proof, testKL, testVL, Blake3Hash{}, 1, 0)
	v.PerformOneModification(Insert(mkKey(1), mkValue(1)))
	got, ok := v.Digest()
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.Equal(end), qt.IsTrue)
}

func TestRoundTripDigestMixedBatch(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()

	for i := 0; i < 20; i++ {
		c.Assert(p.PerformOneModification(Insert(mkKey(i), mkValue(i))), qt.IsNil)
	}
	_ = p.GenerateProof()

	start := p.Digest()
	mods := []Modification{
		Update(mkKey(3), mkValue(300)),
		Remove(mkKey(7)),
		Insert(mkKey(20), mkValue(20)),
		RemoveIfExists(mkKey(999)), // absent: no-op
		UpdateLongBy(mkKey(5), 42),
	}
	for _, m := range mods {
		c.Assert(p.PerformOneModification(m), qt.IsNil)
	}
	proof := p.GenerateProof()
	end := p.Digest()

	v := NewVerifier(start, proof, testKL, testVL, Blake3Hash{}, 1, 1)
	for _, m := range mods {
		v.PerformOneModification(m)
	}
	got, ok := v.Digest()
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.Equal(end), qt.IsTrue)
	c.Assert(p.CheckTree(), qt.IsNil)
}

func TestUpdateLongByOnMissingKey(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()

	// A non-negative delta against an absent key inserts it.
	err := p.PerformOneModification(UpdateLongBy(mkKey(1), 42))
	c.Assert(err, qt.IsNil)
	got, ok := p.UnauthenticatedLookup(mkKey(1))
	c.Assert(ok, qt.IsTrue)
	want := make(Value, testVL)
	want[testVL-1] = 42
	c.Assert(got, qt.DeepEquals, want)

	before := p.Digest()
	err = p.PerformOneModification(UpdateLongBy(mkKey(2), -1))
	c.Assert(err, qt.Equals, ErrNegativeDelta)
	c.Assert(p.Digest().Equal(before), qt.IsTrue)
}

func TestAVLBalanceInvariantUnderChurn(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	rng := rand.New(rand.NewSource(1))

	present := map[int]bool{}
	for i := 0; i < 500; i++ {
		k := rng.Intn(200)
		if present[k] {
			c.Assert(p.PerformOneModification(Remove(mkKey(k))), qt.IsNil)
			present[k] = false
		} else {
			c.Assert(p.PerformOneModification(Insert(mkKey(k), mkValue(k))), qt.IsNil)
			present[k] = true
		}
		c.Assert(p.CheckTree(), qt.IsNil)
		if i%50 == 0 {
			_ = p.GenerateProof()
		}
	}
}

func TestSortedLeafChain(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	order := []int{5, 1, 9, 3, 7, 2, 8, 0, 6, 4}
	for _, i := range order {
		c.Assert(p.PerformOneModification(Insert(mkKey(i), mkValue(i))), qt.IsNil)
	}

	var keys []Key
	var walk func(n *node)
	walk = func(n *node) {
		if n.isLeaf() {
			keys = append(keys, n.key)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(p.root)

	c.Assert(len(keys), qt.Equals, len(order)+1) // +1 for NegativeInfinity
	for i := 1; i < len(keys); i++ {
		c.Assert(KeyLess(keys[i-1], keys[i]), qt.IsTrue)
	}

	// nextLeafKey chains match the sorted order, terminated by PositiveInfinity.
	var leaves []*node
	var collect func(n *node)
	collect = func(n *node) {
		if n.isLeaf() {
			leaves = append(leaves, n)
			return
		}
		collect(n.left)
		collect(n.right)
	}
	collect(p.root)
	for i := 0; i < len(leaves)-1; i++ {
		c.Assert(bytesEqual(leaves[i].nextLeafKey, leaves[i+1].key), qt.IsTrue)
	}
	c.Assert(bytesEqual(leaves[len(leaves)-1].nextLeafKey, PositiveInfinity(testKL)), qt.IsTrue)
}

func TestRoundTripDigestUpdateLongByInsertsOnMissingKey(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	c.Assert(p.PerformOneModification(Insert(mkKey(1), mkValue(1))), qt.IsNil)
	_ = p.GenerateProof()

	start := p.Digest()
	mod := UpdateLongBy(mkKey(2), 7)
	c.Assert(p.PerformOneModification(mod), qt.IsNil)
	proof := p.GenerateProof()
	end := p.Digest()

	v := NewVerifier(start, proof, testKL, testVL, Blake3Hash{}, 1, 0)
	v.PerformOneModification(mod)
	got, ok := v.Digest()
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.Equal(end), qt.IsTrue)
}

func TestFailureDoesNotMutate(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	c.Assert(p.PerformOneModification(Insert(mkKey(1), mkValue(1))), qt.IsNil)
	_ = p.GenerateProof()

	before := p.Digest()

	err := p.PerformOneModification(Insert(mkKey(1), mkValue(99)))
	c.Assert(err, qt.Equals, ErrDuplicateKey)
	c.Assert(p.Digest().Equal(before), qt.IsTrue)

	err = p.PerformOneModification(Update(mkKey(2), mkValue(2)))
	c.Assert(err, qt.Equals, ErrMissingKey)
	c.Assert(p.Digest().Equal(before), qt.IsTrue)

	err = p.PerformOneModification(Remove(mkKey(2)))
	c.Assert(err, qt.Equals, ErrMissingKey)
	c.Assert(p.Digest().Equal(before), qt.IsTrue)
}

func TestLabelDeterminismAcrossInsertionOrder(t *testing.T) {
	c := qt.New(t)
	p1 := newTestProver()
	p2 := newTestProver()

	for _, i := range []int{1, 2, 3, 4, 5} {
		c.Assert(p1.PerformOneModification(Insert(mkKey(i), mkValue(i))), qt.IsNil)
	}
	for _, i := range []int{5, 4, 3, 2, 1} {
		c.Assert(p2.PerformOneModification(Insert(mkKey(i), mkValue(i))), qt.IsNil)
	}
	c.Assert(p1.Digest().Equal(p2.Digest()), qt.IsTrue)
}

// S1: zero-modification batch on an empty tree.
func TestScenarioZeroMods(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	start := p.Digest()
	proof := p.GenerateProof()

	v := NewVerifier(start, proof, testKL, testVL, Blake3Hash{}, 0, 0)
	got, ok := v.Digest()
	c.Assert(ok, qt.IsTrue)
	c.Assert(got.Equal(p.Digest()), qt.IsTrue)
}

// S3: a verifier given a too-small envelope rejects an over-large proof.
func TestScenarioRejectOverEnvelope(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	for i := 0; i < 50; i++ {
		c.Assert(p.PerformOneModification(Insert(mkKey(i), mkValue(i))), qt.IsNil)
	}
	proof := p.GenerateProof()

	// A too-small envelope must reject the proof before any replay.
	fresh := New(testKL, testVL, Blake3Hash{})
	v := NewVerifier(fresh.Digest(), proof, testKL, testVL, Blake3Hash{}, 2, 0)
	_, ok := v.Digest()
	c.Assert(ok, qt.IsFalse)
	c.Assert(v.Err(), qt.Equals, ErrProofTooLarge)
}

// S4: a verifier given the wrong starting digest rejects.
func TestScenarioRejectWrongStartingDigest(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	c.Assert(p.PerformOneModification(Insert(mkKey(1), mkValue(1))), qt.IsNil)
	proof := p.GenerateProof()

	wrongStart := make(Label, len(p.Digest()))
	copy(wrongStart, p.Digest())
	wrongStart[0] ^= 0xFF

	v := NewVerifier(wrongStart, proof, testKL, testVL, Blake3Hash{}, 1, 0)
	_, ok := v.Digest()
	c.Assert(ok, qt.IsFalse)
	c.Assert(v.Err(), qt.Equals, ErrDigestMismatch)
}

// S2: flipping the proof's final byte causes verification to fail
// (either a malformed bitstream read or a digest mismatch).
func TestScenarioCorruptedProofFails(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	start := p.Digest()
	c.Assert(p.PerformOneModification(Insert(mkKey(1), mkValue(1))), qt.IsNil)
	proof := p.GenerateProof()

	corrupt := make([]byte, len(proof))
	copy(corrupt, proof)
	corrupt[len(corrupt)-1] ^= 0x01

	v := NewVerifier(start, corrupt, testKL, testVL, Blake3Hash{}, 1, 0)
	v.PerformOneModification(Insert(mkKey(1), mkValue(1)))
	_, ok := v.Digest()
	c.Assert(ok, qt.IsFalse)
}

// S5: a bulk soak of 5000 random modifications, mixing insert/update/
// remove/remove-if-exists with roughly 10% intentionally-failing
// operations (duplicate inserts, updates/removes of absent keys) that
// must leave the tree byte-identical to its pre-call digest, checking
// that the live key set always matches an independent reference map and
// that every generated proof verifies.
func TestScenarioBulkSoak(t *testing.T) {
	c := qt.New(t)
	p := newTestProver()
	rng := rand.New(rand.NewSource(42))

	reference := map[int]int{} // key index -> value index
	const n = 5000
	const space = 300
	const failureRate = 10 // ~10% of iterations attempt a known-failing op

	digest := p.Digest()
	var batch []Modification
	var inserts, deletes int

	flush := func() {
		if len(batch) == 0 {
			return
		}
		proof := p.GenerateProof()
		end := p.Digest()
		v := NewVerifier(digest, proof, testKL, testVL, Blake3Hash{}, inserts, deletes)
		for _, m := range batch {
			v.PerformOneModification(m)
		}
		got, ok := v.Digest()
		c.Assert(ok, qt.IsTrue)
		c.Assert(got.Equal(end), qt.IsTrue)
		digest = end
		batch = nil
		inserts, deletes = 0, 0
	}

	for i := 0; i < n; i++ {
		k := rng.Intn(space)
		_, exists := reference[k]

		if rng.Intn(100) < failureRate {
			// Intentionally pick an operation known to fail against the
			// current state of k, and confirm it leaves the tree untouched
			// without disturbing the in-flight batch's envelope counts.
			before := p.Digest()
			var mod Modification
			var wantErr error
			if exists {
				mod, wantErr = Insert(mkKey(k), mkValue(i)), ErrDuplicateKey
			} else {
				mod, wantErr = Update(mkKey(k), mkValue(i)), ErrMissingKey
			}
			err := p.PerformOneModification(mod)
			c.Assert(err, qt.Equals, wantErr)
			c.Assert(p.Digest().Equal(before), qt.IsTrue)
			continue
		}

		switch rng.Intn(4) {
		case 0: // insert
			if exists {
				continue
			}
			c.Assert(p.PerformOneModification(Insert(mkKey(k), mkValue(i))), qt.IsNil)
			reference[k] = i
			batch = append(batch, Insert(mkKey(k), mkValue(i)))
			inserts++
		case 1: // update
			if !exists {
				continue
			}
			c.Assert(p.PerformOneModification(Update(mkKey(k), mkValue(i))), qt.IsNil)
			reference[k] = i
			batch = append(batch, Update(mkKey(k), mkValue(i)))
		case 2: // remove
			if !exists {
				continue
			}
			c.Assert(p.PerformOneModification(Remove(mkKey(k))), qt.IsNil)
			delete(reference, k)
			batch = append(batch, Remove(mkKey(k)))
			deletes++
		case 3: // remove-if-exists, including absent keys (true no-ops)
			c.Assert(p.PerformOneModification(RemoveIfExists(mkKey(k))), qt.IsNil)
			if exists {
				delete(reference, k)
				deletes++
			}
			batch = append(batch, RemoveIfExists(mkKey(k)))
		}
		if i%37 == 0 {
			flush()
		}
	}
	flush()

	for k, vi := range reference {
		got, ok := p.UnauthenticatedLookup(mkKey(k))
		c.Assert(ok, qt.IsTrue)
		c.Assert(got, qt.DeepEquals, mkValue(vi))
	}
	c.Assert(p.CheckTree(), qt.IsNil)
}
