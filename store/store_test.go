package store

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/reyzin/scrypto/avl"
)

const (
	testKL = 8
	testVL = 8
)

func mkKey(i int) avl.Key {
	k := make(avl.Key, testKL)
	k[0] = 0x01
	k[testKL-1] = byte(i)
	return k
}

func mkValue(i int) avl.Value {
	v := make(avl.Value, testVL)
	v[testVL-1] = byte(i)
	return v
}

// S6: rollback persistence across both an explicit rollback and a fresh
// persistent prover opened on the same store.
func TestRollbackPersistence(t *testing.T) {
	c := qt.New(t)
	backend := NewMemoryBackend()

	pp, err := NewPersistentProver(backend, testKL, testVL, avl.Blake3Hash{})
	c.Assert(err, qt.IsNil)

	c.Assert(pp.PerformOneModification(avl.Insert(mkKey(1), mkValue(1))), qt.IsNil)
	_, err = pp.GenerateProof()
	c.Assert(err, qt.IsNil)
	snapshot := pp.Digest()
	version := pp.Version()

	c.Assert(pp.PerformOneModification(avl.Insert(mkKey(2), mkValue(2))), qt.IsNil)
	_, err = pp.GenerateProof()
	c.Assert(err, qt.IsNil)
	c.Assert(pp.Digest().Equal(snapshot), qt.IsFalse)

	c.Assert(pp.Rollback(version), qt.IsNil)
	c.Assert(pp.Digest().Equal(snapshot), qt.IsTrue)

	// Rollback moves the store's version pointer back to version, so a
	// freshly opened persistent prover on the same backend also resumes
	// from the rolled-back digest.
	reopened, err := NewPersistentProver(backend, testKL, testVL, avl.Blake3Hash{})
	c.Assert(err, qt.IsNil)
	c.Assert(reopened.Digest().Equal(snapshot), qt.IsTrue)

	got, ok := reopened.UnauthenticatedLookup(mkKey(1))
	c.Assert(ok, qt.IsTrue)
	c.Assert(got, qt.DeepEquals, mkValue(1))
	got, ok = reopened.UnauthenticatedLookup(mkKey(2))
	c.Assert(ok, qt.IsFalse)
	c.Assert(got, qt.IsNil)
}

func TestNonEmptyAndVersion(t *testing.T) {
	c := qt.New(t)
	backend := NewMemoryBackend()
	s := New(backend, testKL, testVL, avl.Blake3Hash{})
	c.Assert(s.NonEmpty(), qt.IsFalse)
	c.Assert(s.Version(), qt.IsNil)

	p := avl.New(testKL, testVL, avl.Blake3Hash{})
	c.Assert(p.PerformOneModification(avl.Insert(mkKey(1), mkValue(1))), qt.IsNil)
	c.Assert(s.Update(p), qt.IsNil)
	_ = p.GenerateProof()

	c.Assert(s.NonEmpty(), qt.IsTrue)
	c.Assert(s.Version(), qt.DeepEquals, p.Digest().Bytes())
}

func TestMemoryBackendGetSet(t *testing.T) {
	c := qt.New(t)
	b := NewMemoryBackend()
	_, err := b.Get([]byte("missing"))
	c.Assert(err, qt.Equals, ErrNotFound)

	c.Assert(b.Set([]byte("k"), []byte("v")), qt.IsNil)
	got, err := b.Get([]byte("k"))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []byte("v"))
}
