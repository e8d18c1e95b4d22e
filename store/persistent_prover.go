package store

import (
	"github.com/reyzin/scrypto/avl"
	"github.com/reyzin/scrypto/log"
)

// PersistentProver ties an avl.Prover to a VersionedStore per spec.md
// §4.5: construction rolls back to the store's current version if one
// exists, and GenerateProof flushes the batch's new nodes before
// producing the proof bytes, so a crash between the two never leaves
// the store pointing at an unreachable digest.
type PersistentProver struct {
	store  *VersionedStore
	prover *avl.Prover
}

// NewPersistentProver opens a PersistentProver over backend. If backend
// already holds a version, the prover starts from it; otherwise it
// starts from the empty tree.
func NewPersistentProver(backend Backend, kl, vl int, hf avl.HashFunction) (*PersistentProver, error) {
	s := New(backend, kl, vl, hf)
	if s.NonEmpty() {
		p, err := s.Rollback(s.Version())
		if err != nil {
			return nil, err
		}
		p.SetLogger(log.Logger().Desugar())
		return &PersistentProver{store: s, prover: p}, nil
	}
	p := avl.New(kl, vl, hf)
	p.SetLogger(log.Logger().Desugar())
	return &PersistentProver{store: s, prover: p}, nil
}

// PerformOneModification applies m to the current batch.
func (pp *PersistentProver) PerformOneModification(m avl.Modification) error {
	return pp.prover.PerformOneModification(m)
}

// GenerateProof flushes the batch's new nodes to the store, advances
// the store's version pointer, and returns the proof bytes for the
// batch. A failure to flush leaves the in-memory prover's batch state
// untouched, so the caller may retry.
func (pp *PersistentProver) GenerateProof() ([]byte, error) {
	if err := pp.store.Update(pp.prover); err != nil {
		return nil, err
	}
	return pp.prover.GenerateProof(), nil
}

// Digest returns the prover's current root label.
func (pp *PersistentProver) Digest() avl.Label {
	return pp.prover.Digest()
}

// UnauthenticatedLookup delegates to the wrapped prover.
func (pp *PersistentProver) UnauthenticatedLookup(k avl.Key) (avl.Value, bool) {
	return pp.prover.UnauthenticatedLookup(k)
}

// Stats delegates to the wrapped prover.
func (pp *PersistentProver) Stats() avl.Stats {
	return pp.prover.Stats()
}

// Rollback discards the in-memory prover and replaces it with one
// rebuilt from the snapshot identified by version.
func (pp *PersistentProver) Rollback(version []byte) error {
	p, err := pp.store.Rollback(version)
	if err != nil {
		return err
	}
	p.SetLogger(log.Logger().Desugar())
	pp.prover = p
	return nil
}

// Version returns the store's current committed root digest.
func (pp *PersistentProver) Version() []byte {
	return pp.store.Version()
}
