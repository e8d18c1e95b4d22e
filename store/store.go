package store

import (
	"github.com/reyzin/scrypto/avl"
	"github.com/reyzin/scrypto/log"
)

const versionKey = "version"

// VersionedStore is the persistence collaborator of spec.md §4.5: a
// content-addressed snapshot of every node a batch touches, plus a
// single pointer advancing to the post-batch digest on each successful
// update.
type VersionedStore struct {
	backend Backend
	kl, vl  int
	hf      avl.HashFunction
}

// New wraps backend as a VersionedStore for KL/VL-shaped trees hashed
// with hf.
func New(backend Backend, kl, vl int, hf avl.HashFunction) *VersionedStore {
	return &VersionedStore{backend: backend, kl: kl, vl: vl, hf: hf}
}

// NonEmpty reports whether any version has ever been committed.
func (s *VersionedStore) NonEmpty() bool {
	_, err := s.backend.Get([]byte(versionKey))
	return err == nil
}

// Version returns the current committed root Label (digest||height,
// the same shape avl.Prover.Digest returns), or nil if NonEmpty is
// false.
func (s *VersionedStore) Version() []byte {
	v, err := s.backend.Get([]byte(versionKey))
	if err != nil {
		return nil
	}
	return v
}

// Update snapshots every node p created or cloned during its current
// batch and advances the store's version pointer to p's new root
// digest. It must run before p.GenerateProof, which clears the
// new-node bookkeeping Update relies on.
func (s *VersionedStore) Update(p *avl.Prover) error {
	log.Debugf("flushing new nodes for digest %x", p.Digest().Bytes())
	var writeErr error
	var written int
	p.WalkNew(func(digest, encoded []byte) {
		if writeErr != nil {
			return
		}
		if writeErr = s.backend.Set(nodeKey(digest), encoded); writeErr == nil {
			written++
		}
	})
	if writeErr != nil {
		log.Errorf("persisting node snapshot: %v", writeErr)
		return writeErr
	}
	if err := s.backend.Set([]byte(versionKey), p.Digest().Bytes()); err != nil {
		log.Errorf("persisting version pointer: %v", err)
		return err
	}
	log.Debugf("wrote %d new nodes, version now %x", written, p.Digest().Bytes())
	return nil
}

// Rollback rebuilds a prover whose root is the snapshot identified by
// version (a Label previously returned by Version or avl.Prover.Digest
// — digest||height, not a bare digest) and moves the store's version
// pointer back to it, so a subsequent Rollback-free reopen of a
// PersistentProver on this backend resumes from version rather than
// whatever digest Update last committed.
func (s *VersionedStore) Rollback(version []byte) (*avl.Prover, error) {
	rootDigest := avl.Label(version).Digest()
	p, err := avl.FromSnapshot(s.kl, s.vl, s.hf, rootDigest, func(digest []byte) ([]byte, error) {
		return s.backend.Get(nodeKey(digest))
	})
	if err != nil {
		log.Errorf("rolling back to %x: %v", version, err)
		return nil, err
	}
	if err := s.backend.Set([]byte(versionKey), version); err != nil {
		log.Errorf("persisting rolled-back version pointer: %v", err)
		return nil, err
	}
	log.Debugf("rolled back to %x", version)
	return p, nil
}

// nodeKey namespaces node snapshots away from the version pointer.
func nodeKey(digest []byte) []byte {
	out := make([]byte, len(digest)+1)
	out[0] = 'n'
	copy(out[1:], digest)
	return out
}
