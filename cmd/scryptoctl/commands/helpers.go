package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/reyzin/scrypto/avl"
	"github.com/reyzin/scrypto/store"
)

func hashFunction() (avl.HashFunction, error) {
	switch cfg.HashFunc {
	case "blake3", "":
		return avl.Blake3Hash{}, nil
	case "sha256":
		return avl.Sha256Hash{}, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", cfg.HashFunc)
	}
}

// openProver opens the Badger-backed store at cfg.DBPath and wraps it in
// a PersistentProver, rolling back to the last committed version if any.
func openProver() (*store.PersistentProver, *store.BadgerBackend, error) {
	hf, err := hashFunction()
	if err != nil {
		return nil, nil, err
	}
	backend, err := store.NewBadgerBackend(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	pp, err := store.NewPersistentProver(backend, cfg.KeyLength, cfg.ValueLength, hf)
	if err != nil {
		_ = backend.Close()
		return nil, nil, fmt.Errorf("rebuilding prover: %w", err)
	}
	return pp, backend, nil
}

// parseFixedHex decodes a hex string into a byte slice of exactly n
// bytes, left-padding with zeros if the caller passed a shorter value.
func parseFixedHex(s string, n int) (avl.Key, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	if len(raw) > n {
		return nil, fmt.Errorf("value %q is longer than %d bytes", s, n)
	}
	out := make([]byte, n)
	copy(out[n-len(raw):], raw)
	return out, nil
}
