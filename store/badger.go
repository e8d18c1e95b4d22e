package store

import (
	"errors"
	"os"

	badger "github.com/dgraph-io/badger/v3"
)

// MemTableSize mirrors the teacher's badgerdb backend: the default
// (64<<20) does not leave enough headroom for large batched writes.
const MemTableSize = 128 << 20

// BadgerBackend is a Backend backed by a single BadgerDB instance
// (github.com/dgraph-io/badger/v3), grounded on the teacher's
// db/badgerdb package.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (creating if necessary) a BadgerDB at path.
func NewBadgerBackend(path string) (*BadgerBackend, error) {
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, err
	}
	opts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithSyncWrites(false).
		WithCompression(0)
	opts.MemTableSize = MemTableSize

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerBackend{db: db}, nil
}

// Get implements Backend.
func (b *BadgerBackend) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set implements Backend.
func (b *BadgerBackend) Set(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Close implements Backend.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}
