package store

//spellchecker:words goleveldb leveldb keyspace

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

// keyspace is the handle through which records are read and written.
// Record keys are stored as they are, so keys on disk are exactly [KeyLen] bytes.
//
// A keyspace is released before its database is closed.
type keyspace struct {
	db *leveldb.DB
}

func (ks *keyspace) put(key, value []byte) error {
	if err := ks.db.Put(key, value, nil); err != nil {
		return fmt.Errorf("failed to put value: %w", err)
	}
	return nil
}

// get returns the value for key, or an error wrapping leveldb.ErrNotFound.
func (ks *keyspace) get(key []byte) ([]byte, error) {
	value, err := ks.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}
	return value, nil
}

func (ks *keyspace) has(key []byte) (bool, error) {
	ok, err := ks.db.Has(key, nil)
	if err != nil {
		return false, fmt.Errorf("failed to check database for key: %w", err)
	}
	return ok, nil
}

func (ks *keyspace) delete(key []byte) error {
	if err := ks.db.Delete(key, nil); err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// iterate calls f for every index in the keyspace.
// Keys that do not decode as an index are skipped.
func (ks *keyspace) iterate(f func(index int64) error) error {
	it := ks.db.NewIterator(nil, nil)
	defer it.Release()

	for it.Next() {
		index, ok := Index(it.Key())
		if !ok {
			continue
		}
		if err := f(index); err != nil {
			return err
		}
	}
	if err := it.Error(); err != nil {
		return fmt.Errorf("failed to iterate database: %w", err)
	}
	return nil
}

// close releases the keyspace.
// The database itself remains open.
func (ks *keyspace) close() {
	ks.db = nil
}
