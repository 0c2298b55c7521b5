// Package store provides Store, which persists binary records under numeric keys in a leveldb database.
package store

//spellchecker:words goleveldb leveldb keyspace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// KeyLen is the length of an encoded key.
const KeyLen = 8

var (
	// ErrNotFound is returned by Get when no record exists for the given index.
	ErrNotFound = errors.New("record not found")

	// ErrClosed is returned when a store is used after it has been closed.
	ErrClosed = errors.New("store is closed")
)

// Options configure the leveldb database of a store.
type Options struct {
	// Snappy enables snappy block compression of the database.
	Snappy bool

	// BlockCacheCapacity is the capacity of the block cache in bytes.
	// Zero uses the leveldb default.
	BlockCacheCapacity int

	// ReadOnly opens the database in read-only mode.
	ReadOnly bool
}

func (options Options) leveldb() *opt.Options {
	o := &opt.Options{
		Compression:        opt.NoCompression,
		BlockCacheCapacity: options.BlockCacheCapacity,
		ReadOnly:           options.ReadOnly,
		ErrorIfMissing:     options.ReadOnly,
	}
	if options.Snappy {
		o.Compression = opt.SnappyCompression
	}
	return o
}

// Store holds records in a leveldb database, keyed by their int64 index.
//
// Store may be used concurrently.
// Every Put is a single write, so concurrent readers observe either the old or the new record.
type Store struct {
	m sync.RWMutex // protects db and records being closed

	db      *leveldb.DB
	records *keyspace
}

// Open opens the store in the given directory, creating it if it does not exist.
func Open(path string, options Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, options.leveldb())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Store{
		db:      db,
		records: &keyspace{db: db},
	}, nil
}

// Key encodes index as a fixed width big endian key.
func Key(index int64) []byte {
	return binary.BigEndian.AppendUint64(make([]byte, 0, KeyLen), uint64(index))
}

// Index decodes a key produced by [Key].
func Index(key []byte) (int64, bool) {
	if len(key) != KeyLen {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(key)), true
}

// Put stores blob under index, replacing any previous value.
func (store *Store) Put(index int64, blob []byte) error {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.records == nil {
		return ErrClosed
	}
	return store.records.put(Key(index), blob)
}

// Get returns the blob stored under index.
// If no blob exists, returns an error wrapping [ErrNotFound].
// A blob stored empty is returned as a non-nil empty slice.
func (store *Store) Get(index int64) ([]byte, error) {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.records == nil {
		return nil, ErrClosed
	}

	blob, err := store.records.get(Key(index))
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	if err != nil {
		return nil, err
	}
	if blob == nil {
		blob = []byte{}
	}
	return blob, nil
}

// Has checks if a blob is stored under index.
func (store *Store) Has(index int64) (bool, error) {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.records == nil {
		return false, ErrClosed
	}
	return store.records.has(Key(index))
}

// Delete removes the blob stored under index, if any.
func (store *Store) Delete(index int64) error {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.records == nil {
		return ErrClosed
	}
	return store.records.delete(Key(index))
}

// Iterate calls f with every stored index in ascending order of keys.
// Because keys are big endian encodings, negative indexes come after all non-negative ones.
//
// When f returns a non-nil error, iteration stops and the error is returned.
func (store *Store) Iterate(f func(index int64) error) error {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.records == nil {
		return ErrClosed
	}
	return store.records.iterate(f)
}

// Compact compacts the underlying database.
func (store *Store) Compact() error {
	store.m.RLock()
	defer store.m.RUnlock()

	if store.db == nil {
		return ErrClosed
	}
	if err := store.db.CompactRange(util.Range{}); err != nil {
		return fmt.Errorf("failed to compact database: %w", err)
	}
	return nil
}

// Close closes the records keyspace and then the database.
//
// Calling Close multiple times results in err = nil.
func (store *Store) Close() error {
	store.m.Lock()
	defer store.m.Unlock()

	if store.records != nil {
		store.records.close()
		store.records = nil
	}
	if store.db == nil {
		return nil
	}

	err := store.db.Close()
	store.db = nil
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
