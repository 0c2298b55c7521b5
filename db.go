// Package callgraphdb persists large call graphs in an embedded key-value store.
//
// A call graph is saved under a numeric index.
// Nodes are renumbered for compression, and both the forward and the transposed graph are stored
// along with tables to translate between global and local node ids.
// The most recently loaded graph is cached until the garbage collector reclaims it.
package callgraphdb

//spellchecker:words errgroup

import (
	"errors"
	"fmt"

	"github.com/FAU-CDI/callgraphdb/internal/assemble"
	"github.com/FAU-CDI/callgraphdb/internal/cache"
	"github.com/FAU-CDI/callgraphdb/internal/record"
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/FAU-CDI/callgraphdb/internal/store"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/FAU-CDI/callgraphdb/pkg/idmap"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"
)

// DB is a database of call graphs.
//
// A DB may be used concurrently.
type DB struct {
	store     *store.Store
	assembler assemble.Assembler
	codec     cgraph.Codec
	status    *status.Status

	cache cache.Slot[CallGraphData]
}

// Open opens the database in the given directory, creating it if needed.
func Open(path string, options Options) (*DB, error) {
	s, err := store.Open(path, store.Options{
		Snappy:             options.EngineCompression,
		BlockCacheCapacity: options.BlockCacheCapacity,
		ReadOnly:           options.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	codec := options.codec()
	return &DB{
		store: s,
		assembler: assemble.Assembler{
			Codec:      codec,
			Permuter:   options.permuter(),
			ScratchDir: options.ScratchDir,
			Status:     options.Status,
		},
		codec:  codec,
		status: options.Status,
	}, nil
}

// Close closes the database.
// Calling Close more than once is a no-op.
func (db *DB) Close() error {
	db.cache.Invalidate()
	return storeError(db.store.Close())
}

// Save saves a call graph under the given index, replacing any previous graph.
//
// nodes holds the global ids of the nodes, the first numInternal of which are internal.
// edges holds arcs as pairs of positions in nodes.
// Duplicate edges are logged and stored only once.
//
// Returns an error wrapping [ErrInvalidGraph] if an edge does not refer to a node or numInternal is out of range,
// [ErrEncode] if the graph could not be encoded and [ErrStore] if it could not be written.
func (db *DB) Save(index int64, nodes []GID, numInternal int, edges [][2]int) error {
	rec, err := db.assembler.Assemble(nodes, numInternal, edges)
	if errors.Is(err, ErrInvalidGraph) {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	var blob []byte
	if err := db.status.DoStage(status.StageRecordEncode, func() (err error) {
		blob, err = record.Encode(rec)
		return err
	}); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	if err := db.status.DoStage(status.StageStorePut, func() error {
		return db.store.Put(index, blob)
	}); err != nil {
		return storeError(err)
	}
	db.cache.InvalidateIndex(index)

	db.status.Log("saved call graph", "index", index, "nodes", len(nodes), "size", humanize.Bytes(uint64(len(blob))))
	return nil
}

// Load loads the call graph stored under index, and marks the first numInternal nodes as internal.
//
// If the graph is cached, it is returned without accessing the store.
// Returns an error wrapping [ErrNotFound] if no graph is stored under index,
// and [ErrDecode] if the stored graph is corrupt.
func (db *DB) Load(index int64, numInternal int) (*CallGraphData, error) {
	if numInternal < 0 {
		return nil, fmt.Errorf("%w: negative number of internal nodes %d", ErrInvalidGraph, numInternal)
	}

	return db.cache.Get(cache.Key{Index: index, NumInternal: numInternal}, func() (*CallGraphData, error) {
		return db.load(index, numInternal)
	})
}

// load implements Load without any caching.
func (db *DB) load(index int64, numInternal int) (*CallGraphData, error) {
	// a missing graph is not a failure of the stage
	db.status.Start(status.StageStoreGet)
	blob, err := db.store.Get(index)
	db.status.End()

	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: index %d", ErrNotFound, index)
	}
	if err != nil {
		return nil, storeError(err)
	}

	var rec record.Record
	if err := db.status.DoStage(status.StageRecordDecode, func() (err error) {
		rec, err = record.Decode(blob)
		return err
	}); err != nil {
		return nil, fmt.Errorf("%w: index %d: %w", ErrDecode, index, err)
	}

	data := &CallGraphData{
		ForwardProperties:   rec.ForwardProperties,
		TransposeProperties: rec.TransposeProperties,
		LID2GID:             rec.LID2GID,
		GID2LID:             rec.GID2LID,
		NumInternal:         numInternal,
	}

	if err := db.status.DoStage(status.StageGraphDecode, func() error {
		var eg errgroup.Group
		eg.Go(func() (err error) {
			data.Forward, err = db.codec.Decode(rec.Forward)
			return err
		})
		eg.Go(func() (err error) {
			data.Transpose, err = db.codec.Decode(rec.Transpose)
			return err
		})
		return eg.Wait()
	}); err != nil {
		return nil, fmt.Errorf("%w: index %d: %w", ErrDecode, index, err)
	}

	if err := check(data); err != nil {
		return nil, fmt.Errorf("%w: index %d: %w", ErrDecode, index, err)
	}
	if numInternal > data.NumNodes() {
		return nil, fmt.Errorf("%w: %d internal nodes for %d nodes", ErrInvalidGraph, numInternal, data.NumNodes())
	}

	return data, nil
}

// check checks that the parts of data are consistent with each other.
func check(data *CallGraphData) error {
	n := data.NumNodes()
	if data.Forward.NumNodes() != n || data.Transpose.NumNodes() != n {
		return fmt.Errorf("graphs have %d and %d nodes, but there are %d global ids", data.Forward.NumNodes(), data.Transpose.NumNodes(), n)
	}
	if data.Forward.NumArcs() != data.Transpose.NumArcs() {
		return fmt.Errorf("graph has %d arcs, but transpose has %d", data.Forward.NumArcs(), data.Transpose.NumArcs())
	}
	return idmap.Table{GIDs: data.LID2GID, Reverse: data.GID2LID}.Check()
}

// Has checks if a call graph is stored under index.
func (db *DB) Has(index int64) (bool, error) {
	ok, err := db.store.Has(index)
	return ok, storeError(err)
}

// Delete removes the call graph stored under index, if any.
func (db *DB) Delete(index int64) error {
	if err := db.store.Delete(index); err != nil {
		return storeError(err)
	}
	db.cache.InvalidateIndex(index)
	return nil
}

// Indexes returns the indexes of all stored call graphs.
// Non-negative indexes are returned in ascending order, followed by negative indexes in ascending order.
func (db *DB) Indexes() ([]int64, error) {
	var indexes []int64
	err := db.store.Iterate(func(index int64) error {
		indexes = append(indexes, index)
		return nil
	})
	if err != nil {
		return nil, storeError(err)
	}
	return indexes, nil
}

// Compact compacts the underlying store.
func (db *DB) Compact() error {
	return storeError(db.store.Compact())
}

// Stats holds the number of cache hits and misses.
type Stats = cache.Stats

// CacheStats returns the number of cache hits and misses of Load.
func (db *DB) CacheStats() Stats {
	return db.cache.Stats()
}
