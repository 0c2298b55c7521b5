package callgraphdb

import (
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
)

// Options configure a database.
type Options struct {
	// Compression is used for graph payloads when Codec is nil.
	Compression cgraph.Compression

	// EngineCompression enables snappy block compression of the underlying store.
	EngineCompression bool

	// BlockCacheCapacity is the size of the block cache of the underlying store in bytes.
	// Zero uses the store default.
	BlockCacheCapacity int

	// ReadOnly opens an existing database without permitting writes.
	ReadOnly bool

	// ScratchDir holds temporary files written while saving.
	// Empty means the default directory for temporary files.
	ScratchDir string

	Permuter cgraph.Permuter // defaults to cgraph.BFS
	Codec    cgraph.Codec    // defaults to a cgraph.GapCodec using Compression

	// Status receives logs and stage timings, and may be nil.
	// Stage timings are only meaningful if operations on the database do not overlap.
	Status *status.Status
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Compression:       cgraph.CompressionZstd,
		EngineCompression: true,
		Permuter:          cgraph.BFS{},
	}
}

func (options Options) permuter() cgraph.Permuter {
	if options.Permuter == nil {
		return cgraph.BFS{}
	}
	return options.Permuter
}

func (options Options) codec() cgraph.Codec {
	if options.Codec == nil {
		return cgraph.GapCodec{Compression: options.Compression}
	}
	return options.Codec
}
