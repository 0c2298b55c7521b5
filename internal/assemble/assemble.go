// Package assemble turns raw call graphs into records.
package assemble

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FAU-CDI/callgraphdb/internal/record"
	"github.com/FAU-CDI/callgraphdb/internal/status"
	"github.com/FAU-CDI/callgraphdb/pkg/cgraph"
	"github.com/FAU-CDI/callgraphdb/pkg/idmap"
	"github.com/dustin/go-humanize"
)

// ErrInvalidGraph indicates that the caller passed a graph that cannot be assembled.
var ErrInvalidGraph = errors.New("invalid graph")

// Assembler assembles raw call graphs into records.
type Assembler struct {
	Codec    cgraph.Codec    // compresses graphs
	Permuter cgraph.Permuter // renumbers nodes before compression

	// ScratchDir is the directory to create temporary files in.
	// If empty, uses the default directory for temporary files.
	ScratchDir string

	Status *status.Status
}

// Assemble builds a record from a raw call graph.
//
// nodes holds the global ids of all nodes, the first numInternal of which are internal.
// edges holds arcs between positions in nodes.
// Duplicate arcs are logged and otherwise ignored.
func (asm Assembler) Assemble(nodes []idmap.GID, numInternal int, edges [][2]int) (rec record.Record, err error) {
	ingest, err := idmap.Ingest(nodes, numInternal)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrInvalidGraph, err)
	}

	var g *cgraph.Mutable
	if err := asm.Status.DoStage(status.StageAssemble, func() error {
		g, err = asm.build(ingest.Len(), edges)
		return err
	}); err != nil {
		return rec, err
	}

	var perm []int
	if err := asm.Status.DoStage(status.StagePermute, func() error {
		perm, err = asm.permutation(g, numInternal)
		return err
	}); err != nil {
		return rec, err
	}

	local, err := ingest.Permute(perm)
	if err != nil {
		return rec, err
	}

	forward, err := cgraph.Map(g, perm)
	if err != nil {
		return rec, fmt.Errorf("failed to renumber graph: %w", err)
	}

	scratch, err := os.MkdirTemp(asm.ScratchDir, "callgraphdb-*")
	if err != nil {
		return rec, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			asm.Status.LogError("remove scratch directory", err, "path", scratch)
		}
	}()

	if err := asm.Status.DoStage(status.StageCompressForward, func() error {
		rec.Forward, rec.ForwardProperties, err = asm.compress(forward, filepath.Join(scratch, "forward"))
		return err
	}); err != nil {
		return record.Record{}, err
	}

	if err := asm.Status.DoStage(status.StageCompressTranspose, func() error {
		rec.Transpose, rec.TransposeProperties, err = asm.compress(cgraph.Transpose(forward), filepath.Join(scratch, "transpose"))
		return err
	}); err != nil {
		return record.Record{}, err
	}

	rec.LID2GID = local.GIDs
	rec.GID2LID = local.Reverse

	asm.Status.Log(
		"assembled call graph",
		"nodes", forward.NumNodes(),
		"arcs", forward.NumArcs(),
		"forward", humanize.Bytes(uint64(len(rec.Forward))),
		"transpose", humanize.Bytes(uint64(len(rec.Transpose))),
	)
	return rec, nil
}

// build creates a graph with n nodes from the given edges.
func (asm Assembler) build(n int, edges [][2]int) (*cgraph.Mutable, error) {
	g := cgraph.NewMutable(n)
	for i, edge := range edges {
		err := g.AddArc(edge[0], edge[1])
		switch {
		case err == nil:
		case errors.Is(err, cgraph.ErrDuplicateArc):
			asm.Status.LogError("duplicate arc", err, "source", edge[0], "target", edge[1])
		default:
			return nil, fmt.Errorf("%w: edge %d: %w", ErrInvalidGraph, i, err)
		}

		if i%(1<<20) == 0 {
			asm.Status.SetCT(i, len(edges))
		}
	}
	asm.Status.SetCT(len(edges), len(edges))
	return g, nil
}

// permutation computes a permutation of g and checks that it keeps internal nodes below the boundary.
func (asm Assembler) permutation(g cgraph.Graph, boundary int) ([]int, error) {
	perm, err := asm.Permuter.Permutation(g, boundary)
	if err != nil {
		return nil, fmt.Errorf("failed to compute permutation: %w", err)
	}
	if err := idmap.ValidatePermutation(perm, g.NumNodes()); err != nil {
		return nil, err
	}
	for x, target := range perm {
		if (x < boundary) != (target < boundary) {
			return nil, fmt.Errorf("%w: permutation moves node %d to %d across boundary %d", ErrInvalidGraph, x, target, boundary)
		}
	}
	return perm, nil
}

// compress stores g with the codec under basename, and reads back the resulting bytes and properties.
func (asm Assembler) compress(g cgraph.Graph, basename string) ([]byte, cgraph.Properties, error) {
	if err := asm.Codec.Store(g, basename); err != nil {
		return nil, nil, fmt.Errorf("failed to compress graph: %w", err)
	}

	data, err := os.ReadFile(basename + cgraph.GraphExtension)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read compressed graph: %w", err)
	}

	props, err := cgraph.LoadProperties(basename + cgraph.PropertiesExtension)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read graph properties: %w", err)
	}

	return data, props, nil
}
