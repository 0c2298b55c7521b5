package cgraph

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mutable is a graph that arcs can be added to.
// Successor sets are stored as roaring bitmaps, allocated on the first arc out of a node.
//
// A Mutable may not be modified concurrently.
type Mutable struct {
	succ []*roaring.Bitmap
	arcs int64
}

// NewMutable creates a new mutable graph with n nodes and no arcs.
func NewMutable(n int) *Mutable {
	return &Mutable{succ: make([]*roaring.Bitmap, n)}
}

// AddArc adds an arc from source to target.
//
// If either endpoint is not a node of this graph, returns an error wrapping [ErrNodeRange].
// If the arc already exists, the graph is unchanged and an error wrapping [ErrDuplicateArc] is returned.
func (m *Mutable) AddArc(source, target int) error {
	n := len(m.succ)
	if source < 0 || source >= n || target < 0 || target >= n {
		return fmt.Errorf("%w: arc (%d -> %d) in graph with %d nodes", ErrNodeRange, source, target, n)
	}

	if m.succ[source] == nil {
		m.succ[source] = roaring.New()
	}
	if !m.succ[source].CheckedAdd(uint32(target)) {
		return fmt.Errorf("%w: (%d -> %d)", ErrDuplicateArc, source, target)
	}
	m.arcs++
	return nil
}

func (m *Mutable) NumNodes() int {
	return len(m.succ)
}

func (m *Mutable) NumArcs() int64 {
	return m.arcs
}

// Successors returns a freshly allocated list of successors of node.
func (m *Mutable) Successors(node int) []uint32 {
	if m.succ[node] == nil {
		return nil
	}
	return m.succ[node].ToArray()
}

func (m *Mutable) Outdegree(node int) int {
	if m.succ[node] == nil {
		return 0
	}
	return int(m.succ[node].GetCardinality())
}
