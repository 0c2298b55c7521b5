// Package cgraph provides directed graphs over dense node numbers, along with the
// transformations needed to store them compactly.
//
// Nodes of a graph with n nodes are the numbers [0, n).
// Successor lists are always sorted in ascending order and free of duplicates.
package cgraph

// cspell:words cgraph

import "errors"

// Graph is an immutable directed graph.
type Graph interface {
	// NumNodes returns the number of nodes of this graph.
	NumNodes() int

	// NumArcs returns the number of arcs of this graph.
	NumArcs() int64

	// Successors returns the successors of node in ascending order.
	// The caller must not modify the returned slice.
	Successors(node int) []uint32

	// Outdegree returns the number of successors of node.
	Outdegree(node int) int
}

var (
	ErrNodeRange    = errors.New("node out of range")
	ErrDuplicateArc = errors.New("duplicate arc")
	ErrBoundary     = errors.New("boundary out of range")
)

// Arcs calls f for each arc of g, in lexicographic order.
// When f returns a non-nil error, iteration stops and the error is returned.
func Arcs(g Graph, f func(source, target int) error) error {
	n := g.NumNodes()
	for source := 0; source < n; source++ {
		for _, target := range g.Successors(source) {
			if err := f(source, int(target)); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasArc checks if g contains an arc from source to target.
func HasArc(g Graph, source, target int) bool {
	if source < 0 || source >= g.NumNodes() || target < 0 {
		return false
	}
	succ := g.Successors(source)

	// binary search, successors are sorted
	lo, hi := 0, len(succ)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if int(succ[mid]) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo < len(succ) && int(succ[lo]) == target
}
