package cgraph

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Map renumbers the nodes of g.
// Every arc (u -> v) of g becomes an arc (perm[u] -> perm[v]) of the returned graph.
//
// perm must be a bijection on [0, g.NumNodes()).
// Map only checks that values are in range, repeated values produce an undefined graph.
func Map(g Graph, perm []int) (*Immutable, error) {
	n := g.NumNodes()
	if len(perm) != n {
		return nil, fmt.Errorf("Map: permutation of length %d for %d nodes", len(perm), n)
	}

	// count the outdegree of every node in the new numbering
	offsets := make([]int64, n+1)
	for node := 0; node < n; node++ {
		target := perm[node]
		if target < 0 || target >= n {
			return nil, fmt.Errorf("Map: %w: %d maps to %d", ErrNodeRange, node, target)
		}
		offsets[target+1] = int64(g.Outdegree(node))
	}
	for node := 0; node < n; node++ {
		offsets[node+1] += offsets[node]
	}

	successors := make([]uint32, offsets[n])
	for node := 0; node < n; node++ {
		dest := successors[offsets[perm[node]]:offsets[perm[node]+1]]
		for i, succ := range g.Successors(node) {
			dest[i] = uint32(perm[succ])
		}
		slices.Sort(dest)
	}

	return &Immutable{offsets: offsets, successors: successors}, nil
}

// Transpose returns the graph with every arc of g reversed.
func Transpose(g Graph) *Immutable {
	n := g.NumNodes()

	// count the indegree of every node
	offsets := make([]int64, n+1)
	for node := 0; node < n; node++ {
		for _, succ := range g.Successors(node) {
			offsets[succ+1]++
		}
	}
	for node := 0; node < n; node++ {
		offsets[node+1] += offsets[node]
	}

	// sources are visited in ascending order, so every list comes out sorted
	fill := make([]int64, n)
	copy(fill, offsets[:n])

	successors := make([]uint32, offsets[n])
	for node := 0; node < n; node++ {
		for _, succ := range g.Successors(node) {
			successors[fill[succ]] = uint32(node)
			fill[succ]++
		}
	}

	return &Immutable{offsets: offsets, successors: successors}
}
