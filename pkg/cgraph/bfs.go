package cgraph

import (
	"errors"
	"fmt"
)

// Permuter computes a renumbering of the nodes of a graph.
//
// The returned permutation perm moves node x to perm[x].
// It must be a bijection on [0, g.NumNodes()) that maps nodes below boundary
// to [0, boundary) and all other nodes to [boundary, g.NumNodes()).
type Permuter interface {
	Permutation(g Graph, boundary int) ([]int, error)
}

// BFS is a Permuter that numbers nodes in breadth-first visiting order.
//
// Visits start at every unvisited node in ascending order, so nodes below the boundary
// are used as roots first.
// Nodes below and above the boundary are numbered using separate counters,
// which keeps the two parts separated.
type BFS struct{}

func (BFS) Permutation(g Graph, boundary int) ([]int, error) {
	n := g.NumNodes()
	if boundary < 0 || boundary > n {
		return nil, fmt.Errorf("%w: %d for %d nodes", ErrBoundary, boundary, n)
	}

	perm := make([]int, n)
	visited := make([]bool, n)
	queue := make([]int, 0, n)

	nextInternal, nextExternal := 0, boundary
	for root := 0; root < n; root++ {
		if visited[root] {
			continue
		}

		visited[root] = true
		queue = append(queue[:0], root)

		for head := 0; head < len(queue); head++ {
			node := queue[head]
			if node < boundary {
				perm[node] = nextInternal
				nextInternal++
			} else {
				perm[node] = nextExternal
				nextExternal++
			}

			for _, succ := range g.Successors(node) {
				if !visited[succ] {
					visited[succ] = true
					queue = append(queue, int(succ))
				}
			}
		}
	}

	return perm, nil
}

// Identity is a Permuter that keeps every node in place.
type Identity struct{}

func (Identity) Permutation(g Graph, boundary int) ([]int, error) {
	n := g.NumNodes()
	if boundary < 0 || boundary > n {
		return nil, fmt.Errorf("%w: %d for %d nodes", ErrBoundary, boundary, n)
	}

	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	return perm, nil
}

var errUnknownPermuter = errors.New("unknown permuter")

// ParsePermuter returns the permuter with the given name, either "bfs" or "identity".
func ParsePermuter(name string) (Permuter, error) {
	switch name {
	case "bfs":
		return BFS{}, nil
	case "identity":
		return Identity{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownPermuter, name)
	}
}
