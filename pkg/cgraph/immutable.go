package cgraph

// Immutable is a graph in compressed sparse row form.
// The successors of node u are successors[offsets[u]:offsets[u+1]].
type Immutable struct {
	offsets    []int64
	successors []uint32
}

func (g *Immutable) NumNodes() int {
	if len(g.offsets) == 0 {
		return 0
	}
	return len(g.offsets) - 1
}

func (g *Immutable) NumArcs() int64 {
	return int64(len(g.successors))
}

func (g *Immutable) Successors(node int) []uint32 {
	return g.successors[g.offsets[node]:g.offsets[node+1]:g.offsets[node+1]]
}

func (g *Immutable) Outdegree(node int) int {
	return int(g.offsets[node+1] - g.offsets[node])
}
